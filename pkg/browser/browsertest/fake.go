// Package browsertest provides scripted in-memory browser pages for tests.
package browsertest

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/devraulu/martiball/pkg/browser"
)

// Page is a browser.Page whose behaviour is scripted by the func fields.
// Nil funcs succeed with zero values.
type Page struct {
	NavigateFunc func(url string, attempt int) error
	WaitFunc     func(url, sel string) error
	HTMLFunc     func(url string, clicks int) string
	// EvalFunc's result is JSON round-tripped into Evaluate's out.
	EvalFunc  func(url, expr string, call int) (any, error)
	ClickFunc func(url string, clicks int) (bool, error)

	mu       sync.Mutex
	url      string
	clicks   int
	evals    int
	attempts map[string]int
	visited  []string
	closed   bool
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	if p.attempts == nil {
		p.attempts = make(map[string]int)
	}
	p.attempts[url]++
	attempt := p.attempts[url]
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if p.NavigateFunc != nil {
		if err := p.NavigateFunc(url, attempt); err != nil {
			return err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	p.clicks = 0
	p.evals = 0
	p.visited = append(p.visited, url)
	return nil
}

func (p *Page) wait(sel string) error {
	if p.WaitFunc == nil {
		return nil
	}
	return p.WaitFunc(p.URL(), sel)
}

func (p *Page) WaitPresent(ctx context.Context, sel string, timeout time.Duration) error {
	return p.wait(sel)
}

func (p *Page) WaitVisible(ctx context.Context, sel string, timeout time.Duration) error {
	return p.wait(sel)
}

func (p *Page) OuterHTML(ctx context.Context, sel string) (string, error) {
	if p.HTMLFunc == nil {
		return "<html></html>", nil
	}
	p.mu.Lock()
	url, clicks := p.url, p.clicks
	p.mu.Unlock()
	return p.HTMLFunc(url, clicks), nil
}

func (p *Page) Evaluate(ctx context.Context, expr string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	url, call := p.url, p.evals
	p.evals++
	p.mu.Unlock()

	var v any
	if p.EvalFunc != nil {
		var err error
		if v, err = p.EvalFunc(url, expr, call); err != nil {
			return err
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (p *Page) ClickButtonText(ctx context.Context, words []string, timeout time.Duration) (bool, error) {
	if p.ClickFunc == nil {
		return false, nil
	}
	p.mu.Lock()
	url, clicks := p.url, p.clicks
	p.mu.Unlock()

	ok, err := p.ClickFunc(url, clicks)
	if ok && err == nil {
		p.mu.Lock()
		p.clicks++
		p.mu.Unlock()
	}
	return ok, err
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Visited() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.visited...)
}

func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Launcher hands out pages built by New, or Err if set.
type Launcher struct {
	New func() *Page
	Err error

	mu    sync.Mutex
	pages []*Page
}

func (l *Launcher) NewPage(ctx context.Context) (browser.Page, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	p := &Page{}
	if l.New != nil {
		p = l.New()
	}
	l.mu.Lock()
	l.pages = append(l.pages, p)
	l.mu.Unlock()
	return p, nil
}

func (l *Launcher) Pages() []*Page {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Page(nil), l.pages...)
}
