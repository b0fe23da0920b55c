package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

type Options struct {
	Headless        bool
	ExecPath        string
	UserAgent       string
	PageLoadTimeout time.Duration
}

// Chrome launches a separate Chrome process for every page, so sessions
// share no cookies, cache or JavaScript state.
type Chrome struct {
	opts     Options
	allocCtx context.Context
	cancel   context.CancelFunc
}

func NewChrome(opts Options) *Chrome {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.PageLoadTimeout <= 0 {
		opts.PageLoadTimeout = 60 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("remote-allow-origins", "*"),
		chromedp.Flag("lang", "de-DE,de"),
		chromedp.WindowSize(1280, 900),
		chromedp.UserAgent(opts.UserAgent),
	)
	if path := ResolveExecPath(opts.ExecPath); path != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(path))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	return &Chrome{opts: opts, allocCtx: allocCtx, cancel: cancel}
}

func (c *Chrome) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tabCtx, cancel := chromedp.NewContext(c.allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			slog.Debug("chromedp", slog.String("msg", fmt.Sprintf(format, args...)))
		}),
	)

	// The first Run starts the browser and ties its lifetime to the context
	// it is given, so it must be the tab context itself.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	p := &chromePage{ctx: tabCtx, cancel: cancel, loadTimeout: c.opts.PageLoadTimeout}
	err := p.run(ctx, c.opts.PageLoadTimeout,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": "de-DE,de;q=0.9"}),
		emulation.SetTimezoneOverride("Europe/Vienna"),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("configuring browser: %w", err)
	}
	return p, nil
}

// Close shuts down the allocator and any browser still running.
func (c *Chrome) Close() {
	c.cancel()
}

type chromePage struct {
	ctx         context.Context
	cancel      context.CancelFunc
	loadTimeout time.Duration
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx.
func (p *chromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	return err
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, p.loadTimeout, chromedp.Navigate(url))
}

func (p *chromePage) WaitPresent(ctx context.Context, sel string, timeout time.Duration) error {
	if err := p.run(ctx, timeout, chromedp.WaitReady(sel, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("waiting for %s: %w", sel, err)
	}
	return nil
}

func (p *chromePage) WaitVisible(ctx context.Context, sel string, timeout time.Duration) error {
	if err := p.run(ctx, timeout, chromedp.WaitVisible(sel, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("waiting for visible %s: %w", sel, err)
	}
	return nil
}

func (p *chromePage) OuterHTML(ctx context.Context, sel string) (string, error) {
	var html string
	if err := p.run(ctx, p.loadTimeout, chromedp.OuterHTML(sel, &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (p *chromePage) Evaluate(ctx context.Context, expr string, out any) error {
	return p.run(ctx, p.loadTimeout, chromedp.Evaluate(expr, out))
}

const clickScript = `(() => {
	const words = %s;
	const btn = Array.from(document.querySelectorAll('button')).find(b =>
		!b.disabled && b.offsetParent !== null &&
		words.some(w => (b.textContent || '').includes(w)));
	if (!btn) return 'none';
	if (!btn.isConnected) return 'stale';
	try {
		btn.scrollIntoView({block: 'center'});
		btn.click();
	} catch (e) {
		return 'stale';
	}
	return 'clicked';
})()`

func (p *chromePage) ClickButtonText(ctx context.Context, words []string, timeout time.Duration) (bool, error) {
	encoded, err := json.Marshal(words)
	if err != nil {
		return false, err
	}
	script := fmt.Sprintf(clickScript, encoded)

	state, err := Poll(ctx, timeout, 250*time.Millisecond, func(ctx context.Context) (string, bool, error) {
		var state string
		if err := p.Evaluate(ctx, script, &state); err != nil {
			return "", false, err
		}
		return state, state != "none", nil
	})
	switch {
	case errors.Is(err, ErrTimeout):
		return false, nil
	case err != nil:
		return false, err
	case state == "stale":
		return false, ErrStale
	}
	return true, nil
}

func (p *chromePage) Close() error {
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	return err
}
