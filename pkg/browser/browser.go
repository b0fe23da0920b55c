// Package browser is the small slice of a scriptable browser the crawler and
// the miner need. Chrome implements it with chromedp; tests use fakes.
package browser

import (
	"context"
	"errors"
	"os"
	"time"
)

var (
	// ErrTimeout is returned when a wait or poll runs out of time.
	ErrTimeout = errors.New("browser: timed out")
	// ErrStale is returned when an element vanished between finding and using it.
	ErrStale = errors.New("browser: stale element")
)

// Launcher starts isolated browser sessions.
type Launcher interface {
	NewPage(ctx context.Context) (Page, error)
}

// Page is one browser session with a single tab.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// WaitPresent waits until sel matches an element in the DOM.
	WaitPresent(ctx context.Context, sel string, timeout time.Duration) error
	// WaitVisible waits until sel matches a rendered, visible element.
	WaitVisible(ctx context.Context, sel string, timeout time.Duration) error
	OuterHTML(ctx context.Context, sel string) (string, error)
	// Evaluate runs a JavaScript expression and decodes its result into out.
	Evaluate(ctx context.Context, expr string, out any) error
	// ClickButtonText clicks the first enabled, visible button whose text
	// contains one of words. It reports false if none showed up within timeout.
	ClickButtonText(ctx context.Context, words []string, timeout time.Duration) (bool, error)
	Close() error
}

// Poll calls fn every interval until it reports done, fails, or timeout
// passes. On timeout it returns the last value together with ErrTimeout.
func Poll[T any](ctx context.Context, timeout, interval time.Duration, fn func(context.Context) (T, bool, error)) (T, error) {
	deadline := time.Now().Add(timeout)
	for {
		v, done, err := fn(ctx)
		if err != nil {
			return v, err
		}
		if done {
			return v, nil
		}
		if !time.Now().Before(deadline) {
			return v, ErrTimeout
		}

		wait := interval
		if left := time.Until(deadline); left < wait {
			wait = left
		}
		select {
		case <-ctx.Done():
			return v, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// ResolveExecPath picks the Chrome binary: the configured path, then
// $CHROME_BIN, then $GOOGLE_CHROME_SHIM. Empty means let chromedp search.
func ResolveExecPath(configured string) string {
	if configured != "" {
		return configured
	}
	if p := os.Getenv("CHROME_BIN"); p != "" {
		return p
	}
	return os.Getenv("GOOGLE_CHROME_SHIM")
}
