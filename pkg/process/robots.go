package process

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/benjaminestes/robots"
)

// RobotsChecker answers robots.txt questions for one user agent, fetching
// each host's robots.txt once.
type RobotsChecker struct {
	client    *http.Client
	userAgent string

	mu    sync.Mutex
	cache map[string]*robots.Robots
}

func NewRobotsChecker(userAgent string) *RobotsChecker {
	return &RobotsChecker{
		client:    &http.Client{Timeout: 10 * time.Second},
		userAgent: userAgent,
		cache:     make(map[string]*robots.Robots),
	}
}

// Allowed reports whether url may be fetched. Anything that prevents reading
// robots.txt counts as allowed.
func (c *RobotsChecker) Allowed(url string) bool {
	r := c.lookup(url)
	if r == nil {
		return true
	}
	return r.Test(c.userAgent, url)
}

func (c *RobotsChecker) lookup(url string) (r *robots.Robots) {
	defer func() {
		if p := recover(); p != nil {
			slog.Warn("panic in robots.txt parsing, assuming allowed", slog.String("url", url), slog.Any("panic", p))
			r = nil
		}
	}()

	robotsURL, err := robots.Locate(url)
	if err != nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.cache[robotsURL]; ok {
		return r
	}

	r, err = c.fetch(robotsURL)
	if err != nil {
		slog.Warn("failed to fetch robots.txt", slog.String("url", robotsURL), slog.Any("err", err))
		c.cache[robotsURL] = nil
		return nil
	}

	c.cache[robotsURL] = r
	return r
}

func (c *RobotsChecker) fetch(url string) (*robots.Robots, error) {
	resp, err := c.client.Get(url)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	slog.Debug("robots.txt response",
		slog.String("url", url),
		slog.Int("status_code", resp.StatusCode),
		slog.Int("body_length", len(body)),
	)

	return robots.From(resp.StatusCode, bytes.NewReader(body))
}
