package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	frontier "github.com/devraulu/martiball/pkg"
	"github.com/devraulu/martiball/pkg/browser"
	"github.com/devraulu/martiball/pkg/browser/browsertest"
	"github.com/devraulu/martiball/pkg/config"
	"github.com/devraulu/martiball/pkg/retry"
	"github.com/devraulu/martiball/pkg/storage"
)

const (
	listingA = "https://www.oefb.at/bewerbe/Bewerb/Spielplan/226635?Wiener-Stadtliga"
	listingB = "https://www.oefb.at/bewerbe/Bewerb/Spielplan/226684?2-Landesliga"
	listingC = "https://www.oefb.at/bewerbe/Bewerb/Spielplan/226695?Oberliga-A"
)

type memLinks struct {
	mu      sync.Mutex
	initial map[string]struct{}
	rows    []storage.DiscoveredLink
	failOn  string
}

func (m *memLinks) Load(context.Context) (map[string]struct{}, error) {
	return m.initial, nil
}

func (m *memLinks) Append(_ context.Context, l storage.DiscoveredLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.Href == m.failOn {
		return errors.New("disk full")
	}
	m.rows = append(m.rows, l)
	return nil
}

func (m *memLinks) Close() error { return nil }

func (m *memLinks) hrefs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r.Href)
	}
	return out
}

func schedule(hrefs ...string) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><a href="/bewerbe/Spiel/999">nav</a><div class="schedule_table">`)
	for _, h := range hrefs {
		fmt.Fprintf(&sb, `<a href="%s">x</a>`, h)
	}
	sb.WriteString(`</div></body></html>`)
	return sb.String()
}

func newTestCrawler(page *browsertest.Page, store storage.LinkStore) *Crawler {
	c := New(config.Default(), &browsertest.Launcher{New: func() *browsertest.Page { return page }}, frontier.NewFrontier(), store)
	c.nav = retry.Policy{Attempts: 3}
	c.clickPause = func() time.Duration { return 0 }
	c.staleWait = 0
	c.now = func() time.Time { return time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC) }
	return c
}

func TestCrawler_Run(t *testing.T) {
	staleOnce := true
	page := &browsertest.Page{
		NavigateFunc: func(url string, attempt int) error {
			if url == listingC && attempt < 3 {
				return errors.New("net::ERR_CONNECTION_RESET")
			}
			return nil
		},
		WaitFunc: func(url, sel string) error {
			if url == listingB {
				return browser.ErrTimeout
			}
			return nil
		},
		HTMLFunc: func(url string, clicks int) string {
			switch url {
			case listingA:
				hrefs := []string{
					"/bewerbe/Spiel/Spielbericht/1?A-B",
					"/bewerbe/Verein/5?SC-Test",
					"https://www.example.com/bewerbe/Spiel/7",
				}
				if clicks >= 1 {
					hrefs = append(hrefs, "/bewerbe/Spiel/2?C-D")
				}
				return schedule(hrefs...)
			case listingC:
				return schedule("/bewerbe/Spiel/1?A-B", "/bewerbe/Spiel/9?old", "/bewerbe/Spiel/3?E-F")
			}
			return schedule()
		},
		ClickFunc: func(url string, clicks int) (bool, error) {
			if url != listingA {
				return false, nil
			}
			switch clicks {
			case 0:
				return true, nil
			case 1:
				if staleOnce {
					staleOnce = false
					return false, browser.ErrStale
				}
				return true, nil
			}
			return false, nil
		},
	}

	store := &memLinks{initial: map[string]struct{}{"https://www.oefb.at/bewerbe/Spiel/9?old": {}}}
	c := newTestCrawler(page, store)

	err := c.Run(context.Background(), []string{listingA, listingB, listingC})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://www.oefb.at/bewerbe/Spiel/1?A-B",
		"https://www.oefb.at/bewerbe/Spiel/2?C-D",
		"https://www.oefb.at/bewerbe/Spiel/3?E-F",
	}, store.hrefs())

	assert.Equal(t, listingA, store.rows[0].SourceURL)
	assert.Equal(t, listingA, store.rows[1].SourceURL)
	assert.Equal(t, listingC, store.rows[2].SourceURL)
	assert.Equal(t, time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC), store.rows[0].FirstSeen)

	assert.Equal(t, 2, c.Stats.ListingsDone)
	assert.Equal(t, 1, c.Stats.ListingsFailed)
	assert.Equal(t, 3, c.Stats.LinksNew)
	assert.Equal(t, 2, c.Stats.Clicks)
	assert.True(t, page.Closed())
}

func TestCrawler_RunTwiceAddsNothing(t *testing.T) {
	page := &browsertest.Page{
		HTMLFunc: func(string, int) string {
			return schedule("/bewerbe/Spiel/1?A-B", "/bewerbe/Spiel/2?C-D")
		},
	}
	store := &memLinks{}
	require.NoError(t, newTestCrawler(page, store).Run(context.Background(), []string{listingA}))
	require.Len(t, store.rows, 2)

	resumed := &memLinks{initial: map[string]struct{}{}}
	for _, h := range store.hrefs() {
		resumed.initial[h] = struct{}{}
	}
	require.NoError(t, newTestCrawler(page, resumed).Run(context.Background(), []string{listingA}))
	assert.Empty(t, resumed.rows)
}

func TestCrawler_MaxClicks(t *testing.T) {
	page := &browsertest.Page{
		HTMLFunc:  func(string, int) string { return schedule("/bewerbe/Spiel/1") },
		ClickFunc: func(string, int) (bool, error) { return true, nil },
	}
	c := newTestCrawler(page, &memLinks{})
	c.maxClicks = 5

	require.NoError(t, c.Run(context.Background(), []string{listingA}))
	assert.Equal(t, 5, c.Stats.Clicks)
}

func TestCrawler_AppendFailureFailsListing(t *testing.T) {
	page := &browsertest.Page{
		HTMLFunc: func(string, int) string {
			return schedule("/bewerbe/Spiel/1", "/bewerbe/Spiel/2")
		},
	}
	store := &memLinks{failOn: "https://www.oefb.at/bewerbe/Spiel/2"}
	c := newTestCrawler(page, store)

	require.NoError(t, c.Run(context.Background(), []string{listingA}))
	assert.Equal(t, []string{"https://www.oefb.at/bewerbe/Spiel/1"}, store.hrefs())
	assert.Equal(t, 1, c.Stats.ListingsFailed)
	assert.False(t, c.frontier.Has("https://www.oefb.at/bewerbe/Spiel/2"), "failed link can be retried")
}

func TestCrawler_LaunchFailure(t *testing.T) {
	c := New(config.Default(), &browsertest.Launcher{Err: errors.New("chrome not found")}, frontier.NewFrontier(), &memLinks{})
	err := c.Run(context.Background(), []string{listingA})
	assert.ErrorContains(t, err, "chrome not found")
}

func TestCrawler_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	page := &browsertest.Page{}
	c := newTestCrawler(page, &memLinks{})
	err := c.Run(ctx, []string{listingA, listingB})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, page.Visited())
}
