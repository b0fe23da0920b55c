package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/devraulu/martiball/pkg/browser"
	"github.com/devraulu/martiball/pkg/process"
	"github.com/devraulu/martiball/pkg/retry"
	"github.com/devraulu/martiball/pkg/storage"
)

func (c *Crawler) crawlListing(ctx context.Context, page browser.Page, url string) (ListingResult, error) {
	res := ListingResult{URL: url}

	err := retry.Run(ctx, c.nav, "navigate "+url, func(ctx context.Context) error {
		return page.Navigate(ctx, url)
	})
	if err != nil {
		return res, fmt.Errorf("navigating: %w", err)
	}

	if err := page.WaitPresent(ctx, ScheduleSelector, c.tableTimeout); err != nil {
		return res, err
	}
	slog.Debug("schedule table present", slog.String("url", url))

	if err := c.collect(ctx, page, url, &res); err != nil {
		return res, err
	}

	for res.Clicks < c.maxClicks {
		clicked, err := page.ClickButtonText(ctx, LoadMoreWords, c.buttonTimeout)
		if errors.Is(err, browser.ErrStale) {
			if err := sleep(ctx, c.staleWait); err != nil {
				return res, err
			}
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			slog.Warn("load more failed, keeping what we have", slog.String("url", url), slog.Any("err", err))
			break
		}
		if !clicked {
			slog.Debug("no more load buttons", slog.String("url", url), slog.Int("clicks", res.Clicks))
			break
		}

		res.Clicks++
		if err := sleep(ctx, c.clickPause()); err != nil {
			return res, err
		}
		if err := c.collect(ctx, page, url, &res); err != nil {
			return res, err
		}
	}

	return res, nil
}

// collect reads the current schedule table and appends every link not seen
// before. Found is the largest number of valid links visible at once.
func (c *Crawler) collect(ctx context.Context, page browser.Page, url string, res *ListingResult) error {
	doc, err := page.OuterHTML(ctx, "html")
	if err != nil {
		return fmt.Errorf("reading page: %w", err)
	}

	links, err := process.ExtractLinks(strings.NewReader(doc), url, ScheduleSelector)
	if err != nil {
		return fmt.Errorf("parsing page: %w", err)
	}
	hrefs := c.filter.Apply(links)
	res.Found = max(res.Found, len(hrefs))

	for _, href := range hrefs {
		if !c.frontier.Push(href, url) {
			continue
		}
		link := storage.DiscoveredLink{Href: href, SourceURL: url, FirstSeen: c.now().UTC()}
		if err := c.store.Append(ctx, link); err != nil {
			c.frontier.Forget(href)
			return fmt.Errorf("saving %s: %w", href, err)
		}
		res.New++
		c.Stats.LinksNew++
		slog.Debug("new link", slog.String("href", href), slog.String("source", url))
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
