package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	frontier "github.com/devraulu/martiball/pkg"
	"github.com/devraulu/martiball/pkg/browser"
	"github.com/devraulu/martiball/pkg/config"
	"github.com/devraulu/martiball/pkg/process"
	"github.com/devraulu/martiball/pkg/retry"
	"github.com/devraulu/martiball/pkg/storage"
)

const ScheduleSelector = "div.schedule_table"

// LoadMoreWords are the button captions that reveal further fixtures.
var LoadMoreWords = []string{"Mehr", "Load", "Show", "Weitere"}

type Crawler struct {
	launcher browser.Launcher
	frontier *frontier.Frontier
	store    storage.LinkStore
	robots   *process.RobotsChecker
	filter   process.LinkFilter

	tableTimeout  time.Duration
	maxClicks     int
	buttonTimeout time.Duration
	staleWait     time.Duration
	clickPause    func() time.Duration
	nav           retry.Policy
	now           func() time.Time

	Stats CrawlStats
}

func New(cfg *config.Config, l browser.Launcher, f *frontier.Frontier, s storage.LinkStore) *Crawler {
	c := &Crawler{
		launcher: l,
		frontier: f,
		store:    s,
		filter: process.LinkFilter{
			Domain:        cfg.Crawler.Domain,
			ExcludeMarker: cfg.Crawler.ExcludeMarker,
		},
		tableTimeout:  cfg.Crawler.GetTableTimeout(),
		maxClicks:     cfg.Crawler.MaxClicks,
		buttonTimeout: 2 * time.Second,
		staleWait:     500 * time.Millisecond,
		clickPause: func() time.Duration {
			return 800*time.Millisecond + rand.N(400*time.Millisecond)
		},
		nav: retry.Navigation,
		now: time.Now,
	}
	if cfg.Crawler.RespectRobots {
		ua := cfg.Browser.UserAgent
		if ua == "" {
			ua = browser.DefaultUserAgent
		}
		c.robots = process.NewRobotsChecker(ua)
	}
	return c
}

// Run visits every listing URL in order with one browser session and appends
// each newly discovered match link to the store as soon as it is seen. A
// listing that fails is logged and skipped.
func (c *Crawler) Run(ctx context.Context, urls []string) error {
	c.Stats.StartTime = time.Now()

	existing, err := c.store.Load(ctx)
	if err != nil {
		slog.Warn("could not read existing links, starting with an empty set", slog.Any("err", err))
		existing = nil
	}
	c.frontier.Seed(existing)

	page, err := c.launcher.NewPage(ctx)
	if err != nil {
		return fmt.Errorf("opening browser: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			slog.Debug("closing browser", slog.Any("err", err))
		}
	}()

	for _, url := range urls {
		if ctx.Err() != nil {
			break
		}

		if c.robots != nil && !c.robots.Allowed(url) {
			c.Stats.ListingsSkipped++
			slog.Info("robots.txt disallowed", slog.String("url", url))
			continue
		}

		res, err := c.crawlListing(ctx, page, url)
		c.Stats.Clicks += res.Clicks
		c.Stats.LinksFound += res.Found
		if err != nil {
			c.Stats.ListingsFailed++
			slog.Error("listing failed", slog.String("url", url), slog.Int("new", res.New), slog.Any("err", err))
			continue
		}

		c.Stats.ListingsDone++
		slog.Info("listing done",
			slog.String("url", url),
			slog.Int("found", res.Found),
			slog.Int("new", res.New),
			slog.Int("clicks", res.Clicks),
		)
	}

	slog.Info("crawl complete",
		slog.Int("listings", c.Stats.ListingsDone),
		slog.Int("failed", c.Stats.ListingsFailed),
		slog.Int("skipped", c.Stats.ListingsSkipped),
		slog.Int("new_links", c.Stats.LinksNew),
		slog.Int("known_links", c.frontier.Len()),
		slog.Duration("elapsed", c.Stats.Elapsed()),
		slog.Float64("links_per_sec", c.Stats.LinksPerSecond()),
	)
	return ctx.Err()
}
