package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	frontier "github.com/devraulu/martiball/pkg"
	"github.com/devraulu/martiball/pkg/config"
	"github.com/devraulu/martiball/pkg/crawler"
	"github.com/devraulu/martiball/pkg/storage"
)

const (
	DefaultLinksFile = "oefb_links_gesamt.csv"

	staleLockAge = time.Hour
)

type crawlOptions struct {
	common
	urls          []string
	seeds         string
	outDir        string
	outFile       string
	fresh         bool
	noHeadless    bool
	lockWait      string
	respectRobots bool
}

func NewCrawlCmd() *cobra.Command {
	o := &crawlOptions{}
	cmd := &cobra.Command{
		Use:   "crawler",
		Short: "Collect match links from ÖFB schedule pages",
		Long: `Visits each schedule page, expands it with its "load more" buttons and
appends every new match link to a CSV as soon as it is found. Existing
links in the CSV are skipped unless --fresh is given.`,
		RunE: o.run,
	}

	o.register(cmd)
	f := cmd.Flags()
	f.StringSliceVar(&o.urls, "urls", nil, "Schedule URLs to crawl (default: seeds file or built-in list)")
	f.StringVar(&o.seeds, "seeds", "", "File with one schedule URL per line")
	f.StringVar(&o.outDir, "out", ".", "Output directory")
	f.StringVar(&o.outFile, "outfile", "", "Explicit output CSV path (overrides --out)")
	f.BoolVar(&o.fresh, "fresh", false, "Delete the existing CSV instead of resuming")
	f.BoolVar(&o.noHeadless, "no-headless", false, "Show the browser window")
	f.StringVar(&o.lockWait, "lock-wait", "30s", "How long to wait for another crawler's lock")
	f.BoolVar(&o.respectRobots, "respect-robots", false, "Skip schedule pages disallowed by robots.txt")

	return cmd
}

func (o *crawlOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	override(cmd, "urls", &cfg.Crawler.URLs, o.urls)
	override(cmd, "seeds", &cfg.Crawler.SeedsFile, o.seeds)
	override(cmd, "out", &cfg.Crawler.OutDir, o.outDir)
	override(cmd, "outfile", &cfg.Crawler.OutFile, o.outFile)
	override(cmd, "lock-wait", &cfg.Crawler.LockWait, o.lockWait)
	override(cmd, "respect-robots", &cfg.Crawler.RespectRobots, o.respectRobots)
	if o.noHeadless {
		cfg.Browser.Headless = false
	}
}

// listingURLs picks the schedule pages: --urls, then the seeds file, then
// the config, then the built-in list.
func listingURLs(cmd *cobra.Command, cfg *config.Config) ([]string, error) {
	if cmd.Flags().Changed("urls") && len(cfg.Crawler.URLs) > 0 {
		return cfg.Crawler.URLs, nil
	}
	if cfg.Crawler.SeedsFile != "" {
		return frontier.LoadSeeds(cfg.Crawler.SeedsFile)
	}
	if len(cfg.Crawler.URLs) > 0 {
		return cfg.Crawler.URLs, nil
	}
	return frontier.DefaultListingURLs, nil
}

func (o *crawlOptions) run(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()

	cfg, err := o.setup("crawler")
	if err != nil {
		return err
	}
	o.apply(cmd, cfg)

	urls, err := listingURLs(cmd, cfg)
	if err != nil {
		return fmt.Errorf("listing urls: %w", err)
	}

	out, err := outputPath(cfg.Crawler.OutFile, cfg.Crawler.OutDir, DefaultLinksFile)
	if err != nil {
		return err
	}

	lock, err := storage.AcquireLock(ctx, out+".lock", cfg.Crawler.GetLockWait(), staleLockAge)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, lock.Release())
	}()

	if o.fresh {
		slog.Info("fresh run, removing previous links", slog.String("path", out))
		if err := removeIfExists(out); err != nil {
			return err
		}
	}

	csvStore, err := storage.OpenCSVLinkStore(out)
	if err != nil {
		return err
	}
	var store storage.LinkStore = csvStore

	pg, err := openMirror(cfg)
	if err != nil {
		csvStore.Close()
		return err
	}
	if pg != nil {
		store = storage.TeeLinks(csvStore, pg.Links())
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()

	chrome := newChrome(cfg)
	defer chrome.Close()

	slog.Info("crawl starting",
		slog.Int("listings", len(urls)),
		slog.String("out", filepath.Clean(out)),
		slog.Bool("fresh", o.fresh),
	)
	return crawler.New(cfg, chrome, frontier.NewFrontier(), store).Run(ctx, urls)
}
