package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/devraulu/martiball/pkg/config"
	"github.com/devraulu/martiball/pkg/miner"
	"github.com/devraulu/martiball/pkg/storage"
)

const DefaultMatchesFile = "spiel_infos.csv"

// FallbackLinksPath is where CI jobs leave the crawler's output.
var FallbackLinksPath = filepath.Join("results", "fminer", DefaultLinksFile)

type mineOptions struct {
	common
	in         string
	outDir     string
	outFile    string
	workers    int
	flushEvery int
	rateLimit  float64
	fresh      bool
	noHeadless bool
}

func NewMineCmd() *cobra.Command {
	o := &mineOptions{}
	cmd := &cobra.Command{
		Use:   "miner",
		Short: "Extract fixture details from match pages in parallel",
		Long: `Opens every match link from the crawler's CSV in its own browser and writes
date, competition, teams, venue and coordinates to a semicolon separated CSV.
Links already in the output are skipped; failed pages are kept with an error
and not retried.`,
		RunE: o.run,
	}

	o.register(cmd)
	f := cmd.Flags()
	f.StringVar(&o.in, "in", DefaultLinksFile, "Input CSV with an href column")
	f.StringVar(&o.outDir, "out", ".", "Output directory")
	f.StringVar(&o.outFile, "outfile", "", "Explicit output CSV path (overrides --out)")
	f.IntVar(&o.workers, "workers", 10, "Number of parallel browsers")
	f.IntVar(&o.flushEvery, "flush-every", 25, "Save after this many finished pages")
	f.Float64Var(&o.rateLimit, "rate-limit", 0, "Maximum page loads per second (0 = unlimited)")
	f.BoolVar(&o.fresh, "fresh", false, "Delete the existing output instead of resuming")
	f.BoolVar(&o.noHeadless, "no-headless", false, "Show the browser windows")

	return cmd
}

func (o *mineOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	override(cmd, "in", &cfg.Miner.InFile, o.in)
	override(cmd, "out", &cfg.Miner.OutDir, o.outDir)
	override(cmd, "outfile", &cfg.Miner.OutFile, o.outFile)
	override(cmd, "workers", &cfg.Miner.Workers, o.workers)
	override(cmd, "flush-every", &cfg.Miner.FlushEvery, o.flushEvery)
	override(cmd, "rate-limit", &cfg.Miner.RateLimit, o.rateLimit)
	if o.noHeadless {
		cfg.Browser.Headless = false
	}
}

func (o *mineOptions) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := o.setup("miner")
	if err != nil {
		return err
	}
	o.apply(cmd, cfg)

	in, err := firstExisting(cfg.Miner.InFile, FallbackLinksPath)
	if err != nil {
		return err
	}
	links, err := storage.ReadLinks(in)
	if err != nil {
		return fmt.Errorf("reading links: %w", err)
	}

	out, err := outputPath(cfg.Miner.OutFile, cfg.Miner.OutDir, DefaultMatchesFile)
	if err != nil {
		return err
	}
	if o.fresh {
		slog.Info("fresh run, removing previous results", slog.String("path", out))
		if err := removeIfExists(out); err != nil {
			return err
		}
	}

	var store storage.ResultStore = storage.NewCSVMatchStore(out)
	pg, err := openMirror(cfg)
	if err != nil {
		return err
	}
	if pg != nil {
		defer pg.Close()
		store = storage.TeeResults(store, pg.Results())
	}

	chrome := newChrome(cfg)
	defer chrome.Close()

	slog.Info("mining starting",
		slog.String("in", in),
		slog.Int("links", len(links)),
		slog.String("out", out),
		slog.Int("workers", cfg.Miner.Workers),
	)
	return miner.New(cfg, chrome, store).Run(ctx, links)
}
