package cli

import (
	"github.com/spf13/cobra"

	"github.com/devraulu/martiball/pkg/config"
	"github.com/devraulu/martiball/pkg/feed"
)

type feedOptions struct {
	common
	in   string
	out  string
	name string
}

func NewFeedCmd() *cobra.Command {
	o := &feedOptions{}
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Render the clean fixture CSV as the website's JSON feed",
		RunE:  o.run,
	}

	o.register(cmd)
	f := cmd.Flags()
	f.StringVar(&o.in, "in", "results/martiballtermine_wien.csv", "Clean fixture CSV")
	f.StringVar(&o.out, "out", "results/martiball_spiele.json", "Output JSON file")
	f.StringVar(&o.name, "feed-name", feed.DefaultName, "Top-level key of the JSON document")

	return cmd
}

func (o *feedOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	override(cmd, "in", &cfg.Feed.InFile, o.in)
	override(cmd, "out", &cfg.Feed.OutFile, o.out)
	override(cmd, "feed-name", &cfg.Feed.FeedName, o.name)
}

func (o *feedOptions) run(cmd *cobra.Command, args []string) error {
	cfg, err := o.setup("feed")
	if err != nil {
		return err
	}
	o.apply(cmd, cfg)

	_, err = feed.Write(cfg.Feed.InFile, cfg.Feed.OutFile, cfg.Feed.FeedName)
	return err
}
