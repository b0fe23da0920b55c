package cli

import (
	"github.com/spf13/cobra"

	"github.com/devraulu/martiball/pkg/config"
	"github.com/devraulu/martiball/pkg/postprocess"
)

const (
	DefaultCleanFile = "martiballtermine_wien.csv"
	DefaultFailsFile = "fails.csv"
)

type postOptions struct {
	common
	in        string
	outDir    string
	outFile   string
	failsFile string
	city      string
}

func NewPostCmd() *cobra.Command {
	o := &postOptions{}
	cmd := &cobra.Command{
		Use:   "postprocess",
		Short: "Clean miner output and keep the fixtures played in one city",
		RunE:  o.run,
	}

	o.register(cmd)
	f := cmd.Flags()
	f.StringVar(&o.in, "in", "results/game_miner/spiel_infos.csv", "Miner CSV")
	f.StringVar(&o.outDir, "out", "results/post_processing", "Output directory")
	f.StringVar(&o.outFile, "outfile", "", "Explicit path of the clean CSV")
	f.StringVar(&o.failsFile, "fails", "", "Explicit path of the fails CSV")
	f.StringVar(&o.city, "city", "Wien", "Keep fixtures whose city contains this")

	return cmd
}

func (o *postOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	override(cmd, "in", &cfg.Post.InFile, o.in)
	override(cmd, "out", &cfg.Post.OutDir, o.outDir)
	override(cmd, "outfile", &cfg.Post.OutFile, o.outFile)
	override(cmd, "fails", &cfg.Post.FailsFile, o.failsFile)
	override(cmd, "city", &cfg.Post.TargetCity, o.city)
}

func (o *postOptions) run(cmd *cobra.Command, args []string) error {
	cfg, err := o.setup("postprocess")
	if err != nil {
		return err
	}
	o.apply(cmd, cfg)

	out, err := outputPath(cfg.Post.OutFile, cfg.Post.OutDir, DefaultCleanFile)
	if err != nil {
		return err
	}
	fails, err := outputPath(cfg.Post.FailsFile, cfg.Post.OutDir, DefaultFailsFile)
	if err != nil {
		return err
	}

	_, err = postprocess.Run(cmd.Context(), postprocess.Options{
		InFile:      cfg.Post.InFile,
		OutFile:     out,
		FailsFile:   fails,
		TargetCity:  cfg.Post.TargetCity,
		Corrections: postprocess.DefaultCorrections,
	})
	return err
}
