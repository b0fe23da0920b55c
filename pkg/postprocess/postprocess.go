// Package postprocess turns raw miner output into the cleaned, city-filtered
// fixture list and a side list of fixtures without coordinates.
package postprocess

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/devraulu/martiball/pkg/storage"
)

var CompetitionLabels = map[string]string{
	"Österreichische Fußball-Bundesliga": "ADMIRAL Bundesliga",
}

var GenderLabels = map[string]string{
	"Mann": "Männer",
	"Frau": "Frauen",
}

// Correction pins the coordinates of every fixture hosted by HomeTeam.
type Correction struct {
	HomeTeam  string
	Latitude  float64
	Longitude float64
}

// DefaultCorrections cover venues the site locates wrongly.
var DefaultCorrections = []Correction{
	{HomeTeam: "Gersthofer SV", Latitude: 48.225324870552456, Longitude: 16.328420452719126},
}

type Options struct {
	InFile      string
	OutFile     string
	FailsFile   string
	TargetCity  string
	Corrections []Correction
}

type Result struct {
	In    int
	Kept  int
	Fails int
}

// Run reads the miner CSV, writes the clean CSV and the fails CSV. The fails
// file is written even when empty. Errors are logged before being returned.
func Run(ctx context.Context, opts Options) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	res, err := run(opts)
	if err != nil {
		slog.Error("post-processing failed", slog.String("in", opts.InFile), slog.Any("err", err))
	}
	return res, err
}

func run(opts Options) (Result, error) {
	var res Result

	records, err := storage.ReadMatches(opts.InFile)
	if err != nil {
		return res, fmt.Errorf("reading %s: %w", opts.InFile, err)
	}
	res.In = len(records)

	clean, fails := Process(records, opts.TargetCity, opts.Corrections)
	res.Kept, res.Fails = len(clean), len(fails)

	if err := storage.WriteClean(opts.FailsFile, fails); err != nil {
		return res, fmt.Errorf("writing fails: %w", err)
	}
	if err := storage.WriteClean(opts.OutFile, clean); err != nil {
		return res, fmt.Errorf("writing output: %w", err)
	}

	slog.Info("post-processing done",
		slog.String("in", opts.InFile),
		slog.Int("rows_in", res.In),
		slog.Int("rows_kept", res.Kept),
		slog.String("out", opts.OutFile),
		slog.Int("fails", res.Fails),
		slog.String("fails_file", opts.FailsFile),
	)
	return res, nil
}

// Process relabels, parses addresses, keeps fixtures in targetCity, sorts
// them by kickoff with unknown kickoffs last and applies corrections. fails
// holds the kept fixtures that have neither latitude nor longitude.
func Process(records []storage.MatchRecord, targetCity string, corrections []Correction) (clean, fails []storage.CleanRecord) {
	fold := cases.Fold()
	target := fold.String(targetCity)

	clean = make([]storage.CleanRecord, 0, len(records))
	for _, r := range records {
		addr := ExtractAddressParts(r.Address)
		if addr.City == "" || !strings.Contains(fold.String(addr.City), target) {
			continue
		}

		clean = append(clean, storage.CleanRecord{
			Kickoff:     r.Kickoff,
			Competition: relabel(CompetitionLabels, r.Competition),
			Gender:      relabel(GenderLabels, r.Gender),
			Round:       r.Round,
			HomeTeam:    r.HomeTeam,
			AwayTeam:    r.AwayTeam,
			VenueName:   r.VenueName,
			Street:      addr.Street,
			PostalCode:  addr.PostalCode,
			City:        addr.City,
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
			Source:      r.Source,
		})
	}

	sort.SliceStable(clean, func(i, j int) bool {
		a, b := clean[i].Kickoff, clean[j].Kickoff
		if a.IsZero() || b.IsZero() {
			return !a.IsZero() && b.IsZero()
		}
		return a.Before(b)
	})

	for i := range clean {
		for _, c := range corrections {
			if clean[i].HomeTeam == c.HomeTeam {
				clean[i].Latitude = storage.Float(c.Latitude)
				clean[i].Longitude = storage.Float(c.Longitude)
			}
		}
	}

	fails = []storage.CleanRecord{}
	for _, r := range clean {
		if !r.HasCoordinates() {
			fails = append(fails, r)
		}
	}
	return clean, fails
}

func relabel(labels map[string]string, v string) string {
	if mapped, ok := labels[v]; ok {
		return mapped
	}
	return v
}
