// Package feed renders the cleaned fixture list as the JSON document the
// website consumes.
package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/devraulu/martiball/pkg/storage"
)

const (
	DefaultName = "martiballtermine_wien"

	// SpieldatumLayout is ISO 8601 without a zone.
	SpieldatumLayout = "2006-01-02T15:04:05"
)

type Entry struct {
	Spieldatum     *string  `json:"Spieldatum"`
	Heimmannschaft string   `json:"Heimmannschaft"`
	Gastmannschaft string   `json:"Gastmannschaft"`
	Typ            string   `json:"Typ"`
	Liga           string   `json:"Liga"`
	Spielort       string   `json:"Spielort"`
	Strasse        string   `json:"Spielort Straße"`
	PLZ            *int     `json:"Spielort PLZ"`
	Ort            string   `json:"Spielort Ort"`
	Latitude       *float64 `json:"Latitude"`
	Longitude      *float64 `json:"Longitude"`
}

// Build sorts records by kickoff, competition and home team (empty values
// last) and converts them to feed entries.
func Build(records []storage.CleanRecord) []Entry {
	sorted := append([]storage.CleanRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if c := compareTime(a, b); c != 0 {
			return c < 0
		}
		if c := compareText(a.Competition, b.Competition); c != 0 {
			return c < 0
		}
		return compareText(a.HomeTeam, b.HomeTeam) < 0
	})

	entries := make([]Entry, 0, len(sorted))
	for _, r := range sorted {
		e := Entry{
			Heimmannschaft: r.HomeTeam,
			Gastmannschaft: r.AwayTeam,
			Typ:            r.Gender,
			Liga:           r.Competition,
			Spielort:       r.VenueName,
			Strasse:        r.Street,
			Ort:            r.City,
			Latitude:       r.Latitude,
			Longitude:      r.Longitude,
		}
		if !r.Kickoff.IsZero() {
			s := r.Kickoff.Format(SpieldatumLayout)
			e.Spieldatum = &s
		}
		if plz, err := strconv.Atoi(strings.TrimSpace(r.PostalCode)); err == nil {
			e.PLZ = &plz
		}
		entries = append(entries, e)
	}
	return entries
}

func compareTime(a, b storage.CleanRecord) int {
	switch {
	case a.Kickoff.IsZero() && b.Kickoff.IsZero():
		return 0
	case a.Kickoff.IsZero():
		return 1
	case b.Kickoff.IsZero():
		return -1
	}
	return a.Kickoff.Compare(b.Kickoff)
}

func compareText(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	return strings.Compare(a, b)
}

// Encode renders {name: entries} with two-space indentation. Non-ASCII and
// HTML characters are written as is.
func Encode(name string, entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string][]Entry{name: entries}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write reads the clean CSV at in and writes the feed document to out.
func Write(in, out, name string) (int, error) {
	if name == "" {
		name = DefaultName
	}

	records, err := storage.ReadClean(in)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", in, err)
	}

	data, err := Encode(name, Build(records))
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return 0, err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return 0, err
	}

	slog.Info("feed written",
		slog.String("in", in),
		slog.String("out", out),
		slog.Int("rows", len(records)),
	)
	return len(records), nil
}
