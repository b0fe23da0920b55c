package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVMatchStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "spiel_infos.csv")
	s := NewCSVMatchStore(path)

	records, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	in := []MatchRecord{
		{
			Kickoff:     time.Date(2025, 8, 1, 18, 0, 0, 0, time.UTC),
			Competition: "Wiener Stadtliga",
			Gender:      "Mann",
			Round:       "1. Runde",
			HomeTeam:    "Gersthofer SV",
			AwayTeam:    "SC Team; mit Semikolon",
			VenueName:   "Sportplatz",
			Address:     "Hauptstraße 1, 1010 Wien",
			Latitude:    Float(48.2),
			Longitude:   Float(16.37),
			Source:      "https://www.oefb.at/bewerbe/Spiel/1",
			Link:        "https://www.oefb.at/bewerbe/Spiel/1",
		},
		{
			Source: "https://www.oefb.at/bewerbe/Spiel/2",
			Link:   "https://www.oefb.at/bewerbe/Spiel/2",
			Error:  "waiting for .round_overview_container: timeout",
		},
	}
	require.NoError(t, s.Save(ctx, in))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "\ufeffDatum;Liga;Typ;"))
	assert.Contains(t, string(data), ";link;error\n")
	assert.Contains(t, string(data), "2025-08-01 18:00:00;")

	out, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWriteMatches_NoErrorColumnWhenClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spiel_infos.csv")
	require.NoError(t, WriteMatches(path, []MatchRecord{{Link: "a", Source: "a"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "error")
	assert.Contains(t, string(data), "Quelle;link\n")
}

func TestWriteMatches_ReplacesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spiel_infos.csv")
	require.NoError(t, WriteMatches(path, []MatchRecord{{Link: "a"}, {Link: "b"}}))
	require.NoError(t, WriteMatches(path, []MatchRecord{{Link: "c"}}))

	out, err := ReadMatches(path)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "c", out[0].Link)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestParseDatum(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-08-01 18:00:00", time.Date(2025, 8, 1, 18, 0, 0, 0, time.UTC), true},
		{"2025-08-01T18:00:00", time.Date(2025, 8, 1, 18, 0, 0, 0, time.UTC), true},
		{"2025-08-01", time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), true},
		{"1.8.2025 18:00", time.Date(2025, 8, 1, 18, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"morgen", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDatum(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCoordinate(t *testing.T) {
	assert.Nil(t, ParseCoordinate(""))
	assert.Nil(t, ParseCoordinate("NaN"))
	assert.Nil(t, ParseCoordinate("abc"))
	require.NotNil(t, ParseCoordinate("48.225324870552456"))
	assert.Equal(t, 48.225324870552456, *ParseCoordinate("48.225324870552456"))
	assert.Equal(t, "48.225324870552456", formatCoordinate(Float(48.225324870552456)))
}
