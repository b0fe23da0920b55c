package storage

import (
	"context"
	"errors"
	"io/fs"
)

// MatchHeader is the column set of the miner's output CSV. An "error"
// column is appended when at least one record failed.
var MatchHeader = []string{
	"Datum", "Liga", "Typ", "Runde", "Heim", "Gast", "Heim_Link", "Gast_Link",
	"Spielort_Name", "Adresse", "Latitude", "Longitude", "Quelle", "link",
}

// CSVMatchStore keeps miner results in a semicolon-separated, BOM-prefixed
// CSV. Save rewrites the whole file.
type CSVMatchStore struct {
	path string
}

func NewCSVMatchStore(path string) *CSVMatchStore {
	return &CSVMatchStore{path: path}
}

func (s *CSVMatchStore) Path() string { return s.path }

// Load returns the stored records. A missing file yields no records and no error.
func (s *CSVMatchStore) Load(ctx context.Context) ([]MatchRecord, error) {
	records, err := ReadMatches(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return records, err
}

func (s *CSVMatchStore) Save(ctx context.Context, records []MatchRecord) error {
	return WriteMatches(s.path, records)
}

// ReadMatches reads a miner CSV. Columns that are absent read as empty.
func ReadMatches(path string) ([]MatchRecord, error) {
	t, err := readTable(path, ';')
	if err != nil {
		return nil, err
	}

	records := make([]MatchRecord, 0, len(t.rows))
	for _, row := range t.rows {
		kickoff, _ := ParseDatum(t.get(row, "Datum"))
		records = append(records, MatchRecord{
			Kickoff:      kickoff,
			Competition:  t.get(row, "Liga"),
			Gender:       t.get(row, "Typ"),
			Round:        t.get(row, "Runde"),
			HomeTeam:     t.get(row, "Heim"),
			AwayTeam:     t.get(row, "Gast"),
			HomeTeamLink: t.get(row, "Heim_Link"),
			AwayTeamLink: t.get(row, "Gast_Link"),
			VenueName:    t.get(row, "Spielort_Name"),
			Address:      t.get(row, "Adresse"),
			Latitude:     ParseCoordinate(t.get(row, "Latitude")),
			Longitude:    ParseCoordinate(t.get(row, "Longitude")),
			Source:       t.get(row, "Quelle"),
			Link:         t.get(row, "link"),
			Error:        t.get(row, "error"),
		})
	}
	return records, nil
}

// WriteMatches replaces path with records.
func WriteMatches(path string, records []MatchRecord) error {
	withErr := false
	for _, r := range records {
		if r.Error != "" {
			withErr = true
			break
		}
	}

	header := MatchHeader
	if withErr {
		header = append(append([]string{}, MatchHeader...), "error")
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := []string{
			formatDatum(r.Kickoff),
			r.Competition,
			r.Gender,
			r.Round,
			r.HomeTeam,
			r.AwayTeam,
			r.HomeTeamLink,
			r.AwayTeamLink,
			r.VenueName,
			r.Address,
			formatCoordinate(r.Latitude),
			formatCoordinate(r.Longitude),
			r.Source,
			r.Link,
		}
		if withErr {
			row = append(row, r.Error)
		}
		rows = append(rows, row)
	}

	return writeFileAtomic(path, ';', true, header, rows)
}
