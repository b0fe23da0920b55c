package storage

// CleanHeader is the column set of the post-processed CSVs.
var CleanHeader = []string{
	"Datum", "Liga", "Typ", "Runde", "Heim", "Gast",
	"Spielort_Name", "Straße", "PLZ", "Ort",
	"Latitude", "Longitude", "Quelle",
}

// WriteClean replaces path with records, semicolon-separated with a BOM.
func WriteClean(path string, records []CleanRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			formatDatum(r.Kickoff),
			r.Competition,
			r.Gender,
			r.Round,
			r.HomeTeam,
			r.AwayTeam,
			r.VenueName,
			r.Street,
			r.PostalCode,
			r.City,
			formatCoordinate(r.Latitude),
			formatCoordinate(r.Longitude),
			r.Source,
		})
	}
	return writeFileAtomic(path, ';', true, CleanHeader, rows)
}

// ReadClean reads a post-processed CSV. Missing columns read as empty.
func ReadClean(path string) ([]CleanRecord, error) {
	t, err := readTable(path, ';')
	if err != nil {
		return nil, err
	}

	records := make([]CleanRecord, 0, len(t.rows))
	for _, row := range t.rows {
		kickoff, _ := ParseDatum(t.get(row, "Datum"))
		records = append(records, CleanRecord{
			Kickoff:     kickoff,
			Competition: t.get(row, "Liga"),
			Gender:      t.get(row, "Typ"),
			Round:       t.get(row, "Runde"),
			HomeTeam:    t.get(row, "Heim"),
			AwayTeam:    t.get(row, "Gast"),
			VenueName:   t.get(row, "Spielort_Name"),
			Street:      t.get(row, "Straße"),
			PostalCode:  t.get(row, "PLZ"),
			City:        t.get(row, "Ort"),
			Latitude:    ParseCoordinate(t.get(row, "Latitude")),
			Longitude:   ParseCoordinate(t.get(row, "Longitude")),
			Source:      t.get(row, "Quelle"),
		})
	}
	return records, nil
}
