package storage

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	bom = "\ufeff"

	// DatumLayout is how kickoff times are written to the semicolon CSVs.
	DatumLayout = "2006-01-02 15:04:05"
)

var ErrMissingColumn = errors.New("missing column")

var datumLayouts = []string{
	DatumLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2.1.2006 15:04",
}

// ParseDatum parses a kickoff cell. ok is false for empty or unparseable values.
func ParseDatum(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range datumLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func formatDatum(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DatumLayout)
}

// ParseCoordinate parses a latitude/longitude cell; empty or NaN is nil.
func ParseCoordinate(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	return &v
}

func formatCoordinate(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// table is a header-indexed view of CSV rows.
type table struct {
	index map[string]int
	rows  [][]string
}

func (t *table) has(col string) bool {
	_, ok := t.index[col]
	return ok
}

func (t *table) get(row []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// readTable reads a whole CSV file, tolerating a leading BOM and ragged rows.
func readTable(path string, comma rune) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if head, err := br.Peek(len(bom)); err == nil && string(head) == bom {
		br.Discard(len(bom))
	}

	r := csv.NewReader(br)
	r.Comma = comma
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return &table{index: map[string]int{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	t := &table{index: make(map[string]int, len(header))}
	for i, name := range header {
		t.index[strings.TrimSpace(name)] = i
	}

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// writeFileAtomic writes a CSV to a temp file next to path and renames it
// into place, so readers only ever see complete files.
func writeFileAtomic(path string, comma rune, withBOM bool, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if withBOM {
		bw.WriteString(bom)
	}
	w := csv.NewWriter(bw)
	w.Comma = comma
	if err := w.Write(header); err != nil {
		tmp.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
