package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LinkHeader is the header of the crawler's output CSV.
var LinkHeader = []string{"href", "source_url", "first_seen_utc"}

// FirstSeenLayout is the UTC timestamp format of first_seen_utc.
const FirstSeenLayout = "2006-01-02T15:04:05Z"

// CSVLinkStore is an append-only CSV of discovered links. Every Append is
// flushed and synced before it returns.
type CSVLinkStore struct {
	path string

	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

// OpenCSVLinkStore opens path for appending and writes the header if the
// file is new or empty.
func OpenCSVLinkStore(path string) (*CSVLinkStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	s := &CSVLinkStore{path: path, f: f, w: csv.NewWriter(f)}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() == 0 {
		slog.Info("creating link csv with header", slog.String("path", path))
		if err := s.writeRow(LinkHeader); err != nil {
			f.Close()
			return nil, err
		}
	}

	return s, nil
}

// Load returns the hrefs already in the file. A missing file is empty.
func (s *CSVLinkStore) Load(ctx context.Context) (map[string]struct{}, error) {
	return LoadLinkKeys(s.path)
}

// LoadLinkKeys reads the href column of a link CSV.
func LoadLinkKeys(path string) (map[string]struct{}, error) {
	keys := make(map[string]struct{})

	t, err := readTable(path, ',')
	if errors.Is(err, fs.ErrNotExist) {
		return keys, nil
	}
	if err != nil {
		return nil, err
	}
	if !t.has("href") && len(t.rows) > 0 {
		return nil, fmt.Errorf("%s: %w href", path, ErrMissingColumn)
	}

	for _, row := range t.rows {
		if href := t.get(row, "href"); href != "" {
			keys[href] = struct{}{}
		}
	}
	return keys, nil
}

// ReadLinks returns the href column in file order, keeping duplicates.
func ReadLinks(path string) ([]string, error) {
	t, err := readTable(path, ',')
	if err != nil {
		return nil, err
	}
	if !t.has("href") {
		return nil, fmt.Errorf("%s: %w href", path, ErrMissingColumn)
	}

	links := make([]string, 0, len(t.rows))
	for _, row := range t.rows {
		if href := t.get(row, "href"); href != "" {
			links = append(links, href)
		}
	}
	return links, nil
}

func (s *CSVLinkStore) Append(ctx context.Context, l DiscoveredLink) error {
	seen := l.FirstSeen
	if seen.IsZero() {
		seen = time.Now()
	}
	return s.writeRow([]string{l.Href, l.SourceURL, seen.UTC().Format(FirstSeenLayout)})
}

func (s *CSVLinkStore) writeRow(row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return err
	}
	if err := s.f.Sync(); err != nil {
		// some filesystems do not support fsync; the row is flushed anyway
		slog.Debug("fsync failed", slog.String("path", s.path), slog.Any("err", err))
	}
	return nil
}

func (s *CSVLinkStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
