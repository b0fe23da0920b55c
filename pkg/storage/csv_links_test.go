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

func TestCSVLinkStore_AppendAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out", "oefb_links_gesamt.csv")

	s, err := OpenCSVLinkStore(path)
	require.NoError(t, err)

	seen := time.Date(2025, 8, 1, 18, 30, 0, 0, time.UTC)
	require.NoError(t, s.Append(ctx, DiscoveredLink{Href: "https://www.oefb.at/bewerbe/Spiel/1", SourceURL: "https://www.oefb.at/list", FirstSeen: seen}))
	require.NoError(t, s.Append(ctx, DiscoveredLink{Href: "https://www.oefb.at/bewerbe/Spiel/2", SourceURL: "https://www.oefb.at/list", FirstSeen: seen}))

	// appended rows are on disk before Close
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "href,source_url,first_seen_utc\n"+
		"https://www.oefb.at/bewerbe/Spiel/1,https://www.oefb.at/list,2025-08-01T18:30:00Z\n"+
		"https://www.oefb.at/bewerbe/Spiel/2,https://www.oefb.at/list,2025-08-01T18:30:00Z\n", string(data))

	require.NoError(t, s.Close())

	keys, err := LoadLinkKeys(path)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.Contains(t, keys, "https://www.oefb.at/bewerbe/Spiel/2")
}

func TestOpenCSVLinkStore_KeepsExistingHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.csv")
	require.NoError(t, os.WriteFile(path, []byte("href,source_url,first_seen_utc\nhttps://a/1,https://a,2025-01-01T00:00:00Z\n"), 0o644))

	s, err := OpenCSVLinkStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), DiscoveredLink{Href: "https://a/2", SourceURL: "https://a"}))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "href,source_url"))

	links, err := ReadLinks(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a/1", "https://a/2"}, links)
}

func TestLoadLinkKeys_MissingFile(t *testing.T) {
	keys, err := LoadLinkKeys(filepath.Join(t.TempDir(), "missing.csv"))
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestReadLinks_BOMAndMissingColumn(t *testing.T) {
	dir := t.TempDir()

	withBOM := filepath.Join(dir, "bom.csv")
	require.NoError(t, os.WriteFile(withBOM, []byte("\ufeffhref,source_url\nhttps://a/1,x\n"), 0o644))
	links, err := ReadLinks(withBOM)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a/1"}, links)

	noHref := filepath.Join(dir, "nohref.csv")
	require.NoError(t, os.WriteFile(noHref, []byte("url\nhttps://a/1\n"), 0o644))
	_, err = ReadLinks(noHref)
	assert.ErrorIs(t, err, ErrMissingColumn)
}
