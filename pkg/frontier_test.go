package frontier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontier_PushSeedForget(t *testing.T) {
	f := NewFrontier()
	f.Seed(map[string]struct{}{"https://www.oefb.at/bewerbe/Spiel/1": {}})

	assert.False(t, f.Push("https://www.oefb.at/bewerbe/Spiel/1", "list"), "seeded links are not new")
	assert.True(t, f.Push("https://www.oefb.at/bewerbe/Spiel/2", "list"))
	assert.False(t, f.Push("https://www.oefb.at/bewerbe/Spiel/2", "other list"))
	assert.Equal(t, 2, f.Len())

	f.Forget("https://www.oefb.at/bewerbe/Spiel/2")
	assert.False(t, f.Has("https://www.oefb.at/bewerbe/Spiel/2"))
	assert.True(t, f.Push("https://www.oefb.at/bewerbe/Spiel/2", "list"))
}

func TestLoadSeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeds.txt")
	content := "# Wiener Ligen\n" +
		"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226635?Wiener-Stadtliga\n" +
		"\n" +
		"https://WWW.oefb.at/bewerbe/Bewerb/Spielplan/226635?Wiener-Stadtliga\n" +
		"  https://www.oefb.at/bewerbe/Bewerb/Spielplan/226684?2-Landesliga  \n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	urls, err := LoadSeeds(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226635?Wiener-Stadtliga",
		"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226684?2-Landesliga",
	}, urls)
}

func TestLoadSeeds_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeds.txt")
	require.NoError(t, os.WriteFile(path, []byte("# nothing\n\n"), 0o644))

	_, err := LoadSeeds(path)
	assert.ErrorIs(t, err, ErrNoSeeds)
}

func TestDefaultListingURLs(t *testing.T) {
	assert.Len(t, DefaultListingURLs, 35)
	seen := map[string]bool{}
	for _, u := range DefaultListingURLs {
		assert.False(t, seen[u], "duplicate %s", u)
		seen[u] = true
	}
}
