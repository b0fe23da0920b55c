package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	lockPollInterval = 10 * time.Millisecond
}

func TestAcquireLock_ExclusiveUntilReleased(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "links.csv.lock")

	first, err := AcquireLock(ctx, path, time.Second, time.Hour)
	require.NoError(t, err)
	assert.True(t, first.Held())

	_, err = AcquireLock(ctx, path, 50*time.Millisecond, time.Hour)
	assert.ErrorIs(t, err, ErrLockTimeout)

	require.NoError(t, first.Release())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	second, err := AcquireLock(ctx, path, 50*time.Millisecond, time.Hour)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}

func TestAcquireLock_TakesOverStaleLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.csv.lock")
	old := time.Now().Add(-2 * time.Hour).UTC().Format(time.RFC3339)
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("999999\n%s\nother-token\n", old)), 0o644))

	l, err := AcquireLock(context.Background(), path, 50*time.Millisecond, time.Hour)
	require.NoError(t, err)
	assert.True(t, l.Held())
	require.NoError(t, l.Release())
}

func TestAcquireLock_StaleByMtime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.csv.lock")
	require.NoError(t, os.WriteFile(path, []byte("12345"), 0o644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	l, err := AcquireLock(context.Background(), path, 50*time.Millisecond, time.Hour)
	require.NoError(t, err)
	assert.True(t, l.Held())
}

func TestRelease_LeavesForeignLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.csv.lock")
	l, err := AcquireLock(context.Background(), path, time.Second, time.Hour)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("1\n2025-01-01T00:00:00Z\nsomeone-else\n"), 0o644))
	require.NoError(t, l.Release())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestAcquireLock_UnwritableDirContinuesUnlocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "links.csv.lock")
	l, err := AcquireLock(context.Background(), path, 50*time.Millisecond, time.Hour)
	require.NoError(t, err)
	assert.False(t, l.Held())
	assert.NoError(t, l.Release())
}
