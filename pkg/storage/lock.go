package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrLockTimeout = errors.New("timed out waiting for lock")

var lockPollInterval = 500 * time.Millisecond

// FileLock is a sentinel file that marks an output CSV as owned by one
// process. It holds the owner's pid, the acquisition time and a random token;
// only the holder of the token removes it.
type FileLock struct {
	path  string
	token string
	held  bool
}

// AcquireLock creates the sentinel at path, waiting up to wait for another
// holder to release it. A sentinel older than staleAfter is considered
// abandoned and removed. If the sentinel cannot be written at all the error is
// logged and an unheld lock is returned so the run can proceed.
func AcquireLock(ctx context.Context, path string, wait, staleAfter time.Duration) (*FileLock, error) {
	start := time.Now()
	token := uuid.NewString()
	slog.Info("waiting for lock", slog.String("path", path))

	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, werr := fmt.Fprintf(f, "%d\n%s\n%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339), token)
			cerr := f.Close()
			if werr != nil || cerr != nil {
				slog.Warn("could not write lock file", slog.String("path", path), slog.Any("err", errors.Join(werr, cerr)))
			}
			slog.Info("lock acquired", slog.String("path", path))
			return &FileLock{path: path, token: token, held: true}, nil
		}

		if !errors.Is(err, fs.ErrExist) {
			slog.Warn("lock file unusable, continuing without lock", slog.String("path", path), slog.Any("err", err))
			return &FileLock{path: path}, nil
		}

		if age, ok := lockAge(path); ok && age > staleAfter {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				slog.Warn("could not remove stale lock", slog.String("path", path), slog.Any("err", err))
			} else {
				slog.Info("removed stale lock", slog.String("path", path), slog.Duration("age", age))
			}
			continue
		}

		if time.Since(start) >= wait {
			if pid, ok := ownerPID(path); ok {
				return nil, fmt.Errorf("%s held by pid %d: %w", path, pid, ErrLockTimeout)
			}
			return nil, fmt.Errorf("%s: %w", path, ErrLockTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

// lockAge prefers the timestamp written by the holder and falls back to the
// file's mtime.
func lockAge(path string) (time.Duration, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	var lines []string
	for sc.Scan() && len(lines) < 2 {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	if len(lines) == 2 {
		if t, err := time.Parse(time.RFC3339, lines[1]); err == nil {
			return time.Since(t), true
		}
	}

	info, err := f.Stat()
	if err != nil {
		return 0, false
	}
	return time.Since(info.ModTime()), true
}

// Held reports whether this process owns the sentinel.
func (l *FileLock) Held() bool {
	return l != nil && l.held
}

// Release removes the sentinel if it still carries this lock's token.
func (l *FileLock) Release() error {
	if !l.Held() {
		return nil
	}
	l.held = false

	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !strings.Contains(string(data), l.token) {
		slog.Warn("lock taken over by another process, leaving it", slog.String("path", l.path))
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	slog.Info("lock released", slog.String("path", l.path))
	return nil
}

// ownerPID returns the pid recorded in the sentinel, for diagnostics.
func ownerPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	first, _, _ := strings.Cut(string(data), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(first))
	return pid, err == nil
}
