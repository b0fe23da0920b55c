package storage

import (
	"context"
	"errors"
	"log/slog"
)

// TeeLinks writes to primary and copies every appended link to the mirrors.
// Load reads from primary only; mirror failures are logged, not returned.
func TeeLinks(primary LinkStore, mirrors ...LinkStore) LinkStore {
	if len(mirrors) == 0 {
		return primary
	}
	return &teeLinks{primary: primary, mirrors: mirrors}
}

type teeLinks struct {
	primary LinkStore
	mirrors []LinkStore
}

func (t *teeLinks) Load(ctx context.Context) (map[string]struct{}, error) {
	return t.primary.Load(ctx)
}

func (t *teeLinks) Append(ctx context.Context, l DiscoveredLink) error {
	if err := t.primary.Append(ctx, l); err != nil {
		return err
	}
	for _, m := range t.mirrors {
		if err := m.Append(ctx, l); err != nil {
			slog.Warn("mirror append failed", slog.String("href", l.Href), slog.Any("err", err))
		}
	}
	return nil
}

func (t *teeLinks) Close() error {
	errs := []error{t.primary.Close()}
	for _, m := range t.mirrors {
		errs = append(errs, m.Close())
	}
	return errors.Join(errs...)
}

// TeeResults is TeeLinks for miner results.
func TeeResults(primary ResultStore, mirrors ...ResultStore) ResultStore {
	if len(mirrors) == 0 {
		return primary
	}
	return &teeResults{primary: primary, mirrors: mirrors}
}

type teeResults struct {
	primary ResultStore
	mirrors []ResultStore
}

func (t *teeResults) Load(ctx context.Context) ([]MatchRecord, error) {
	return t.primary.Load(ctx)
}

func (t *teeResults) Save(ctx context.Context, records []MatchRecord) error {
	if err := t.primary.Save(ctx, records); err != nil {
		return err
	}
	for _, m := range t.mirrors {
		if err := m.Save(ctx, records); err != nil {
			slog.Warn("mirror save failed", slog.Int("records", len(records)), slog.Any("err", err))
		}
	}
	return nil
}
