package miner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/devraulu/martiball/pkg/browser"
	"github.com/devraulu/martiball/pkg/config"
	"github.com/devraulu/martiball/pkg/process"
	"github.com/devraulu/martiball/pkg/retry"
	"github.com/devraulu/martiball/pkg/storage"
)

type MineStats struct {
	StartTime time.Time
	Input     int
	Resumed   int
	Done      int
	Failed    int
	Dropped   int
	Flushes   int
}

func (s *MineStats) Elapsed() time.Duration {
	return time.Since(s.StartTime)
}

func (s *MineStats) PagesPerSecond() float64 {
	elapsed := s.Elapsed().Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(s.Done) / elapsed
}

type Miner struct {
	launcher   browser.Launcher
	store      storage.ResultStore
	workers    int
	flushEvery int
	limiter    *rate.Limiter
	nav        retry.Policy

	containerTimeout time.Duration
	teamsTimeout     time.Duration
	preloadTimeout   time.Duration
	pollInterval     time.Duration

	results []storage.MatchRecord
	have    map[string]struct{}

	Stats MineStats
}

func New(cfg *config.Config, l browser.Launcher, s storage.ResultStore) *Miner {
	m := &Miner{
		launcher:         l,
		store:            s,
		workers:          max(1, cfg.Miner.Workers),
		flushEvery:       max(1, cfg.Miner.FlushEvery),
		nav:              retry.Navigation,
		containerTimeout: 25 * time.Second,
		teamsTimeout:     25 * time.Second,
		preloadTimeout:   20 * time.Second,
		pollInterval:     250 * time.Millisecond,
	}
	if cfg.Miner.RateLimit > 0 {
		m.limiter = rate.NewLimiter(rate.Limit(cfg.Miner.RateLimit), 1)
	}
	return m
}

// recordKey is the identity of a stored record; rows written by older
// tools may lack the link column.
func recordKey(r storage.MatchRecord) string {
	if r.Link != "" {
		return r.Link
	}
	return process.NormalizeLink(r.Source)
}

// Run extracts every link not already in the store, workers pages at a time.
// The store is rewritten after every flushEvery results and once at the end.
// Failed pages are stored with their error and are not retried by later runs.
func (m *Miner) Run(ctx context.Context, links []string) error {
	m.Stats = MineStats{StartTime: time.Now(), Input: len(links)}

	existing, loadErr := m.store.Load(ctx)
	if loadErr != nil {
		slog.Warn("could not read previous results, starting fresh", slog.Any("err", loadErr))
		existing = nil
	}

	m.results = existing
	m.have = make(map[string]struct{}, len(existing))
	for _, r := range existing {
		m.have[recordKey(r)] = struct{}{}
	}
	m.Stats.Resumed = len(existing)

	todo := m.pending(links)
	if len(todo) == 0 {
		slog.Info("nothing to do, all links already mined", slog.Int("stored", len(m.results)))
		if loadErr == nil && len(existing) == 0 {
			return m.flush(ctx)
		}
		return nil
	}

	slog.Info("mining started",
		slog.Int("todo", len(todo)),
		slog.Int("stored", len(m.results)),
		slog.Int("workers", m.workers),
	)

	jobs := make(chan string)
	results := make(chan storage.MatchRecord, m.workers)

	for i := 0; i < m.workers; i++ {
		go m.worker(ctx, i, jobs, results)
	}

	m.coordinator(ctx, todo, jobs, results)
	close(jobs)

	if err := m.flush(ctx); err != nil {
		return fmt.Errorf("final save: %w", err)
	}

	slog.Info("mining complete",
		slog.Int("done", m.Stats.Done),
		slog.Int("failed", m.Stats.Failed),
		slog.Int("stored", len(m.results)),
		slog.Duration("elapsed", m.Stats.Elapsed()),
		slog.Float64("pages_per_sec", m.Stats.PagesPerSecond()),
	)
	return ctx.Err()
}

// pending normalizes links and drops blanks, repeats and those already stored.
func (m *Miner) pending(links []string) []string {
	seen := make(map[string]struct{}, len(links))
	var todo []string
	for _, l := range links {
		key := process.NormalizeLink(l)
		if key == "" {
			continue
		}
		if _, ok := m.have[key]; ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		todo = append(todo, key)
	}
	return todo
}

// coordinator hands out links and collects results. It is the only
// goroutine touching m.results and m.have.
func (m *Miner) coordinator(ctx context.Context, todo []string, jobs chan<- string, results <-chan storage.MatchRecord) {
	next, active, sinceFlush := 0, 0, 0

	for {
		var jobsChan chan<- string
		var job string
		if next < len(todo) && ctx.Err() == nil {
			jobsChan = jobs
			job = todo[next]
		} else if active == 0 {
			return
		}

		select {
		case jobsChan <- job:
			next++
			active++
			slog.Debug("job dispatched", slog.String("link", job), slog.Int("active_workers", active))

		case rec := <-results:
			active--
			if !m.collect(ctx, rec) {
				continue
			}
			sinceFlush++
			if sinceFlush >= m.flushEvery {
				if err := m.flush(ctx); err != nil {
					slog.Error("intermediate save failed", slog.Any("err", err))
				}
				sinceFlush = 0
			}

		case <-ctx.Done():
			// stop dispatching; in-flight workers still report back
			if active == 0 {
				return
			}
			rec := <-results
			active--
			m.collect(ctx, rec)
		}
	}
}

// collect stores rec. Failures caused by shutdown are dropped so the next
// run retries those links.
func (m *Miner) collect(ctx context.Context, rec storage.MatchRecord) bool {
	if rec.Error != "" && ctx.Err() != nil {
		m.Stats.Dropped++
		slog.Info("dropping interrupted task", slog.String("link", rec.Link))
		return false
	}

	m.results = append(m.results, rec)
	m.have[recordKey(rec)] = struct{}{}

	if rec.Error != "" {
		m.Stats.Failed++
		slog.Warn("mining failed", slog.String("link", rec.Link), slog.String("err", rec.Error))
	} else {
		m.Stats.Done++
		slog.Info("mined",
			slog.String("link", rec.Link),
			slog.String("home", rec.HomeTeam),
			slog.String("away", rec.AwayTeam),
			slog.Int("progress", len(m.have)),
		)
	}
	return true
}

func (m *Miner) flush(ctx context.Context) error {
	if err := m.store.Save(context.WithoutCancel(ctx), m.results); err != nil {
		return err
	}
	m.Stats.Flushes++
	slog.Info("results saved", slog.Int("records", len(m.results)))
	return nil
}
