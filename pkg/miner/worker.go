package miner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/devraulu/martiball/pkg/browser"
	"github.com/devraulu/martiball/pkg/retry"
	"github.com/devraulu/martiball/pkg/storage"
)

var ErrTeamsMissing = errors.New("fewer than two teams on page")

func (m *Miner) worker(ctx context.Context, id int, jobs <-chan string, results chan<- storage.MatchRecord) {
	slog.Debug("worker started", "id", id)
	for link := range jobs {
		results <- m.mine(ctx, link)
	}
}

// mine extracts one match in its own browser session. Any failure turns
// into an error record.
func (m *Miner) mine(ctx context.Context, link string) storage.MatchRecord {
	rec := storage.MatchRecord{Source: link, Link: link}

	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			rec.Error = err.Error()
			return rec
		}
	}

	page, err := m.launcher.NewPage(ctx)
	if err != nil {
		rec.Error = err.Error()
		return rec
	}
	defer func() {
		if err := page.Close(); err != nil {
			slog.Debug("closing browser", slog.String("link", link), slog.Any("err", err))
		}
	}()

	if err := m.extract(ctx, page, link, &rec); err != nil {
		return storage.MatchRecord{Source: link, Link: link, Error: err.Error()}
	}
	return rec
}

func (m *Miner) extract(ctx context.Context, page browser.Page, link string, rec *storage.MatchRecord) error {
	err := retry.Run(ctx, m.nav, "navigate "+link, func(ctx context.Context) error {
		return page.Navigate(ctx, link)
	})
	if err != nil {
		return fmt.Errorf("navigating: %w", err)
	}

	if err := page.WaitVisible(ctx, ContainerSelector, m.containerTimeout); err != nil {
		return err
	}

	detail, err := browser.Poll(ctx, m.teamsTimeout, m.pollInterval, func(ctx context.Context) (Detail, bool, error) {
		html, err := page.OuterHTML(ctx, "html")
		if err != nil {
			return Detail{}, false, err
		}
		d, err := ParseDetail(html, link)
		if err != nil {
			return Detail{}, false, err
		}
		return d, len(d.Teams) >= 2, nil
	})
	if errors.Is(err, browser.ErrTimeout) {
		return ErrTeamsMissing
	}
	if err != nil {
		return err
	}

	preloads, err := browser.WaitPreloads(ctx, page, m.preloadTimeout, m.pollInterval, func(p browser.Preloads) bool {
		return p.Present
	})
	if err != nil {
		return fmt.Errorf("waiting for preloads: %w", err)
	}
	competition := preloads.Competition()

	preloads, err = browser.WaitPreloads(ctx, page, m.preloadTimeout, m.pollInterval, func(p browser.Preloads) bool {
		_, _, ok := p.Coordinates()
		return ok
	})
	if lat, lon, ok := preloads.Coordinates(); ok {
		rec.Latitude = storage.Float(lat)
		rec.Longitude = storage.Float(lon)
	} else {
		slog.Debug("no coordinates", slog.String("link", link), slog.Any("err", err))
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	rec.Kickoff = ParseKickoff(detail.Date, detail.KickoffTime)
	rec.Competition = competition
	rec.Gender = Gender(competition)
	rec.Round = detail.Round
	rec.HomeTeam = detail.Teams[0].Name
	rec.AwayTeam = detail.Teams[1].Name
	rec.HomeTeamLink = detail.Teams[0].Link
	rec.AwayTeamLink = detail.Teams[1].Link
	rec.VenueName = detail.VenueName
	rec.Address = detail.Address
	return nil
}
