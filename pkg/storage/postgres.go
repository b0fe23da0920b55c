package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// PostgresStorage mirrors links and match records into Postgres so other
// tools can query them. The CSV files stay the source of truth for resume.
type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

// Links returns a LinkStore view of the discovered_links table.
func (s *PostgresStorage) Links() LinkStore { return pgLinks{s} }

// Results returns a ResultStore view of the match_records table.
func (s *PostgresStorage) Results() ResultStore { return pgResults{s} }

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

type pgLinks struct{ s *PostgresStorage }

func (p pgLinks) Load(ctx context.Context) (map[string]struct{}, error) {
	rows, err := p.s.db.QueryContext(ctx, `SELECT href FROM discovered_links`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var href string
		if err := rows.Scan(&href); err != nil {
			return nil, err
		}
		keys[href] = struct{}{}
	}
	return keys, rows.Err()
}

func (p pgLinks) Append(ctx context.Context, l DiscoveredLink) error {
	seen := l.FirstSeen
	if seen.IsZero() {
		seen = time.Now()
	}
	_, err := p.s.db.ExecContext(ctx, `
		INSERT INTO discovered_links (href, source_url, first_seen_utc)
		VALUES ($1, $2, $3)
		ON CONFLICT (href) DO NOTHING`,
		l.Href, l.SourceURL, seen.UTC(),
	)
	return err
}

func (p pgLinks) Close() error {
	return p.s.Close()
}

type pgResults struct{ s *PostgresStorage }

func (p pgResults) Load(ctx context.Context) ([]MatchRecord, error) {
	rows, err := p.s.db.QueryContext(ctx, `
		SELECT kickoff, liga, typ, runde, heim, gast, heim_link, gast_link,
		       spielort_name, adresse, latitude, longitude, quelle, link, error
		FROM match_records
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []MatchRecord
	for rows.Next() {
		var (
			r        MatchRecord
			kickoff  sql.NullTime
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&kickoff, &r.Competition, &r.Gender, &r.Round, &r.HomeTeam, &r.AwayTeam,
			&r.HomeTeamLink, &r.AwayTeamLink, &r.VenueName, &r.Address, &lat, &lon,
			&r.Source, &r.Link, &r.Error); err != nil {
			return nil, err
		}
		if kickoff.Valid {
			r.Kickoff = kickoff.Time
		}
		if lat.Valid {
			r.Latitude = Float(lat.Float64)
		}
		if lon.Valid {
			r.Longitude = Float(lon.Float64)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Save upserts all records in one transaction.
func (p pgResults) Save(ctx context.Context, records []MatchRecord) error {
	tx, err := p.s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO match_records (kickoff, liga, typ, runde, heim, gast, heim_link, gast_link,
		                           spielort_name, adresse, latitude, longitude, quelle, link, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (link) DO UPDATE
		SET kickoff = EXCLUDED.kickoff, liga = EXCLUDED.liga, typ = EXCLUDED.typ, runde = EXCLUDED.runde,
		    heim = EXCLUDED.heim, gast = EXCLUDED.gast, heim_link = EXCLUDED.heim_link,
		    gast_link = EXCLUDED.gast_link, spielort_name = EXCLUDED.spielort_name,
		    adresse = EXCLUDED.adresse, latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude,
		    quelle = EXCLUDED.quelle, error = EXCLUDED.error`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		var kickoff sql.NullTime
		if !r.Kickoff.IsZero() {
			kickoff = sql.NullTime{Time: r.Kickoff, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, kickoff, r.Competition, r.Gender, r.Round, r.HomeTeam, r.AwayTeam,
			r.HomeTeamLink, r.AwayTeamLink, r.VenueName, r.Address, nullFloat(r.Latitude), nullFloat(r.Longitude),
			r.Source, r.Link, r.Error); err != nil {
			return fmt.Errorf("upserting %s: %w", r.Link, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Debug("saved match records", slog.Int("count", len(records)))
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
