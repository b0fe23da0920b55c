package storage

import (
	"context"
	"time"
)

// DiscoveredLink is one match detail link found on a listing page.
// Identity key: Href.
type DiscoveredLink struct {
	Href      string
	SourceURL string
	FirstSeen time.Time
}

// MatchRecord is what the miner extracted from one detail page.
// Identity key: Link. Empty strings and a zero Kickoff mean "unknown".
// A non-empty Error marks a failed extraction; such records are still stored.
type MatchRecord struct {
	Kickoff      time.Time
	Competition  string
	Gender       string
	Round        string
	HomeTeam     string
	AwayTeam     string
	HomeTeamLink string
	AwayTeamLink string
	VenueName    string
	Address      string
	Latitude     *float64
	Longitude    *float64
	Source       string
	Link         string
	Error        string
}

// CleanRecord is a post-processed MatchRecord with a parsed address.
type CleanRecord struct {
	Kickoff     time.Time
	Competition string
	Gender      string
	Round       string
	HomeTeam    string
	AwayTeam    string
	VenueName   string
	Street      string
	PostalCode  string
	City        string
	Latitude    *float64
	Longitude   *float64
	Source      string
}

// HasCoordinates reports whether at least one coordinate is known.
func (r CleanRecord) HasCoordinates() bool {
	return r.Latitude != nil || r.Longitude != nil
}

// LinkStore persists discovered links. Load returns the keys stored so far;
// Append must make the link durable before returning.
type LinkStore interface {
	Load(ctx context.Context) (map[string]struct{}, error)
	Append(ctx context.Context, l DiscoveredLink) error
	Close() error
}

// ResultStore persists miner results. Save replaces the stored set with
// records in full.
type ResultStore interface {
	Load(ctx context.Context) ([]MatchRecord, error)
	Save(ctx context.Context, records []MatchRecord) error
}

// Float returns a pointer to v, for building records.
func Float(v float64) *float64 {
	return &v
}
