package frontier

import (
	"log/slog"
	"sync"
)

type SeenRecord struct {
	Referrer string
	Stored   bool
}

// Frontier is the set of match links known to this run: those loaded from
// earlier runs plus those discovered so far.
type Frontier struct {
	mu   sync.Mutex
	seen map[string]SeenRecord
}

func NewFrontier() *Frontier {
	return &Frontier{
		seen: make(map[string]SeenRecord),
	}
}

// Seed marks keys persisted by an earlier run as seen.
func (f *Frontier) Seed(keys map[string]struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for k := range keys {
		f.seen[k] = SeenRecord{Stored: true}
	}
	slog.Debug("frontier seeded", slog.Int("count", len(keys)))
}

// Push records href as found on referrer. It returns false if href was
// already known.
func (f *Frontier) Push(href, referrer string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.seen[href]; ok {
		slog.Debug("frontier duplicate, skipping", slog.String("url", href), slog.String("referrer", referrer))
		return false
	}

	f.seen[href] = SeenRecord{Referrer: referrer}
	return true
}

// Forget removes href again, used when persisting it failed so a later
// listing page can retry.
func (f *Frontier) Forget(href string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.seen, href)
}

func (f *Frontier) Has(href string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.seen[href]
	return ok
}

func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}
