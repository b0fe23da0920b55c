package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// The match pages keep their data in window.SG.container.appPreloads, a map
// whose values are objects or arrays of objects. preloadScript flattens it
// into a JSON array holding only the fields we read, or null if the
// container does not exist yet.
const preloadScript = `(() => {
	const ap = window.SG && window.SG.container && window.SG.container.appPreloads;
	if (!ap) return null;
	const out = [];
	for (const k in ap) {
		const arr = Array.isArray(ap[k]) ? ap[k] : [ap[k]];
		for (const obj of arr) {
			if (!obj || typeof obj !== 'object') continue;
			out.push({
				latitude: typeof obj.latitude === 'number' ? obj.latitude : null,
				longitude: typeof obj.longitude === 'number' ? obj.longitude : null,
				bewerb: typeof obj.bewerb === 'string' ? obj.bewerb : null,
			});
		}
	}
	return JSON.stringify(out);
})()`

type PreloadEntry struct {
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Competition *string  `json:"bewerb"`
}

// Preloads is a snapshot of the page's preload container.
type Preloads struct {
	Present bool
	Entries []PreloadEntry
}

// ParsePreloads decodes the output of preloadScript. An empty string means
// the container was missing.
func ParsePreloads(raw string) (Preloads, error) {
	if raw == "" || raw == "null" {
		return Preloads{}, nil
	}
	var entries []PreloadEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return Preloads{}, fmt.Errorf("decoding preloads: %w", err)
	}
	return Preloads{Present: true, Entries: entries}, nil
}

// Coordinates returns the first numeric pair that is not (0,0). The site
// fills in zeros before the real values arrive.
func (p Preloads) Coordinates() (lat, lon float64, ok bool) {
	for _, e := range p.Entries {
		if e.Latitude == nil || e.Longitude == nil {
			continue
		}
		if *e.Latitude == 0 && *e.Longitude == 0 {
			continue
		}
		return *e.Latitude, *e.Longitude, true
	}
	return 0, 0, false
}

// Competition returns the first non-blank competition name.
func (p Preloads) Competition() string {
	for _, e := range p.Entries {
		if e.Competition != nil && strings.TrimSpace(*e.Competition) != "" {
			return *e.Competition
		}
	}
	return ""
}

// ReadPreloads takes one snapshot of the preload container.
func ReadPreloads(ctx context.Context, page Page) (Preloads, error) {
	var raw *string
	if err := page.Evaluate(ctx, preloadScript, &raw); err != nil {
		return Preloads{}, err
	}
	if raw == nil {
		return Preloads{}, nil
	}
	return ParsePreloads(*raw)
}

// WaitPreloads polls until cond accepts a snapshot. Evaluation errors while
// the page is still settling count as "not yet".
func WaitPreloads(ctx context.Context, page Page, timeout, interval time.Duration, cond func(Preloads) bool) (Preloads, error) {
	return Poll(ctx, timeout, interval, func(ctx context.Context) (Preloads, bool, error) {
		p, err := ReadPreloads(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return p, false, ctx.Err()
			}
			return p, false, nil
		}
		return p, cond(p), nil
	})
}
