package crawler

import "time"

type CrawlStats struct {
	StartTime       time.Time
	ListingsDone    int
	ListingsFailed  int
	ListingsSkipped int
	LinksFound      int
	LinksNew        int
	Clicks          int
}

func (s *CrawlStats) Elapsed() time.Duration {
	return time.Since(s.StartTime)
}

func (s *CrawlStats) LinksPerSecond() float64 {
	elapsed := s.Elapsed().Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(s.LinksNew) / elapsed
}

// ListingResult summarises one listing page.
type ListingResult struct {
	URL    string
	Found  int
	New    int
	Clicks int
}
