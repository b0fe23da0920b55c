package miner

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/devraulu/martiball/pkg/process"
)

const (
	ContainerSelector = ".round_overview_container"
	venueSelector     = ".game_place_content_1"
)

type Team struct {
	Name string
	Link string
}

// Detail is what the static markup of a match page tells us. Competition
// and coordinates come from the page's preloads instead.
type Detail struct {
	Round       string
	Date        string
	KickoffTime string
	Teams       []Team
	VenueName   string
	Address     string
}

// ParseDetail reads the round overview and venue block of a match page.
// Missing elements leave fields empty.
func ParseDetail(html, pageURL string) (Detail, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Detail{}, err
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return Detail{}, err
	}

	var d Detail
	container := doc.Find(ContainerSelector).First()

	d.Round = cleanText(container.Find(".round").First().Text())
	d.Date = cleanText(container.Find(".date").First().Text())

	container.Find(".teams > a").Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.AttrOr("title", ""))
		if name == "" {
			name = cleanText(s.Text())
		}
		link := ""
		if href := strings.TrimSpace(s.AttrOr("href", "")); href != "" {
			if ref, err := url.Parse(href); err == nil {
				link = base.ResolveReference(ref).String()
			}
		}
		d.Teams = append(d.Teams, Team{Name: name, Link: link})
	})

	d.KickoffTime = valueAfter(container, "Spielbeginn:")
	d.VenueName, d.Address = venue(doc)

	return d, nil
}

// valueAfter returns the text of the span following the span labelled label
// inside a detail row.
func valueAfter(container *goquery.Selection, label string) string {
	var value string
	container.Find(`div[class="detail"] span`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if cleanText(s.Text()) != label {
			return true
		}
		value = cleanText(s.NextAllFiltered("span").First().Text())
		return false
	})
	return value
}

func venue(doc *goquery.Document) (name, address string) {
	doc.Find(venueSelector).EachWithBreak(func(_ int, blk *goquery.Selection) bool {
		h4 := strings.ToLower(cleanText(blk.Find("h4").First().Text()))
		if !strings.Contains(h4, "adresse") || !strings.Contains(h4, "anfahrt") {
			return true
		}

		name = cleanText(blk.Find("h5.highlight").First().Text())

		lines := process.TextLines(blk.Get(0))
		if len(lines) > 0 && strings.HasPrefix(strings.ToLower(lines[0]), "adresse") {
			lines = lines[1:]
		}
		if len(lines) > 0 && name != "" && lines[0] == name {
			lines = lines[1:]
		}
		address = strings.Join(lines, ", ")
		return false
	})
	return name, address
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var (
	dateRe = regexp.MustCompile(`\d{1,2}\.\d{1,2}\.\d{4}`)
	timeRe = regexp.MustCompile(`\d{1,2}:\d{2}`)
)

// ParseKickoff combines the page's date ("13.09.2025", possibly with a
// weekday around it) and start time ("18:30") into a wall-clock time.
// It returns the zero time if either part is missing or invalid.
func ParseKickoff(date, start string) time.Time {
	d := dateRe.FindString(date)
	t := timeRe.FindString(start)
	if d == "" || t == "" {
		return time.Time{}
	}
	kickoff, err := time.Parse("2.1.2006 15:04", d+" "+t)
	if err != nil {
		return time.Time{}
	}
	return kickoff
}

// Gender labels a competition by whether its name mentions women.
func Gender(competition string) string {
	if strings.Contains(competition, "Frau") {
		return "Frau"
	}
	return "Mann"
}
