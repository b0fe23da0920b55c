package process

import (
	"strings"

	"github.com/PuerkitoBio/purell"
)

// DetailInfix is the path segment the site inserts into match report links.
// Links with and without it point at the same match, so it is dropped before
// a link is used as an identity key.
const DetailInfix = "/Spielbericht/"

// NormalizeLink turns a scraped href into the key used by the link CSV and
// the miner's resume set. It never fails: if the URL cannot be parsed the
// infix-stripped string is returned as is.
func NormalizeLink(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	href = strings.ReplaceAll(href, DetailInfix, "/")

	normalized, err := Normalize(href)
	if err != nil {
		return href
	}
	return normalized
}

// Normalize applies the URL normalizations that never change which page a
// URL addresses. Query strings are left alone: the site uses bare query keys
// like "?Wiener-Stadtliga" that would not survive re-encoding.
func Normalize(url string) (string, error) {
	flags := purell.FlagsSafe |
		purell.FlagRemoveFragment |
		purell.FlagRemoveDotSegments

	return purell.NormalizeURLString(url, flags)
}
