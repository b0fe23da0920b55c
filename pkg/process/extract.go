package process

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Link is an anchor found inside a listing container.
type Link struct {
	Href string
	Text string
}

// ExtractLinks returns the absolute hrefs of all anchors below containerSel,
// in document order. Relative hrefs are resolved against baseURL or a <base>
// element if the page has one.
func ExtractLinks(body io.Reader, baseURL, containerSel string) ([]Link, error) {
	doc, err := html.Parse(body)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	if newBaseStr := findBase(doc); newBaseStr != "" {
		if newBase, err := base.Parse(newBaseStr); err == nil {
			base = newBase
		}
	}

	var links []Link
	goquery.NewDocumentFromNode(doc).Find(containerSel + " a[href]").Each(func(_ int, s *goquery.Selection) {
		val, _ := s.Attr("href")
		val = strings.TrimSpace(val)
		if val == "" {
			return
		}
		if resolved := resolve(val, base); resolved != "" {
			links = append(links, Link{
				Href: resolved,
				Text: strings.TrimSpace(s.Text()),
			})
		}
	})
	return links, nil
}

func findBase(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "base" {
		for _, attr := range n.Attr {
			if attr.Key == "href" {
				return attr.Val
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := findBase(c); res != "" {
			return res
		}
	}
	return ""
}

func resolve(ref string, base *url.URL) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	abs := base.ResolveReference(u)

	scheme := strings.ToLower(abs.Scheme)
	if scheme != "http" && scheme != "https" {
		return ""
	}

	return abs.String()
}

// LinkFilter decides which listing anchors are match detail links.
type LinkFilter struct {
	// Domain must occur in the href.
	Domain string
	// ExcludeMarker drops hrefs containing it (case-insensitive), e.g. club pages.
	ExcludeMarker string
}

// Apply normalizes the hrefs and drops empty ones, repeats within this
// batch, excluded ones and those outside the domain. Order is preserved.
func (f LinkFilter) Apply(links []Link) []string {
	marker := strings.ToLower(f.ExcludeMarker)
	seen := make(map[string]struct{}, len(links))
	out := make([]string, 0, len(links))

	for _, l := range links {
		href := NormalizeLink(l.Href)
		if href == "" {
			continue
		}
		if _, ok := seen[href]; ok {
			continue
		}
		if marker != "" && strings.Contains(strings.ToLower(href), marker) {
			continue
		}
		if f.Domain != "" && !strings.Contains(href, f.Domain) {
			continue
		}
		seen[href] = struct{}{}
		out = append(out, href)
	}
	return out
}
