package process

import (
	"strings"

	"golang.org/x/net/html"
)

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "li": true, "main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "tr": true, "ul": true,
}

// TextLines approximates the rendered lines of n: block elements and <br>
// break lines, whitespace inside a line is collapsed, blank lines dropped.
func TextLines(n *html.Node) []string {
	var (
		lines []string
		sb    strings.Builder
	)
	flush := func() {
		line := strings.Join(strings.Fields(sb.String()), " ")
		if line != "" {
			lines = append(lines, line)
		}
		sb.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "iframe", "svg":
				return
			case "br":
				flush()
				return
			}
		}

		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}

	walk(n)
	flush()
	return lines
}
