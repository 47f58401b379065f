package importer

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Item is a link recovered from a bookmark file that points at a Drive
// entry.
type Item struct {
	ID    string
	Title string
	URL   string
}

var driveLinkPattern = regexp.MustCompile(`(?:/file/d/|/folders/|[?&]id=)([a-zA-Z0-9_-]{15,})`)

// ParseHTMLFavorites parses Netscape bookmark HTML and returns the Drive
// entries it links to, in document order. Links that do not carry a
// recognizable Drive id are skipped; duplicate ids keep the first
// occurrence.
func ParseHTMLFavorites(r io.Reader) ([]Item, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var items []Item
	seen := map[string]bool{}

	var parse func(*html.Node)
	parse = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "a") {
			href := getAttr(n, "href")
			id := entryID(href)
			if id != "" && !seen[id] {
				seen[id] = true
				title := getTextContent(n)
				if title == "" {
					title = href
				}
				items = append(items, Item{ID: id, Title: title, URL: href})
			}
			return // Don't recurse into A
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			parse(c)
		}
	}

	parse(doc)
	return items, nil
}

// entryID extracts a Drive file or folder id from a URL.
func entryID(href string) string {
	if href == "" {
		return ""
	}
	m := driveLinkPattern.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	return m[1]
}

// getTextContent returns the text content of a node.
func getTextContent(n *html.Node) string {
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(text.String())
}

// getAttr returns the value of an attribute, case-insensitive.
func getAttr(n *html.Node, key string) string {
	key = strings.ToLower(key)
	for _, attr := range n.Attr {
		if strings.ToLower(attr.Key) == key {
			return attr.Val
		}
	}
	return ""
}
