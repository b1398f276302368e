// Package feed reads RSS syndication feeds and turns their items into
// candidate incidents.
package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/couchcryptid/i79-incident-etl/internal/domain"
)

// Item is one feed entry with every field cleaned of markup.
type Item struct {
	Title       string
	Link        string
	Description string
	PubDate     string
	Source      string
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Source      string `xml:"source"`
}

// ParseItems returns every <item> element in the document, at any depth.
// Items without a <source> element are attributed to the link's host.
func ParseItems(data []byte) ([]Item, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var items []Item
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return items, nil
		}
		if err != nil {
			return items, fmt.Errorf("parse feed: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "item" {
			continue
		}
		var raw rssItem
		if err := dec.DecodeElement(&raw, &se); err != nil {
			return items, fmt.Errorf("decode feed item: %w", err)
		}
		items = append(items, newItem(raw))
	}
}

func newItem(raw rssItem) Item {
	it := Item{
		Title:       domain.CleanText(raw.Title),
		Link:        domain.CleanText(raw.Link),
		Description: domain.CleanText(raw.Description),
		PubDate:     domain.CleanText(raw.PubDate),
		Source:      domain.CleanText(raw.Source),
	}
	if it.Source == "" {
		it.Source = hostSource(it.Link)
	}
	return it
}

// hostSource names an origin by the link's host without a leading "www.".
func hostSource(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return strings.TrimPrefix(u.Host, "www.")
}
