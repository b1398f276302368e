// Package sitemap walks a news site's XML sitemaps, reads the metadata of
// articles whose URLs look relevant, and turns them into candidate incidents.
package sitemap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/couchcryptid/i79-incident-etl/internal/domain"
)

// Entry is one article URL listed in a sitemap.
type Entry struct {
	URL     string
	LastMod string
}

type urlSet struct {
	URLs []struct {
		Loc     string `xml:"loc"`
		LastMod string `xml:"lastmod"`
	} `xml:"url"`
}

type sitemapIndex struct {
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

func decodeXML(data []byte, v any) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	return dec.Decode(v)
}

// ParseURLSet returns the <url> entries of a sitemap document.
func ParseURLSet(data []byte) ([]Entry, error) {
	var set urlSet
	if err := decodeXML(data, &set); err != nil {
		return nil, fmt.Errorf("parse sitemap: %w", err)
	}
	entries := make([]Entry, 0, len(set.URLs))
	for _, u := range set.URLs {
		loc := strings.TrimSpace(u.Loc)
		if loc == "" {
			continue
		}
		entries = append(entries, Entry{URL: loc, LastMod: strings.TrimSpace(u.LastMod)})
	}
	return entries, nil
}

// ParseIndex returns the child sitemap locations listed in a sitemap index.
func ParseIndex(data []byte) ([]string, error) {
	var idx sitemapIndex
	if err := decodeXML(data, &idx); err != nil {
		return nil, fmt.Errorf("parse sitemap index: %w", err)
	}
	locs := make([]string, 0, len(idx.Sitemaps))
	for _, s := range idx.Sitemaps {
		if loc := strings.TrimSpace(s.Loc); loc != "" {
			locs = append(locs, loc)
		}
	}
	return locs, nil
}

// Article holds the metadata read from an article page.
type Article struct {
	Title       string
	Description string
	Published   string
}

// Meta property names read from article pages.
const (
	propTitle       = "og:title"
	propDescription = "og:description"
	propPublished   = "article:published_time"
)

// ParseArticle reads Open Graph metadata from an article page. The document
// <title> is used when og:title is missing. The first occurrence of each
// property wins.
func ParseArticle(page []byte) Article {
	var (
		a        Article
		docTitle string
		inTitle  bool
	)
	z := html.NewTokenizer(bytes.NewReader(page))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if a.Title == "" {
				a.Title = docTitle
			}
			return a
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "meta":
				readMeta(&a, tok.Attr)
			case "title":
				inTitle = docTitle == ""
			case "body":
				// Metadata lives in <head>; article bodies can be large.
				if a.Title == "" {
					a.Title = docTitle
				}
				return a
			}
		case html.TextToken:
			if inTitle {
				docTitle = domain.CleanText(string(z.Text()))
			}
		case html.EndTagToken:
			inTitle = false
		}
	}
}

func readMeta(a *Article, attrs []html.Attribute) {
	var property, content string
	for _, attr := range attrs {
		switch attr.Key {
		case "property":
			property = strings.ToLower(attr.Val)
		case "content":
			content = domain.CleanText(attr.Val)
		}
	}
	if content == "" {
		return
	}
	switch property {
	case propTitle:
		if a.Title == "" {
			a.Title = content
		}
	case propDescription:
		if a.Description == "" {
			a.Description = content
		}
	case propPublished:
		if a.Published == "" {
			a.Published = content
		}
	}
}
