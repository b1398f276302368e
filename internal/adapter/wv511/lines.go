// Package wv511 reads the WV511 travel-delay page and hands its text to the
// delay-listing parser.
package wv511

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// lineBreakTags end a line when closed.
var lineBreakTags = map[string]bool{
	"div": true, "li": true, "p": true, "td": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "section": true,
}

// HTMLToLines flattens a page to its visible text lines. Script and style
// content is dropped, <br> and the closing tags of block elements end a line,
// other tags become spaces, entities are decoded, whitespace is collapsed and
// empty lines are removed.
func HTMLToLines(page []byte) []string {
	var (
		b    strings.Builder
		skip string
	)
	z := html.NewTokenizer(bytes.NewReader(page))
	for done := false; !done; {
		switch z.Next() {
		case html.ErrorToken:
			done = true
		case html.TextToken:
			if skip == "" {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch tag := string(name); {
			case tag == "script" || tag == "style":
				skip = tag
			case tag == "br":
				b.WriteByte('\n')
			default:
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == skip:
				skip = ""
				b.WriteByte(' ')
			case lineBreakTags[tag]:
				b.WriteByte('\n')
			default:
				b.WriteByte(' ')
			}
		}
	}

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if compact := strings.Join(strings.Fields(line), " "); compact != "" {
			lines = append(lines, compact)
		}
	}
	return lines
}
