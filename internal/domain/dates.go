package domain

import (
	"strings"
	"time"
)

// Every date parser returns an RFC 3339 UTC timestamp, or "" when
// the input is empty or unparseable. "" sorts last and is never treated as
// older than a cutoff.

// wv511Layout accepts zero-padded and unpadded month, day and hour.
const wv511Layout = "1/2/2006 3:04:05 PM"

// feedLayouts covers the RFC 822/1123 variants seen in RSS pubDate fields.
var feedLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC822Z,
	time.RFC822,
}

// rfc822Zones maps the named zones of RFC 822 section 5 to UTC offsets in
// hours. time.Parse records an unknown abbreviation with a zero offset.
var rfc822Zones = map[string]int{
	"UT": 0, "GMT": 0, "Z": 0,
	"EST": -5, "EDT": -4,
	"CST": -6, "CDT": -5,
	"MST": -7, "MDT": -6,
	"PST": -8, "PDT": -7,
}

// isoLayouts covers ISO 8601 with and without offset or fraction.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatTimestamp renders t in the dataset's timestamp format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseFeedDate parses an RSS pubDate. RFC 822 zone names (EST, PDT, ...)
// take their standard offsets; other named zones are read as UTC.
func ParseFeedDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range feedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return FormatTimestamp(withRFC822Zone(t))
		}
	}
	return ""
}

// ParseISODate parses an ISO 8601 timestamp. A trailing "Z" is accepted and
// timestamps without an offset are read as UTC.
func ParseISODate(raw string) string {
	t, ok := parseISO(raw)
	if !ok {
		return ""
	}
	return FormatTimestamp(t)
}

// ParseWordPressDate parses a WordPress date_gmt value, which carries no
// offset but is UTC by definition.
func ParseWordPressDate(raw string) string {
	return ParseISODate(raw)
}

// ParseWV511Date parses the delay listing's "Last Updated" stamp
// (MM/DD/YYYY hh:mm:ss AM), read as UTC.
func ParseWV511Date(raw string) string {
	t, err := time.Parse(wv511Layout, strings.ToUpper(strings.TrimSpace(raw)))
	if err != nil {
		return ""
	}
	return FormatTimestamp(t)
}

// ParseTimestamp parses a dataset timestamp back into a time.
func ParseTimestamp(raw string) (time.Time, bool) {
	return parseISO(raw)
}

func parseISO(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// withRFC822Zone re-reads t's wall clock in the offset its zone name stands
// for when the name is an RFC 822 zone.
func withRFC822Zone(t time.Time) time.Time {
	name, _ := t.Zone()
	hours, ok := rfc822Zones[name]
	if !ok {
		return t
	}
	loc := time.FixedZone(name, hours*60*60)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}
