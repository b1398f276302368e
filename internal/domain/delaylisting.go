package domain

import "strings"

// Labeled field prefixes on the delay listing page.
const (
	fieldLastUpdated = "Last Updated:"
	fieldCounty      = "County:"
	fieldDescription = "Description:"
	fieldComments    = "Comments:"
)

const (
	defaultEventTitle = "Traffic Event"
	// blobDigestLength is the number of hex characters in the pseudo-URL
	// fragment.
	blobDigestLength = 10
)

// DelayListingParser turns the text lines of the official delay listing into
// incidents. The page has no per-event URLs, so each incident gets a
// pseudo-URL derived from its content.
type DelayListingParser struct {
	analyzer *Analyzer
	pageURL  string
	source   string
}

// NewDelayListingParser creates a parser for the listing published at pageURL.
// source is the origin recorded on every incident, e.g. "wv511.org".
func NewDelayListingParser(a *Analyzer, pageURL, source string) *DelayListingParser {
	return &DelayListingParser{analyzer: a, pageURL: pageURL, source: source}
}

// delayBlock is one event section collected by the scanner.
type delayBlock struct {
	eventTitle  string
	lastUpdated string
	county      string
	description string
	comments    string
}

// Parse scans lines and returns one incident per accepted block, in page
// order.
//
// A block opens on a line starting with the corridor marker and runs until the
// next route heading (corridor or foreign) or the end of input. Blocks outside
// the in-scope counties are dropped, as are blocks whose non-empty description
// does not mention the corridor. Scanning always resumes at the first line the
// block did not consume.
func (p *DelayListingParser) Parse(lines []string) []Incident {
	marker := p.analyzer.Lexicon.CorridorMarker

	var incidents []Incident
	i := 0
	for i < len(lines) {
		line := lines[i]
		if !strings.HasPrefix(line, marker) {
			i++
			continue
		}

		block, end := p.scanBlock(lines, i)
		if inc, ok := p.accept(block); ok {
			incidents = append(incidents, inc)
		}
		i = max(i+1, end)
	}
	return incidents
}

// scanBlock collects the block opened at lines[start] and returns it with the
// index of the first line after it.
func (p *DelayListingParser) scanBlock(lines []string, start int) (delayBlock, int) {
	lex := p.analyzer.Lexicon
	title := strings.TrimSpace(strings.Replace(lines[start], lex.CorridorMarker, "", 1))
	if title == "" {
		title = defaultEventTitle
	}
	b := delayBlock{eventTitle: title}

	j := start + 1
	for ; j < len(lines); j++ {
		line := lines[j]
		switch {
		case strings.HasPrefix(line, fieldLastUpdated):
			b.lastUpdated = fieldValue(line)
		case strings.HasPrefix(line, fieldCounty):
			b.county = fieldValue(line)
		case strings.HasPrefix(line, fieldDescription):
			b.description = fieldValue(line)
		case strings.HasPrefix(line, fieldComments):
			b.comments = fieldValue(line)
		case strings.HasPrefix(line, lex.CorridorMarker), strings.HasPrefix(line, lex.RoutePrefix):
			// The next corridor block or a foreign route.
			return b, j
		}
	}
	return b, j
}

func (p *DelayListingParser) accept(b delayBlock) (Incident, bool) {
	a := p.analyzer
	if !a.Classifier.IsInScopeCounty(b.county) {
		return Incident{}, false
	}
	if b.description != "" && !strings.Contains(strings.ToLower(b.description), a.Lexicon.CorridorName) {
		return Incident{}, false
	}

	marker := a.Lexicon.CorridorMarker
	blob := strings.TrimSpace(marker + " " + b.eventTitle + " " + b.description + " " + b.comments)
	title := strings.TrimSpace(marker + " " + b.eventTitle)
	pseudoURL := p.pageURL + "#" + a.Lexicon.FragmentTag + "-" + shortDigest(blob, blobDigestLength)

	// The raw County field names the place; coordinates still come from the
	// resolver, which sees the county first.
	loc := a.Resolver.Resolve(b.county + " " + blob)
	loc.Name = b.county

	inc := Incident{
		ID:                  IncidentID(pseudoURL, title),
		Title:               title,
		URL:                 p.pageURL,
		Source:              p.source,
		PublishedAt:         ParseWV511Date(b.lastUpdated),
		Summary:             b.description,
		ConstructionRelated: a.Classifier.IsConstructionRelated(blob),
		SuspectedFatalities: a.Estimator.Estimate(blob),
		SourceType:          SourceOfficialWV511,
		VerificationStatus:  StatusOfficial,
		Notes:               b.comments,
	}
	inc.SetLocation(loc)
	return inc, true
}

// fieldValue returns the text after the first colon, trimmed.
func fieldValue(line string) string {
	_, value, _ := strings.Cut(line, ":")
	return strings.TrimSpace(value)
}
