package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDelayURL = "https://www.wv511.org/TravelConditions/TravelDelay.aspx"

var sampleDelayLines = []string{
	"I-79 Possible Delay",
	"Last Updated: 02/15/2025 10:30:00 AM",
	"County: Marion County",
	"Description: I-79 southbound lane closure near Fairmont due to crash.",
	"Comments: Use caution",
	"I-77 Some Other Event",
	"County: Kanawha County",
	"Description: I-77 construction.",
	"I-79 Road Work",
	"Last Updated: 02/15/2025 11:00:00 AM",
	"County: Monongalia County",
	"Description: I-79 lane closure for paving near Morgantown.",
}

func newTestDelayParser() *DelayListingParser {
	return NewDelayListingParser(NewAnalyzer(DefaultLexicon()), testDelayURL, "wv511.org")
}

func TestDelayListingParser_Sample(t *testing.T) {
	incidents := newTestDelayParser().Parse(sampleDelayLines)
	require.Len(t, incidents, 2)

	first := incidents[0]
	assert.Equal(t, "1d4d50f66771", first.ID)
	assert.Equal(t, "I-79 Possible Delay", first.Title)
	assert.Equal(t, testDelayURL, first.URL)
	assert.Equal(t, "wv511.org", first.Source)
	assert.Equal(t, "2025-02-15T10:30:00Z", first.PublishedAt)
	assert.Equal(t, "I-79 southbound lane closure near Fairmont due to crash.", first.Summary)
	assert.Equal(t, "Marion County", first.LocationText)
	require.NotNil(t, first.Lat)
	assert.Equal(t, 39.4568, *first.Lat)
	assert.True(t, first.ConstructionRelated)
	assert.Equal(t, 0, first.SuspectedFatalities)
	assert.Equal(t, SourceOfficialWV511, first.SourceType)
	assert.Equal(t, StatusOfficial, first.VerificationStatus)
	assert.Nil(t, first.VerifiedFatalities)
	assert.Equal(t, "Use caution", first.Notes)

	second := incidents[1]
	assert.Equal(t, "ee6425ac707a", second.ID)
	assert.Equal(t, "I-79 Road Work", second.Title)
	assert.Equal(t, "Monongalia County", second.LocationText)
	assert.Equal(t, "2025-02-15T11:00:00Z", second.PublishedAt)
	assert.True(t, second.ConstructionRelated)
	assert.Empty(t, second.Notes)

	for _, inc := range incidents {
		assert.NotContains(t, inc.Title, "I-77")
	}
}

func TestDelayListingParser_SingleBlock(t *testing.T) {
	incidents := newTestDelayParser().Parse(sampleDelayLines[:5])

	require.Len(t, incidents, 1)
	assert.Equal(t, SourceOfficialWV511, incidents[0].SourceType)
	assert.Equal(t, StatusOfficial, incidents[0].VerificationStatus)
}

func TestDelayListingParser_Blocks(t *testing.T) {
	tests := []struct {
		name       string
		lines      []string
		wantTitles []string
	}{
		{
			name: "out of scope county dropped even when description mentions corridor",
			lines: []string{
				"I-79 Crash",
				"County: Lewis County",
				"Description: I-79 northbound crash near Weston.",
			},
			wantTitles: nil,
		},
		{
			name: "missing county dropped",
			lines: []string{
				"I-79 Crash",
				"Description: I-79 northbound crash.",
			},
			wantTitles: nil,
		},
		{
			name: "empty description accepted",
			lines: []string{
				"I-79 Disabled Vehicle",
				"County: Harrison County",
			},
			wantTitles: []string{"I-79 Disabled Vehicle"},
		},
		{
			name: "description without corridor dropped",
			lines: []string{
				"I-79 Crash",
				"County: Marion County",
				"Description: US-250 closed near Fairmont.",
			},
			wantTitles: nil,
		},
		{
			name: "empty heading gets default title",
			lines: []string{
				"I-79",
				"County: Marion County",
			},
			wantTitles: []string{"I-79 Traffic Event"},
		},
		{
			name: "adjacent corridor blocks both parsed",
			lines: []string{
				"I-79 First",
				"County: Marion County",
				"I-79 Second",
				"County: Harrison County",
			},
			wantTitles: []string{"I-79 First", "I-79 Second"},
		},
		{
			name: "rejected block does not hide the next one",
			lines: []string{
				"I-79 Elsewhere",
				"County: Kanawha County",
				"I-79 Here",
				"County: Monongalia County",
			},
			wantTitles: []string{"I-79 Here"},
		},
		{
			name: "unlabeled lines ignored",
			lines: []string{
				"Travel Delays",
				"I-79 Crash",
				"Northbound",
				"County: Marion County",
				"Lanes affected: 1",
			},
			wantTitles: []string{"I-79 Crash"},
		},
		{
			name:       "no blocks",
			lines:      []string{"Travel Delays", "No events"},
			wantTitles: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			incidents := newTestDelayParser().Parse(tt.lines)

			var titles []string
			for _, inc := range incidents {
				titles = append(titles, inc.Title)
			}
			assert.Equal(t, tt.wantTitles, titles)
		})
	}
}

func TestDelayListingParser_ForeignRouteEndsBlock(t *testing.T) {
	lines := []string{
		"I-79 Crash",
		"County: Marion County",
		"I-68 Event",
		"Description: I-68 closed near Morgantown.",
		"Comments: Expect delays",
	}

	incidents := newTestDelayParser().Parse(lines)

	require.Len(t, incidents, 1)
	assert.Empty(t, incidents[0].Summary, "fields after a foreign route must not bleed into the block")
	assert.Empty(t, incidents[0].Notes)
}

func TestDelayListingParser_MarkerOutsideRoutePrefix(t *testing.T) {
	lex := DefaultLexicon()
	lex.RoutePrefix = "Route "
	parser := NewDelayListingParser(NewAnalyzer(lex), testDelayURL, "wv511.org")

	lines := []string{
		"I-79 Crash",
		"County: Marion County",
		"Description: I-79 crash near Fairmont.",
		"I-79 Road Work",
		"County: Monongalia County",
		"Description: I-79 paving near Morgantown.",
		"Route 19 Event",
		"Description: I-79 detour signs posted.",
	}

	incidents := parser.Parse(lines)

	require.Len(t, incidents, 2, "each corridor line must open its own block")
	assert.Equal(t, "I-79 Crash", incidents[0].Title)
	assert.Equal(t, "I-79 crash near Fairmont.", incidents[0].Summary)
	assert.Equal(t, "I-79 Road Work", incidents[1].Title)
	assert.Equal(t, "I-79 paving near Morgantown.", incidents[1].Summary)
}

func TestDelayListingParser_FieldValues(t *testing.T) {
	lines := []string{
		"I-79 Fatal Crash",
		"County: marion county",
		"Description: I-79 closed: two dead after crash near White Hall",
		"Comments:   Detour via US-19  ",
	}

	incidents := newTestDelayParser().Parse(lines)

	require.Len(t, incidents, 1)
	inc := incidents[0]
	assert.Equal(t, "marion county", inc.LocationText, "raw county text is kept")
	assert.Equal(t, "I-79 closed: two dead after crash near White Hall", inc.Summary)
	assert.Equal(t, "Detour via US-19", inc.Notes)
	assert.Equal(t, 2, inc.SuspectedFatalities)
	assert.True(t, inc.ConstructionRelated)
	assert.Empty(t, inc.PublishedAt)
}

func TestDelayListingParser_ContentDerivedID(t *testing.T) {
	p := newTestDelayParser()
	block := []string{"I-79 Crash", "County: Marion County", "Description: I-79 crash.", "Comments: A"}
	changed := []string{"I-79 Crash", "County: Marion County", "Description: I-79 crash.", "Comments: B"}

	a := p.Parse(block)
	b := p.Parse(block)
	c := p.Parse(changed)

	require.Len(t, a, 1)
	require.Len(t, c, 1)
	assert.Equal(t, a[0].ID, b[0].ID)
	assert.NotEqual(t, a[0].ID, c[0].ID)
	assert.Equal(t, a[0].URL, c[0].URL)
}
