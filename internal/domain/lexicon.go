package domain

// LocationHint is a named place with approximate WGS-84 coordinates.
type LocationHint struct {
	Name string
	Lat  float64
	Lon  float64
}

// Lexicon holds the keyword and place tables the classifier, resolver,
// estimator and delay-listing parser run against. All strings except the
// delay-listing prefixes are lower case. Build one at startup and treat it as
// read-only.
type Lexicon struct {
	// CorridorForms are the surface forms that count as a corridor mention.
	CorridorForms []string
	// IncidentTerms mark text as describing a crash or similar event.
	IncidentTerms []string
	// ConstructionTerms mark text as construction or maintenance related.
	ConstructionTerms []string
	// FatalClues gate fatality estimation.
	FatalClues []string
	// NonEventTitleTerms reject generic advice articles by title.
	NonEventTitleTerms []string

	// Counties are the in-scope counties, in declaration order.
	Counties []string
	// CountyAliases are abbreviations accepted by the region check.
	CountyAliases []string
	// RegionPlaces are cities and places accepted by the region check.
	RegionPlaces []string
	// LocationHints is the ordered place table. Counties must also appear here
	// so they resolve to coordinates.
	LocationHints []LocationHint

	// SpelledNumbers maps number words to values for the fallback patterns.
	SpelledNumbers map[string]int

	// CorridorMarker is the case-sensitive line prefix that opens a block on
	// the delay listing page. RoutePrefix is the generic prefix of any route
	// heading. A line starting with either one ends the current block, so the
	// marker need not start with RoutePrefix.
	CorridorMarker string
	RoutePrefix    string
	// CorridorName is the lower-cased name a block description must mention.
	CorridorName string
	// FragmentTag prefixes the content digest in delay-listing pseudo-URLs.
	FragmentTag string
}

// Hint looks up a place in the hint table by lower-case name.
func (l *Lexicon) Hint(name string) (LocationHint, bool) {
	for _, h := range l.LocationHints {
		if h.Name == name {
			return h, true
		}
	}
	return LocationHint{}, false
}

// DefaultLexicon returns the tables for I-79 in Monongalia, Marion and
// Harrison counties.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		CorridorForms: []string{"i-79", "i 79", "interstate 79"},
		IncidentTerms: []string{
			"accident",
			"crash",
			"wreck",
			"collision",
			"vehicle fire",
			"rolled over",
			"rollover",
			"tractor trailer",
			"traffic backup",
		},
		ConstructionTerms: []string{
			"construction",
			"work zone",
			"bridge work",
			"bridge deck repairs",
			"paving",
			"lane closure",
			"detour",
			"road work",
			"maintenance",
		},
		FatalClues: []string{
			"fatal",
			"killed",
			"died",
			"dead",
			"medical examiner called",
			"pronounced dead",
			"dead at the scene",
			"dead at scene",
		},
		NonEventTitleTerms: []string{
			"discusses what might cause",
			"what might cause accidents",
			"safety tips",
			"how to avoid",
			"why crashes happen",
		},
		Counties:      []string{"monongalia county", "marion county", "harrison county"},
		CountyAliases: []string{"mon county", "marion co", "harrison co"},
		RegionPlaces:  []string{"morgantown", "fairmont", "bridgeport", "clarksburg", "white hall", "weston"},
		LocationHints: []LocationHint{
			{Name: "morgantown", Lat: 39.6295, Lon: -79.9559},
			{Name: "star city", Lat: 39.6579, Lon: -79.9862},
			{Name: "fairmont", Lat: 39.4851, Lon: -80.1426},
			{Name: "white hall", Lat: 39.4443, Lon: -80.1723},
			{Name: "bridgeport", Lat: 39.2865, Lon: -80.2562},
			{Name: "clarksburg", Lat: 39.2806, Lon: -80.3445},
			{Name: "weston", Lat: 39.0384, Lon: -80.4673},
			{Name: "stonewood", Lat: 39.2462, Lon: -80.3009},
			{Name: "lost creek", Lat: 39.1615, Lon: -80.3731},
			{Name: "monongalia county", Lat: 39.6525, Lon: -80.0041},
			{Name: "marion county", Lat: 39.4568, Lon: -80.1542},
			{Name: "harrison county", Lat: 39.3032, Lon: -80.3781},
		},
		SpelledNumbers: map[string]int{
			"one":   1,
			"two":   2,
			"three": 3,
			"four":  4,
			"five":  5,
			"six":   6,
		},
		CorridorMarker: "I-79",
		RoutePrefix:    "I-",
		CorridorName:   "i-79",
		FragmentTag:    "i79",
	}
}
