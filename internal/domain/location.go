package domain

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Location is a resolved place name with optional coordinates. Coordinates are
// either both present or both absent.
type Location struct {
	Name   string
	Lat    float64
	Lon    float64
	HasGeo bool
}

// Coordinates returns pointers suitable for the nullable incident fields.
func (l Location) Coordinates() (*float64, *float64) {
	if !l.HasGeo {
		return nil, nil
	}
	lat, lon := l.Lat, l.Lon
	return &lat, &lon
}

// LocationResolver maps free text to a named place using the lexicon's county
// list and ordered hint table.
type LocationResolver struct {
	lex      *Lexicon
	counties []countyPattern
}

type countyPattern struct {
	name string
	re   *regexp.Regexp
}

// NewLocationResolver precompiles the county word-boundary patterns.
func NewLocationResolver(lex *Lexicon) *LocationResolver {
	counties := make([]countyPattern, 0, len(lex.Counties))
	for _, name := range lex.Counties {
		counties = append(counties, countyPattern{
			name: name,
			re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`),
		})
	}
	return &LocationResolver{lex: lex, counties: counties}
}

// Resolve returns the place the text most likely refers to.
//
// Counties matched on word boundaries take priority over every other place;
// among several counties the leftmost match wins. Without a county, the first
// hint in table order found anywhere in the text wins. Nothing matched yields
// UnspecifiedLocation with no coordinates.
func (r *LocationResolver) Resolve(text string) Location {
	lowered := strings.ToLower(text)

	best, bestStart := "", -1
	for _, c := range r.counties {
		loc := c.re.FindStringIndex(lowered)
		if loc == nil {
			continue
		}
		if bestStart == -1 || loc[0] < bestStart {
			best, bestStart = c.name, loc[0]
		}
	}
	if best != "" {
		if hint, ok := r.lex.Hint(best); ok {
			return hintLocation(hint)
		}
		return Location{Name: titleCase(best)}
	}

	for _, hint := range r.lex.LocationHints {
		if strings.Contains(lowered, hint.Name) {
			return hintLocation(hint)
		}
	}

	return Location{Name: UnspecifiedLocation}
}

func hintLocation(h LocationHint) Location {
	return Location{Name: titleCase(h.Name), Lat: h.Lat, Lon: h.Lon, HasGeo: true}
}

// titleCase upper-cases the first letter of each word, e.g.
// "marion county" -> "Marion County". A Caser is not safe for concurrent use,
// so one is built per call.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
