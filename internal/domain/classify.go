package domain

import "strings"

// Classifier decides whether text describes an in-scope corridor incident.
type Classifier struct {
	lex *Lexicon
}

// NewClassifier creates a Classifier over the given tables.
func NewClassifier(lex *Lexicon) *Classifier {
	return &Classifier{lex: lex}
}

// IsLikelyIncident reports whether text mentions the corridor and at least one
// incident term. Both checks are case-insensitive substring tests.
func (c *Classifier) IsLikelyIncident(text string) bool {
	lowered := strings.ToLower(text)
	return containsAny(lowered, c.lex.CorridorForms) && containsAny(lowered, c.lex.IncidentTerms)
}

// IsInRegionContext reports whether text names an in-scope county, a county
// alias, or one of the region's cities. Archive sources use it to drop
// incidents elsewhere along the interstate.
func (c *Classifier) IsInRegionContext(text string) bool {
	lowered := strings.ToLower(text)
	return containsAny(lowered, c.lex.Counties) ||
		containsAny(lowered, c.lex.CountyAliases) ||
		containsAny(lowered, c.lex.RegionPlaces)
}

// IsNonEventTitle reports whether a title looks like a generic advice article
// rather than a report of a specific event.
func (c *Classifier) IsNonEventTitle(title string) bool {
	return containsAny(strings.ToLower(title), c.lex.NonEventTitleTerms)
}

// IsConstructionRelated reports whether text uses construction or maintenance
// vocabulary.
func (c *Classifier) IsConstructionRelated(text string) bool {
	return containsAny(strings.ToLower(text), c.lex.ConstructionTerms)
}

// IsInScopeCounty reports whether a raw county field names an in-scope county
// exactly, ignoring case.
func (c *Classifier) IsInScopeCounty(county string) bool {
	lowered := strings.ToLower(county)
	for _, name := range c.lex.Counties {
		if lowered == name {
			return true
		}
	}
	return false
}

func containsAny(lowered string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}
