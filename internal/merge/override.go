package merge

import (
	"strings"

	"github.com/couchcryptid/i79-incident-etl/internal/domain"
)

// Patchable field names in an incident override.
const (
	fieldConstructionRelated = "construction_related"
	fieldSuspectedFatalities = "suspected_fatalities"
	fieldVerifiedFatalities  = "verified_fatalities"
	fieldVerificationStatus  = "verification_status"
	fieldNotes               = "notes"
)

const defaultManualURL = "manual://local"

// ApplyOverrides patches existing incidents and then inserts manual incidents.
// It must run after every source has been added.
func (e *Engine) ApplyOverrides(payload domain.OverridePayload) {
	for id, patch := range payload.IncidentOverrides {
		inc, ok := e.incidents[id]
		if !ok || patch == nil {
			e.stats.UnknownOverrides++
			continue
		}
		e.incidents[id] = e.patch(id, inc, patch)
		e.stats.Patched++
	}

	for i, raw := range payload.ManualIncidents {
		inc, ok := e.manualIncident(raw)
		if !ok {
			e.stats.ManualDropped++
			e.logger.Warn("manual incident dropped: missing title", "index", i)
			continue
		}
		if _, exists := e.incidents[inc.ID]; exists {
			e.stats.ManualReplaced++
		} else {
			e.stats.ManualAdded++
		}
		e.incidents[inc.ID] = inc
	}
}

// patch applies the recognized fields present in p. Absent fields keep their
// value; fields that cannot be coerced are skipped.
func (e *Engine) patch(id string, inc domain.Incident, p map[string]any) domain.Incident {
	if v, ok := p[fieldConstructionRelated]; ok {
		inc.ConstructionRelated = coerceBool(v)
	}
	if v, ok := p[fieldSuspectedFatalities]; ok {
		if n, ok := coerceCount(v); ok {
			inc.SuspectedFatalities = n
		} else {
			e.logger.Warn("override field ignored", "id", id, "field", fieldSuspectedFatalities, "value", v)
		}
	}
	if v, ok := p[fieldVerifiedFatalities]; ok {
		if n, ok := coerceOptionalCount(v); ok {
			inc.VerifiedFatalities = n
		} else {
			e.logger.Warn("override field ignored", "id", id, "field", fieldVerifiedFatalities, "value", v)
		}
	}
	if v, ok := p[fieldVerificationStatus]; ok {
		inc.VerificationStatus = domain.VerificationStatus(coerceString(v))
	}
	if v, ok := p[fieldNotes]; ok {
		inc.Notes = coerceString(v)
	}
	return inc
}

// manualIncident builds a hand-entered record. Fields the record omits take
// their defaults, never values from an adapter record with the same ID.
func (e *Engine) manualIncident(raw map[string]any) (domain.Incident, bool) {
	if raw == nil {
		return domain.Incident{}, false
	}
	title := strings.TrimSpace(stringField(raw, "title", ""))
	if title == "" {
		return domain.Incident{}, false
	}
	url := strings.TrimSpace(stringField(raw, "url", defaultManualURL))
	if url == "" {
		url = defaultManualURL
	}
	summary := stringField(raw, "summary", "")

	resolved := e.analyzer.Resolver.Resolve(title + " " + summary)

	inc := domain.Incident{
		ID:                  domain.IncidentID(url, title),
		Title:               title,
		URL:                 url,
		Source:              stringField(raw, "source", "manual"),
		PublishedAt:         domain.ParseISODate(stringField(raw, "published_at", "")),
		Summary:             summary,
		LocationText:        stringField(raw, "location_text", resolved.Name),
		SourceType:          domain.SourceType(stringField(raw, "source_type", string(domain.SourceManual))),
		VerificationStatus:  domain.VerificationStatus(stringField(raw, "verification_status", string(domain.StatusVerified))),
		Notes:               stringField(raw, "notes", ""),
		ConstructionRelated: coerceBool(raw["construction_related"]),
	}
	inc.Lat, inc.Lon = manualCoordinates(raw, resolved)

	if v, ok := raw[fieldSuspectedFatalities]; ok {
		if n, ok := coerceCount(v); ok {
			inc.SuspectedFatalities = n
		}
	}
	if v, ok := raw[fieldVerifiedFatalities]; ok {
		if n, ok := coerceOptionalCount(v); ok {
			inc.VerifiedFatalities = n
		}
	}
	return inc, true
}

// manualCoordinates uses the record's own lat/lon only when both are numbers,
// so the pair is never half set. Otherwise the resolver's pair is used.
func manualCoordinates(raw map[string]any, resolved domain.Location) (*float64, *float64) {
	lat, latOK := coerceFloat(raw["lat"])
	lon, lonOK := coerceFloat(raw["lon"])
	if latOK && lonOK {
		return &lat, &lon
	}
	return resolved.Coordinates()
}

func stringField(raw map[string]any, key, def string) string {
	v, ok := raw[key]
	if !ok {
		return def
	}
	return coerceString(v)
}
