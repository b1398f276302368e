package main

import (
	"regexp"
	"slices"
	"time"

	"github.com/couchcryptid/i79-incident-etl/internal/domain"
	"github.com/couchcryptid/i79-incident-etl/internal/merge"
)

var idPattern = regexp.MustCompile(`^[0-9a-f]{12}$`)

var (
	validSourceTypes = []domain.SourceType{
		domain.SourceNews,
		domain.SourceNewsArchive,
		domain.SourceSitemap,
		domain.SourceOfficialWV511,
		domain.SourceManual,
	}
	validStatuses = []domain.VerificationStatus{
		domain.StatusUnverified,
		domain.StatusOfficial,
		domain.StatusVerified,
	}
)

// ── Phase 1: record schema ──

func validateSchema(incidents []domain.Incident) *phase {
	p := &phase{name: "Phase 1: Record schema"}
	for i, inc := range incidents {
		if !idPattern.MatchString(inc.ID) {
			p.errorf("record %d: id %q is not 12 lowercase hex characters", i, inc.ID)
		}
		if inc.Title == "" {
			p.errorf("record %d (%s): empty title", i, inc.ID)
		}
		if !slices.Contains(validSourceTypes, inc.SourceType) {
			p.errorf("record %d (%s): unknown source_type %q", i, inc.ID, inc.SourceType)
		}
		if !slices.Contains(validStatuses, inc.VerificationStatus) {
			p.errorf("record %d (%s): unknown verification_status %q", i, inc.ID, inc.VerificationStatus)
		}
		if (inc.Lat == nil) != (inc.Lon == nil) {
			p.errorf("record %d (%s): lat and lon must both be set or both be null", i, inc.ID)
		}
		if inc.SuspectedFatalities < 0 {
			p.errorf("record %d (%s): negative suspected_fatalities", i, inc.ID)
		}
		if inc.VerifiedFatalities != nil && *inc.VerifiedFatalities < 0 {
			p.errorf("record %d (%s): negative verified_fatalities", i, inc.ID)
		}
		if inc.PublishedAt != "" {
			if _, err := time.Parse(time.RFC3339, inc.PublishedAt); err != nil {
				p.errorf("record %d (%s): published_at %q is not RFC 3339", i, inc.ID, inc.PublishedAt)
			}
		}
	}
	return p
}

// ── Phase 2: identity ──

// validateIdentity checks uniqueness and that IDs derive from url and title.
// Delay-listing records key on a content pseudo-URL that is not published,
// so only their uniqueness is checked.
func validateIdentity(incidents []domain.Incident) *phase {
	p := &phase{name: "Phase 2: Identity"}
	seen := make(map[string]int, len(incidents))
	for i, inc := range incidents {
		if first, dup := seen[inc.ID]; dup {
			p.errorf("record %d: duplicate id %s (first at record %d)", i, inc.ID, first)
			continue
		}
		seen[inc.ID] = i

		if inc.SourceType == domain.SourceOfficialWV511 {
			continue
		}
		if want := domain.IncidentID(inc.URL, inc.Title); inc.ID != want {
			p.errorf("record %d: id %s does not match url and title (want %s)", i, inc.ID, want)
		}
	}
	return p
}

// ── Phase 3: ordering ──

func validateOrdering(incidents []domain.Incident) *phase {
	p := &phase{name: "Phase 3: Ordering (newest first)"}
	sorted := slices.Clone(incidents)
	merge.SortIncidents(sorted)
	for i := range incidents {
		if incidents[i].ID != sorted[i].ID {
			p.errorf("record %d: found %s, expected %s", i, incidents[i].ID, sorted[i].ID)
			break
		}
	}
	return p
}

// ── Phase 4: summary ──

func validateSummary(ds domain.Dataset) *phase {
	p := &phase{name: "Phase 4: Summary statistics"}

	generated, ok := domain.ParseTimestamp(ds.Summary.GeneratedAt)
	if !ok {
		p.errorf("generated_at %q is not a timestamp", ds.Summary.GeneratedAt)
	}

	want := merge.Summarize(ds.Incidents, generated)
	want.GeneratedAt = ds.Summary.GeneratedAt
	got := ds.Summary

	check := func(field string, got, want int) {
		if got != want {
			p.errorf("%s: summary says %d, records give %d", field, got, want)
		}
	}
	check("incident_count", got.IncidentCount, want.IncidentCount)
	check("suspected_fatalities", got.SuspectedFatalities, want.SuspectedFatalities)
	check("construction_related_count", got.ConstructionRelatedCount, want.ConstructionRelatedCount)
	check("official_source_count", got.OfficialSourceCount, want.OfficialSourceCount)
	check("verified_count", got.VerifiedCount, want.VerifiedCount)
	return p
}

// ── Phase 5: override targets ──

func validateOverrideTargets(payload domain.OverridePayload, incidents []domain.Incident) *phase {
	p := &phase{name: "Phase 5: Override targets"}
	published := make(map[string]bool, len(incidents))
	for _, inc := range incidents {
		published[inc.ID] = true
	}

	ids := make([]string, 0, len(payload.IncidentOverrides))
	for id := range payload.IncidentOverrides {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if !published[id] {
			p.errorf("override %s targets no published incident", id)
		}
	}
	return p
}
