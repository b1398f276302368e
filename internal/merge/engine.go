// Package merge consolidates candidate incidents from every source into one
// deduplicated dataset and applies hand-curated corrections.
//
// An Engine lives for exactly one run. Callers add candidate batches in
// source-priority order, apply the override document once, then finalize.
// The engine is not safe for concurrent use; the pipeline owns it on a single
// goroutine after every source has finished.
package merge

import (
	"cmp"
	"log/slog"
	"slices"
	"time"

	"github.com/couchcryptid/i79-incident-etl/internal/domain"
)

// Stats counts what happened to candidates and overrides during a run.
type Stats struct {
	Candidates       int
	Added            int
	Duplicates       int
	Patched          int
	UnknownOverrides int
	ManualAdded      int
	ManualReplaced   int
	ManualDropped    int
}

// Engine is the per-run arena mapping incident IDs to records.
type Engine struct {
	analyzer  *domain.Analyzer
	logger    *slog.Logger
	incidents map[string]domain.Incident
	stats     Stats
}

// NewEngine creates an empty engine. The analyzer resolves locations for
// manual incidents that do not supply their own.
func NewEngine(a *domain.Analyzer, logger *slog.Logger) *Engine {
	return &Engine{
		analyzer:  a,
		logger:    logger,
		incidents: make(map[string]domain.Incident),
	}
}

// Add inserts candidates whose IDs have not been seen yet and returns how many
// were inserted. An existing record is never replaced, so the first source to
// report an ID wins.
func (e *Engine) Add(candidates []domain.Incident) int {
	added := 0
	for _, inc := range candidates {
		e.stats.Candidates++
		if _, seen := e.incidents[inc.ID]; seen {
			e.stats.Duplicates++
			continue
		}
		e.incidents[inc.ID] = inc
		added++
	}
	e.stats.Added += added
	return added
}

// Len returns the number of incidents currently held.
func (e *Engine) Len() int {
	return len(e.incidents)
}

// Stats returns a snapshot of the run counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Finalize sorts the incidents newest first and computes the summary. Records
// with no timestamp sort last; ties are broken by ID so output is stable
// across runs.
func (e *Engine) Finalize(now time.Time) domain.Dataset {
	incidents := make([]domain.Incident, 0, len(e.incidents))
	for _, inc := range e.incidents {
		incidents = append(incidents, inc)
	}
	SortIncidents(incidents)

	return domain.Dataset{
		Summary:   Summarize(incidents, now),
		Incidents: incidents,
	}
}

// SortIncidents orders incidents by published time descending. Unknown or
// unparseable timestamps sort after every known one.
func SortIncidents(incidents []domain.Incident) {
	type key struct {
		at    time.Time
		known bool
	}
	keys := make(map[string]key, len(incidents))
	for _, inc := range incidents {
		at, ok := domain.ParseTimestamp(inc.PublishedAt)
		keys[inc.ID] = key{at: at, known: ok}
	}

	slices.SortFunc(incidents, func(a, b domain.Incident) int {
		ka, kb := keys[a.ID], keys[b.ID]
		switch {
		case ka.known && !kb.known:
			return -1
		case !ka.known && kb.known:
			return 1
		case ka.known && kb.known && !ka.at.Equal(kb.at):
			return kb.at.Compare(ka.at)
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// Summarize computes aggregate statistics. Fatalities use each incident's
// effective count.
func Summarize(incidents []domain.Incident, now time.Time) domain.Summary {
	s := domain.Summary{
		GeneratedAt:   domain.FormatTimestamp(now),
		IncidentCount: len(incidents),
	}
	for _, inc := range incidents {
		s.SuspectedFatalities += inc.EffectiveFatalities()
		if inc.ConstructionRelated {
			s.ConstructionRelatedCount++
		}
		if inc.SourceType == domain.SourceOfficialWV511 {
			s.OfficialSourceCount++
		}
		if inc.IsVerified() {
			s.VerifiedCount++
		}
	}
	return s
}
