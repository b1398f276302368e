// Package jsonfile persists the published dataset and reads the manual
// override document from local JSON files.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/couchcryptid/i79-incident-etl/internal/domain"
)

// OverrideStore reads the hand-edited override document.
type OverrideStore struct {
	path   string
	logger *slog.Logger
}

// NewOverrideStore creates a store for the document at path.
func NewOverrideStore(path string, logger *slog.Logger) *OverrideStore {
	return &OverrideStore{path: path, logger: logger}
}

// Overrides returns the document's patches and manual incidents. A missing or
// unreadable document yields an empty payload; malformed sections are
// skipped individually so one bad entry does not discard the rest.
func (s *OverrideStore) Overrides(_ context.Context) domain.OverridePayload {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.EmptyOverrides()
	}
	if err != nil {
		s.logger.Warn("override document unreadable, using none", "path", s.path, "error", err)
		return domain.EmptyOverrides()
	}

	payload, err := DecodeOverrides(data)
	if err != nil {
		s.logger.Warn("override document malformed, using none", "path", s.path, "error", err)
	}
	return payload
}

// DecodeOverrides parses an override document leniently. It returns an error
// (with an empty payload) only when the document is not a JSON object; patches
// that are not objects are dropped and manual entries that are not objects are
// kept as nil so the merge engine counts them as dropped.
func DecodeOverrides(data []byte) (domain.OverridePayload, error) {
	payload := domain.EmptyOverrides()

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return payload, err
	}
	if doc == nil {
		return payload, errors.New("override document is null")
	}

	var patches map[string]json.RawMessage
	if raw, ok := doc["incident_overrides"]; ok && json.Unmarshal(raw, &patches) == nil {
		for id, rawPatch := range patches {
			var patch map[string]any
			if json.Unmarshal(rawPatch, &patch) == nil && patch != nil {
				payload.IncidentOverrides[id] = patch
			}
		}
	}

	var manual []json.RawMessage
	if raw, ok := doc["manual_incidents"]; ok && json.Unmarshal(raw, &manual) == nil {
		for _, rawEntry := range manual {
			var entry map[string]any
			if json.Unmarshal(rawEntry, &entry) != nil {
				entry = nil
			}
			payload.ManualIncidents = append(payload.ManualIncidents, entry)
		}
	}

	return payload, nil
}
