package wv511

import (
	"context"
	"fmt"

	"github.com/couchcryptid/i79-incident-etl/internal/adapter/fetch"
	"github.com/couchcryptid/i79-incident-etl/internal/domain"
)

// Source extracts official incidents from the delay listing page.
type Source struct {
	pageURL string
	fetcher fetch.Fetcher
	parser  *domain.DelayListingParser
}

// NewSource creates a source for the listing at pageURL. source names the
// origin on every incident.
func NewSource(pageURL, source string, f fetch.Fetcher, a *domain.Analyzer) *Source {
	return &Source{
		pageURL: pageURL,
		fetcher: f,
		parser:  domain.NewDelayListingParser(a, pageURL, source),
	}
}

// Name identifies the source in logs and metrics.
func (s *Source) Name() string { return "wv511" }

// Extract fetches the listing and parses it into incidents.
func (s *Source) Extract(ctx context.Context) ([]domain.Incident, error) {
	page, err := s.fetcher.Fetch(ctx, s.pageURL)
	if err != nil {
		return nil, fmt.Errorf("delay listing: %w", err)
	}
	return s.parser.Parse(HTMLToLines(page)), nil
}
