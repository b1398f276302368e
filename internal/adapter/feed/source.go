package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/i79-incident-etl/internal/adapter/fetch"
	"github.com/couchcryptid/i79-incident-etl/internal/domain"
)

// Source extracts live incidents from a list of RSS feeds.
type Source struct {
	feeds    []string
	fetcher  fetch.Fetcher
	analyzer *domain.Analyzer
	logger   *slog.Logger
}

// NewSource creates a feed source over the given feed URLs.
func NewSource(feeds []string, f fetch.Fetcher, a *domain.Analyzer, logger *slog.Logger) *Source {
	return &Source{feeds: feeds, fetcher: f, analyzer: a, logger: logger}
}

// Name identifies the source in logs and metrics.
func (s *Source) Name() string { return "feed" }

// Extract fetches every feed and returns the relevant items as incidents. A
// feed that fails is skipped; an error is returned only when every feed failed.
func (s *Source) Extract(ctx context.Context) ([]domain.Incident, error) {
	var (
		incidents []domain.Incident
		errs      []error
	)
	for _, feedURL := range s.feeds {
		body, err := s.fetcher.Fetch(ctx, feedURL)
		if err != nil {
			s.logger.Warn("feed fetch failed", "url", feedURL, "error", err)
			errs = append(errs, err)
			continue
		}

		items, err := ParseItems(body)
		if err != nil {
			// Keep whatever decoded before the malformed part.
			s.logger.Warn("feed parse failed", "url", feedURL, "items", len(items), "error", err)
		}
		for _, it := range items {
			if inc, ok := s.candidate(it); ok {
				incidents = append(incidents, inc)
			}
		}
	}

	if len(s.feeds) > 0 && len(errs) == len(s.feeds) {
		return nil, fmt.Errorf("all feeds failed: %w", errors.Join(errs...))
	}
	return incidents, nil
}

// candidate converts a feed item into an incident when it describes an
// on-corridor event.
func (s *Source) candidate(it Item) (domain.Incident, bool) {
	c := s.analyzer.Classifier
	blob := it.Title + " " + it.Description
	if !c.IsLikelyIncident(blob) || it.Link == "" || c.IsNonEventTitle(it.Title) {
		return domain.Incident{}, false
	}

	return s.analyzer.NewsCandidate(domain.NewsArticle{
		Title:            it.Title,
		URL:              it.Link,
		Source:           it.Source,
		PublishedAt:      domain.ParseFeedDate(it.PubDate),
		Summary:          it.Description,
		SourceType:       domain.SourceNews,
		LocationText:     blob,
		FatalityText:     blob,
		ConstructionText: blob,
	}), true
}
