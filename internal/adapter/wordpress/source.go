// Package wordpress searches a WordPress site's REST API for archived
// articles and turns matching posts into candidate incidents.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/i79-incident-etl/internal/adapter/fetch"
	"github.com/couchcryptid/i79-incident-etl/internal/domain"
)

const (
	postFields = "id,date_gmt,link,title,excerpt,content"

	// fatalityContentRunes and summaryContentRunes bound how much of a post
	// body feeds the fatality estimate and the fallback summary. Article
	// bodies often end with unrelated stories.
	fatalityContentRunes = 350
	summaryContentRunes  = 420
)

// Config describes one WordPress search endpoint.
type Config struct {
	APIURL   string
	Source   string
	Terms    []string
	MaxPages int
	PerPage  int
	Lookback time.Duration
}

type rendered struct {
	Rendered string `json:"rendered"`
}

type post struct {
	ID      *int64   `json:"id"`
	DateGMT string   `json:"date_gmt"`
	Link    string   `json:"link"`
	Title   rendered `json:"title"`
	Excerpt rendered `json:"excerpt"`
	Content rendered `json:"content"`
}

// Source extracts archived incidents by running each search term through the
// posts endpoint.
type Source struct {
	cfg      Config
	fetcher  fetch.Fetcher
	analyzer *domain.Analyzer
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewSource creates a WordPress search source.
func NewSource(cfg Config, f fetch.Fetcher, a *domain.Analyzer, clock clockwork.Clock, logger *slog.Logger) *Source {
	return &Source{cfg: cfg, fetcher: f, analyzer: a, clock: clock, logger: logger}
}

// Name identifies the source in logs and metrics.
func (s *Source) Name() string { return "wordpress" }

// Extract pages through every search term and returns the posts that describe
// in-region corridor incidents. Posts returned by several terms are considered
// once. An error is returned only when no page could be fetched at all.
func (s *Source) Extract(ctx context.Context) ([]domain.Incident, error) {
	// Truncated to the day so query URLs stay stable between runs on the
	// same day.
	after := s.clock.Now().Add(-s.cfg.Lookback).UTC().Truncate(24 * time.Hour).Format(time.RFC3339)
	seenPosts := make(map[int64]struct{})

	var (
		incidents []domain.Incident
		fetched   int
		lastErr   error
	)
	for _, term := range s.cfg.Terms {
		for page := 1; page <= s.cfg.MaxPages; page++ {
			if ctx.Err() != nil {
				return incidents, ctx.Err()
			}
			pageURL := s.searchURL(term, page, after)

			posts, more, err := s.fetchPage(ctx, pageURL)
			if err != nil {
				lastErr = err
				s.logger.Warn("search page failed", "term", term, "page", page, "error", err)
				if !more {
					break
				}
				continue
			}
			fetched++
			if !more {
				break
			}

			for _, p := range posts {
				if p.ID == nil {
					continue
				}
				if _, seen := seenPosts[*p.ID]; seen {
					continue
				}
				seenPosts[*p.ID] = struct{}{}
				if inc, ok := s.candidate(p); ok {
					incidents = append(incidents, inc)
				}
			}
		}
	}

	if fetched == 0 && lastErr != nil {
		return nil, fmt.Errorf("wordpress search: %w", lastErr)
	}
	return incidents, nil
}

func (s *Source) searchURL(term string, page int, after string) string {
	q := url.Values{}
	q.Set("search", term)
	q.Set("per_page", strconv.Itoa(s.cfg.PerPage))
	q.Set("page", strconv.Itoa(page))
	q.Set("after", after)
	q.Set("_fields", postFields)
	return s.cfg.APIURL + "?" + q.Encode()
}

// fetchPage returns the decodable posts on one results page. more reports
// whether the term may have further pages: WordPress answers 400 past the last
// page, and an empty or non-list payload also ends the term. Other failures
// skip just this page.
func (s *Source) fetchPage(ctx context.Context, pageURL string) (posts []post, more bool, err error) {
	var payload json.RawMessage
	if err := fetch.FetchJSON(ctx, s.fetcher, pageURL, &payload); err != nil {
		return nil, fetch.StatusCode(err) != http.StatusBadRequest, err
	}

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false, nil
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(trimmed, &rows); err != nil || len(rows) == 0 {
		return nil, false, nil
	}

	for _, row := range rows {
		var p post
		if err := json.Unmarshal(row, &p); err != nil {
			continue
		}
		posts = append(posts, p)
	}
	return posts, true, nil
}

func (s *Source) candidate(p post) (domain.Incident, bool) {
	c := s.analyzer.Classifier
	title := domain.CleanText(p.Title.Rendered)
	link := domain.CleanText(p.Link)
	excerpt := domain.CleanText(p.Excerpt.Rendered)
	content := domain.CleanText(p.Content.Rendered)

	if title == "" || link == "" || c.IsNonEventTitle(title) {
		return domain.Incident{}, false
	}
	blob := title + " " + excerpt + " " + content
	if !c.IsLikelyIncident(title+" "+excerpt) || !c.IsInRegionContext(blob) {
		return domain.Incident{}, false
	}

	summary := excerpt
	if summary == "" {
		summary = domain.Truncate(content, summaryContentRunes)
	}

	return s.analyzer.NewsCandidate(domain.NewsArticle{
		Title:            title,
		URL:              link,
		Source:           s.cfg.Source,
		PublishedAt:      domain.ParseWordPressDate(p.DateGMT),
		Summary:          summary,
		SourceType:       domain.SourceNewsArchive,
		LocationText:     blob,
		FatalityText:     title + " " + excerpt + " " + domain.Truncate(content, fatalityContentRunes),
		ConstructionText: blob,
	}), true
}
