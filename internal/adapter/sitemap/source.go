package sitemap

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/i79-incident-etl/internal/adapter/fetch"
	"github.com/couchcryptid/i79-incident-etl/internal/domain"
)

// Config describes a site's sitemaps and the walk limits.
type Config struct {
	IndexURL string
	// NewsURL is the paged category sitemap; pages are addressed with
	// "&from=<offset>".
	NewsURL       string
	Source        string
	URLHints      []string
	PageStep      int
	MaxOffset     int
	MaxEmptyPages int
	Lookback      time.Duration
	// ArticleConcurrency bounds parallel article fetches.
	ArticleConcurrency int
}

// Source extracts archived incidents from a site's sitemaps.
type Source struct {
	cfg      Config
	fetcher  fetch.Fetcher
	analyzer *domain.Analyzer
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewSource creates a sitemap source.
func NewSource(cfg Config, f fetch.Fetcher, a *domain.Analyzer, clock clockwork.Clock, logger *slog.Logger) *Source {
	if cfg.ArticleConcurrency < 1 {
		cfg.ArticleConcurrency = 1
	}
	return &Source{cfg: cfg, fetcher: f, analyzer: a, clock: clock, logger: logger}
}

// Name identifies the source in logs and metrics.
func (s *Source) Name() string { return "sitemap" }

// Extract lists article URLs from the sitemaps, fetches those whose URL hints
// at the corridor, and returns the relevant in-region articles published
// within the lookback window. Articles with no readable date are kept.
func (s *Source) Extract(ctx context.Context) ([]domain.Incident, error) {
	cutoff := s.clock.Now().Add(-s.cfg.Lookback)

	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []Entry
	for _, e := range entries {
		if s.hasURLHint(e.URL) {
			candidates = append(candidates, e)
		}
	}
	s.logger.Debug("sitemap walk complete", "entries", len(entries), "candidates", len(candidates))

	results := make([]*domain.Incident, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ArticleConcurrency)
	for i, e := range candidates {
		g.Go(func() error {
			inc, ok := s.article(gctx, e)
			if ok && !olderThan(inc.PublishedAt, cutoff) {
				results[i] = &inc
			}
			return nil
		})
	}
	_ = g.Wait()

	var incidents []domain.Incident
	for _, inc := range results {
		if inc != nil {
			incidents = append(incidents, *inc)
		}
	}
	return incidents, ctx.Err()
}

// Entries walks the sitemap index and then the paged news sitemap, returning
// every distinct article URL in discovery order. The paged walk stops after
// MaxEmptyPages consecutive pages that fail or list nothing. An error is
// returned only when nothing at all could be read.
func (s *Source) Entries(ctx context.Context) ([]Entry, error) {
	seen := make(map[string]struct{})
	var (
		entries []Entry
		readAny bool
		lastErr error
	)
	add := func(list []Entry) {
		for _, e := range list {
			if _, dup := seen[e.URL]; dup {
				continue
			}
			seen[e.URL] = struct{}{}
			entries = append(entries, e)
		}
	}

	if s.cfg.IndexURL != "" {
		children, err := s.index(ctx)
		if err != nil {
			lastErr = err
			s.logger.Warn("sitemap index failed", "url", s.cfg.IndexURL, "error", err)
		} else {
			readAny = true
		}
		for _, child := range children {
			list, err := s.urlSet(ctx, child)
			if err != nil {
				s.logger.Warn("child sitemap failed", "url", child, "error", err)
				continue
			}
			add(list)
		}
	}

	if s.cfg.NewsURL != "" {
		empty := 0
		for offset := 0; offset <= s.cfg.MaxOffset && empty < s.cfg.MaxEmptyPages; offset += s.cfg.PageStep {
			if ctx.Err() != nil {
				break
			}
			list, err := s.urlSet(ctx, s.pageURL(offset))
			if err != nil {
				lastErr = err
				empty++
				continue
			}
			readAny = true
			if len(list) == 0 {
				empty++
				continue
			}
			empty = 0
			add(list)
		}
	}

	if !readAny && lastErr != nil {
		return nil, lastErr
	}
	if err := ctx.Err(); err != nil {
		return entries, err
	}
	return entries, nil
}

func (s *Source) pageURL(offset int) string {
	if offset == 0 {
		return s.cfg.NewsURL
	}
	return s.cfg.NewsURL + "&from=" + strconv.Itoa(offset)
}

func (s *Source) index(ctx context.Context) ([]string, error) {
	body, err := s.fetcher.Fetch(ctx, s.cfg.IndexURL)
	if err != nil {
		return nil, err
	}
	return ParseIndex(body)
}

func (s *Source) urlSet(ctx context.Context, url string) ([]Entry, error) {
	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return ParseURLSet(body)
}

func (s *Source) hasURLHint(url string) bool {
	lowered := strings.ToLower(url)
	for _, hint := range s.cfg.URLHints {
		if strings.Contains(lowered, hint) {
			return true
		}
	}
	return false
}

// article fetches one page and converts it when it describes an in-region
// corridor incident.
func (s *Source) article(ctx context.Context, e Entry) (domain.Incident, bool) {
	page, err := s.fetcher.Fetch(ctx, e.URL)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("article fetch failed", "url", e.URL, "error", err)
		}
		return domain.Incident{}, false
	}

	meta := ParseArticle(page)
	if meta.Title == "" {
		return domain.Incident{}, false
	}
	published := meta.Published
	if published == "" {
		published = e.LastMod
	}

	c := s.analyzer.Classifier
	blob := meta.Title + " " + meta.Description + " " + e.URL
	if c.IsNonEventTitle(meta.Title) || !c.IsLikelyIncident(blob) || !c.IsInRegionContext(blob) {
		return domain.Incident{}, false
	}

	return s.analyzer.NewsCandidate(domain.NewsArticle{
		Title:            meta.Title,
		URL:              e.URL,
		Source:           s.cfg.Source,
		PublishedAt:      domain.ParseISODate(published),
		Summary:          meta.Description,
		SourceType:       domain.SourceSitemap,
		LocationText:     blob,
		FatalityText:     meta.Title + " " + meta.Description,
		ConstructionText: blob,
	}), true
}

// olderThan reports whether a known timestamp falls before cutoff. Unknown
// timestamps are never older.
func olderThan(publishedAt string, cutoff time.Time) bool {
	at, ok := domain.ParseTimestamp(publishedAt)
	return ok && at.Before(cutoff)
}
