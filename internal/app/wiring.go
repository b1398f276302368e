// Package app assembles pipeline stages from configuration. Both the service
// and the offline replay command build their pipelines here.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/i79-incident-etl/internal/adapter/feed"
	"github.com/couchcryptid/i79-incident-etl/internal/adapter/fetch"
	"github.com/couchcryptid/i79-incident-etl/internal/adapter/jsonfile"
	"github.com/couchcryptid/i79-incident-etl/internal/adapter/kafka"
	"github.com/couchcryptid/i79-incident-etl/internal/adapter/sitemap"
	"github.com/couchcryptid/i79-incident-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/i79-incident-etl/internal/adapter/wordpress"
	"github.com/couchcryptid/i79-incident-etl/internal/adapter/wv511"
	"github.com/couchcryptid/i79-incident-etl/internal/config"
	"github.com/couchcryptid/i79-incident-etl/internal/domain"
	"github.com/couchcryptid/i79-incident-etl/internal/pipeline"
)

// Sources builds the extract stage in merge priority order: live feeds, the
// official delay listing, the sitemap archive, then the search archive.
// Sources with no endpoint in the catalog are left out.
func Sources(cat *config.Sources, lookback time.Duration, f fetch.Fetcher, a *domain.Analyzer, clock clockwork.Clock, logger *slog.Logger) []pipeline.Source {
	var sources []pipeline.Source

	if len(cat.Feeds) > 0 {
		sources = append(sources, feed.NewSource(cat.Feeds, f, a, logger))
	}
	if cat.DelayListing.URL != "" {
		sources = append(sources, wv511.NewSource(cat.DelayListing.URL, cat.DelayListing.Source, f, a))
	}
	if sm := cat.Sitemap; sm.NewsURL != "" || sm.IndexURL != "" {
		sources = append(sources, sitemap.NewSource(sitemap.Config{
			IndexURL:           sm.IndexURL,
			NewsURL:            sm.NewsURL,
			Source:             sm.Source,
			URLHints:           sm.URLHints,
			PageStep:           sm.PageStep,
			MaxOffset:          sm.MaxOffset,
			MaxEmptyPages:      sm.MaxEmptyPages,
			Lookback:           lookback,
			ArticleConcurrency: sm.ArticleConcurrency,
		}, f, a, clock, logger))
	}
	if s := cat.Search; s.APIURL != "" && len(s.Terms) > 0 {
		sources = append(sources, wordpress.NewSource(wordpress.Config{
			APIURL:   s.APIURL,
			Source:   s.Source,
			Terms:    s.Terms,
			MaxPages: s.MaxPages,
			PerPage:  s.PerPage,
			Lookback: lookback,
		}, f, a, clock, logger))
	}

	return sources
}

// Loaders builds the load stage: the JSON dataset files, then the SQLite
// archive and the Kafka topic when configured. The returned close function
// releases the optional loaders.
func Loaders(cfg *config.Config, logger *slog.Logger) ([]pipeline.Loader, func() error, error) {
	loaders := []pipeline.Loader{jsonfile.NewDatasetWriter(cfg.OutputPaths)}
	var closers []func() error

	if cfg.ArchiveDBPath != "" {
		archive, err := sqlite.Open(cfg.ArchiveDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open archive: %w", err)
		}
		loaders = append(loaders, archive)
		closers = append(closers, archive.Close)
	}
	if len(cfg.KafkaBrokers) > 0 {
		w := kafka.NewWriter(cfg, logger)
		loaders = append(loaders, w)
		closers = append(closers, w.Close)
	}

	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}
	return loaders, closeAll, nil
}
