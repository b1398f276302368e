// Command replay rebuilds a dataset offline from source snapshots captured by
// the etl command (SNAPSHOT_DIR). The clock is frozen at the recorded run
// time, so the same snapshots always produce the same dataset.
//
// Usage:
//
//	go run ./cmd/replay -snapshots testdata/snapshots -out /tmp/incidents.json
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/i79-incident-etl/internal/adapter/fetch"
	"github.com/couchcryptid/i79-incident-etl/internal/adapter/jsonfile"
	"github.com/couchcryptid/i79-incident-etl/internal/app"
	"github.com/couchcryptid/i79-incident-etl/internal/config"
	"github.com/couchcryptid/i79-incident-etl/internal/domain"
	"github.com/couchcryptid/i79-incident-etl/internal/observability"
	"github.com/couchcryptid/i79-incident-etl/internal/pipeline"
)

func main() {
	snapshots := flag.String("snapshots", "", "directory of recorded source snapshots")
	out := flag.String("out", "incidents.json", "dataset output path")
	overrides := flag.String("overrides", "", "manual overrides file (optional)")
	sourcesFile := flag.String("sources", "", "source catalog YAML (default: embedded)")
	at := flag.String("at", "", "run time in RFC 3339 (default: recorded run time)")
	lookback := flag.Duration("lookback", 6*365*24*time.Hour, "historical window")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	if *snapshots == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*snapshots, *out, *overrides, *sourcesFile, *at, *lookback, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(1)
	}
}

func run(snapshotDir, outPath, overridesPath, sourcesFile, at string, lookback time.Duration, logLevel string) error {
	logger := observability.NewLogger(logLevel, "text")

	snap := fetch.NewSnapshot(snapshotDir)
	runAt, err := replayTime(snap, at)
	if err != nil {
		return err
	}

	cat, err := config.LoadSources(sourcesFile)
	if err != nil {
		return err
	}

	clock := clockwork.NewFakeClockAt(runAt)
	analyzer := domain.NewAnalyzer(domain.DefaultLexicon())

	var overrideSource pipeline.OverrideSource
	if overridesPath != "" {
		overrideSource = jsonfile.NewOverrideStore(overridesPath, logger)
	}

	p := pipeline.New(pipeline.Config{
		Sources:     app.Sources(cat, lookback, snap, analyzer, clock, logger),
		Overrides:   overrideSource,
		Loaders:     []pipeline.Loader{jsonfile.NewDatasetWriter([]string{outPath})},
		Analyzer:    analyzer,
		Clock:       clock,
		Concurrency: 4,
	}, logger, observability.NewMetrics())

	ds, err := p.RunOnce(context.Background())
	if err != nil {
		return err
	}

	s := ds.Summary
	fmt.Printf("replayed %s at %s: %d incidents, %d suspected fatalities, %d official, %d verified\n",
		snapshotDir, s.GeneratedAt, s.IncidentCount, s.SuspectedFatalities, s.OfficialSourceCount, s.VerifiedCount)
	return nil
}

// replayTime prefers an explicit -at value over the recorded run time.
func replayTime(snap *fetch.Snapshot, at string) (time.Time, error) {
	if at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid -at: %w", err)
		}
		return t, nil
	}
	return snap.RunTime()
}
