package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	OutputPaths   []string
	OverridesPath string
	SourcesFile   string
	ArchiveDBPath string
	// SnapshotDir, when set, records every fetched body for offline replay.
	SnapshotDir string

	FetchTimeout      time.Duration
	UserAgent         string
	Lookback          time.Duration
	SourceConcurrency int
	// RunInterval of zero runs the pipeline once and exits.
	RunInterval time.Duration

	KafkaBrokers   []string
	KafkaSinkTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	Sources *Sources
}

const defaultUserAgent = "i79-safety-monitor/1.0 (automated data pipeline)"

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "20s", false)
	if err != nil {
		return nil, err
	}
	lookback, err := parseDuration("LOOKBACK", "52560h", false)
	if err != nil {
		return nil, err
	}
	runInterval, err := parseDuration("RUN_INTERVAL", "0", true)
	if err != nil {
		return nil, err
	}
	concurrency, err := parsePositiveInt("SOURCE_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		OutputPaths:   splitList(sharedcfg.EnvOrDefault("OUTPUT_PATHS", "data/incidents.json,docs/incidents.json")),
		OverridesPath: sharedcfg.EnvOrDefault("OVERRIDES_PATH", "data/manual_overrides.json"),
		SourcesFile:   os.Getenv("SOURCES_FILE"),
		ArchiveDBPath: os.Getenv("ARCHIVE_DB_PATH"),
		SnapshotDir:   os.Getenv("SNAPSHOT_DIR"),

		FetchTimeout:      fetchTimeout,
		UserAgent:         sharedcfg.EnvOrDefault("USER_AGENT", defaultUserAgent),
		Lookback:          lookback,
		SourceConcurrency: concurrency,
		RunInterval:       runInterval,

		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "i79-incidents"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); strings.TrimSpace(brokers) != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if len(cfg.OutputPaths) == 0 {
		return nil, errors.New("OUTPUT_PATHS is required")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}

	cfg.Sources, err = LoadSources(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("SOURCES_FILE: %w", err)
	}

	return cfg, nil
}

func parseDuration(name, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parsePositiveInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", name)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
