package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"data/incidents.json", "docs/incidents.json"}, cfg.OutputPaths)
	assert.Equal(t, "data/manual_overrides.json", cfg.OverridesPath)
	assert.Empty(t, cfg.SourcesFile)
	assert.Empty(t, cfg.ArchiveDBPath)
	assert.Empty(t, cfg.SnapshotDir)
	assert.Equal(t, 20*time.Second, cfg.FetchTimeout)
	assert.Equal(t, defaultUserAgent, cfg.UserAgent)
	assert.Equal(t, 6*365*24*time.Hour, cfg.Lookback)
	assert.Equal(t, 4, cfg.SourceConcurrency)
	assert.Zero(t, cfg.RunInterval)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "i79-incidents", cfg.KafkaSinkTopic)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	require.NotNil(t, cfg.Sources)
	assert.Len(t, cfg.Sources.Feeds, 3)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("OUTPUT_PATHS", " out/a.json , out/b.json ,")
	t.Setenv("OVERRIDES_PATH", "custom/overrides.json")
	t.Setenv("ARCHIVE_DB_PATH", "archive.db")
	t.Setenv("SNAPSHOT_DIR", "snapshots")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("USER_AGENT", "test-agent")
	t.Setenv("LOOKBACK", "720h")
	t.Setenv("SOURCE_CONCURRENCY", "2")
	t.Setenv("RUN_INTERVAL", "15m")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"out/a.json", "out/b.json"}, cfg.OutputPaths)
	assert.Equal(t, "custom/overrides.json", cfg.OverridesPath)
	assert.Equal(t, "archive.db", cfg.ArchiveDBPath)
	assert.Equal(t, "snapshots", cfg.SnapshotDir)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "test-agent", cfg.UserAgent)
	assert.Equal(t, 720*time.Hour, cfg.Lookback)
	assert.Equal(t, 2, cfg.SourceConcurrency)
	assert.Equal(t, 15*time.Minute, cfg.RunInterval)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		env, value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"FETCH_TIMEOUT", "bad"},
		{"FETCH_TIMEOUT", "0s"},
		{"LOOKBACK", "-1h"},
		{"RUN_INTERVAL", "-5m"},
		{"SOURCE_CONCURRENCY", "0"},
		{"SOURCE_CONCURRENCY", "many"},
	}
	for _, tt := range tests {
		t.Run(tt.env+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.env)
		})
	}
}

func TestLoad_EmptyOutputPaths(t *testing.T) {
	t.Setenv("OUTPUT_PATHS", " , ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OUTPUT_PATHS")
}

func TestLoad_SourcesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feeds:\n  - https://example.com/feed\n"), 0o600))
	t.Setenv("SOURCES_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/feed"}, cfg.Sources.Feeds)
	assert.Empty(t, cfg.Sources.Search.APIURL)
}

func TestLoad_MissingSourcesFile(t *testing.T) {
	t.Setenv("SOURCES_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SOURCES_FILE")
}

func TestLoadSources_Embedded(t *testing.T) {
	s, err := LoadSources("")
	require.NoError(t, err)

	assert.Equal(t, "https://www.wv511.org/TravelConditions/TravelDelay.aspx", s.DelayListing.URL)
	assert.Equal(t, "wv511.org", s.DelayListing.Source)
	assert.Equal(t, "wboy.com", s.Search.Source)
	assert.Equal(t, 14, s.Search.MaxPages)
	assert.Equal(t, 100, s.Search.PerPage)
	assert.Len(t, s.Search.Terms, 6)
	assert.Equal(t, []string{"i-79", "interstate-79"}, s.Sitemap.URLHints)
	assert.Equal(t, 5000, s.Sitemap.MaxOffset)
	assert.Equal(t, 3, s.Sitemap.MaxEmptyPages)
}

func TestParseSources_Invalid(t *testing.T) {
	_, err := ParseSources([]byte("feeds: [unterminated"))
	require.Error(t, err)

	_, err = ParseSources([]byte("search:\n  api_url: https://example.com/wp-json\n  per_page: 500\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_pages")
	assert.Contains(t, err.Error(), "per_page")
}
