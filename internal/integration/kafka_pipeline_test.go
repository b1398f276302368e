//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/i79-incident-etl/internal/adapter/feed"
	"github.com/couchcryptid/i79-incident-etl/internal/adapter/fetch"
	"github.com/couchcryptid/i79-incident-etl/internal/adapter/jsonfile"
	"github.com/couchcryptid/i79-incident-etl/internal/adapter/kafka"
	"github.com/couchcryptid/i79-incident-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/i79-incident-etl/internal/adapter/wv511"
	"github.com/couchcryptid/i79-incident-etl/internal/config"
	"github.com/couchcryptid/i79-incident-etl/internal/domain"
	"github.com/couchcryptid/i79-incident-etl/internal/observability"
	"github.com/couchcryptid/i79-incident-etl/internal/pipeline"
)

const testSinkTopic = "test-incidents"

const upstreamRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <item>
      <title>I-79 crash near Fairmont</title>
      <link>https://www.wboy.com/news/i79-crash-fairmont</link>
      <description>A crash on I-79 southbound in Marion County.</description>
      <pubDate>Mon, 10 Feb 2025 14:30:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

const upstreamDelayPage = `<html><body>
<div>
  <h4>I-79 Road Work</h4>
  <div>Last Updated: 02/16/2025 08:00:00 AM</div>
  <div>County: Monongalia County</div>
  <div>Description: I-79 lane closure near exit 155.</div>
</div>
</body></html>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "get kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "find controller")

	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func startUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, upstreamRSS)
	})
	mux.HandleFunc("/delays", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, upstreamDelayPage)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// TestPipelineEndToEnd runs the pipeline against fake upstreams and checks
// that every published incident reaches the JSON file, the SQLite archive and
// the Kafka topic.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)
	upstream := startUpstream(t)

	metrics := observability.NewMetricsForTesting()
	analyzer := domain.NewAnalyzer(domain.DefaultLexicon())
	client := fetch.NewClient(5*time.Second, "integration-test", metrics)

	dir := t.TempDir()
	outPath := filepath.Join(dir, "incidents.json")

	archive, err := sqlite.Open(filepath.Join(dir, "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = archive.Close() })

	writer := kafka.NewWriter(&config.Config{KafkaBrokers: []string{broker}, KafkaSinkTopic: testSinkTopic}, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(pipeline.Config{
		Sources: []pipeline.Source{
			feed.NewSource([]string{upstream.URL + "/feed"}, client, analyzer, discardLogger()),
			wv511.NewSource(upstream.URL+"/delays", "wv511.org", client, analyzer),
		},
		Overrides:   jsonfile.NewOverrideStore(filepath.Join(dir, "missing_overrides.json"), discardLogger()),
		Loaders:     []pipeline.Loader{jsonfile.NewDatasetWriter([]string{outPath}), archive, writer},
		Analyzer:    analyzer,
		Clock:       clockwork.NewFakeClockAt(time.Date(2025, time.February, 20, 0, 0, 0, 0, time.UTC)),
		Concurrency: 2,
	}, discardLogger(), metrics)

	ds, err := p.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, ds.Incidents, 2)
	assert.Equal(t, domain.SourceOfficialWV511, ds.Incidents[0].SourceType, "newest first")
	assert.Equal(t, domain.SourceNews, ds.Incidents[1].SourceType)

	written, err := jsonfile.ReadDataset(outPath)
	require.NoError(t, err)
	assert.Equal(t, ds, written)

	n, err := archive.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := map[string]domain.Incident{}
	for len(received) < len(ds.Incidents) {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from sink topic")

		var inc domain.Incident
		require.NoError(t, json.Unmarshal(msg.Value, &inc))
		assert.Equal(t, inc.ID, string(msg.Key))

		headers := map[string]string{}
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, string(inc.SourceType), headers["source_type"])
		assert.Equal(t, "2025-02-20T00:00:00Z", headers["generated_at"])
		received[inc.ID] = inc
	}

	for _, inc := range ds.Incidents {
		assert.Equal(t, inc, received[inc.ID])
	}
}
