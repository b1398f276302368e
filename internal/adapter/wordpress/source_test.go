package wordpress

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/i79-incident-etl/internal/adapter/fetch"
	"github.com/couchcryptid/i79-incident-etl/internal/domain"
	"github.com/couchcryptid/i79-incident-etl/internal/observability"
)

const (
	postFairmont = `{"id": 1, "date_gmt": "2025-02-28T10:00:00", "link": "https://www.wboy.com/news/a",
		"title": {"rendered": "I-79 crash near Fairmont"},
		"excerpt": {"rendered": "<p>Crash in Marion County</p>"},
		"content": {"rendered": "<p>Crash in Marion County slowed traffic.</p>"}}`
	postCharleston = `{"id": 2, "date_gmt": "2025-02-28T11:00:00", "link": "https://www.wboy.com/news/b",
		"title": {"rendered": "I-79 crash in Charleston"},
		"excerpt": {"rendered": "Kanawha County crews responded"},
		"content": {"rendered": ""}}`
	postHarrison = `{"id": 3, "date_gmt": "2025-02-28T12:00:00", "link": "https://www.wboy.com/news/c",
		"title": {"rendered": "I-79 wreck"},
		"excerpt": {"rendered": ""},
		"content": {"rendered": "Harrison County deputies said 2 people were killed."}}`
	postNoID        = `{"date_gmt": "2025-02-28T12:00:00", "link": "https://www.wboy.com/news/d", "title": {"rendered": "I-79 crash in Fairmont"}}`
	postStringTitle = `{"id": 5, "link": "https://www.wboy.com/news/e", "title": "I-79 crash in Fairmont"}`
)

type searchServer struct {
	mu       sync.Mutex
	requests map[string]int
	queries  []string
}

func (s *searchServer) handler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term, page := q.Get("search"), q.Get("page")

	s.mu.Lock()
	s.requests[term]++
	s.queries = append(s.queries, r.URL.RawQuery)
	s.mu.Unlock()

	switch term + "/" + page {
	case "i-79 crash/1":
		_, _ = io.WriteString(w, "["+postFairmont+","+postCharleston+"]")
	case "i-79 crash/2":
		_, _ = io.WriteString(w, "[]")
	case "i-79 accident/1":
		_, _ = io.WriteString(w, "["+postFairmont+","+postHarrison+","+postNoID+","+postStringTitle+"]")
	case "i-79 accident/2":
		http.Error(w, `{"code":"rest_post_invalid_page_number"}`, http.StatusBadRequest)
	case "flaky/1":
		http.Error(w, "boom", http.StatusInternalServerError)
	case "flaky/2":
		_, _ = io.WriteString(w, "{not json")
	case "flaky/3":
		_, _ = io.WriteString(w, `{"code": "unexpected"}`)
	default:
		t := "unexpected request " + r.URL.RawQuery
		http.Error(w, t, http.StatusTeapot)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSource(apiURL string, terms []string) *Source {
	cfg := Config{
		APIURL:   apiURL,
		Source:   "wboy.com",
		Terms:    terms,
		MaxPages: 5,
		PerPage:  100,
		Lookback: 24 * time.Hour,
	}
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	client := fetch.NewClient(time.Second, "test", observability.NewMetricsForTesting())
	return NewSource(cfg, client, domain.NewAnalyzer(domain.DefaultLexicon()), clock, discardLogger())
}

func TestSource_Extract(t *testing.T) {
	s := &searchServer{requests: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(s.handler))
	defer srv.Close()

	src := newTestSource(srv.URL+"/wp-json/wp/v2/posts", []string{"i-79 crash", "i-79 accident", "flaky"})
	incidents, err := src.Extract(context.Background())
	require.NoError(t, err)

	require.Len(t, incidents, 2)
	fairmont, harrison := incidents[0], incidents[1]

	assert.Equal(t, domain.IncidentID("https://www.wboy.com/news/a", "I-79 crash near Fairmont"), fairmont.ID)
	assert.Equal(t, "Crash in Marion County", fairmont.Summary)
	assert.Equal(t, "Marion County", fairmont.LocationText)
	assert.Equal(t, "2025-02-28T10:00:00Z", fairmont.PublishedAt)
	assert.Equal(t, "wboy.com", fairmont.Source)
	assert.Equal(t, domain.SourceNewsArchive, fairmont.SourceType)
	assert.Equal(t, domain.StatusUnverified, fairmont.VerificationStatus)

	assert.Equal(t, "I-79 wreck", harrison.Title)
	assert.Equal(t, "Harrison County deputies said 2 people were killed.", harrison.Summary)
	assert.Equal(t, "Harrison County", harrison.LocationText)
	assert.Equal(t, 2, harrison.SuspectedFatalities)

	assert.Equal(t, 2, s.requests["i-79 crash"], "empty page ends the term")
	assert.Equal(t, 2, s.requests["i-79 accident"], "400 ends the term")
	assert.Equal(t, 3, s.requests["flaky"], "other failures skip only the page")

	first := s.queries[0]
	assert.Contains(t, first, "per_page=100")
	assert.Contains(t, first, "page=1")
	assert.Contains(t, first, "_fields=id%2Cdate_gmt%2Clink%2Ctitle%2Cexcerpt%2Ccontent")
	assert.Contains(t, first, "after=2025-02-28T00%3A00%3A00Z")
	assert.True(t, strings.Contains(first, "search=i-79+crash"))
}

func TestSource_Extract_AllPagesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	incidents, err := newTestSource(srv.URL, []string{"i-79 crash"}).Extract(context.Background())

	require.Error(t, err)
	assert.Empty(t, incidents)
	assert.Equal(t, http.StatusServiceUnavailable, fetch.StatusCode(err))
}

func TestSource_Candidate(t *testing.T) {
	src := newTestSource("http://unused", nil)
	id := int64(9)
	base := post{
		ID:      &id,
		Link:    "https://www.wboy.com/news/x",
		Title:   rendered{"I-79 crash near Morgantown"},
		Excerpt: rendered{"Crews responded."},
	}

	t.Run("accepted", func(t *testing.T) {
		inc, ok := src.candidate(base)
		require.True(t, ok)
		assert.Equal(t, "Morgantown", inc.LocationText)
	})

	t.Run("denylisted title", func(t *testing.T) {
		p := base
		p.Title = rendered{"Safety tips after I-79 crash in Morgantown"}
		_, ok := src.candidate(p)
		assert.False(t, ok)
	})

	t.Run("relevance ignores content", func(t *testing.T) {
		p := base
		p.Title = rendered{"Morgantown news roundup"}
		p.Excerpt = rendered{""}
		p.Content = rendered{"I-79 crash"}
		_, ok := src.candidate(p)
		assert.False(t, ok)
	})

	t.Run("missing link", func(t *testing.T) {
		p := base
		p.Link = ""
		_, ok := src.candidate(p)
		assert.False(t, ok)
	})

	t.Run("fatality ignores late content", func(t *testing.T) {
		p := base
		p.Content = rendered{strings.Repeat("x ", 200) + "three people were killed elsewhere"}
		inc, ok := src.candidate(p)
		require.True(t, ok)
		assert.Equal(t, 0, inc.SuspectedFatalities)
	})
}
