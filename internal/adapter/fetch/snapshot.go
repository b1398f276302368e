package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// runTimeFile holds the RFC 3339 time of the recorded run.
const runTimeFile = "RUN_AT"

// SnapshotName returns the file name a response body for url is stored under.
func SnapshotName(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:16]) + ".snap"
}

// Recorder wraps a Fetcher and saves every successful body under dir so a run
// can be replayed offline.
type Recorder struct {
	next   Fetcher
	dir    string
	logger *slog.Logger
}

// NewRecorder creates dir if needed and returns a recording fetcher.
func NewRecorder(next Fetcher, dir string, logger *slog.Logger) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &Recorder{next: next, dir: dir, logger: logger}, nil
}

func (r *Recorder) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, err := r.next.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(r.dir, SnapshotName(url)), body, 0o644); err != nil {
		r.logger.Warn("snapshot write failed", "url", url, "error", err)
	}
	return body, nil
}

// MarkRun records the time of the run being captured.
func (r *Recorder) MarkRun(t time.Time) error {
	data := []byte(t.UTC().Format(time.RFC3339) + "\n")
	if err := os.WriteFile(filepath.Join(r.dir, runTimeFile), data, 0o644); err != nil {
		return fmt.Errorf("write run time: %w", err)
	}
	return nil
}

// Snapshot serves bodies previously saved by a Recorder. URLs without a
// snapshot fail with a 404 Error, which adapters treat as an empty page.
type Snapshot struct {
	dir string
}

// NewSnapshot reads snapshots from dir.
func NewSnapshot(dir string) *Snapshot {
	return &Snapshot{dir: dir}
}

func (s *Snapshot) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	body, err := os.ReadFile(filepath.Join(s.dir, SnapshotName(url)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &Error{URL: url, StatusCode: http.StatusNotFound, Err: err}
	}
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	return body, nil
}

// RunTime returns the time stored by Recorder.MarkRun.
func (s *Snapshot) RunTime() (time.Time, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, runTimeFile))
	if err != nil {
		return time.Time{}, fmt.Errorf("read run time: %w", err)
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse run time: %w", err)
	}
	return t, nil
}
