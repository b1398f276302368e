// Package sqlite keeps a local archive of every incident ever published,
// recording when each ID was first and last seen.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/i79-incident-etl/internal/domain"
)

// ArchivedIncident is an incident with its archive timestamps.
type ArchivedIncident struct {
	Incident  domain.Incident
	FirstSeen time.Time
	LastSeen  time.Time
}

// Run is one recorded dataset summary.
type Run struct {
	GeneratedAt   string
	IncidentCount int
	Fatalities    int
	VerifiedCount int
}

// Archive manages the incidents and runs tables.
type Archive struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and ensures the tables
// exist.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS incidents (
		id           TEXT PRIMARY KEY,
		source_type  TEXT NOT NULL,
		published_at TEXT NOT NULL DEFAULT '',
		payload      TEXT NOT NULL,
		first_seen   INTEGER NOT NULL,
		last_seen    INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS runs (
		generated_at   TEXT NOT NULL,
		incident_count INTEGER NOT NULL,
		fatalities     INTEGER NOT NULL,
		verified_count INTEGER NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create archive tables: %w", err)
	}

	return &Archive{db: db}, nil
}

// Close closes the database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Name identifies the loader in logs and metrics.
func (a *Archive) Name() string { return "sqlite" }

// LoadDataset upserts every incident and records the run summary in one
// transaction. Existing rows keep their first_seen time.
func (a *Archive) LoadDataset(ctx context.Context, ds domain.Dataset) error {
	seen := time.Now().UTC()
	if t, ok := domain.ParseTimestamp(ds.Summary.GeneratedAt); ok {
		seen = t
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO incidents
		(id, source_type, published_at, payload, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_type = excluded.source_type,
			published_at = excluded.published_at,
			payload = excluded.payload,
			last_seen = excluded.last_seen`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, inc := range ds.Incidents {
		payload, err := json.Marshal(inc)
		if err != nil {
			return fmt.Errorf("encode incident %s: %w", inc.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, inc.ID, string(inc.SourceType), inc.PublishedAt, string(payload), seen.Unix(), seen.Unix()); err != nil {
			return fmt.Errorf("upsert incident %s: %w", inc.ID, err)
		}
	}

	s := ds.Summary
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (generated_at, incident_count, fatalities, verified_count) VALUES (?, ?, ?, ?)`,
		s.GeneratedAt, s.IncidentCount, s.SuspectedFatalities, s.VerifiedCount,
	); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive tx: %w", err)
	}
	return nil
}

// Get returns the archived incident with the given ID.
func (a *Archive) Get(ctx context.Context, id string) (ArchivedIncident, error) {
	var (
		payload             string
		firstSeen, lastSeen int64
	)
	err := a.db.QueryRowContext(ctx,
		`SELECT payload, first_seen, last_seen FROM incidents WHERE id = ?`, id,
	).Scan(&payload, &firstSeen, &lastSeen)
	if err != nil {
		return ArchivedIncident{}, fmt.Errorf("get incident %s: %w", id, err)
	}

	var inc domain.Incident
	if err := json.Unmarshal([]byte(payload), &inc); err != nil {
		return ArchivedIncident{}, fmt.Errorf("decode incident %s: %w", id, err)
	}
	return ArchivedIncident{
		Incident:  inc,
		FirstSeen: time.Unix(firstSeen, 0).UTC(),
		LastSeen:  time.Unix(lastSeen, 0).UTC(),
	}, nil
}

// Count returns the number of archived incidents.
func (a *Archive) Count(ctx context.Context) (int, error) {
	var n int
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM incidents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count incidents: %w", err)
	}
	return n, nil
}

// Runs returns recorded run summaries, oldest first.
func (a *Archive) Runs(ctx context.Context) ([]Run, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT generated_at, incident_count, fatalities, verified_count FROM runs ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.GeneratedAt, &r.IncidentCount, &r.Fatalities, &r.VerifiedCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
