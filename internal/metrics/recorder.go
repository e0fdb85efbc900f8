// Package metrics provides an optional Postgres sink archiving published
// ChartEntry telemetry for historical dashboards. Run archives only the
// transformer's diff series; price and earnings updates are not archived.
// This is explicitly not simulation-state persistence (a
// spec.md Non-goal) — it only archives values already broadcast over the
// bus, the same relationship devskill-org-miners-scheduler's
// MinerScheduler has with its optional *sql.DB field.
package metrics

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	_ "github.com/lib/pq"

	"powercable/internal/bus"
	"powercable/internal/model"
	"powercable/internal/topics"
)

// Recorder archives ChartEntry records to Postgres. A nil *Recorder is
// valid and every method becomes a no-op, matching the teacher pack's
// "optional dependency, disabled when unconfigured" convention.
type Recorder struct {
	db *sql.DB
}

// NewRecorder opens a connection pool against dsn and ensures the archive
// table exists. Pass an empty dsn to get a disabled (nil) Recorder.
func NewRecorder(dsn string) (*Recorder, error) {
	if dsn == "" {
		return nil, nil
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("metrics: open: %w", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("metrics: migrate: %w", err)
	}
	return &Recorder{db: db}, nil
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS chart_entries (
	id        BIGSERIAL PRIMARY KEY,
	timestamp BIGINT NOT NULL,
	series    TEXT NOT NULL,
	value     DOUBLE PRECISION NOT NULL
)`

const insertSQL = `INSERT INTO chart_entries (timestamp, series, value) VALUES ($1, $2, $3)`

// Record archives one ChartEntry. A nil Recorder silently does nothing.
func (r *Recorder) Record(e model.ChartEntry) error {
	if r == nil {
		return nil
	}
	_, err := r.db.Exec(insertSQL, e.Timestamp, e.Series, e.Value)
	if err != nil {
		return fmt.Errorf("metrics: insert: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool. A nil Recorder silently
// does nothing.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	return r.db.Close()
}

// Run subscribes to the transformer's diff series and archives each entry
// until stop is closed, so a nil Recorder can still be handed to the
// supervisor as a no-op AgentSpec when no MetricsDSN was configured.
func (r *Recorder) Run(b *bus.Bus, logger *log.Logger) func(stop <-chan struct{}) {
	return func(stop <-chan struct{}) {
		if r == nil {
			<-stop
			return
		}
		ch, cancel := b.Subscribe(topics.TransformerDiff)
		defer cancel()
		for {
			select {
			case <-stop:
				return
			case msg := <-ch:
				var entry model.ChartEntry
				if err := json.Unmarshal(msg.Payload, &entry); err != nil {
					logger.Printf("metrics: malformed diff entry: %v", err)
					continue
				}
				entry.Series = "diff"
				if err := r.Record(entry); err != nil {
					logger.Printf("metrics: %v", err)
				}
			}
		}
	}
}
