/**
 * Hit History - Optional Postgres record of posted notifications
 *
 * Enabled only when DATABASE_URL is configured. Recording is best-effort:
 * the notification has already gone out when Record runs, so an insert
 * failure is logged by the caller and never fails the cycle. The dedup
 * registry itself is process-local and is NOT backed by this table.
 */

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	werrors "github.com/OGFlash/ark-log-watchdog/internal/errors"
)

// Hit is one posted notification.
type Hit struct {
	DedupKey    string
	TriggerName string
	Matched     string
	Content     string
	Confidence  float64
}

// HitHistory persists hits to Postgres.
type HitHistory struct {
	db *sql.DB
}

const createHitsTable = `
	CREATE TABLE IF NOT EXISTS ark_watchdog_hits (
		id           UUID PRIMARY KEY,
		dedup_key    TEXT NOT NULL,
		trigger_name TEXT NOT NULL,
		matched      TEXT NOT NULL DEFAULT '',
		content      TEXT NOT NULL,
		confidence   NUMERIC(5,2) NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// NewHitHistory connects, configures a small pool and ensures the table
// exists.
func NewHitHistory(databaseURL string) (*HitHistory, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, createHitsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure hits table: %w", err)
	}
	return &HitHistory{db: db}, nil
}

// Record inserts one hit row.
func (h *HitHistory) Record(ctx context.Context, hit *Hit) error {
	conf := hit.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 100 {
		conf = 100
	}
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO ark_watchdog_hits (id, dedup_key, trigger_name, matched, content, confidence)
		VALUES ($1::uuid, $2, $3, $4, $5, $6)`,
		uuid.NewString(), hit.DedupKey, hit.TriggerName, hit.Matched, hit.Content, conf)
	if err != nil {
		return werrors.New(werrors.ErrorStorageFailed, "failed to record hit", err)
	}
	return nil
}

// Ping checks the connection.
func (h *HitHistory) Ping(ctx context.Context) error {
	return h.db.PingContext(ctx)
}

// Close releases the pool.
func (h *HitHistory) Close() error {
	return h.db.Close()
}
