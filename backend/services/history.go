// ABOUTME: SQLite-backed utilization history feeding the card sparklines
// ABOUTME: Keeps the latest N samples per resource and attaches them to snapshots

package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/markalston/virt-dashboard/internal/snapshot"
)

// History resources, one series per global utilization card.
const (
	HistoryCPU     = "cpu"
	HistoryMemory  = "memory"
	HistoryStorage = "storage"
)

type SQLiteHistory struct {
	log   *slog.Logger
	db    *sql.DB
	limit int
}

// NewSQLiteHistory opens (creating if needed) the history database at dbPath.
// Each series keeps at most limit samples.
func NewSQLiteHistory(log *slog.Logger, dbPath string, limit int) (*SQLiteHistory, error) {
	if limit < 1 {
		return nil, fmt.Errorf("history limit must be positive, got %d", limit)
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	h := &SQLiteHistory{
		log:   log,
		db:    db,
		limit: limit,
	}

	if err := h.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return h, nil
}

func (h *SQLiteHistory) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS utilization_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			resource TEXT NOT NULL,
			sampled_at TEXT NOT NULL,
			value REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_history_resource_time ON utilization_history(resource, sampled_at);
	`
	_, err := h.db.Exec(query)
	return err
}

// Append stores one sample and drops the oldest samples beyond the limit.
func (h *SQLiteHistory) Append(ctx context.Context, resource string, at time.Time, value float64) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO utilization_history (resource, sampled_at, value) VALUES (?, ?, ?)`,
		resource, at.UTC().Format(time.RFC3339Nano), value,
	)
	if err != nil {
		return fmt.Errorf("failed to store %s sample: %w", resource, err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM utilization_history
		WHERE resource = ? AND id NOT IN (
			SELECT id FROM utilization_history
			WHERE resource = ?
			ORDER BY sampled_at DESC, id DESC
			LIMIT ?
		)`,
		resource, resource, h.limit,
	)
	if err != nil {
		return fmt.Errorf("failed to trim %s history: %w", resource, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s sample: %w", resource, err)
	}

	h.log.Debug("history sample stored", slog.String("resource", resource), slog.Float64("value", value))
	return nil
}

// Series returns the stored samples of resource, oldest first.
func (h *SQLiteHistory) Series(ctx context.Context, resource string) ([]snapshot.HistoryPoint, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT sampled_at, value
		FROM utilization_history
		WHERE resource = ?
		ORDER BY sampled_at ASC, id ASC`,
		resource,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s history: %w", resource, err)
	}
	defer rows.Close()

	points := []snapshot.HistoryPoint{}
	for rows.Next() {
		var (
			sampledAt string
			value     float64
		)
		if err := rows.Scan(&sampledAt, &value); err != nil {
			return nil, fmt.Errorf("failed to scan %s history: %w", resource, err)
		}
		at, err := time.Parse(time.RFC3339Nano, sampledAt)
		if err != nil {
			h.log.Error("failed to parse sample time", slog.String("value", sampledAt), slog.Any("error", err))
			continue
		}
		points = append(points, snapshot.HistoryPoint{Date: at, Value: value})
	}
	return points, rows.Err()
}

// Record appends the used value of every utilization card in s and replaces
// each card's history with the stored series.
func (h *SQLiteHistory) Record(ctx context.Context, s *snapshot.Snapshot) error {
	g := &s.GlobalUtilization
	for _, series := range []struct {
		resource string
		u        *snapshot.Utilization
	}{
		{HistoryCPU, &g.CPU},
		{HistoryMemory, &g.Memory},
		{HistoryStorage, &g.Storage},
	} {
		if err := h.Append(ctx, series.resource, s.CollectedAt, series.u.Used); err != nil {
			return err
		}
		points, err := h.Series(ctx, series.resource)
		if err != nil {
			return err
		}
		series.u.History = points
	}
	return nil
}

func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}
