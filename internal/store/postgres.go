// Package store holds the optional external state mirrors: write-behind
// alert persistence in Postgres and a live vehicle-state mirror in Redis.
// The engine's in-memory state is authoritative; nothing here sits on the
// evaluation path.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/deepseaguard/insight-engine/internal/metrics"
	"github.com/deepseaguard/insight-engine/internal/types"
)

// PostgresStore persists alert transitions and serves the recent-alerts
// listing. Schema management is external; the store assumes an alerts table
// keyed by alert id.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore connects and pings the database.
func NewPostgresStore(ctx context.Context, dsn string, logger zerolog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	return &PostgresStore{
		pool:   pool,
		logger: logger.With().Str("component", "postgres").Logger(),
	}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Name implements pipeline.EventSink.
func (s *PostgresStore) Name() string { return "postgres" }

// Publish implements pipeline.EventSink. The upsert is idempotent on alert
// id, so at-least-once redelivery of either event type is harmless.
func (s *PostgresStore) Publish(ctx context.Context, evt types.AlertEvent) error {
	a := evt.Alert
	status := "open"
	if a.ClosedAt != nil {
		status = "closed"
	}

	query := `
		INSERT INTO alerts
			(id, auv_id, type, key, severity, status, message, started_at, updated_at, closed_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			message = EXCLUDED.message,
			updated_at = EXCLUDED.updated_at,
			closed_at = EXCLUDED.closed_at
	`
	_, err := s.pool.Exec(ctx, query,
		a.ID, a.VehicleID, string(a.Kind), a.Key, a.Severity,
		status, a.Message, a.OpenedAt, a.UpdatedAt, a.ClosedAt,
	)
	if err != nil {
		metrics.PersistFailures.Add(1)
		return fmt.Errorf("persist alert %s: %w", a.ID, err)
	}
	return nil
}

// AlertFilter narrows the recent-alerts listing.
type AlertFilter struct {
	VehicleID string
	Kind      string
	Since     *time.Time
	Limit     int
	// Cursor is "<RFC3339Nano started_at>|<id>" from a previous page.
	Cursor string
}

// AlertPage is one page of the listing plus the cursor for the next.
type AlertPage struct {
	Alerts     []StoredAlert `json:"alerts"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// StoredAlert is an alert row as persisted.
type StoredAlert struct {
	ID        string     `json:"id"`
	VehicleID string     `json:"auv_id"`
	Kind      string     `json:"type"`
	Key       string     `json:"key"`
	Severity  string     `json:"severity"`
	Status    string     `json:"status"`
	Message   string     `json:"message"`
	StartedAt time.Time  `json:"started_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// RecentAlerts lists persisted alerts newest first with optional filters
// and keyset pagination.
func (s *PostgresStore) RecentAlerts(ctx context.Context, f AlertFilter) (*AlertPage, error) {
	limit := f.Limit
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.VehicleID != "" {
		conds = append(conds, "auv_id = "+arg(f.VehicleID))
	}
	if f.Kind != "" {
		conds = append(conds, "type = "+arg(f.Kind))
	}
	if f.Since != nil {
		conds = append(conds, "started_at > "+arg(*f.Since))
	}
	if f.Cursor != "" {
		if ts, id, err := parseCursor(f.Cursor); err == nil {
			conds = append(conds, fmt.Sprintf("(started_at < %s OR (started_at = %s AND id < %s))",
				arg(ts), fmt.Sprintf("$%d", len(args)), arg(id)))
		}
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT id, auv_id, type, key, severity, status, message, started_at, closed_at
		FROM alerts
		%s
		ORDER BY started_at DESC, id DESC
		LIMIT %s
	`, where, arg(limit))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	page := &AlertPage{}
	for rows.Next() {
		var a StoredAlert
		if err := rows.Scan(&a.ID, &a.VehicleID, &a.Kind, &a.Key, &a.Severity, &a.Status, &a.Message, &a.StartedAt, &a.ClosedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		page.Alerts = append(page.Alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}

	if len(page.Alerts) == limit {
		last := page.Alerts[len(page.Alerts)-1]
		page.NextCursor = fmt.Sprintf("%s|%s", last.StartedAt.UTC().Format(time.RFC3339Nano), last.ID)
	}
	return page, nil
}

func parseCursor(cursor string) (time.Time, string, error) {
	i := strings.IndexByte(cursor, '|')
	if i <= 0 || i == len(cursor)-1 {
		return time.Time{}, "", fmt.Errorf("malformed cursor")
	}
	ts, err := time.Parse(time.RFC3339Nano, cursor[:i])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("malformed cursor timestamp: %w", err)
	}
	return ts, cursor[i+1:], nil
}
