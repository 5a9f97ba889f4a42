// Package audit persists backend lifecycle events in the supervisor store
// so a killed or crashed sidecar can be traced after the fact.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/agentshell/internal/sidecar"
)

const (
	defaultLimit = 50
	maxLimit     = 200

	// timeLayout is fixed width so created_at sorts lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Event is one row of sidecar_events.
type Event struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	PID        int       `json:"pid,omitempty"`
	Executable string    `json:"executable,omitempty"`
	Address    string    `json:"address,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Filter controls which events List returns.
type Filter struct {
	Kind   string    // optional: exact kind match
	Since  time.Time // optional: events at or after this instant
	Limit  int       // default 50, max 200
	Offset int
}

// ListResult is a page of events, newest first.
type ListResult struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// Repository stores lifecycle events.
type Repository interface {
	Create(ctx context.Context, ev *Event) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository is the SQLite-backed Repository. It also satisfies
// sidecar.Observer.
type SQLiteRepository struct {
	db *sql.DB
}

var _ sidecar.Observer = (*SQLiteRepository)(nil)

// NewSQLiteRepository wraps an open store that has been migrated.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts ev, filling ID and CreatedAt when empty.
func (r *SQLiteRepository) Create(ctx context.Context, ev *Event) error {
	if ev.Kind == "" {
		return fmt.Errorf("inserting sidecar event: empty kind")
	}
	if ev.ID == "" {
		ev.ID = "evt-" + uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sidecar_events (id, kind, pid, executable, address, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Kind, nullableInt(ev.PID),
		nullableString(ev.Executable), nullableString(ev.Address), nullableString(ev.Detail),
		ev.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting sidecar event: %w", err)
	}
	return nil
}

// ObserveLifecycle records a supervisor lifecycle event.
func (r *SQLiteRepository) ObserveLifecycle(ctx context.Context, ev sidecar.Event) error {
	return r.Create(ctx, &Event{
		Kind:       string(ev.Kind),
		PID:        ev.PID,
		Executable: ev.Executable,
		Address:    ev.Address,
		Detail:     ev.Detail,
		CreatedAt:  ev.Time,
	})
}

// List returns events matching filter, newest first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var (
		conditions []string
		args       []any
	)
	if filter.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, filter.Kind)
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM sidecar_events " + where //nolint:gosec // parameterised conditions only
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting sidecar events: %w", err)
	}

	query := "SELECT id, kind, pid, executable, address, detail, created_at FROM sidecar_events " + //nolint:gosec // parameterised conditions only
		where + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("querying sidecar events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var (
			ev                          Event
			pid                         sql.NullInt64
			executable, address, detail sql.NullString
			createdAt                   string
		)
		if err := rows.Scan(&ev.ID, &ev.Kind, &pid, &executable, &address, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning sidecar event: %w", err)
		}
		ev.PID = int(pid.Int64)
		ev.Executable = executable.String
		ev.Address = address.String
		ev.Detail = detail.String
		if ev.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parsing sidecar event timestamp %q: %w", createdAt, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sidecar events: %w", err)
	}

	return &ListResult{
		Events: events,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
