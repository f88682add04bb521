// Package postgres provides a Recorder backed by PostgreSQL via pgx,
// durable across restarts and shared across processes.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zoobzio/eventry"
)

// uniqueViolationCode is the PostgreSQL SQLSTATE for a unique constraint
// violation.
const uniqueViolationCode = "23505"

// schema creates the tables and uniqueness constraints the Recorder
// depends on: one unique index enforcing aggregate optimistic concurrency,
// one BIGSERIAL assigning notification IDs (insert serializes writers with a
// table lock so batches stay contiguous), and one unique index enforcing
// idempotent tracking.
const schema = `
CREATE TABLE IF NOT EXISTS eventry_events (
	notification_id    BIGSERIAL PRIMARY KEY,
	originator_id       UUID NOT NULL,
	originator_version  BIGINT NOT NULL,
	topic               TEXT NOT NULL,
	state               BYTEA NOT NULL,
	UNIQUE (originator_id, originator_version)
);

CREATE TABLE IF NOT EXISTS eventry_tracking (
	application_name TEXT NOT NULL,
	notification_id  BIGINT NOT NULL,
	PRIMARY KEY (application_name, notification_id)
);
`

// Recorder implements eventry.ApplicationRecorder and
// eventry.ProcessRecorder over a pgxpool.Pool.
type Recorder struct {
	pool *pgxpool.Pool
}

// New returns a Recorder using pool. Call EnsureSchema once per database
// before first use.
func New(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// EnsureSchema creates eventry's tables if they do not already exist.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return eventry.NewBackendError("ensure_schema", err)
	}
	return nil
}

// InsertEvents implements eventry.ApplicationRecorder.
func (r *Recorder) InsertEvents(ctx context.Context, events []eventry.StoredEvent) ([]uint64, error) {
	return r.insert(ctx, events, nil)
}

// InsertEventsWithTracking implements eventry.ProcessRecorder.
func (r *Recorder) InsertEventsWithTracking(ctx context.Context, events []eventry.StoredEvent, tracking *eventry.Tracking) ([]uint64, error) {
	return r.insert(ctx, events, tracking)
}

func (r *Recorder) insert(ctx context.Context, events []eventry.StoredEvent, tracking *eventry.Tracking) ([]uint64, error) {
	if len(events) == 0 && tracking == nil {
		return nil, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, eventry.NewBackendError("begin", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Serialize notification ID assignment across writers for the length of
	// this transaction, so concurrent batches receive contiguous ranges and
	// no reader sees a lower ID commit after a higher one.
	if len(events) > 0 {
		if _, err := tx.Exec(ctx, `LOCK TABLE eventry_events IN EXCLUSIVE MODE`); err != nil {
			return nil, eventry.NewBackendError("lock_events", err)
		}
	}

	ids := make([]uint64, len(events))
	for i, e := range events {
		var id uint64
		err := tx.QueryRow(ctx,
			`INSERT INTO eventry_events (originator_id, originator_version, topic, state)
			 VALUES ($1, $2, $3, $4) RETURNING notification_id`,
			e.OriginatorID, e.OriginatorVersion, e.Topic, e.State,
		).Scan(&id)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, eventry.NewIntegrityError(
					fmt.Sprintf("originator_id=%s originator_version=%d", e.OriginatorID, e.OriginatorVersion), err)
			}
			return nil, eventry.NewBackendError("insert_event", err)
		}
		ids[i] = id
	}

	if tracking != nil {
		_, err := tx.Exec(ctx,
			`INSERT INTO eventry_tracking (application_name, notification_id) VALUES ($1, $2)`,
			tracking.ApplicationName, tracking.NotificationID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, eventry.NewIntegrityError(
					fmt.Sprintf("application=%s notification_id=%d", tracking.ApplicationName, tracking.NotificationID), err)
			}
			return nil, eventry.NewBackendError("insert_tracking", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eventry.NewBackendError("commit", err)
	}
	return ids, nil
}

// SelectEvents implements eventry.AggregateRecorder.
func (r *Recorder) SelectEvents(ctx context.Context, originatorID uuid.UUID, opts eventry.SelectEventsOptions) ([]eventry.StoredEvent, error) {
	query := `SELECT originator_id, originator_version, topic, state FROM eventry_events WHERE originator_id = $1`
	args := []any{originatorID}

	if opts.GT != nil {
		args = append(args, *opts.GT)
		query += fmt.Sprintf(" AND originator_version > $%d", len(args))
	}
	if opts.LTE != nil {
		args = append(args, *opts.LTE)
		query += fmt.Sprintf(" AND originator_version <= $%d", len(args))
	}
	if opts.Desc {
		query += " ORDER BY originator_version DESC"
	} else {
		query += " ORDER BY originator_version ASC"
	}
	if opts.Limit != nil {
		args = append(args, *opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eventry.NewBackendError("select_events", err)
	}
	defer rows.Close()

	var out []eventry.StoredEvent
	for rows.Next() {
		var e eventry.StoredEvent
		if err := rows.Scan(&e.OriginatorID, &e.OriginatorVersion, &e.Topic, &e.State); err != nil {
			return nil, eventry.NewBackendError("select_events_scan", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eventry.NewBackendError("select_events_rows", err)
	}
	return out, nil
}

// MaxNotificationID implements eventry.ApplicationRecorder.
func (r *Recorder) MaxNotificationID(ctx context.Context) (uint64, error) {
	var max uint64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(notification_id), 0) FROM eventry_events`).Scan(&max)
	if err != nil {
		return 0, eventry.NewBackendError("max_notification_id", err)
	}
	return max, nil
}

// SelectNotifications implements eventry.ApplicationRecorder.
func (r *Recorder) SelectNotifications(ctx context.Context, opts eventry.SelectNotificationsOptions) ([]eventry.Notification, error) {
	query := `SELECT notification_id, originator_id, originator_version, topic, state
	          FROM eventry_events WHERE notification_id >= $1`
	args := []any{opts.Start}

	if opts.Stop != nil {
		args = append(args, *opts.Stop)
		query += fmt.Sprintf(" AND notification_id <= $%d", len(args))
	}
	if len(opts.Topics) > 0 {
		args = append(args, opts.Topics)
		query += fmt.Sprintf(" AND topic = ANY($%d)", len(args))
	}
	query += " ORDER BY notification_id ASC"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eventry.NewBackendError("select_notifications", err)
	}
	defer rows.Close()

	var out []eventry.Notification
	for rows.Next() {
		var n eventry.Notification
		if err := rows.Scan(&n.ID, &n.OriginatorID, &n.OriginatorVersion, &n.Topic, &n.State); err != nil {
			return nil, eventry.NewBackendError("select_notifications_scan", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, eventry.NewBackendError("select_notifications_rows", err)
	}
	return out, nil
}

// MaxTrackingID implements eventry.ProcessRecorder.
func (r *Recorder) MaxTrackingID(ctx context.Context, applicationName string) (uint64, error) {
	var max uint64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(notification_id), 0) FROM eventry_tracking WHERE application_name = $1`,
		applicationName,
	).Scan(&max)
	if err != nil {
		return 0, eventry.NewBackendError("max_tracking_id", err)
	}
	return max, nil
}

// HasTrackingID implements eventry.ProcessRecorder.
func (r *Recorder) HasTrackingID(ctx context.Context, applicationName string, notificationID uint64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM eventry_tracking WHERE application_name = $1 AND notification_id = $2)`,
		applicationName, notificationID,
	).Scan(&exists)
	if err != nil {
		return false, eventry.NewBackendError("has_tracking_id", err)
	}
	return exists, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

var (
	_ eventry.ApplicationRecorder = (*Recorder)(nil)
	_ eventry.ProcessRecorder     = (*Recorder)(nil)
)
