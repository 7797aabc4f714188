package store

import (
	"context"
	"fmt"

	"github.com/roach88/myh2o/internal/scheduler"
)

// Outbox is the durable scheduler.Notifier for one ledger key. It records
// pending reminders for a delivery worker; it does not deliver them.
type Outbox struct {
	store *Store
	key   string
}

var _ scheduler.Notifier = (*Outbox)(nil)

// Outbox returns the reminder outbox for key.
func (s *Store) Outbox(key string) *Outbox {
	return &Outbox{store: s, key: key}
}

// ScheduleDaily records a repeating reminder, replacing any pending reminder
// of the same kind.
func (o *Outbox) ScheduleDaily(ctx context.Context, n scheduler.Notification) error {
	n.RepeatDaily = true
	return o.upsert(ctx, n)
}

// ScheduleOnce records a one-shot reminder, replacing any pending reminder of
// the same kind.
func (o *Outbox) ScheduleOnce(ctx context.Context, n scheduler.Notification) error {
	n.RepeatDaily = false
	return o.upsert(ctx, n)
}

func (o *Outbox) upsert(ctx context.Context, n scheduler.Notification) error {
	_, err := o.store.db.ExecContext(ctx, `
		INSERT INTO notifications
		(ledger_key, kind, fire_at, title, message, pool, channel, repeat_daily)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ledger_key, kind) DO UPDATE SET
			fire_at = excluded.fire_at,
			title = excluded.title,
			message = excluded.message,
			pool = excluded.pool,
			channel = excluded.channel,
			repeat_daily = excluded.repeat_daily
	`,
		o.key,
		string(n.Kind),
		formatTime(n.FireAt),
		n.Title,
		n.Message,
		string(n.Pool),
		n.Channel,
		boolToInt(n.RepeatDaily),
	)
	if err != nil {
		return fmt.Errorf("outbox: schedule %s: %w", n.Kind, err)
	}
	return nil
}

// CancelAll removes every pending reminder for the ledger key.
func (o *Outbox) CancelAll(ctx context.Context) error {
	if _, err := o.store.db.ExecContext(ctx, `DELETE FROM notifications WHERE ledger_key = ?`, o.key); err != nil {
		return fmt.Errorf("outbox: cancel all: %w", err)
	}
	return nil
}

// Pending returns the pending reminders ordered by fire time, then kind.
// Returns an empty slice (not nil) if none are pending.
func (o *Outbox) Pending(ctx context.Context) ([]scheduler.Notification, error) {
	rows, err := o.store.db.QueryContext(ctx, `
		SELECT kind, fire_at, title, message, pool, channel, repeat_daily
		FROM notifications
		WHERE ledger_key = ?
		ORDER BY fire_at ASC, kind COLLATE BINARY ASC
	`, o.key)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	pending := []scheduler.Notification{}
	for rows.Next() {
		var (
			n                scheduler.Notification
			kind, pool, when string
			repeat           int
		)
		if err := rows.Scan(&kind, &when, &n.Title, &n.Message, &pool, &n.Channel, &repeat); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Kind = scheduler.Kind(kind)
		n.Pool = scheduler.Pool(pool)
		n.RepeatDaily = repeat == 1
		if n.FireAt, err = parseTime(when); err != nil {
			return nil, fmt.Errorf("scan notification %s: %w", kind, err)
		}
		pending = append(pending, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return pending, nil
}
