package harness

import (
	"context"
	"sync"
	"time"

	"github.com/roach88/myh2o/internal/scheduler"
)

// Notifier operations as they appear in the trace.
const (
	OpScheduleDaily = "schedule_daily"
	OpScheduleOnce  = "schedule_once"
	OpCancelAll     = "cancel_all"
)

// NotifierCall is one call the scheduler made to its Notifier.
// Message text is omitted.
type NotifierCall struct {
	Op     string `json:"op"`
	Kind   string `json:"kind,omitempty"`
	FireAt string `json:"fire_at,omitempty"`
	Pool   string `json:"pool,omitempty"`
}

// RecordingNotifier records every call and forwards it to next.
// A call that next rejects is not recorded.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type RecordingNotifier struct {
	mu    sync.Mutex
	next  scheduler.Notifier
	loc   *time.Location
	calls []NotifierCall
}

var _ scheduler.Notifier = (*RecordingNotifier)(nil)

// NewRecordingNotifier wraps next. Fire times are recorded in loc.
// next may be nil.
func NewRecordingNotifier(next scheduler.Notifier, loc *time.Location) *RecordingNotifier {
	if loc == nil {
		loc = time.UTC
	}
	return &RecordingNotifier{next: next, loc: loc}
}

func (r *RecordingNotifier) ScheduleDaily(ctx context.Context, n scheduler.Notification) error {
	if r.next != nil {
		if err := r.next.ScheduleDaily(ctx, n); err != nil {
			return err
		}
	}
	r.record(OpScheduleDaily, n)
	return nil
}

func (r *RecordingNotifier) ScheduleOnce(ctx context.Context, n scheduler.Notification) error {
	if r.next != nil {
		if err := r.next.ScheduleOnce(ctx, n); err != nil {
			return err
		}
	}
	r.record(OpScheduleOnce, n)
	return nil
}

func (r *RecordingNotifier) CancelAll(ctx context.Context) error {
	if r.next != nil {
		if err := r.next.CancelAll(ctx); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, NotifierCall{Op: OpCancelAll})
	return nil
}

func (r *RecordingNotifier) record(op string, n scheduler.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, NotifierCall{
		Op:     op,
		Kind:   string(n.Kind),
		FireAt: n.FireAt.In(r.loc).Format(time.RFC3339),
		Pool:   string(n.Pool),
	})
}

// Calls returns a copy of every recorded call.
func (r *RecordingNotifier) Calls() []NotifierCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]NotifierCall{}, r.calls...)
}

// Since returns the calls recorded after the first n.
func (r *RecordingNotifier) Since(n int) []NotifierCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n >= len(r.calls) {
		return []NotifierCall{}
	}
	return append([]NotifierCall{}, r.calls[n:]...)
}

// Len returns the number of recorded calls.
func (r *RecordingNotifier) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Count returns how many calls match op and, if non-empty, kind.
func (r *RecordingNotifier) Count(op, kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, c := range r.calls {
		if c.Op == op && (kind == "" || c.Kind == kind) {
			count++
		}
	}
	return count
}
