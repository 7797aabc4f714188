package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/myh2o/internal/ledger"
)

// Kind is one of the six fixed reminder categories.
type Kind string

const (
	KindWorkdayWake  Kind = "workdayWake"
	KindWeekendWake  Kind = "weekendWake"
	KindWorkdayBed   Kind = "workdayBed"
	KindWeekendBed   Kind = "weekendBed"
	KindAfterAlcohol Kind = "afterAlcohol"
	KindInactivity   Kind = "inactivity"
)

var allKinds = []Kind{KindWorkdayWake, KindWeekendWake, KindWorkdayBed, KindWeekendBed, KindAfterAlcohol, KindInactivity}

// Kinds returns every kind in a stable order.
func Kinds() []Kind {
	return append([]Kind{}, allKinds...)
}

// Delivery constants handed to the Notifier.
const (
	Channel = "water-reminders"
	Title   = "MyH2o Reminder"

	AfterAlcoholDelay = 30 * time.Minute
	InactivityDelay   = 3 * time.Hour
)

// Notification is what the scheduler hands to the delivery collaborator.
type Notification struct {
	Kind        Kind      `json:"kind"`
	FireAt      time.Time `json:"fireAt"`
	Message     string    `json:"message"`
	Pool        Pool      `json:"pool"`
	Title       string    `json:"title"`
	Channel     string    `json:"channel"`
	RepeatDaily bool      `json:"repeatDaily"`
}

// Notifier delivers notifications. Scheduling a kind that already has a
// pending notification must replace it.
type Notifier interface {
	ScheduleDaily(ctx context.Context, n Notification) error
	ScheduleOnce(ctx context.Context, n Notification) error
	CancelAll(ctx context.Context) error
}

// StateSource is the read-only ledger view the scheduler consults.
// *ledger.Ledger implements it.
type StateSource interface {
	Settings() ledger.UserSettings
	Profile() ledger.UserProfile
}

// State is the state of one kind's machine.
type State struct {
	Scheduled    bool
	Notification Notification // zero when Unscheduled
}

// Scheduler is the reminder policy.
//
// Thread-safety: all methods are safe for concurrent use; transitions are
// serialized by an internal mutex.
type Scheduler struct {
	mu       sync.Mutex
	source   StateSource
	notifier Notifier
	clock    ledger.Clock
	rnd      Rand
	loc      *time.Location
	channel  string
	states   map[Kind]Notification
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the clock used for "now".
func WithClock(c ledger.Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithRand sets the message picker.
func WithRand(r Rand) Option {
	return func(s *Scheduler) {
		s.rnd = r
	}
}

// WithLocation sets the timezone wake/bed times are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithChannel overrides the logical delivery channel.
func WithChannel(channel string) Option {
	return func(s *Scheduler) {
		if channel != "" {
			s.channel = channel
		}
	}
}

// New creates a scheduler reading state from source and delivering through
// notifier. source may be nil and attached later; scheduling before that
// fails with StoreNotInitializedError. notifier must not be nil.
func New(source StateSource, notifier Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		source:   source,
		notifier: notifier,
		clock:    ledger.SystemClock{},
		rnd:      globalRand{},
		loc:      time.Local,
		channel:  Channel,
		states:   make(map[Kind]Notification),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach sets the state source.
func (s *Scheduler) Attach(source StateSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = source
}

// Handle reacts to a ledger mutation. It must be called after the mutation
// was applied, so the source reflects post-mutation state.
//
// Malformed wake/bed times are logged and skipped without affecting other
// kinds; only delivery and initialization failures are returned.
func (s *Scheduler) Handle(ctx context.Context, ev ledger.Event) error {
	switch e := ev.(type) {
	case ledger.DrinkAdded:
		var errs []error
		if e.Entry.Type.Alcoholic() {
			errs = append(errs, s.ScheduleAfterAlcohol(ctx))
		}
		errs = append(errs, s.ScheduleInactivity(ctx))
		return errors.Join(errs...)

	case ledger.ProfileUpdated:
		p := e.Patch
		return s.scheduleSleep(ctx, []sleepTime{
			{KindWorkdayWake, p.WorkdayWakeTime},
			{KindWeekendWake, p.WeekendWakeTime},
			{KindWorkdayBed, p.WorkdayBedTime},
			{KindWeekendBed, p.WeekendBedTime},
		})

	case ledger.SettingsUpdated:
		if e.Patch.Notifications == nil {
			return nil
		}
		if !*e.Patch.Notifications {
			return s.CancelAll(ctx)
		}
		if !e.Previous.Notifications {
			return s.Rearm(ctx)
		}
	}
	return nil
}

type sleepTime struct {
	kind  Kind
	value *string
}

func (s *Scheduler) scheduleSleep(ctx context.Context, times []sleepTime) error {
	var errs []error
	for _, st := range times {
		if st.value == nil || *st.value == "" {
			continue
		}
		err := s.ScheduleSleepReminder(ctx, st.kind, *st.value)
		if IsInvalidTimeFormat(err) {
			slog.Warn("reminder not scheduled",
				"kind", st.kind,
				"error", err,
			)
			continue
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Rearm schedules every wake/bed kind from the current profile.
func (s *Scheduler) Rearm(ctx context.Context) error {
	src, err := s.ensureSource("rearm")
	if err != nil {
		return err
	}
	p := src.Profile()
	return s.scheduleSleep(ctx, []sleepTime{
		{KindWorkdayWake, &p.WorkdayWakeTime},
		{KindWeekendWake, &p.WeekendWakeTime},
		{KindWorkdayBed, &p.WorkdayBedTime},
		{KindWeekendBed, &p.WeekendBedTime},
	})
}

// ScheduleWakeup schedules the workday or weekend wake-up reminder.
func (s *Scheduler) ScheduleWakeup(ctx context.Context, timeOfDay string, weekend bool) error {
	kind := KindWorkdayWake
	if weekend {
		kind = KindWeekendWake
	}
	return s.ScheduleSleepReminder(ctx, kind, timeOfDay)
}

// ScheduleBedtime schedules the workday or weekend bedtime reminder.
func (s *Scheduler) ScheduleBedtime(ctx context.Context, timeOfDay string, weekend bool) error {
	kind := KindWorkdayBed
	if weekend {
		kind = KindWeekendBed
	}
	return s.ScheduleSleepReminder(ctx, kind, timeOfDay)
}

// ScheduleSleepReminder schedules a daily reminder of a wake/bed kind at the
// next occurrence of timeOfDay ("H:MM AM/PM").
func (s *Scheduler) ScheduleSleepReminder(ctx context.Context, kind Kind, timeOfDay string) error {
	pool, ok := sleepPool(kind)
	if !ok {
		return fmt.Errorf("schedule %s: not a wake/bed kind", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ok, err := s.gateLocked(kind); !ok {
		return err
	}

	tod, err := ParseTimeOfDay(timeOfDay)
	if err != nil {
		return err
	}

	n := Notification{
		Kind:        kind,
		FireAt:      NextFireTime(tod, s.clock.Now(), s.loc),
		Pool:        pool,
		RepeatDaily: true,
	}
	return s.deliverLocked(ctx, n)
}

// ScheduleAfterAlcohol schedules a one-shot reminder 30 minutes from now.
func (s *Scheduler) ScheduleAfterAlcohol(ctx context.Context) error {
	return s.scheduleOnce(ctx, KindAfterAlcohol, PoolAfterAlcohol, AfterAlcoholDelay)
}

// ScheduleInactivity re-arms the one-shot reminder 3 hours from now.
func (s *Scheduler) ScheduleInactivity(ctx context.Context) error {
	return s.scheduleOnce(ctx, KindInactivity, PoolReminder, InactivityDelay)
}

func (s *Scheduler) scheduleOnce(ctx context.Context, kind Kind, pool Pool, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ok, err := s.gateLocked(kind); !ok {
		return err
	}

	n := Notification{
		Kind:   kind,
		FireAt: s.clock.Now().Add(delay),
		Pool:   pool,
	}
	return s.deliverLocked(ctx, n)
}

// CancelAll moves every kind to Unscheduled and cancels all pending
// notifications with the Notifier.
func (s *Scheduler) CancelAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states = make(map[Kind]Notification)
	if err := s.notifier.CancelAll(ctx); err != nil {
		return fmt.Errorf("cancel all notifications: %w", err)
	}
	slog.Info("all reminders cancelled")
	return nil
}

// Restore seeds Scheduled states from notifications already handed off in a
// previous process (e.g. a persisted outbox). The Notifier is not called.
//
// One-shot notifications whose fire time has passed have fired and stay
// Unscheduled. Daily ones move forward to their next occurrence.
func (s *Scheduler) Restore(pending []Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for _, n := range pending {
		if !n.FireAt.After(now) {
			if !n.RepeatDaily {
				slog.Debug("fired reminder not restored", "kind", n.Kind, "fire_at", n.FireAt)
				continue
			}
			days := int(now.Sub(n.FireAt)/(24*time.Hour)) + 1
			n.FireAt = n.FireAt.AddDate(0, 0, days)
		}
		s.states[n.Kind] = n
	}
}

// State returns the current state of kind.
func (s *Scheduler) State(kind Kind) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.states[kind]
	return State{Scheduled: ok, Notification: n}
}

// Pending returns every Scheduled notification in Kinds() order.
func (s *Scheduler) Pending() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Notification, 0, len(s.states))
	for _, k := range allKinds {
		if n, ok := s.states[k]; ok {
			out = append(out, n)
		}
	}
	return out
}

// gateLocked reports whether a transition for kind may proceed. With no
// source attached it returns StoreNotInitializedError. With notifications
// off it moves kind to Unscheduled and returns false with a nil error.
// Caller must hold s.mu.
func (s *Scheduler) gateLocked(kind Kind) (bool, error) {
	if s.source == nil {
		return false, &StoreNotInitializedError{Op: "schedule " + string(kind)}
	}
	if !s.source.Settings().Notifications {
		delete(s.states, kind)
		slog.Debug("reminder suppressed: notifications disabled", "kind", kind)
		return false, nil
	}
	return true, nil
}

func (s *Scheduler) ensureSource(op string) (StateSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return nil, &StoreNotInitializedError{Op: op}
	}
	return s.source, nil
}

// deliverLocked fills in message and channel, hands n to the Notifier and
// records the Scheduled state.
// Caller must hold s.mu.
func (s *Scheduler) deliverLocked(ctx context.Context, n Notification) error {
	n.Message = pick(s.rnd, n.Pool)
	n.Title = Title
	n.Channel = s.channel

	var err error
	if n.RepeatDaily {
		err = s.notifier.ScheduleDaily(ctx, n)
	} else {
		err = s.notifier.ScheduleOnce(ctx, n)
	}
	if err != nil {
		return fmt.Errorf("schedule %s: %w", n.Kind, err)
	}

	s.states[n.Kind] = n
	slog.Info("reminder scheduled",
		"kind", n.Kind,
		"fire_at", n.FireAt.Format(time.RFC3339),
		"repeat_daily", n.RepeatDaily,
	)
	return nil
}

func sleepPool(kind Kind) (Pool, bool) {
	switch kind {
	case KindWorkdayWake, KindWeekendWake:
		return PoolWakeup, true
	case KindWorkdayBed, KindWeekendBed:
		return PoolBedtime, true
	}
	return "", false
}
