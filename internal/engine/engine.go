package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/roach88/myh2o/internal/beverage"
	"github.com/roach88/myh2o/internal/ledger"
	"github.com/roach88/myh2o/internal/recommend"
	"github.com/roach88/myh2o/internal/scheduler"
	"github.com/roach88/myh2o/internal/store"
)

// DefaultLedgerKey is the ledger key used when none is configured.
const DefaultLedgerKey = "default"

// Hook reacts to a committed ledger mutation. Hooks see the ledger state after
// the mutation.
type Hook interface {
	Handle(ctx context.Context, ev ledger.Event) error
}

// Rand picks message indexes for both reminders and suggestions.
type Rand interface {
	IntN(n int) int
}

// Engine is the transactional hydration tracker.
//
// Thread-safety model:
//   - Intent methods (AddDrink, UpdateProfile, ...): safe from any goroutine,
//     serialized by an internal mutex
//   - Query methods: safe from any goroutine
//
// INVARIANTS:
//   - Mutation seqs are strictly increasing per ledger key
//   - The stored snapshot equals the base document with every logged mutation
//     applied in seq order
//   - Hooks run only for committed mutations, in registration order
type Engine struct {
	mu        sync.Mutex
	store     *store.Store
	key       string
	ledger    *ledger.Ledger
	base      []byte
	scheduler *scheduler.Scheduler
	hooks     []Hook
	clock     *Clock

	wall     ledger.Clock
	ids      ledger.IDGenerator
	loc      *time.Location
	rnd      Rand
	notifier scheduler.Notifier
	channel  string
	extra    []Hook
}

// Option configures an Engine.
type Option func(*Engine)

// WithLedgerKey selects which ledger in the store the engine operates on.
func WithLedgerKey(key string) Option {
	return func(e *Engine) {
		if key != "" {
			e.key = key
		}
	}
}

// WithWallClock sets the clock used for drink timestamps, reminder fire times
// and "now" in queries.
func WithWallClock(c ledger.Clock) Option {
	return func(e *Engine) {
		e.wall = c
	}
}

// WithIDGenerator sets the drink id generator.
func WithIDGenerator(g ledger.IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithLocation sets the timezone used for calendar dates and reminder times.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithRand sets the message picker.
func WithRand(r Rand) Option {
	return func(e *Engine) {
		e.rnd = r
	}
}

// WithNotifier replaces the store outbox as the reminder delivery target.
func WithNotifier(n scheduler.Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithChannel overrides the logical notification channel.
func WithChannel(channel string) Option {
	return func(e *Engine) {
		e.channel = channel
	}
}

// WithHook registers a hook that runs after the scheduler.
func WithHook(h Hook) Option {
	return func(e *Engine) {
		e.extra = append(e.extra, h)
	}
}

// Open loads the ledger stored under the configured key, or starts a
// first-launch ledger if the store has none.
//
// Unless WithNotifier is given, reminders go to the store's outbox and
// reminders already pending there are restored into the scheduler.
func Open(ctx context.Context, s *store.Store, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:   s,
		key:     DefaultLedgerKey,
		clock:   NewClock(),
		wall:    ledger.SystemClock{},
		ids:     ledger.UUIDv7Generator{},
		loc:     time.Local,
		channel: scheduler.Channel,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rnd == nil {
		now := uint64(time.Now().UnixNano())
		e.rnd = rand.New(rand.NewPCG(now, now>>1))
	}

	if err := e.loadLocked(ctx); err != nil {
		return nil, err
	}

	var outbox *store.Outbox
	notifier := e.notifier
	if notifier == nil {
		outbox = s.Outbox(e.key)
		notifier = outbox
	}

	e.scheduler = scheduler.New(e.ledger, notifier,
		scheduler.WithClock(e.wall),
		scheduler.WithRand(e.rnd),
		scheduler.WithLocation(e.loc),
		scheduler.WithChannel(e.channel),
	)
	e.hooks = append([]Hook{e.scheduler}, e.extra...)

	if outbox != nil {
		pending, err := outbox.Pending(ctx)
		if err != nil {
			return nil, fmt.Errorf("restore pending reminders: %w", err)
		}
		e.scheduler.Restore(pending)
	}

	slog.Debug("engine opened",
		"ledger", e.key,
		"seq", e.clock.Current(),
		"location", e.loc.String(),
	)
	return e, nil
}

func (e *Engine) ledgerOpts() []ledger.Option {
	return []ledger.Option{
		ledger.WithClock(e.wall),
		ledger.WithIDGenerator(e.ids),
		ledger.WithLocation(e.loc),
	}
}

// loadLocked (re)loads the ledger and the logical clock from the store.
// Caller must hold e.mu (or be constructing e).
func (e *Engine) loadLocked(ctx context.Context) error {
	snap, err := e.store.LoadLedger(ctx, e.key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		e.ledger = ledger.New(e.ledgerOpts()...)
		if e.base, err = e.ledger.Marshal(); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		l, err := ledger.Unmarshal(snap.Document, e.ledgerOpts()...)
		if err != nil {
			return fmt.Errorf("open ledger %q: %w", e.key, err)
		}
		e.ledger = l
		e.base = snap.Base
	}

	seq, err := e.store.LastSeq(ctx, e.key)
	if err != nil {
		return err
	}
	e.clock.Reset(seq)

	if e.scheduler != nil {
		e.scheduler.Attach(e.ledger)
	}
	return nil
}

// apply runs one intent as a transaction: mutate, stamp, commit, then hooks.
func (e *Engine) apply(ctx context.Context, op string, mutate func(*ledger.Ledger) (ledger.Event, error)) (ledger.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ev, err := mutate(e.ledger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m := store.Mutation{
		Seq:        e.clock.Next(),
		RecordedAt: e.wall.Now(),
	}
	doc, err := e.encodeLocked(ev, &m)
	if err == nil {
		err = e.store.Commit(ctx, e.key, doc, e.base, m)
	}
	if err != nil {
		cerr := &CommitError{Seq: m.Seq, Err: err}
		if rerr := e.loadLocked(ctx); rerr != nil {
			return nil, errors.Join(cerr, fmt.Errorf("reload after failed commit: %w", rerr))
		}
		return nil, fmt.Errorf("%s: %w", op, cerr)
	}

	slog.Info("mutation committed",
		"ledger", e.key,
		"seq", m.Seq,
		"kind", m.Kind,
	)

	for _, h := range e.hooks {
		if err := h.Handle(ctx, ev); err != nil {
			// Already committed; hook errors never roll back.
			slog.Error("hook failed",
				"ledger", e.key,
				"seq", m.Seq,
				"kind", m.Kind,
				"error", err,
			)
		}
	}
	return ev, nil
}

func (e *Engine) encodeLocked(ev ledger.Event, m *store.Mutation) ([]byte, error) {
	kind, payload, err := ledger.EncodeEvent(ev)
	if err != nil {
		return nil, err
	}
	m.Kind = kind
	m.Payload = payload
	return e.ledger.Marshal()
}

// AddDrink logs a drink and arms the after-alcohol and inactivity reminders.
func (e *Engine) AddDrink(ctx context.Context, t beverage.Type, volume int) (ledger.DrinkEntry, error) {
	ev, err := e.apply(ctx, "add drink", func(l *ledger.Ledger) (ledger.Event, error) {
		return l.AddDrink(t, volume)
	})
	if err != nil {
		return ledger.DrinkEntry{}, err
	}
	return ev.(ledger.DrinkAdded).Entry, nil
}

// UpdateProfile merges patch into the profile and reschedules any wake/bed
// reminder whose time it sets.
func (e *Engine) UpdateProfile(ctx context.Context, patch ledger.ProfilePatch) error {
	_, err := e.apply(ctx, "update profile", func(l *ledger.Ledger) (ledger.Event, error) {
		return l.UpdateProfile(patch)
	})
	return err
}

// UpdateSettings merges patch into the settings. Turning notifications off
// cancels every pending reminder.
func (e *Engine) UpdateSettings(ctx context.Context, patch ledger.SettingsPatch) error {
	_, err := e.apply(ctx, "update settings", func(l *ledger.Ledger) (ledger.Event, error) {
		return l.UpdateSettings(patch)
	})
	return err
}

// ClearHistory empties the drink history.
func (e *Engine) ClearHistory(ctx context.Context) error {
	_, err := e.apply(ctx, "clear history", func(l *ledger.Ledger) (ledger.Event, error) {
		return l.ClearHistory()
	})
	return err
}

// CompleteOnboarding marks onboarding as done.
func (e *Engine) CompleteOnboarding(ctx context.Context) error {
	_, err := e.apply(ctx, "onboard", func(l *ledger.Ledger) (ledger.Event, error) {
		return l.CompleteOnboarding()
	})
	return err
}

// Import replaces the ledger with a JSON document. The document becomes the
// new replay base, the mutation log restarts at seq 0 and the sleep-schedule
// reminders are re-armed from the imported profile.
func (e *Engine) Import(ctx context.Context, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, err := ledger.Unmarshal(data, e.ledgerOpts()...)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	doc, err := l.Marshal()
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	if err := e.store.ResetLedger(ctx, e.key, doc, e.wall.Now()); err != nil {
		return fmt.Errorf("import: %w", err)
	}

	e.ledger = l
	e.base = doc
	e.clock.Reset(0)
	e.scheduler.Attach(l)

	slog.Info("ledger imported", "ledger", e.key, "drinks", len(l.DrinkHistory()))

	if err := e.scheduler.CancelAll(ctx); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	if err := e.scheduler.Rearm(ctx); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	return nil
}

// Export returns the ledger's JSON document.
func (e *Engine) Export() ([]byte, error) {
	return e.current().Marshal()
}

// Key returns the ledger key.
func (e *Engine) Key() string {
	return e.key
}

// Seq returns the seq of the last committed mutation.
func (e *Engine) Seq() int64 {
	return e.clock.Current()
}

// Location returns the timezone the engine computes dates in.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Now returns the engine's wall-clock time.
func (e *Engine) Now() time.Time {
	return e.wall.Now()
}

func (e *Engine) current() *ledger.Ledger {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger
}

// Document returns a copy of the ledger state.
func (e *Engine) Document() ledger.Document {
	return e.current().Document()
}

// Recommendations returns today's hydration figures.
func (e *Engine) Recommendations() recommend.Hydration {
	return recommend.Recommendations(e.current(), e.wall.Now())
}

// Week returns the trailing seven-day chart.
func (e *Engine) Week() recommend.Week {
	return recommend.WeeklyChart(e.current(), e.wall.Now())
}

// Suggestion returns an encouragement message for today's progress.
func (e *Engine) Suggestion() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return recommend.Suggestion(e.ledger, e.wall.Now(), e.rnd)
}

// Pending returns the scheduled reminders.
func (e *Engine) Pending() []scheduler.Notification {
	return e.scheduler.Pending()
}

// Mutations returns the mutation log in seq order.
func (e *Engine) Mutations(ctx context.Context) ([]store.Mutation, error) {
	return e.store.ReadMutations(ctx, e.key)
}
