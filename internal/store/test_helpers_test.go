package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/myh2o/internal/ledger"
	"github.com/roach88/myh2o/internal/scheduler"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testTime = time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)

// createTestMutation creates a mutation with minimal required fields.
func createTestMutation(seq int64, kind ledger.EventKind) Mutation {
	return Mutation{
		Seq:        seq,
		Kind:       kind,
		Payload:    []byte(`{}`),
		RecordedAt: testTime.Add(time.Duration(seq) * time.Minute),
	}
}

// createTestNotification creates a one-shot notification of kind.
func createTestNotification(kind scheduler.Kind, fireAt time.Time) scheduler.Notification {
	return scheduler.Notification{
		Kind:    kind,
		FireAt:  fireAt,
		Title:   scheduler.Title,
		Message: "Time for glass of water, keep yourself hydrated!",
		Pool:    scheduler.PoolReminder,
		Channel: scheduler.Channel,
	}
}
