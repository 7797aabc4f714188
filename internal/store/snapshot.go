package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/myh2o/internal/ledger"
)

// Snapshot is the persisted state of one ledger.
type Snapshot struct {
	Document  []byte
	Base      []byte
	Seq       int64
	UpdatedAt time.Time
}

// Mutation is one entry of the append-only mutation log.
type Mutation struct {
	Seq        int64
	Kind       ledger.EventKind
	Payload    []byte
	RecordedAt time.Time
}

// LoadLedger returns the snapshot stored under key.
// Returns sql.ErrNoRows (wrapped) if nothing was saved yet.
func (s *Store) LoadLedger(ctx context.Context, key string) (Snapshot, error) {
	var (
		snap      Snapshot
		doc, base string
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT document, base, seq, updated_at
		FROM ledger_state
		WHERE ledger_key = ?
	`, key).Scan(&doc, &base, &snap.Seq, &updatedAt)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load ledger %q: %w", key, err)
	}

	snap.Document = []byte(doc)
	snap.Base = []byte(base)
	if snap.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Snapshot{}, fmt.Errorf("load ledger %q: %w", key, err)
	}
	return snap, nil
}

// Commit atomically stores the post-mutation document and appends m to the
// mutation log. m.Seq must be greater than every seq already logged for key.
//
// The base document is preserved from the previous snapshot; on the first
// commit for key it is set to base.
func (s *Store) Commit(ctx context.Context, key string, document, base []byte, m Mutation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO mutations (ledger_key, seq, kind, payload, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`, key, m.Seq, string(m.Kind), string(m.Payload), formatTime(m.RecordedAt))
	if err != nil {
		return fmt.Errorf("commit: append mutation seq=%d: %w", m.Seq, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_state (ledger_key, document, base, seq, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(ledger_key) DO UPDATE SET
			document = excluded.document,
			seq = excluded.seq,
			updated_at = excluded.updated_at
	`, key, string(document), string(base), m.Seq, formatTime(m.RecordedAt))
	if err != nil {
		return fmt.Errorf("commit: save snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ResetLedger replaces the ledger stored under key with document, which also
// becomes the new replay base. The mutation log and the reminder outbox for
// key are cleared.
func (s *Store) ResetLedger(ctx context.Context, key string, document []byte, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reset ledger: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM mutations WHERE ledger_key = ?`,
		`DELETE FROM notifications WHERE ledger_key = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, key); err != nil {
			return fmt.Errorf("reset ledger: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_state (ledger_key, document, base, seq, updated_at)
		VALUES (?, ?, ?, 0, ?)
		ON CONFLICT(ledger_key) DO UPDATE SET
			document = excluded.document,
			base = excluded.base,
			seq = 0,
			updated_at = excluded.updated_at
	`, key, string(document), string(document), formatTime(at))
	if err != nil {
		return fmt.Errorf("reset ledger: save snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	return nil
}

// ReadMutations returns the mutation log for key ordered by seq.
// Returns an empty slice (not nil) if the log is empty.
func (s *Store) ReadMutations(ctx context.Context, key string) ([]Mutation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, payload, recorded_at
		FROM mutations
		WHERE ledger_key = ?
		ORDER BY seq ASC
	`, key)
	if err != nil {
		return nil, fmt.Errorf("query mutations: %w", err)
	}
	defer rows.Close()

	mutations := []Mutation{}
	for rows.Next() {
		m, err := scanMutation(rows)
		if err != nil {
			return nil, err
		}
		mutations = append(mutations, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mutations: %w", err)
	}
	return mutations, nil
}

// LastSeq returns the highest logged seq for key, or 0 if the log is empty.
func (s *Store) LastSeq(ctx context.Context, key string) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM mutations WHERE ledger_key = ?
	`, key).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

func scanMutation(rows *sql.Rows) (Mutation, error) {
	var (
		m                   Mutation
		kind, payload, when string
	)
	if err := rows.Scan(&m.Seq, &kind, &payload, &when); err != nil {
		return Mutation{}, fmt.Errorf("scan mutation: %w", err)
	}
	m.Kind = ledger.EventKind(kind)
	m.Payload = []byte(payload)

	var err error
	if m.RecordedAt, err = parseTime(when); err != nil {
		return Mutation{}, fmt.Errorf("scan mutation seq=%d: %w", m.Seq, err)
	}
	return m, nil
}
