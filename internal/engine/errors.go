package engine

import (
	"errors"
	"fmt"
)

// ReplayMismatchError reports that rebuilding the ledger from the mutation log
// did not reproduce the stored snapshot.
type ReplayMismatchError struct {
	// Key identifies the ledger.
	Key string

	// Mutations is the number of mutations replayed.
	Mutations int

	// Stored and Replayed are the normalized JSON documents.
	Stored   []byte
	Replayed []byte
}

func (e *ReplayMismatchError) Error() string {
	return fmt.Sprintf("replay mismatch: %d mutations for ledger %q do not reproduce the stored document",
		e.Mutations, e.Key)
}

// IsReplayMismatch returns true if the error is a ReplayMismatchError.
// Uses errors.As to handle wrapped errors.
func IsReplayMismatch(err error) bool {
	var re *ReplayMismatchError
	return errors.As(err, &re)
}

// CommitError reports that an intent was applied in memory but could not be
// persisted. The ledger has been reloaded from the last committed state.
type CommitError struct {
	Seq int64
	Err error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit mutation seq=%d: %v", e.Seq, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// IsCommitError returns true if the error is a CommitError.
func IsCommitError(err error) bool {
	var ce *CommitError
	return errors.As(err, &ce)
}
