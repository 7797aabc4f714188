package ledger

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Marshal serializes the ledger to its JSON document.
func (l *Ledger) Marshal() ([]byte, error) {
	data, err := json.Marshal(l.Document())
	if err != nil {
		return nil, fmt.Errorf("marshal ledger: %w", err)
	}
	return data, nil
}

// Unmarshal rebuilds a ledger from a JSON document. Keys missing from data
// keep their first-launch defaults, so documents written by older versions
// still load.
func Unmarshal(data []byte, opts ...Option) (*Ledger, error) {
	doc := DefaultDocument()
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal ledger: %w", err)
	}
	return FromDocument(doc, opts...)
}

// FromDocument builds a ledger around doc.
//
// dailyStats is derived from drinkHistory. When the stored index disagrees
// with the history bucketed in the ledger's location (no index, an index
// written under another timezone, or a damaged one) it is rebuilt in that
// location. Loading never fails on the index.
func FromDocument(doc Document, opts ...Option) (*Ledger, error) {
	doc = copyDocument(doc)
	if doc.DrinkHistory == nil {
		doc.DrinkHistory = []DrinkEntry{}
	}

	l := newLedger(doc, opts...)

	if err := verifyIndex(l.doc, l.loc); err != nil {
		if len(l.doc.DailyStats) > 0 {
			slog.Warn("daily stats rebuilt",
				"location", l.loc.String(),
				"reason", err.Error(),
			)
		}
		reindex(&l.doc, l.loc)
	}
	return l, nil
}
