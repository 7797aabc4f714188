package ledger

import (
	"encoding/json"
	"fmt"
)

// EventKind is the stable name an event is recorded under.
type EventKind string

const (
	KindDrinkAdded      EventKind = "drink_added"
	KindProfileUpdated  EventKind = "profile_updated"
	KindSettingsUpdated EventKind = "settings_updated"
	KindHistoryCleared  EventKind = "history_cleared"
	KindOnboarded       EventKind = "onboarded"
)

// Event is a sealed union of ledger mutations. Only the types in this file
// implement it.
type Event interface {
	Kind() EventKind
	isEvent()
}

// DrinkAdded records a new drink entry.
type DrinkAdded struct {
	Entry DrinkEntry `json:"entry"`
}

// ProfileUpdated records a partial profile update.
type ProfileUpdated struct {
	Patch ProfilePatch `json:"patch"`
}

// SettingsUpdated records a partial settings update. Previous holds the
// settings as they were before the patch was applied.
type SettingsUpdated struct {
	Patch    SettingsPatch `json:"patch"`
	Previous UserSettings  `json:"previous"`
}

// HistoryCleared records a clear-history operation.
type HistoryCleared struct{}

// Onboarded records completion of onboarding.
type Onboarded struct{}

func (DrinkAdded) Kind() EventKind      { return KindDrinkAdded }
func (ProfileUpdated) Kind() EventKind  { return KindProfileUpdated }
func (SettingsUpdated) Kind() EventKind { return KindSettingsUpdated }
func (HistoryCleared) Kind() EventKind  { return KindHistoryCleared }
func (Onboarded) Kind() EventKind       { return KindOnboarded }

func (DrinkAdded) isEvent()      {}
func (ProfileUpdated) isEvent()  {}
func (SettingsUpdated) isEvent() {}
func (HistoryCleared) isEvent()  {}
func (Onboarded) isEvent()       {}

// EncodeEvent returns the kind and JSON payload used to record ev.
func EncodeEvent(ev Event) (EventKind, []byte, error) {
	if ev == nil {
		return "", nil, fmt.Errorf("encode event: nil event")
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return "", nil, fmt.Errorf("encode event %s: %w", ev.Kind(), err)
	}
	return ev.Kind(), payload, nil
}

// DecodeEvent rebuilds an event from its recorded kind and payload.
func DecodeEvent(kind EventKind, payload []byte) (Event, error) {
	var (
		ev  Event
		err error
	)

	switch kind {
	case KindDrinkAdded:
		var e DrinkAdded
		err = json.Unmarshal(payload, &e)
		ev = e
	case KindProfileUpdated:
		var e ProfileUpdated
		err = json.Unmarshal(payload, &e)
		ev = e
	case KindSettingsUpdated:
		var e SettingsUpdated
		err = json.Unmarshal(payload, &e)
		ev = e
	case KindHistoryCleared:
		ev = HistoryCleared{}
	case KindOnboarded:
		ev = Onboarded{}
	default:
		return nil, fmt.Errorf("decode event: unknown kind %q", kind)
	}

	if err != nil {
		return nil, fmt.Errorf("decode event %s: %w", kind, err)
	}
	return ev, nil
}
