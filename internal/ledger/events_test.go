package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/myh2o/internal/beverage"
)

func TestEncodeDecodeEvent(t *testing.T) {
	events := []Event{
		DrinkAdded{Entry: DrinkEntry{
			ID:               "d-0001",
			Type:             beverage.Beer,
			Volume:           330,
			Timestamp:        time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC),
			ExtraWaterNeeded: 330,
		}},
		ProfileUpdated{Patch: ProfilePatch{Weight: ptr("70"), WeightUnit: ptr(Kilograms)}},
		SettingsUpdated{Patch: SettingsPatch{Notifications: ptr(false)}, Previous: DefaultSettings()},
		HistoryCleared{},
		Onboarded{},
	}

	for _, ev := range events {
		t.Run(string(ev.Kind()), func(t *testing.T) {
			kind, payload, err := EncodeEvent(ev)
			require.NoError(t, err)
			assert.Equal(t, ev.Kind(), kind)

			decoded, err := DecodeEvent(kind, payload)
			require.NoError(t, err)
			assert.Equal(t, ev, decoded)
		})
	}
}

func TestEncodeEvent_Nil(t *testing.T) {
	_, _, err := EncodeEvent(nil)
	assert.Error(t, err)
}

func TestDecodeEvent_UnknownKind(t *testing.T) {
	_, err := DecodeEvent("drink_removed", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drink_removed")
}

func TestDecodeEvent_BadPayload(t *testing.T) {
	_, err := DecodeEvent(KindDrinkAdded, []byte(`{"entry":`))
	assert.Error(t, err)
}
