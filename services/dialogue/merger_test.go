package dialogue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomwise/models"
)

func TestSanitizeSlotsAcceptsWellFormedFields(t *testing.T) {
	slots := SanitizeSlots(map[string]interface{}{
		"start_time":       "2026-09-14T10:00:00",
		"duration_minutes": float64(60),
		"attendees":        "4",
		"equipment":        []interface{}{"screen", " projector "},
		"excluded_rooms":   []interface{}{"Auditorium"},
		"room_name":        " Boardroom ",
		"title":            " Sprint review ",
		"scope":            "all",
	})

	require.NotNil(t, slots.StartTime)
	assert.Equal(t, time.Date(2026, 9, 14, 10, 0, 0, 0, time.Local), *slots.StartTime)
	assert.Equal(t, 60, slots.DurationMinutes)
	assert.Equal(t, 4, slots.Attendees)
	assert.Equal(t, []string{"screen", "projector"}, slots.Equipment)
	assert.Equal(t, []string{"Auditorium"}, slots.ExcludedRooms)
	assert.Equal(t, "Boardroom", slots.RoomName)
	assert.Equal(t, "Sprint review", slots.Title)
	assert.Equal(t, models.ScopeAll, slots.Scope)
}

func TestSanitizeSlotsDropsMalformedFields(t *testing.T) {
	slots := SanitizeSlots(map[string]interface{}{
		"start_time":       "next tuesday-ish",
		"duration_minutes": float64(45.5),
		"attendees":        -3,
		"equipment":        "screen", // not a list
		"scope":            "SOME",
	})

	assert.Nil(t, slots.StartTime)
	assert.Zero(t, slots.DurationMinutes)
	assert.Zero(t, slots.Attendees)
	assert.Nil(t, slots.Equipment)
	assert.Empty(t, slots.Scope)
}

func TestSanitizeSlotsNilMap(t *testing.T) {
	slots := SanitizeSlots(nil)
	assert.Nil(t, slots.StartTime)
	assert.Zero(t, slots.Attendees)
}

func TestApplyTurnFullStateReplacement(t *testing.T) {
	dc := &models.DialogueContext{}
	start := time.Date(2026, 9, 14, 10, 0, 0, 0, time.Local)

	// Turn 1: partial request.
	ApplyTurn(dc, models.IntentBook, models.SlotMap{Attendees: 4})
	assert.Equal(t, models.IntentBook, dc.Intent)
	assert.Equal(t, 4, dc.Slots.Attendees)

	// Turn 2: the extractor re-emits the full state including turn 1's
	// fields; the stored map is replaced wholesale, not patched.
	ApplyTurn(dc, models.IntentBook, models.SlotMap{
		StartTime:       &start,
		DurationMinutes: 60,
		Attendees:       4,
	})
	assert.Equal(t, 4, dc.Slots.Attendees)
	assert.Equal(t, 60, dc.Slots.DurationMinutes)
	require.NotNil(t, dc.Slots.StartTime)

	// Turn 3: a new request with fewer fields wipes the rest.
	ApplyTurn(dc, models.IntentBook, models.SlotMap{Attendees: 2})
	assert.Nil(t, dc.Slots.StartTime, "stale fields must not leak into the new request")
	assert.Zero(t, dc.Slots.DurationMinutes)
}

func TestApplyTurnNonMutatingIntentsPreserveState(t *testing.T) {
	start := time.Date(2026, 9, 14, 10, 0, 0, 0, time.Local)
	dc := &models.DialogueContext{
		Intent: models.IntentBook,
		Slots:  models.SlotMap{StartTime: &start, DurationMinutes: 30, Attendees: 4},
	}

	for _, intent := range []models.Intent{models.IntentGreeting, models.IntentUnknown, models.IntentExternalError} {
		ApplyTurn(dc, intent, models.SlotMap{})
		assert.Equal(t, models.IntentBook, dc.Intent, "%s must not clobber the pending request", intent)
		assert.Equal(t, 4, dc.Slots.Attendees)
	}
}

func TestMissingBookingSlots(t *testing.T) {
	start := time.Date(2026, 9, 14, 10, 0, 0, 0, time.Local)

	assert.ElementsMatch(t,
		[]string{"date and time", "duration", "number of attendees"},
		MissingBookingSlots(models.SlotMap{}))

	assert.ElementsMatch(t,
		[]string{"duration"},
		MissingBookingSlots(models.SlotMap{StartTime: &start, Attendees: 4}))

	assert.Empty(t, MissingBookingSlots(models.SlotMap{
		StartTime: &start, DurationMinutes: 60, Attendees: 4,
	}))
}
