package dialogue

import (
	"strconv"
	"strings"
	"time"

	"roomwise/models"
)

// SanitizeSlots type-checks raw extractor output before any of it is
// trusted: durations and attendee counts must be positive integers, the
// start time a parseable instant, the scope a known value. Malformed
// fields are dropped, not guessed at.
func SanitizeSlots(raw map[string]interface{}) models.SlotMap {
	var slots models.SlotMap
	if raw == nil {
		return slots
	}

	if t, ok := parseTimeField(raw["start_time"]); ok {
		slots.StartTime = &t
	}
	if n, ok := parseIntField(raw["duration_minutes"]); ok && n > 0 {
		slots.DurationMinutes = n
	}
	if n, ok := parseIntField(raw["attendees"]); ok && n > 0 {
		slots.Attendees = n
	}
	slots.Equipment = parseStringList(raw["equipment"])
	slots.ExcludedRooms = parseStringList(raw["excluded_rooms"])
	if s, ok := raw["room_name"].(string); ok {
		slots.RoomName = strings.TrimSpace(s)
	}
	if s, ok := raw["title"].(string); ok {
		slots.Title = strings.TrimSpace(s)
	}
	if s, ok := raw["booking_id"].(string); ok {
		slots.BookingID = strings.TrimSpace(s)
	}
	if s, ok := raw["scope"].(string); ok {
		switch strings.ToUpper(strings.TrimSpace(s)) {
		case models.ScopeAll:
			slots.Scope = models.ScopeAll
		case models.ScopeLast:
			slots.Scope = models.ScopeLast
		case models.ScopeSingle:
			slots.Scope = models.ScopeSingle
		}
	}
	return slots
}

// ApplyTurn enforces the full-state contract: a mutating intent becomes the
// active intent and its slots replace the stored map wholesale. Greetings,
// unknown turns and extractor errors leave stored state untouched.
func ApplyTurn(dc *models.DialogueContext, intent models.Intent, slots models.SlotMap) {
	if !intent.Mutating() {
		return
	}
	dc.Intent = intent
	dc.Slots = slots
}

// MissingBookingSlots is the completion gate for the booking intent.
func MissingBookingSlots(slots models.SlotMap) []string {
	var missing []string
	if slots.StartTime == nil {
		missing = append(missing, "date and time")
	}
	if slots.DurationMinutes == 0 {
		missing = append(missing, "duration")
	}
	if slots.Attendees == 0 {
		missing = append(missing, "number of attendees")
	}
	return missing
}

func parseIntField(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

var timeLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimeField(v interface{}) (time.Time, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseStringList(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
