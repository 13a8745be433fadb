package models

import "time"

// Intent is the classified purpose of a user message. Dispatch over intents
// is an exhaustive switch; adding a constant without handling it is a bug
// the router's default arm will surface.
type Intent string

const (
	IntentBook              Intent = "BOOK_INTENT"
	IntentModify            Intent = "MODIFY_INTENT"
	IntentCancel            Intent = "CANCEL_INTENT"
	IntentQueryAvailability Intent = "QUERY_AVAILABILITY"
	IntentRoomInfo          Intent = "ROOM_INFO"
	IntentGreeting          Intent = "GREETING"
	IntentUnknown           Intent = "UNKNOWN"
	IntentExternalError     Intent = "API_ERROR"
)

// Mutating reports whether the intent replaces stored dialogue state.
// Greetings, unparseable turns and extractor failures never touch context.
func (i Intent) Mutating() bool {
	switch i {
	case IntentGreeting, IntentUnknown, IntentExternalError:
		return false
	}
	return true
}

// Cancellation scopes.
const (
	ScopeAll    = "ALL"
	ScopeLast   = "LAST"
	ScopeSingle = "SINGLE"
)

// SlotMap holds the structured fields extracted from conversation. The
// extractor re-derives the full state from the whole transcript each turn,
// so a new map replaces the stored one wholesale.
type SlotMap struct {
	StartTime       *time.Time `json:"start_time,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	Attendees       int        `json:"attendees,omitempty"`
	Title           string     `json:"title,omitempty"`
	Equipment       []string   `json:"equipment,omitempty"`
	RoomName        string     `json:"room_name,omitempty"`
	ExcludedRooms   []string   `json:"excluded_rooms,omitempty"`
	Scope           string     `json:"scope,omitempty"`
	BookingID       string     `json:"booking_id,omitempty"`
}

// DialogueTurn is one transcript entry.
type DialogueTurn struct {
	Role    string    `json:"role"` // "user" or "assistant"
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// DialogueContext is the per-user conversational state carried across turns.
// Created lazily on first message, cleared explicitly or collapsed when a
// booking is confirmed.
type DialogueContext struct {
	Transcript    []DialogueTurn `json:"transcript,omitempty"`
	Intent        Intent         `json:"intent,omitempty"`
	Slots         SlotMap        `json:"slots"`
	LastBookingID string         `json:"last_booking_id,omitempty"`
}

// Chat stream record types. A /chat/message response is a sequence of
// newline-delimited JSON records: deltas, then at most one action.
const (
	StreamTypeDelta  = "delta"
	StreamTypeAction = "action"
	StreamTypeError  = "error"
)

// StreamRecord is one NDJSON record of the chat response stream.
type StreamRecord struct {
	Type    string       `json:"type"`
	Content string       `json:"content,omitempty"`
	Data    *ActionFrame `json:"data,omitempty"`
}

// ActionFrame carries a confirmable action composed by the dialogue layer.
// The client executes it through the REST surface after user confirmation.
type ActionFrame struct {
	ActionRequired string                 `json:"action_required"` // confirm_booking, confirm_update, confirm_cancel, confirm_cancel_all
	Payload        map[string]interface{} `json:"payload"`
}
