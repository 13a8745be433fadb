package models

import "time"

// TimeSlot is a half-open interval [start, end) used both for booking
// windows and for free-time reporting.
type TimeSlot struct {
	Start time.Time `bson:"start" json:"start"`
	End   time.Time `bson:"end" json:"end"`
}

// Overlaps reports whether two half-open intervals conflict. Touching
// endpoints do not conflict.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return s.Start.Before(other.End) && s.End.After(other.Start)
}

// Duration returns the slot's length.
func (s TimeSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// RoomAvailability reports a room's free slots for one calendar day.
// Derived data, never stored.
type RoomAvailability struct {
	RoomName string     `json:"room_name"`
	Capacity int        `json:"capacity"`
	Slots    []TimeSlot `json:"slots"`
}
