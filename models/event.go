package models

import "time"

// Event is a calendar feed record. Feed ingestion happens outside this
// service; events arrive here with known start/end/location.
type Event struct {
	ID        string    `bson:"id" json:"id"`
	UID       string    `bson:"uid" json:"uid"` // feed-assigned identifier
	Summary   string    `bson:"summary" json:"summary"`
	Start     time.Time `bson:"start" json:"start"`
	End       time.Time `bson:"end" json:"end"`
	Location  string    `bson:"location,omitempty" json:"location,omitempty"`
	Attendees int       `bson:"attendees,omitempty" json:"attendees,omitempty"`
	UserID    string    `bson:"user_id" json:"user_id"`
	BookingID string    `bson:"booking_id,omitempty" json:"booking_id,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// NeedsRoom reports whether the event still lacks both a location and a
// linked booking.
func (e *Event) NeedsRoom() bool {
	return e.Location == "" && e.BookingID == ""
}
