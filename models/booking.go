package models

import "time"

// Booking statuses. A cancelled booking is inert for conflict checks but is
// kept for history until purged externally.
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Booking represents one reservation of one room for one half-open time
// interval [start, end). Two confirmed bookings of the same room must never
// overlap.
type Booking struct {
	ID        string    `bson:"id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	RoomID    string    `bson:"room_id" json:"room_id"`
	Start     time.Time `bson:"start" json:"start_time"`
	End       time.Time `bson:"end" json:"end_time"`
	Title     string    `bson:"title" json:"title"`
	Attendees int       `bson:"attendees" json:"attendees"`
	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Interval returns the booking's occupied slot.
func (b *Booking) Interval() TimeSlot {
	return TimeSlot{Start: b.Start, End: b.End}
}
