package booking

import (
	"context"
	"time"

	"roomwise/models"
)

// CreateRequest carries the fields of a new booking.
type CreateRequest struct {
	RoomID    string
	Start     time.Time
	End       time.Time
	Title     string
	Attendees int
	EventID   string // optional calendar event to link after creation
}

// UpdateRequest carries a partial modification; nil fields keep the
// booking's current values.
type UpdateRequest struct {
	RoomID    *string
	Start     *time.Time
	End       *time.Time
	Title     *string
	Attendees *int
}

// Service is the booking ledger: transactional create/update/cancel with
// conflict and rule enforcement.
type Service interface {
	Create(ctx context.Context, userID string, req CreateRequest) (*models.Booking, error)
	Update(ctx context.Context, userID, bookingID string, req UpdateRequest) (*models.Booking, error)
	Cancel(ctx context.Context, userID, bookingID string) error
	// CancelAll cancels every confirmed future booking of the user and
	// returns how many were cancelled.
	CancelAll(ctx context.Context, userID string) (int, error)
	// UserBookings lists the user's upcoming confirmed bookings.
	UserBookings(ctx context.Context, userID string) ([]models.Booking, error)
	// LastCreatedBooking returns the user's most recently created
	// confirmed upcoming booking, or nil.
	LastCreatedBooking(ctx context.Context, userID string) (*models.Booking, error)
	// GetOwned fetches a booking and enforces ownership, hiding existence
	// from non-owners.
	GetOwned(ctx context.Context, userID, bookingID string) (*models.Booking, error)
}
