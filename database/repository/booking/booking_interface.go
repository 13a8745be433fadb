package bookingRepo

import (
	"context"
	"time"

	"roomwise/models"
)

// BookingRepository defines methods for booking ledger persistence.
type BookingRepository interface {
	// GetByID retrieves a booking by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// Create inserts a new booking record.
	Create(ctx context.Context, booking *models.Booking) error
	// Update replaces mutable fields of an existing booking.
	Update(ctx context.Context, booking *models.Booking) error
	// SetStatus flips a booking's status.
	SetStatus(ctx context.Context, id, status string) error

	// FindConflicts returns confirmed bookings of the room whose interval
	// overlaps [start, end). excludeID, when non-empty, skips that booking
	// so a modification can re-check availability against everyone else.
	FindConflicts(ctx context.Context, roomID string, start, end time.Time, excludeID string) ([]models.Booking, error)
	// FindByRoomAndDay returns the room's confirmed bookings inside
	// [dayStart, dayEnd), ordered chronologically.
	FindByRoomAndDay(ctx context.Context, roomID string, dayStart, dayEnd time.Time) ([]models.Booking, error)

	// FindUpcomingByUser returns the user's confirmed bookings that end
	// after now, ordered by start time.
	FindUpcomingByUser(ctx context.Context, userID string, now time.Time) ([]models.Booking, error)
	// FindLastCreatedByUser returns the user's most recently created
	// confirmed upcoming booking, or nil.
	FindLastCreatedByUser(ctx context.Context, userID string, now time.Time) (*models.Booking, error)
}
