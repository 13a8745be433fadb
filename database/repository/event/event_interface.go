package eventRepo

import (
	"context"
	"time"

	"roomwise/models"
)

// EventRepository defines methods for calendar event record access.
// The feed producing these records lives outside this service.
type EventRepository interface {
	// GetByID retrieves an event by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Event, error)
	// Upsert inserts or refreshes an event record keyed by its feed UID.
	Upsert(ctx context.Context, event *models.Event) error
	// FindUpcomingByUser returns the user's events ending after now,
	// ordered by start time.
	FindUpcomingByUser(ctx context.Context, userID string, now time.Time) ([]models.Event, error)
	// FindUnbookedByUser returns upcoming events with no linked booking
	// and no location, ordered by start time.
	FindUnbookedByUser(ctx context.Context, userID string, now time.Time) ([]models.Event, error)
	// SetBookingLink sets or clears the event's booking reference.
	SetBookingLink(ctx context.Context, eventID, bookingID string) error
	// ClearBookingLinks removes the booking reference from any event
	// pointing at the given booking.
	ClearBookingLinks(ctx context.Context, bookingID string) error
}
