package calendar

import (
	"context"
	"time"

	eventRepo "roomwise/database/repository/event"
	"roomwise/models"
)

// DefaultEventTolerance is the window around a requested time inside which
// an unbooked calendar event counts as "the meeting the user means".
const DefaultEventTolerance = 150 * time.Minute

// Service is the calendar collaborator surface consumed by the dialogue
// layer. Feed ingestion happens elsewhere; this only reads and links records.
type Service interface {
	// NextUnbookedEvent returns the user's earliest upcoming event that
	// still needs a room. With around set, only events starting within
	// the tolerance window of that instant qualify.
	NextUnbookedEvent(ctx context.Context, userID string, around *time.Time) (*models.Event, error)
	// LinkEvent attaches a booking to an event.
	LinkEvent(ctx context.Context, eventID, bookingID string) error
	// UpcomingEvents lists the user's upcoming feed records.
	UpcomingEvents(ctx context.Context, userID string) ([]models.Event, error)
}

// DefaultService implements Service over the event repository.
type DefaultService struct {
	Events    eventRepo.EventRepository
	Tolerance time.Duration    // zero means DefaultEventTolerance
	Now       func() time.Time // nil means time.Now
}

func (s *DefaultService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultService) tolerance() time.Duration {
	if s.Tolerance > 0 {
		return s.Tolerance
	}
	return DefaultEventTolerance
}

func (s *DefaultService) NextUnbookedEvent(ctx context.Context, userID string, around *time.Time) (*models.Event, error) {
	events, err := s.Events.FindUnbookedByUser(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}
	for i := range events {
		ev := &events[i]
		if around != nil {
			gap := ev.Start.Sub(*around)
			if gap < 0 {
				gap = -gap
			}
			if gap > s.tolerance() {
				continue
			}
		}
		return ev, nil
	}
	return nil, nil
}

func (s *DefaultService) LinkEvent(ctx context.Context, eventID, bookingID string) error {
	return s.Events.SetBookingLink(ctx, eventID, bookingID)
}

func (s *DefaultService) UpcomingEvents(ctx context.Context, userID string) ([]models.Event, error) {
	return s.Events.FindUpcomingByUser(ctx, userID, s.now())
}
