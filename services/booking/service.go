package booking

import (
	"context"
	"time"

	bookingRepo "roomwise/database/repository/booking"
	eventRepo "roomwise/database/repository/event"
	roomRepo "roomwise/database/repository/room"
	"roomwise/models"
	"roomwise/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Rules holds the ledger's policy knobs.
type Rules struct {
	WorkingHoursStart       int
	WorkingHoursEnd         int
	SingleUserCapacityLimit int // optimization rule threshold
}

// DefaultService implements Service over the mongo repositories.
type DefaultService struct {
	Repo   bookingRepo.BookingRepository
	Rooms  roomRepo.RoomRepository
	Events eventRepo.EventRepository
	Rules  Rules
	Now    func() time.Time // nil means time.Now

	roomLocks keyedMutex
}

func (s *DefaultService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultService) Create(ctx context.Context, userID string, req CreateRequest) (*models.Booking, error) {
	if req.Attendees < 1 {
		req.Attendees = 1
	}
	if req.Title == "" {
		req.Title = "Meeting"
	}

	room, err := s.Rooms.GetByID(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil || !room.Active {
		return nil, utils.NewNotFoundError("room %s not found", req.RoomID)
	}

	// The whole validation pipeline and the insert run under the room
	// lock so the conflict scan and the commit are one logical step.
	unlock := s.roomLocks.lock(room.ID)
	defer unlock()

	if err := s.validate(ctx, room, req.Start, req.End, req.Attendees, ""); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		ID:        uuid.New().String(),
		UserID:    userID,
		RoomID:    room.ID,
		Start:     req.Start,
		End:       req.End,
		Title:     req.Title,
		Attendees: req.Attendees,
		Status:    models.BookingStatusConfirmed,
		CreatedAt: s.now(),
	}
	if err := s.Repo.Create(ctx, booking); err != nil {
		return nil, err
	}

	if req.EventID != "" {
		if err := s.Events.SetBookingLink(ctx, req.EventID, booking.ID); err != nil {
			utils.GetLogger().Warn("booking created but event link failed",
				zap.String("bookingID", booking.ID),
				zap.String("eventID", req.EventID),
				zap.Error(err))
		}
	}
	return booking, nil
}

func (s *DefaultService) Update(ctx context.Context, userID, bookingID string, req UpdateRequest) (*models.Booking, error) {
	booking, err := s.GetOwned(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusConfirmed {
		return nil, utils.NewValidationError("booking %s is cancelled", bookingID)
	}

	merged := *booking
	if req.RoomID != nil {
		merged.RoomID = *req.RoomID
	}
	if req.Start != nil {
		// A start change keeps the original duration unless a new end
		// was supplied as well.
		duration := booking.End.Sub(booking.Start)
		merged.Start = *req.Start
		merged.End = req.Start.Add(duration)
	}
	if req.End != nil {
		merged.End = *req.End
	}
	if req.Title != nil {
		merged.Title = *req.Title
	}
	if req.Attendees != nil {
		merged.Attendees = *req.Attendees
	}

	room, err := s.Rooms.GetByID(ctx, merged.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil || !room.Active {
		return nil, utils.NewNotFoundError("room %s not found", merged.RoomID)
	}

	unlock := s.roomLocks.lock(room.ID)
	defer unlock()

	// The booking's own prior interval is excluded from the conflict scan.
	if err := s.validate(ctx, room, merged.Start, merged.End, merged.Attendees, booking.ID); err != nil {
		return nil, err
	}

	if err := s.Repo.Update(ctx, &merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

func (s *DefaultService) Cancel(ctx context.Context, userID, bookingID string) error {
	booking, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return utils.NewNotFoundError("booking %s not found", bookingID)
	}
	// The caller supplied the ID, so an explicit 403 discloses nothing new.
	if booking.UserID != userID {
		return utils.NewAuthorizationError("booking %s belongs to another user", bookingID)
	}
	if booking.Status != models.BookingStatusConfirmed {
		return utils.NewValidationError("booking %s is already cancelled", bookingID)
	}
	if !booking.End.After(s.now()) {
		return utils.NewValidationError("booking %s is already in the past", bookingID)
	}

	if err := s.Repo.SetStatus(ctx, bookingID, models.BookingStatusCancelled); err != nil {
		return err
	}
	// A cancelled booking must not keep its calendar room link.
	if err := s.Events.ClearBookingLinks(ctx, bookingID); err != nil {
		utils.GetLogger().Warn("failed to clear event links",
			zap.String("bookingID", bookingID), zap.Error(err))
	}
	return nil
}

func (s *DefaultService) CancelAll(ctx context.Context, userID string) (int, error) {
	bookings, err := s.Repo.FindUpcomingByUser(ctx, userID, s.now())
	if err != nil {
		return 0, err
	}
	if len(bookings) == 0 {
		return 0, utils.NewValidationError("no upcoming bookings to cancel")
	}
	count := 0
	for _, b := range bookings {
		if err := s.Repo.SetStatus(ctx, b.ID, models.BookingStatusCancelled); err != nil {
			return count, err
		}
		if err := s.Events.ClearBookingLinks(ctx, b.ID); err != nil {
			utils.GetLogger().Warn("failed to clear event links",
				zap.String("bookingID", b.ID), zap.Error(err))
		}
		count++
	}
	return count, nil
}

func (s *DefaultService) UserBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	return s.Repo.FindUpcomingByUser(ctx, userID, s.now())
}

func (s *DefaultService) LastCreatedBooking(ctx context.Context, userID string) (*models.Booking, error) {
	return s.Repo.FindLastCreatedByUser(ctx, userID, s.now())
}

// GetOwned hides existence from non-owners: a foreign booking reads as 404.
func (s *DefaultService) GetOwned(ctx context.Context, userID, bookingID string) (*models.Booking, error) {
	booking, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil || booking.UserID != userID {
		return nil, utils.NewNotFoundError("booking %s not found", bookingID)
	}
	return booking, nil
}

// validate runs the full rule pipeline: working hours, capacity, conflict
// scan, optimization rule. Any failure aborts before the write.
func (s *DefaultService) validate(ctx context.Context, room *models.Room, start, end time.Time, attendees int, excludeBookingID string) error {
	if !end.After(start) {
		return utils.NewValidationError("end time must be after start time")
	}
	// Wall-clock containment; bookings spanning midnight are unsupported.
	if start.Hour() < s.Rules.WorkingHoursStart || end.Hour() > s.Rules.WorkingHoursEnd || start.Hour() > end.Hour() {
		return utils.NewValidationError("booking outside of working hours (%02d:00-%02d:00)",
			s.Rules.WorkingHoursStart, s.Rules.WorkingHoursEnd)
	}
	if room.Capacity < attendees {
		return utils.NewValidationError("room %s holds %d, requested %d", room.Name, room.Capacity, attendees)
	}

	conflicts, err := s.Repo.FindConflicts(ctx, room.ID, start, end, excludeBookingID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return utils.NewConflictError("room %s is already booked for this interval", room.Name)
	}

	return s.checkOptimizationRule(ctx, room, start, end, attendees, excludeBookingID)
}

// checkOptimizationRule: a lone attendee may not occupy a room above the
// small-group threshold while a room at or under the threshold is free for
// the same window. Waived when no such smaller room is available.
func (s *DefaultService) checkOptimizationRule(ctx context.Context, room *models.Room, start, end time.Time, attendees int, excludeBookingID string) error {
	if attendees > 1 || room.Capacity <= s.Rules.SingleUserCapacityLimit {
		return nil
	}

	rooms, err := s.Rooms.GetActive(ctx, attendees)
	if err != nil {
		return err
	}
	for _, candidate := range rooms {
		if candidate.Capacity > s.Rules.SingleUserCapacityLimit || candidate.ID == room.ID {
			continue
		}
		conflicts, err := s.Repo.FindConflicts(ctx, candidate.ID, start, end, excludeBookingID)
		if err != nil {
			return err
		}
		if len(conflicts) == 0 {
			return utils.NewValidationError(
				"optimization violation: smaller room %s (capacity %d) is available for this request",
				candidate.Name, candidate.Capacity)
		}
	}
	return nil
}
