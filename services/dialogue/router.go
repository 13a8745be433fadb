package dialogue

import (
	"context"
	"fmt"
	"strings"
	"time"

	roomRepo "roomwise/database/repository/room"
	"roomwise/models"
	"roomwise/services/availability"
	"roomwise/services/booking"
	"roomwise/services/calendar"
	"roomwise/utils"

	"go.uber.org/zap"
)

// TurnOutcome is what one routed turn produces: a situation description for
// the generation service, optional verbatim lines appended after the
// generated text, and an optional confirmable action.
type TurnOutcome struct {
	// Situation is handed to the NLG service.
	Situation string
	// Verbatim is technical content (lists, IDs) appended after the
	// generated text so it stays accurate.
	Verbatim string
	// Static bypasses generation entirely; used for technical errors.
	Static string
	// Action is the confirmable payload, emitted after the text.
	Action *models.ActionFrame
}

const technicalErrorMessage = "A technical error occurred while processing your message. Please try again later."

// Router dispatches a resolved (intent, slots) pair to the behavior for
// that intent. Every branch terminates in an allocation decision or a
// clarifying question.
type Router struct {
	Engine   availability.Engine
	Bookings booking.Service
	Calendar calendar.Service
	Rooms    roomRepo.RoomRepository
	Now      func() time.Time // nil means time.Now
}

func (r *Router) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Route runs the per-intent behavior. The switch is exhaustive over the
// intent set; an unhandled constant falls through to the rephrase branch.
func (r *Router) Route(ctx context.Context, userID string, dc *models.DialogueContext) (*TurnOutcome, error) {
	switch dc.Intent {
	case models.IntentBook:
		return r.handleBook(ctx, userID, dc)
	case models.IntentModify:
		return r.handleModify(ctx, userID, dc)
	case models.IntentCancel:
		return r.handleCancel(ctx, userID, dc)
	case models.IntentQueryAvailability:
		return r.handleQueryAvailability(ctx, dc)
	case models.IntentRoomInfo:
		return r.handleRoomInfo(ctx, dc)
	case models.IntentGreeting:
		return &TurnOutcome{
			Situation: "The user says hello. Greet them and mention what you can do: book, move or cancel meeting rooms and check availability.",
		}, nil
	case models.IntentExternalError:
		return &TurnOutcome{Static: technicalErrorMessage}, nil
	case models.IntentUnknown:
		fallthrough
	default:
		return &TurnOutcome{
			Situation: "The user said something that was not understood. Politely ask them to rephrase (booking, modifying or cancelling a room).",
		}, nil
	}
}

func (r *Router) handleBook(ctx context.Context, userID string, dc *models.DialogueContext) (*TurnOutcome, error) {
	slots := dc.Slots
	missing := MissingBookingSlots(slots)
	if len(missing) > 0 {
		// Before asking, see whether the calendar already knows the
		// meeting the user means.
		if outcome := r.proposeCalendarEvent(ctx, userID, slots.StartTime); outcome != nil {
			return outcome, nil
		}
		// One clarifying question naming every missing field at once.
		return &TurnOutcome{
			Situation: fmt.Sprintf(
				"To book a room you still need the following from the user: %s. Ask for all of them in a single question.",
				strings.Join(missing, ", ")),
		}, nil
	}

	window := models.TimeSlot{
		Start: *slots.StartTime,
		End:   slots.StartTime.Add(time.Duration(slots.DurationMinutes) * time.Minute),
	}
	query := availability.Query{
		Window:            window,
		Attendees:         slots.Attendees,
		RequiredEquipment: slots.Equipment,
		PreferredRoom:     slots.RoomName,
		ExcludedRooms:     slots.ExcludedRooms,
	}

	rooms, err := r.Engine.FindCandidateRooms(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return r.explainNoFit(ctx, query)
	}

	best := rooms[0]
	// Oversized match: prefer a proportionate room with a free slot
	// covering the window when the day's availability offers one.
	if slots.RoomName == "" && !r.Engine.IsCoherent(best.Capacity, slots.Attendees) {
		if alt := r.coherentAlternative(ctx, query); alt != nil {
			best = *alt
		}
	}

	title := slots.Title
	if title == "" {
		title = "Meeting"
	}

	situation := fmt.Sprintf("Found room %s (capacity %d)%s for %s, %d minutes, %d people. Ask the user to confirm the booking.",
		best.Name, best.Capacity, equipmentSuffix(best.Equipment),
		window.Start.Format("02/01 at 15:04"), slots.DurationMinutes, slots.Attendees)

	return &TurnOutcome{
		Situation: situation,
		Action: &models.ActionFrame{
			ActionRequired: "confirm_booking",
			Payload: map[string]interface{}{
				"room_id":    best.ID,
				"room_name":  best.Name,
				"start_time": window.Start.Format(time.RFC3339),
				"end_time":   window.End.Format(time.RFC3339),
				"attendees":  slots.Attendees,
				"title":      title,
			},
		},
	}, nil
}

// proposeCalendarEvent proactively offers to book an unbooked calendar
// event near the requested time instead of interrogating the user.
func (r *Router) proposeCalendarEvent(ctx context.Context, userID string, around *time.Time) *TurnOutcome {
	event, err := r.Calendar.NextUnbookedEvent(ctx, userID, around)
	if err != nil {
		utils.GetLogger().Warn("calendar lookup failed", zap.Error(err))
		return nil
	}
	if event == nil {
		return nil
	}

	attendees := event.Attendees
	if attendees < 1 {
		attendees = 1
	}
	rooms, err := r.Engine.FindCandidateRooms(ctx, availability.Query{
		Window:    models.TimeSlot{Start: event.Start, End: event.End},
		Attendees: attendees,
	})
	if err != nil || len(rooms) == 0 {
		return nil
	}
	best := rooms[0]

	return &TurnOutcome{
		Situation: fmt.Sprintf(
			"The user's calendar has an unbooked meeting %q on %s with no room. Room %s (capacity %d) is free for it. Propose booking that meeting instead of asking for details.",
			event.Summary, event.Start.Format("02/01 at 15:04"), best.Name, best.Capacity),
		Action: &models.ActionFrame{
			ActionRequired: "confirm_booking",
			Payload: map[string]interface{}{
				"room_id":    best.ID,
				"room_name":  best.Name,
				"start_time": event.Start.Format(time.RFC3339),
				"end_time":   event.End.Format(time.RFC3339),
				"attendees":  attendees,
				"title":      event.Summary,
				"event_id":   event.ID,
			},
		},
	}
}

// coherentAlternative scans the day's availability for a proportionate room
// whose free gap covers the whole window.
func (r *Router) coherentAlternative(ctx context.Context, query availability.Query) *models.Room {
	alts, err := r.Engine.DailyAvailability(ctx, query.Window.Start, query.Attendees)
	if err != nil {
		utils.GetLogger().Warn("daily availability scan failed", zap.Error(err))
		return nil
	}
	for _, alt := range alts {
		if !r.Engine.IsCoherent(alt.Capacity, query.Attendees) {
			continue
		}
		if roomExcluded(alt.RoomName, query.ExcludedRooms) {
			continue
		}
		for _, slot := range alt.Slots {
			if !slot.Start.After(query.Window.Start) && !slot.End.Before(query.Window.End) {
				room, err := r.Rooms.GetByName(ctx, alt.RoomName)
				if err != nil || room == nil || !room.HasEquipment(query.RequiredEquipment) {
					break
				}
				return room
			}
		}
	}
	return nil
}

func (r *Router) explainNoFit(ctx context.Context, query availability.Query) (*TurnOutcome, error) {
	diag, err := r.Engine.Diagnose(ctx, query)
	if err != nil {
		return nil, err
	}
	outcome := &TurnOutcome{
		Situation: diag.Reason + " Tell the user and point them at the day's remaining openings if any.",
	}
	if len(diag.Alternatives) > 0 {
		outcome.Verbatim = formatAvailabilities(diag.Alternatives)
	}
	return outcome, nil
}

func (r *Router) handleModify(ctx context.Context, userID string, dc *models.DialogueContext) (*TurnOutcome, error) {
	target, err := r.resolveModifyTarget(ctx, userID, dc)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return &TurnOutcome{
			Situation: "The user wants to change a booking but has no upcoming booking to change. Tell them so.",
		}, nil
	}

	slots := dc.Slots
	newStart := target.Start
	if slots.StartTime != nil {
		newStart = *slots.StartTime
	}
	// Duration survives a start change unless the user gave a new one.
	duration := target.End.Sub(target.Start)
	if slots.DurationMinutes > 0 {
		duration = time.Duration(slots.DurationMinutes) * time.Minute
	}
	newEnd := newStart.Add(duration)
	attendees := target.Attendees
	if slots.Attendees > 0 {
		attendees = slots.Attendees
	}

	window := models.TimeSlot{Start: newStart, End: newEnd}

	// Keep the current room when it still fits and is free, unless the
	// user explicitly asked for a different one.
	room := r.sameRoomIfStillFits(ctx, target, window, attendees, slots.Equipment, slots.RoomName)
	if room == nil {
		query := availability.Query{
			Window:            window,
			Attendees:         attendees,
			RequiredEquipment: slots.Equipment,
			PreferredRoom:     slots.RoomName,
			ExcludedRooms:     slots.ExcludedRooms,
			ExcludeBookingID:  target.ID,
		}
		rooms, err := r.Engine.FindCandidateRooms(ctx, query)
		if err != nil {
			return nil, err
		}
		if len(rooms) == 0 {
			return r.explainNoFit(ctx, query)
		}
		room = &rooms[0]
	}

	situation := fmt.Sprintf(
		"The booking %q moves to room %s (capacity %d) on %s for %d people. Ask the user to confirm the change.",
		target.Title, room.Name, room.Capacity, newStart.Format("02/01 at 15:04"), attendees)

	return &TurnOutcome{
		Situation: situation,
		Action: &models.ActionFrame{
			ActionRequired: "confirm_update",
			Payload: map[string]interface{}{
				"booking_id": target.ID,
				"room_id":    room.ID,
				"room_name":  room.Name,
				"start_time": newStart.Format(time.RFC3339),
				"end_time":   newEnd.Format(time.RFC3339),
				"attendees":  attendees,
			},
		},
	}, nil
}

// resolveModifyTarget: explicit reference, else the context's last confirmed
// booking, else the user's most recently created one.
func (r *Router) resolveModifyTarget(ctx context.Context, userID string, dc *models.DialogueContext) (*models.Booking, error) {
	if dc.Slots.BookingID != "" {
		b, err := r.Bookings.GetOwned(ctx, userID, dc.Slots.BookingID)
		if err != nil {
			if utils.ErrorIsKind(err, utils.KindNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return b, nil
	}
	if dc.LastBookingID != "" {
		b, err := r.Bookings.GetOwned(ctx, userID, dc.LastBookingID)
		if err == nil && b != nil && b.Status == models.BookingStatusConfirmed {
			return b, nil
		}
	}
	return r.Bookings.LastCreatedBooking(ctx, userID)
}

func (r *Router) sameRoomIfStillFits(ctx context.Context, target *models.Booking, window models.TimeSlot, attendees int, equipment []string, requestedName string) *models.Room {
	room, err := r.Rooms.GetByID(ctx, target.RoomID)
	if err != nil || room == nil || !room.Active {
		return nil
	}
	if requestedName != "" && !nameMatches(room.Name, requestedName) {
		return nil
	}
	if room.Capacity < attendees || !room.HasEquipment(equipment) {
		return nil
	}
	candidates, err := r.Engine.FindCandidateRooms(ctx, availability.Query{
		Window:           window,
		Attendees:        attendees,
		PreferredRoom:    room.Name,
		ExcludeBookingID: target.ID,
	})
	if err != nil || len(candidates) == 0 {
		return nil
	}
	return room
}

func (r *Router) handleCancel(ctx context.Context, userID string, dc *models.DialogueContext) (*TurnOutcome, error) {
	bookings, err := r.Bookings.UserBookings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return &TurnOutcome{
			Situation: "The user wants to cancel but has no upcoming bookings. Tell them so.",
		}, nil
	}

	scope := dc.Slots.Scope
	if scope == "" {
		scope = models.ScopeSingle
	}

	switch scope {
	case models.ScopeAll:
		// Mass cancellation always gets its own explicit confirmation.
		return &TurnOutcome{
			Situation: fmt.Sprintf("The user asked to cancel ALL %d of their upcoming bookings. Ask them to explicitly confirm the mass cancellation.", len(bookings)),
			Action: &models.ActionFrame{
				ActionRequired: "confirm_cancel_all",
				Payload:        map[string]interface{}{"count": len(bookings)},
			},
		}, nil

	case models.ScopeLast:
		last, err := r.Bookings.LastCreatedBooking(ctx, userID)
		if err != nil {
			return nil, err
		}
		if last == nil {
			return &TurnOutcome{
				Situation: "The user wants to cancel their latest booking but none exists. Tell them so.",
			}, nil
		}
		return r.proposeCancel(last), nil
	}

	// SINGLE: filter by the optional date; never guess between several.
	candidates := bookings
	if dc.Slots.StartTime != nil {
		y, m, d := dc.Slots.StartTime.Date()
		candidates = nil
		for _, b := range bookings {
			by, bm, bd := b.Start.Date()
			if by == y && bm == m && bd == d {
				candidates = append(candidates, b)
			}
		}
	}

	switch len(candidates) {
	case 0:
		return &TurnOutcome{
			Situation: "The user asked to cancel a booking on that date, but none was found. Tell them so.",
		}, nil
	case 1:
		return r.proposeCancel(&candidates[0]), nil
	default:
		var lines []string
		for _, b := range candidates {
			lines = append(lines, fmt.Sprintf("- %q on %s (ID: %s)", b.Title, b.Start.Format("02/01 at 15:04"), b.ID))
		}
		return &TurnOutcome{
			Situation: fmt.Sprintf("Found %d bookings matching the cancellation request. Ask the user which one they mean, or whether they want all of them.", len(candidates)),
			Verbatim:  strings.Join(lines, "\n"),
		}, nil
	}
}

func (r *Router) proposeCancel(b *models.Booking) *TurnOutcome {
	return &TurnOutcome{
		Situation: fmt.Sprintf("Found the booking to cancel: %q on %s. Ask the user to confirm the cancellation.",
			b.Title, b.Start.Format("02/01 at 15:04")),
		Action: &models.ActionFrame{
			ActionRequired: "confirm_cancel",
			Payload:        map[string]interface{}{"booking_id": b.ID},
		},
	}
}

func (r *Router) handleQueryAvailability(ctx context.Context, dc *models.DialogueContext) (*TurnOutcome, error) {
	date := r.now()
	if dc.Slots.StartTime != nil {
		date = *dc.Slots.StartTime
	}
	minCapacity := dc.Slots.Attendees
	if minCapacity < 1 {
		minCapacity = 1
	}

	avails, err := r.Engine.DailyAvailability(ctx, date, minCapacity)
	if err != nil {
		return nil, err
	}
	if len(avails) == 0 {
		return &TurnOutcome{
			Situation: fmt.Sprintf("No room availability left on %s for %d people. Tell the user.", date.Format("02/01"), minCapacity),
		}, nil
	}
	return &TurnOutcome{
		Situation: fmt.Sprintf("Found %d rooms with openings on %s. Present the list to the user.", len(avails), date.Format("02/01")),
		Verbatim:  formatAvailabilities(avails),
	}, nil
}

func (r *Router) handleRoomInfo(ctx context.Context, dc *models.DialogueContext) (*TurnOutcome, error) {
	if name := dc.Slots.RoomName; name != "" {
		room, err := r.Rooms.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if room == nil {
			return &TurnOutcome{
				Situation: fmt.Sprintf("No room named %q exists. Tell the user.", name),
			}, nil
		}
		return &TurnOutcome{
			Situation: fmt.Sprintf("Describe room %s: capacity %d%s.", room.Name, room.Capacity, equipmentSuffix(room.Equipment)),
		}, nil
	}

	rooms, err := r.Rooms.GetActive(ctx, 1)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, room := range rooms {
		lines = append(lines, fmt.Sprintf("- %s (%dp)%s", room.Name, room.Capacity, equipmentSuffix(room.Equipment)))
	}
	return &TurnOutcome{
		Situation: fmt.Sprintf("List the %d available rooms for the user.", len(rooms)),
		Verbatim:  strings.Join(lines, "\n"),
	}, nil
}

func formatAvailabilities(avails []models.RoomAvailability) string {
	var lines []string
	for _, a := range avails {
		var slots []string
		for _, s := range a.Slots {
			slots = append(slots, fmt.Sprintf("%s-%s", s.Start.Format("15:04"), s.End.Format("15:04")))
		}
		lines = append(lines, fmt.Sprintf("- %s (%dp): %s", a.RoomName, a.Capacity, strings.Join(slots, ", ")))
	}
	return strings.Join(lines, "\n")
}

func equipmentSuffix(equipment []string) string {
	if len(equipment) == 0 {
		return ""
	}
	return fmt.Sprintf(" (equipment: %s)", strings.Join(equipment, ", "))
}

func nameMatches(roomName, requested string) bool {
	return strings.Contains(strings.ToLower(roomName), strings.ToLower(strings.TrimSpace(requested)))
}

func roomExcluded(roomName string, excluded []string) bool {
	for _, name := range excluded {
		if nameMatches(roomName, name) {
			return true
		}
	}
	return false
}
