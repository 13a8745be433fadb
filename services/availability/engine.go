package availability

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	bookingRepo "roomwise/database/repository/booking"
	roomRepo "roomwise/database/repository/room"
	"roomwise/models"
)

// Options carries the engine's sizing knobs. The three capacity constants
// are independent configuration values with no shared derivation.
type Options struct {
	WorkingHoursStart         int // opening hour, e.g. 8
	WorkingHoursEnd           int // closing hour, e.g. 19
	GoodFitCapacityMultiplier int // keep rooms with capacity <= max(attendees * this, min)
	GoodFitMinCapacity        int // narrowing floor so small parties keep mid-size rooms
	CoherenceMultiplier       int
	CoherenceMinCapacity      int
}

// Query describes one candidate-room search.
type Query struct {
	Window            models.TimeSlot
	Attendees         int
	RequiredEquipment []string
	PreferredRoom     string   // case-insensitive substring; empty means no preference
	ExcludedRooms     []string // case-insensitive substring tokens
	ExcludeBookingID  string   // skip this booking in the conflict scan (modifications)
}

// Engine decides which rooms can host a request and which should.
type Engine interface {
	// FindCandidateRooms returns available rooms ordered best-first.
	// An empty result means "no fit"; use Diagnose to explain it.
	FindCandidateRooms(ctx context.Context, q Query) ([]models.Room, error)
	// DailyAvailability reports every eligible room's free gaps within
	// working hours for one calendar day.
	DailyAvailability(ctx context.Context, date time.Time, minCapacity int) ([]models.RoomAvailability, error)
	// IsCoherent judges whether a room's capacity is proportionate to the
	// party size.
	IsCoherent(capacity, attendees int) bool
	// Diagnose explains an empty FindCandidateRooms result and collects
	// same-day alternatives.
	Diagnose(ctx context.Context, q Query) (*Diagnosis, error)
}

// DefaultEngine implements Engine over the room catalog and booking ledger.
type DefaultEngine struct {
	Rooms    roomRepo.RoomRepository
	Bookings bookingRepo.BookingRepository
	Opts     Options
	Now      func() time.Time // nil means time.Now
}

func (e *DefaultEngine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// FindCandidateRooms runs the selection pipeline: active + capacity filter,
// preferred-name narrowing, exclusions, equipment superset, conflict scan,
// capacity-ascending sort, good-fit narrowing.
func (e *DefaultEngine) FindCandidateRooms(ctx context.Context, q Query) ([]models.Room, error) {
	rooms, err := e.Rooms.GetActive(ctx, q.Attendees)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	if q.PreferredRoom != "" {
		rooms = filterRooms(rooms, func(r models.Room) bool {
			return containsFold(r.Name, q.PreferredRoom)
		})
		// No silent widening: an unmatched preference returns empty so
		// the caller can explain instead of booking something else.
		if len(rooms) == 0 {
			return nil, nil
		}
	}

	if len(q.ExcludedRooms) > 0 {
		rooms = filterRooms(rooms, func(r models.Room) bool {
			for _, token := range q.ExcludedRooms {
				if token != "" && containsFold(r.Name, token) {
					return false
				}
			}
			return true
		})
	}

	if len(q.RequiredEquipment) > 0 {
		rooms = filterRooms(rooms, func(r models.Room) bool {
			return r.HasEquipment(q.RequiredEquipment)
		})
	}

	free := rooms[:0:0]
	for _, room := range rooms {
		conflicts, err := e.Bookings.FindConflicts(ctx, room.ID, q.Window.Start, q.Window.End, q.ExcludeBookingID)
		if err != nil {
			return nil, fmt.Errorf("conflict scan for room %s: %w", room.Name, err)
		}
		if len(conflicts) == 0 {
			free = append(free, room)
		}
	}

	sort.SliceStable(free, func(i, j int) bool {
		return free[i].Capacity < free[j].Capacity
	})

	// Good-fit narrowing: with several candidates and no explicit room
	// request, drop disproportionately large rooms when a proportionate
	// one exists. The floor keeps mid-size rooms in play for small
	// parties; without it two attendees would narrow past a 10-seat room.
	if len(free) > 1 && q.PreferredRoom == "" {
		limit := q.Attendees * e.Opts.GoodFitCapacityMultiplier
		if limit < e.Opts.GoodFitMinCapacity {
			limit = e.Opts.GoodFitMinCapacity
		}
		goodFit := filterRooms(free, func(r models.Room) bool {
			return r.Capacity <= limit
		})
		if len(goodFit) > 0 {
			free = goodFit
		}
	}

	return free, nil
}

// DailyAvailability scans each eligible room's confirmed bookings for the
// day in chronological order and emits the complement within working hours.
// For today, the starting cursor is advanced to now rounded up to the next
// 15-minute boundary so no gap starts in the past.
func (e *DefaultEngine) DailyAvailability(ctx context.Context, date time.Time, minCapacity int) ([]models.RoomAvailability, error) {
	if minCapacity < 1 {
		minCapacity = 1
	}
	rooms, err := e.Rooms.GetActive(ctx, minCapacity)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), e.Opts.WorkingHoursStart, 0, 0, 0, date.Location())
	dayEnd := time.Date(date.Year(), date.Month(), date.Day(), e.Opts.WorkingHoursEnd, 0, 0, 0, date.Location())

	startCursor := dayStart
	now := e.now()
	if sameDay(now, date) && now.After(startCursor) {
		startCursor = roundUpToQuarterHour(now)
	}

	var results []models.RoomAvailability
	for _, room := range rooms {
		bookings, err := e.Bookings.FindByRoomAndDay(ctx, room.ID, dayStart, dayEnd)
		if err != nil {
			return nil, fmt.Errorf("day scan for room %s: %w", room.Name, err)
		}

		cursor := startCursor
		var slots []models.TimeSlot
		for _, b := range bookings {
			if b.Start.After(cursor) {
				slots = append(slots, models.TimeSlot{Start: cursor, End: b.Start})
			}
			if b.End.After(cursor) {
				cursor = b.End
			}
		}
		if cursor.Before(dayEnd) {
			slots = append(slots, models.TimeSlot{Start: cursor, End: dayEnd})
		}

		if len(slots) > 0 {
			results = append(results, models.RoomAvailability{
				RoomName: room.Name,
				Capacity: room.Capacity,
				Slots:    slots,
			})
		}
	}
	return results, nil
}

// IsCoherent: capacity <= max(attendees * multiplier, minimum). Flags a
// technically-available-but-oversized room as a poor match.
func (e *DefaultEngine) IsCoherent(capacity, attendees int) bool {
	limit := attendees * e.Opts.CoherenceMultiplier
	if limit < e.Opts.CoherenceMinCapacity {
		limit = e.Opts.CoherenceMinCapacity
	}
	return capacity <= limit
}

func filterRooms(rooms []models.Room, keep func(models.Room) bool) []models.Room {
	out := rooms[:0:0]
	for _, r := range rooms {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func roundUpToQuarterHour(t time.Time) time.Time {
	t = t.Truncate(time.Minute)
	if rem := t.Minute() % 15; rem != 0 {
		t = t.Add(time.Duration(15-rem) * time.Minute)
	}
	return t
}
