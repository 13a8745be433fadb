package availability

import (
	"context"
	"fmt"

	"roomwise/models"
)

// Diagnosis explains why a search came back empty and offers same-day
// alternatives for the dialogue layer to present.
type Diagnosis struct {
	Reason       string
	Alternatives []models.RoomAvailability
}

// Diagnose re-runs the selection pipeline stage by stage to classify an
// empty result: unknown room, room too small, missing equipment, or every
// fitting room already booked.
func (e *DefaultEngine) Diagnose(ctx context.Context, q Query) (*Diagnosis, error) {
	d := &Diagnosis{}

	alternatives, err := e.DailyAvailability(ctx, q.Window.Start, q.Attendees)
	if err != nil {
		return nil, err
	}
	d.Alternatives = alternatives

	if q.PreferredRoom != "" {
		all, err := e.Rooms.GetActive(ctx, 1)
		if err != nil {
			return nil, fmt.Errorf("list rooms: %w", err)
		}
		var named *models.Room
		for i := range all {
			if containsFold(all[i].Name, q.PreferredRoom) {
				named = &all[i]
				break
			}
		}
		switch {
		case named == nil:
			d.Reason = fmt.Sprintf("No room named %q exists.", q.PreferredRoom)
		case named.Capacity < q.Attendees:
			d.Reason = fmt.Sprintf("Room %s holds only %d people, %d requested.", named.Name, named.Capacity, q.Attendees)
		case !named.HasEquipment(q.RequiredEquipment):
			d.Reason = fmt.Sprintf("Room %s lacks the requested equipment %v.", named.Name, q.RequiredEquipment)
		default:
			d.Reason = fmt.Sprintf("Room %s is already booked for that interval.", named.Name)
		}
		return d, nil
	}

	// No named room: distinguish "nothing big enough / equipped" from
	// "everything fitting is taken".
	fitting, err := e.Rooms.GetActive(ctx, q.Attendees)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	if len(fitting) == 0 {
		d.Reason = fmt.Sprintf("No room holds %d people.", q.Attendees)
		return d, nil
	}
	if len(q.RequiredEquipment) > 0 {
		equipped := filterRooms(fitting, func(r models.Room) bool {
			return r.HasEquipment(q.RequiredEquipment)
		})
		if len(equipped) == 0 {
			d.Reason = fmt.Sprintf("No room for %d people has the requested equipment %v.", q.Attendees, q.RequiredEquipment)
			return d, nil
		}
	}
	d.Reason = fmt.Sprintf("Every suitable room is already booked for that interval (%d people).", q.Attendees)
	return d, nil
}
