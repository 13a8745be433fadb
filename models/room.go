package models

import (
	"strings"
	"time"
)

// Room represents a bookable meeting room. Rooms are read-mostly; they are
// only mutated by administrative tooling outside this service.
type Room struct {
	ID        string    `bson:"id" json:"id"`
	Name      string    `bson:"name" json:"name"`           // unique
	Capacity  int       `bson:"capacity" json:"capacity"`   // > 0
	Equipment []string  `bson:"equipment" json:"equipment"` // case-insensitive tags, e.g. ["TV", "projector"]
	Active    bool      `bson:"active" json:"active"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// HasEquipment reports whether the room carries every requested tag.
// Comparison is case-insensitive on both sides.
func (r *Room) HasEquipment(required []string) bool {
	if len(required) == 0 {
		return true
	}
	tags := make(map[string]struct{}, len(r.Equipment))
	for _, e := range r.Equipment {
		tags[strings.ToLower(e)] = struct{}{}
	}
	for _, req := range required {
		if _, ok := tags[strings.ToLower(req)]; !ok {
			return false
		}
	}
	return true
}
