package roomRepo

import (
	"context"

	"roomwise/models"
)

// RoomRepository defines methods for room catalog access. The catalog is
// read-mostly; writes exist for seeding and administrative tooling.
type RoomRepository interface {
	// GetByID retrieves a room by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Room, error)
	// GetByName retrieves a room by its exact name (case-insensitive).
	GetByName(ctx context.Context, name string) (*models.Room, error)
	// GetActive retrieves all active rooms with capacity >= minCapacity.
	GetActive(ctx context.Context, minCapacity int) ([]models.Room, error)
	// Create inserts a new room record.
	Create(ctx context.Context, room *models.Room) error
}
