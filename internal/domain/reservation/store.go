package reservation

import (
	"context"
	"time"

	"github.com/example/room-booker/internal/domain/room"
)

// Store is the durable home of reservations. CreateReservation must be atomic with
// respect to the (sectionID, startsAt) uniqueness invariant and return ErrConflict
// when the pair is already taken.
type Store interface {
	FindReservations(ctx context.Context, sectionID string, from, to time.Time) ([]Reservation, error)
	FindReservation(ctx context.Context, sectionID string, startsAt time.Time) (Reservation, error)
	CreateReservation(ctx context.Context, sectionID string, startsAt time.Time, booker string) (Reservation, error)
	ListReservationsByUser(ctx context.Context, userID string) ([]Reservation, error)
}

// Catalog is the read-only room/section directory. Lookups return ErrNotFound
// for unknown ids or names.
type Catalog interface {
	GetRoom(ctx context.Context, id string) (room.Room, error)
	GetSection(ctx context.Context, id string) (room.Section, error)
	FindRoomByName(ctx context.Context, name string) (room.Room, error)
	FindSectionByName(ctx context.Context, roomID, name string) (room.Section, error)
	ListRooms(ctx context.Context) ([]room.Room, error)
	ListSections(ctx context.Context, roomID string) ([]room.Section, error)
}
