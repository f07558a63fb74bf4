package postgres

import (
	"context"

	"github.com/example/room-booker/internal/db"
	"github.com/example/room-booker/internal/domain/reservation"
	"github.com/example/room-booker/internal/domain/room"
)

// CatalogRepo reads rooms and sections. Upserts exist for seeding from a catalog file.
type CatalogRepo struct{ db *db.DB }

func NewCatalogRepo(d *db.DB) *CatalogRepo { return &CatalogRepo{db: d} }

func notFound(err error) error {
	if db.IsNotFound(err) {
		return reservation.ErrNotFound
	}
	return db.WrapNotFound(err)
}

func (c *CatalogRepo) GetRoom(ctx context.Context, id string) (room.Room, error) {
	return c.getRoom(ctx, `SELECT id, name, closed FROM rooms WHERE id=$1`, id)
}

func (c *CatalogRepo) FindRoomByName(ctx context.Context, name string) (room.Room, error) {
	return c.getRoom(ctx, `SELECT id, name, closed FROM rooms WHERE lower(name)=lower(trim($1))`, name)
}

func (c *CatalogRepo) getRoom(ctx context.Context, sql, arg string) (room.Room, error) {
	var rm room.Room
	if err := c.db.QueryRow(ctx, sql, arg).Scan(&rm.ID, &rm.Name, &rm.Closed); err != nil {
		return room.Room{}, notFound(err)
	}
	scheds, err := c.schedules(ctx, rm.ID)
	if err != nil {
		return room.Room{}, err
	}
	rm.Schedule = scheds[rm.ID]
	return rm, nil
}

// schedules loads schedule rows for one room, or every room when roomID is empty.
func (c *CatalogRepo) schedules(ctx context.Context, roomID string) (map[string][]room.DaySchedule, error) {
	rows, err := c.db.Query(ctx, `
SELECT room_id, day_of_week, open_hour, close_hour
FROM room_schedules
WHERE $1 = '' OR room_id = $1
ORDER BY room_id, day_of_week`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]room.DaySchedule{}
	for rows.Next() {
		var id string
		var d room.DaySchedule
		if err := rows.Scan(&id, &d.DayOfWeek, &d.OpenHour, &d.CloseHour); err != nil {
			return nil, err
		}
		out[id] = append(out[id], d)
	}
	return out, rows.Err()
}

func (c *CatalogRepo) ListRooms(ctx context.Context) ([]room.Room, error) {
	rows, err := c.db.Query(ctx, `SELECT id, name, closed FROM rooms ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []room.Room
	for rows.Next() {
		var rm room.Room
		if err := rows.Scan(&rm.ID, &rm.Name, &rm.Closed); err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	scheds, err := c.schedules(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Schedule = scheds[out[i].ID]
	}
	return out, nil
}

func (c *CatalogRepo) GetSection(ctx context.Context, id string) (room.Section, error) {
	var s room.Section
	err := c.db.QueryRow(ctx, `SELECT id, room_id, name, capacity FROM sections WHERE id=$1`, id).
		Scan(&s.ID, &s.RoomID, &s.Name, &s.Capacity)
	if err != nil {
		return room.Section{}, notFound(err)
	}
	return s, nil
}

func (c *CatalogRepo) FindSectionByName(ctx context.Context, roomID, name string) (room.Section, error) {
	var s room.Section
	err := c.db.QueryRow(ctx, `SELECT id, room_id, name, capacity FROM sections WHERE room_id=$1 AND lower(name)=lower(trim($2))`, roomID, name).
		Scan(&s.ID, &s.RoomID, &s.Name, &s.Capacity)
	if err != nil {
		return room.Section{}, notFound(err)
	}
	return s, nil
}

func (c *CatalogRepo) ListSections(ctx context.Context, roomID string) ([]room.Section, error) {
	rows, err := c.db.Query(ctx, `SELECT id, room_id, name, capacity FROM sections WHERE room_id=$1 ORDER BY name`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []room.Section
	for rows.Next() {
		var s room.Section
		if err := rows.Scan(&s.ID, &s.RoomID, &s.Name, &s.Capacity); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpsertRoom writes a room and replaces its weekly schedule.
func (c *CatalogRepo) UpsertRoom(ctx context.Context, rm room.Room) error {
	if err := rm.Validate(); err != nil {
		return err
	}
	return c.db.InTx(ctx, func(tx db.Tx) error {
		if err := tx.Exec(ctx, `
INSERT INTO rooms(id, name, closed) VALUES ($1,$2,$3)
ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, closed=EXCLUDED.closed`, rm.ID, rm.Name, rm.Closed); err != nil {
			return err
		}
		if err := tx.Exec(ctx, `DELETE FROM room_schedules WHERE room_id=$1`, rm.ID); err != nil {
			return err
		}
		for _, d := range rm.Schedule {
			if err := tx.Exec(ctx, `INSERT INTO room_schedules(room_id, day_of_week, open_hour, close_hour) VALUES ($1,$2,$3,$4)`,
				rm.ID, d.DayOfWeek, d.OpenHour, d.CloseHour); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *CatalogRepo) UpsertSection(ctx context.Context, s room.Section) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return c.db.Exec(ctx, `
INSERT INTO sections(id, room_id, name, capacity) VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET room_id=EXCLUDED.room_id, name=EXCLUDED.name, capacity=EXCLUDED.capacity`,
		s.ID, s.RoomID, s.Name, s.Capacity)
}
