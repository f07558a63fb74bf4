package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/example/room-booker/internal/domain/reservation"
	"github.com/example/room-booker/internal/domain/room"
)

// Catalog is a read-only room directory held in memory, usually loaded from a
// catalog file at start-up. Name lookups ignore case.
type Catalog struct {
	mu       sync.RWMutex
	rooms    map[string]room.Room
	sections map[string]room.Section
}

func NewCatalog(rooms []room.Room, sections []room.Section) (*Catalog, error) {
	c := &Catalog{rooms: map[string]room.Room{}, sections: map[string]room.Section{}}
	names := map[string]bool{}
	for _, rm := range rooms {
		if err := rm.Validate(); err != nil {
			return nil, err
		}
		n := strings.ToLower(rm.Name)
		if names[n] {
			return nil, fmt.Errorf("duplicate room name %q", rm.Name)
		}
		names[n] = true
		c.rooms[rm.ID] = rm
	}
	secNames := map[string]bool{}
	for _, sec := range sections {
		if err := sec.Validate(); err != nil {
			return nil, err
		}
		if _, ok := c.rooms[sec.RoomID]; !ok {
			return nil, fmt.Errorf("section %q: unknown room %s", sec.Name, sec.RoomID)
		}
		n := sec.RoomID + "/" + strings.ToLower(sec.Name)
		if secNames[n] {
			return nil, fmt.Errorf("duplicate section name %q", sec.Name)
		}
		secNames[n] = true
		c.sections[sec.ID] = sec
	}
	return c, nil
}

func (c *Catalog) GetRoom(_ context.Context, id string) (room.Room, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rm, ok := c.rooms[id]
	if !ok {
		return room.Room{}, reservation.ErrNotFound
	}
	return rm, nil
}

func (c *Catalog) GetSection(_ context.Context, id string) (room.Section, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sec, ok := c.sections[id]
	if !ok {
		return room.Section{}, reservation.ErrNotFound
	}
	return sec, nil
}

func (c *Catalog) FindRoomByName(_ context.Context, name string) (room.Room, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, rm := range c.rooms {
		if strings.EqualFold(rm.Name, strings.TrimSpace(name)) {
			return rm, nil
		}
	}
	return room.Room{}, reservation.ErrNotFound
}

func (c *Catalog) FindSectionByName(_ context.Context, roomID, name string) (room.Section, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, sec := range c.sections {
		if sec.RoomID == roomID && strings.EqualFold(sec.Name, strings.TrimSpace(name)) {
			return sec, nil
		}
	}
	return room.Section{}, reservation.ErrNotFound
}

func (c *Catalog) ListRooms(_ context.Context) ([]room.Room, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]room.Room, 0, len(c.rooms))
	for _, rm := range c.rooms {
		out = append(out, rm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c *Catalog) ListSections(_ context.Context, roomID string) ([]room.Section, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []room.Section
	for _, sec := range c.sections {
		if sec.RoomID == roomID {
			out = append(out, sec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
