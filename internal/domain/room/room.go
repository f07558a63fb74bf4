package room

import (
	"fmt"
	"time"
)

// DaySchedule opens a room for bookings in [OpenHour, CloseHour) on one weekday.
// DayOfWeek is 0 for Monday through 6 for Sunday.
type DaySchedule struct {
	DayOfWeek int
	OpenHour  int
	CloseHour int
}

type Room struct {
	ID     string
	Name   string
	Closed bool

	// One entry per weekday the room is open. A missing weekday means closed that day.
	Schedule []DaySchedule
}

type Section struct {
	ID       string
	RoomID   string
	Name     string
	Capacity int
}

// DayIndex maps a Go weekday onto the Monday-first index used by DaySchedule.
func DayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// ScheduleFor returns the schedule entry for wd, if the room has one.
func (r Room) ScheduleFor(wd time.Weekday) (DaySchedule, bool) {
	idx := DayIndex(wd)
	for _, d := range r.Schedule {
		if d.DayOfWeek == idx {
			return d, true
		}
	}
	return DaySchedule{}, false
}

// IsOpenAt reports whether hour on weekday wd falls inside the room's open hours.
// Malformed schedule entries read as closed.
func IsOpenAt(r Room, wd time.Weekday, hour int) bool {
	if r.Closed {
		return false
	}
	if hour < 0 || hour > 23 {
		return false
	}
	d, ok := r.ScheduleFor(wd)
	if !ok || d.validate() != nil {
		return false
	}
	return hour >= d.OpenHour && hour < d.CloseHour
}

func (d DaySchedule) validate() error {
	if d.DayOfWeek < 0 || d.DayOfWeek > 6 {
		return fmt.Errorf("day_of_week %d out of range 0..6", d.DayOfWeek)
	}
	if d.OpenHour < 0 || d.OpenHour > 23 || d.CloseHour < 0 || d.CloseHour > 23 {
		return fmt.Errorf("day %d: hours must be within 0..23", d.DayOfWeek)
	}
	if d.OpenHour > d.CloseHour {
		return fmt.Errorf("day %d: open_hour %d after close_hour %d", d.DayOfWeek, d.OpenHour, d.CloseHour)
	}
	return nil
}

func (r Room) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("room id required")
	}
	if r.Name == "" {
		return fmt.Errorf("room name required")
	}
	seen := make(map[int]bool, len(r.Schedule))
	for _, d := range r.Schedule {
		if err := d.validate(); err != nil {
			return fmt.Errorf("room %q: %w", r.Name, err)
		}
		if seen[d.DayOfWeek] {
			return fmt.Errorf("room %q: duplicate schedule for day %d", r.Name, d.DayOfWeek)
		}
		seen[d.DayOfWeek] = true
	}
	return nil
}

func (s Section) Validate() error {
	if s.ID == "" || s.RoomID == "" {
		return fmt.Errorf("section id and room id required")
	}
	if s.Name == "" {
		return fmt.Errorf("section name required")
	}
	if s.Capacity < 0 {
		return fmt.Errorf("section %q: capacity must be >= 0", s.Name)
	}
	return nil
}
