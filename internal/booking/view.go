package booking

import (
	"fmt"

	"github.com/example/room-booker/internal/availability"
	"github.com/example/room-booker/internal/domain/reservation"
)

const (
	ConflictMessage = "This time slot was booked while you were browsing. Please select a different time."
	ExpiredMessage  = "This booking session has expired. Start again to book."

	slotTimeLayout = "3:04 PM"
)

type DateOption struct {
	Label   string
	Value   string
	Default bool
}

type SlotOption struct {
	ID          SlotID
	Label       string
	Description string
}

// View is what a presenter renders for a session. Which fields are set depends on State.
type View struct {
	Key          string
	State        State
	Footer       string
	Dates        []DateOption
	SelectedDate string
	Slots        []SlotOption
	NoSlots      bool
	Reservation  *reservation.Reservation
	Message      string
}

// View renders s. It never touches the store.
func (m *Machine) View(s *Session) View {
	v := View{
		Key:    s.Key,
		State:  s.State,
		Footer: fmt.Sprintf("Currently Booking: %s - %s", s.Room.Name, s.Section.Name),
	}
	if !s.SelectedDate.IsZero() {
		v.SelectedDate = s.SelectedDate.String()
	}

	switch s.State {
	case AwaitingDate, Conflict:
		v.Dates = m.dateOptions(s.SelectedDate)
		if s.State == Conflict {
			v.Message = ConflictMessage
		}
	case AwaitingSlot:
		v.Dates = m.dateOptions(s.SelectedDate)
		for _, sl := range s.Slots {
			v.Slots = append(v.Slots, SlotOption{
				ID:          SlotID(sl.Hour()),
				Label:       m.SlotLabel(sl),
				Description: fmt.Sprintf("Section Capacity: %d", sl.AvailableCapacity),
			})
		}
		v.NoSlots = len(v.Slots) == 0
	case Confirmed:
		v.Reservation = s.Reservation
		if s.Reservation != nil {
			v.Message = fmt.Sprintf("Booked %s - %s on %s, reservation %s",
				s.Room.Name, s.Section.Name,
				s.Reservation.StartsAt.In(m.loc()).Format("Monday January 2 at 3:04 PM"),
				s.Reservation.ID)
		}
	case Expired:
		v.Message = ExpiredMessage
	}
	return v
}

func (m *Machine) dateOptions(selected availability.Date) []DateOption {
	window := m.Window()
	out := make([]DateOption, 0, len(window))
	for _, d := range window {
		out = append(out, DateOption{
			Label:   DateLabel(d),
			Value:   d.String(),
			Default: d == selected,
		})
	}
	return out
}

// DateLabel formats d as "Monday - October 19th".
func DateLabel(d availability.Date) string {
	return fmt.Sprintf("%s - %s %d%s", d.Weekday(), d.Month, d.Day, DaySuffix(d.Day))
}

// SlotLabel formats a slot as "2:00 PM – 3:00 PM" in the operating zone.
func (m *Machine) SlotLabel(sl availability.Slot) string {
	loc := m.loc()
	return sl.StartsAt.In(loc).Format(slotTimeLayout) + " – " + sl.EndsAt.In(loc).Format(slotTimeLayout)
}

func DaySuffix(day int) string {
	if day%100 >= 11 && day%100 <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}
