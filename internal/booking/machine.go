package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/room-booker/internal/availability"
	"github.com/example/room-booker/internal/domain/reservation"
	"github.com/example/room-booker/internal/domain/room"
	"github.com/example/room-booker/internal/metrics"
)

const (
	DefaultWindowDays    = 14
	DefaultCommitTimeout = 10 * time.Second
)

// SlotFinder computes the offerable slots for a section on a date.
type SlotFinder interface {
	AvailableSlots(ctx context.Context, rm room.Room, sec room.Section, date availability.Date, now time.Time) ([]availability.Slot, error)
}

// Machine applies user events to a Session. It holds no per-session state; callers
// serialize events for one session (see Registry).
type Machine struct {
	Slots    SlotFinder
	Store    reservation.Store
	Location *time.Location
	Now      func() time.Time
	Logger   *zap.Logger

	WindowDays    int
	CommitTimeout time.Duration
}

func NewMachine(slots SlotFinder, store reservation.Store, loc *time.Location, log *zap.Logger) *Machine {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{
		Slots:         slots,
		Store:         store,
		Location:      loc,
		Now:           time.Now,
		Logger:        log,
		WindowDays:    DefaultWindowDays,
		CommitTimeout: DefaultCommitTimeout,
	}
}

func (m *Machine) now() time.Time {
	if m.Now == nil {
		return time.Now().In(m.loc())
	}
	return m.Now().In(m.loc())
}

func (m *Machine) loc() *time.Location {
	if m.Location == nil {
		return time.UTC
	}
	return m.Location
}

func (m *Machine) log() *zap.Logger {
	if m.Logger == nil {
		return zap.NewNop()
	}
	return m.Logger
}

// Window returns the selectable dates, starting today in the operating zone.
func (m *Machine) Window() []availability.Date {
	n := m.WindowDays
	if n <= 0 {
		n = DefaultWindowDays
	}
	today := availability.DateOf(m.now())
	out := make([]availability.Date, n)
	for i := range out {
		out[i] = today.AddDays(i)
	}
	return out
}

func (m *Machine) inWindow(d availability.Date) bool {
	for _, w := range m.Window() {
		if w == d {
			return true
		}
	}
	return false
}

func checkOpen(s *Session) error {
	switch s.State {
	case Expired:
		return ErrSessionExpired
	case Confirmed:
		return ErrSessionClosed
	}
	return nil
}

// ChooseDate selects a date and recomputes the offered slots. It is accepted while
// waiting for a date or slot and after a conflict. On a failed availability read the
// session is left as it was.
func (m *Machine) ChooseDate(ctx context.Context, s *Session, date availability.Date) error {
	if err := checkOpen(s); err != nil {
		return err
	}
	switch s.State {
	case AwaitingDate, AwaitingSlot, Conflict:
	default:
		return ErrInvalidSelection
	}
	if !m.inWindow(date) {
		return ErrInvalidSelection
	}

	now := m.now()
	start := time.Now()
	slots, err := m.Slots.AvailableSlots(ctx, s.Room, s.Section, date, now)
	metrics.AvailabilityDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	s.SelectedDate = date
	s.Slots = slots
	s.Reservation = nil
	s.State = AwaitingSlot
	s.LastActivity = now
	return nil
}

type commitOutcome int

const (
	outcomeRetry commitOutcome = iota
	outcomeConfirmed
	outcomeConflict
)

// ChooseSlot commits the chosen slot for userID. Only slots offered for the selected
// date are accepted; the start instant is rebuilt from the session rather than taken
// from the offer. A lost race moves the session to Conflict. When the write cannot be
// confirmed either way the session returns to AwaitingSlot with ErrStoreUnavailable.
func (m *Machine) ChooseSlot(ctx context.Context, s *Session, id SlotID, userID string) error {
	if err := checkOpen(s); err != nil {
		return err
	}
	if s.State != AwaitingSlot {
		return ErrInvalidSelection
	}
	if _, ok := s.slot(id); !ok {
		metrics.RecordCommit("invalid")
		return ErrInvalidSelection
	}
	startsAt := s.SelectedDate.At(int(id), m.loc())
	if startsAt.Hour() != int(id) {
		metrics.RecordCommit("invalid")
		return ErrInvalidSelection
	}

	s.State = Committing
	s.LastActivity = m.now()

	res, outcome, err := m.commit(ctx, s.Section.ID, startsAt, userID)
	switch outcome {
	case outcomeConfirmed:
		s.State = Confirmed
		s.Reservation = &res
		metrics.RecordCommit("confirmed")
		m.log().Info(fmt.Sprintf("%s created booking with id %s", userID, res.ID),
			zap.String("session", s.Key),
			zap.String("room", s.Room.Name),
			zap.String("section", s.Section.Name),
			zap.Time("starts_at", res.StartsAt),
		)
		return nil
	case outcomeConflict:
		s.State = Conflict
		s.Slots = nil
		metrics.RecordCommit("conflict")
		m.log().Info("slot taken during commit",
			zap.String("session", s.Key),
			zap.String("section", s.Section.ID),
			zap.Time("starts_at", startsAt),
		)
		return nil
	default:
		s.State = AwaitingSlot
		metrics.RecordCommit("retry")
		m.log().Warn("commit could not be confirmed",
			zap.String("session", s.Key),
			zap.String("section", s.Section.ID),
			zap.Time("starts_at", startsAt),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}

// commit runs detached from the caller's cancellation so a timeout cannot abandon a
// write halfway; its own deadline still bounds it.
func (m *Machine) commit(ctx context.Context, sectionID string, startsAt time.Time, userID string) (reservation.Reservation, commitOutcome, error) {
	timeout := m.CommitTimeout
	if timeout <= 0 {
		timeout = DefaultCommitTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	existing, err := m.Store.FindReservation(ctx, sectionID, startsAt)
	switch {
	case err == nil:
		return existing, outcomeConflict, nil
	case !errors.Is(err, reservation.ErrNotFound):
		return reservation.Reservation{}, outcomeRetry, fmt.Errorf("pre-check: %w", err)
	}

	res, err := m.Store.CreateReservation(ctx, sectionID, startsAt, userID)
	if err == nil {
		return res, outcomeConfirmed, nil
	}
	if errors.Is(err, reservation.ErrConflict) {
		return reservation.Reservation{}, outcomeConflict, nil
	}

	// The write may or may not have landed.
	got, rerr := m.Store.FindReservation(ctx, sectionID, startsAt)
	if rerr == nil {
		if got.Booker == userID {
			return got, outcomeConfirmed, nil
		}
		return got, outcomeConflict, nil
	}
	return reservation.Reservation{}, outcomeRetry, fmt.Errorf("create: %w", err)
}

// Expire closes the session. Idempotent.
func (m *Machine) Expire(s *Session) {
	s.State = Expired
	s.Slots = nil
}
