package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-booker/internal/domain/reservation"
)

type slotKey struct {
	sectionID string
	startsAt  int64
}

func keyOf(sectionID string, startsAt time.Time) slotKey {
	return slotKey{sectionID: sectionID, startsAt: startsAt.Truncate(time.Minute).Unix()}
}

// Store is an in-process reservation store. CreateReservation checks and inserts
// under one lock, which gives the same uniqueness guarantee as a unique index.
type Store struct {
	Now func() time.Time

	mu    sync.RWMutex
	slots map[slotKey]reservation.Reservation
}

func NewStore() *Store {
	return &Store{Now: time.Now, slots: map[slotKey]reservation.Reservation{}}
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Store) FindReservations(_ context.Context, sectionID string, from, to time.Time) ([]reservation.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []reservation.Reservation
	for k, r := range s.slots {
		if k.sectionID != sectionID {
			continue
		}
		if r.StartsAt.Before(from) || !r.StartsAt.Before(to) {
			continue
		}
		out = append(out, r)
	}
	sortByStart(out)
	return out, nil
}

func (s *Store) FindReservation(_ context.Context, sectionID string, startsAt time.Time) (reservation.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.slots[keyOf(sectionID, startsAt)]
	if !ok {
		return reservation.Reservation{}, reservation.ErrNotFound
	}
	return r, nil
}

func (s *Store) CreateReservation(_ context.Context, sectionID string, startsAt time.Time, booker string) (reservation.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slots == nil {
		s.slots = map[slotKey]reservation.Reservation{}
	}
	k := keyOf(sectionID, startsAt)
	if _, taken := s.slots[k]; taken {
		return reservation.Reservation{}, reservation.ErrConflict
	}
	r := reservation.Reservation{
		ID:        uuid.NewString(),
		SectionID: sectionID,
		StartsAt:  startsAt,
		Booker:    booker,
		Users:     []string{booker},
		CreatedAt: s.now(),
	}
	s.slots[k] = r
	return r, nil
}

func (s *Store) ListReservationsByUser(_ context.Context, userID string) ([]reservation.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []reservation.Reservation
	for _, r := range s.slots {
		if r.Booker == userID || r.HasUser(userID) {
			out = append(out, r)
		}
	}
	sortByStart(out)
	return out, nil
}

func sortByStart(rs []reservation.Reservation) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].StartsAt.Equal(rs[j].StartsAt) {
			return rs[i].SectionID < rs[j].SectionID
		}
		return rs[i].StartsAt.Before(rs[j].StartsAt)
	})
}
