package booking

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/room-booker/internal/availability"
	"github.com/example/room-booker/internal/domain/reservation"
	"github.com/example/room-booker/internal/metrics"
)

const DefaultIdleTimeout = 10 * time.Minute

// SessionStore persists sessions between events.
type SessionStore interface {
	// Load returns ErrSessionNotFound for unknown or lapsed keys.
	Load(ctx context.Context, key string) (*Session, error)
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdleLister is implemented by session stores that need the registry to expire
// sessions for them. Stores with native key expiry can skip it.
type IdleLister interface {
	IdleKeys(ctx context.Context, cutoff time.Time) ([]string, error)
}

const lockStripes = 64

// Registry owns the live sessions. Events for one key run one at a time; across
// keys nothing is shared except the reservation store.
type Registry struct {
	catalog  reservation.Catalog
	machine  *Machine
	sessions SessionStore
	idle     time.Duration
	log      *zap.Logger

	locks [lockStripes]sync.Mutex
}

func NewRegistry(catalog reservation.Catalog, m *Machine, sessions SessionStore, idle time.Duration, log *zap.Logger) *Registry {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{catalog: catalog, machine: m, sessions: sessions, idle: idle, log: log}
}

func (r *Registry) Machine() *Machine { return r.machine }

func (r *Registry) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	mu := &r.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// Start opens a session for userID on the named room and section. An empty key gets
// a fresh one.
func (r *Registry) Start(ctx context.Context, key, userID, roomName, sectionName string) (View, error) {
	rm, err := r.catalog.FindRoomByName(ctx, roomName)
	if err != nil {
		return View{}, r.fail("start", catalogErr(err, ErrUnknownRoom))
	}
	sec, err := r.catalog.FindSectionByName(ctx, rm.ID, sectionName)
	if err != nil {
		return View{}, r.fail("start", catalogErr(err, ErrUnknownSection))
	}

	if key == "" {
		key = uuid.NewString()
	}
	defer r.lock(key)()

	if existing, err := r.sessions.Load(ctx, key); err == nil && existing.UserID != userID {
		return View{}, r.fail("start", ErrNotOwner)
	}

	s := NewSession(key, userID, rm, sec, r.machine.now())
	if err := r.sessions.Save(ctx, s, r.idle); err != nil {
		return View{}, r.fail("start", fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
	}
	metrics.SessionsStarted.Inc()
	r.log.Debug("session started",
		zap.String("session", key),
		zap.String("user", userID),
		zap.String("room", rm.Name),
		zap.String("section", sec.Name),
	)
	return r.machine.View(s), nil
}

func catalogErr(err, notFound error) error {
	if errors.Is(err, reservation.ErrNotFound) {
		return notFound
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func (r *Registry) ChooseDate(ctx context.Context, key, userID string, date availability.Date) (View, error) {
	return r.apply(ctx, "choose_date", key, userID, func(s *Session) error {
		return r.machine.ChooseDate(ctx, s, date)
	})
}

func (r *Registry) ChooseSlot(ctx context.Context, key, userID string, id SlotID) (View, error) {
	return r.apply(ctx, "choose_slot", key, userID, func(s *Session) error {
		return r.machine.ChooseSlot(ctx, s, id, userID)
	})
}

// View returns the current rendering without applying an event.
func (r *Registry) View(ctx context.Context, key, userID string) (View, error) {
	defer r.lock(key)()
	s, err := r.load(ctx, key)
	if err != nil {
		return View{}, r.fail("view", err)
	}
	if s.UserID != userID {
		return View{}, r.fail("view", ErrNotOwner)
	}
	return r.machine.View(s), nil
}

func (r *Registry) apply(ctx context.Context, op, key, userID string, event func(*Session) error) (View, error) {
	defer r.lock(key)()

	s, err := r.load(ctx, key)
	if err != nil {
		return View{}, r.fail(op, err)
	}
	if s.UserID != userID {
		return View{}, r.fail(op, ErrNotOwner)
	}

	evErr := event(s)
	s.LastActivity = r.machine.now()

	if s.State == Confirmed {
		if err := r.sessions.Delete(ctx, key); err != nil {
			r.log.Warn("dropping confirmed session", zap.String("session", key), zap.Error(err))
		}
	} else if err := r.sessions.Save(ctx, s, r.idle); err != nil && evErr == nil {
		evErr = fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return r.machine.View(s), r.fail(op, evErr)
}

// load maps missing and idle sessions onto ErrSessionExpired.
func (r *Registry) load(ctx context.Context, key string) (*Session, error) {
	s, err := r.sessions.Load(ctx, key)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if r.machine.now().Sub(s.LastActivity) >= r.idle {
		r.expire(ctx, s)
		return nil, ErrSessionExpired
	}
	return s, nil
}

func (r *Registry) expire(ctx context.Context, s *Session) {
	r.machine.Expire(s)
	if err := r.sessions.Delete(ctx, s.Key); err != nil {
		r.log.Warn("deleting expired session", zap.String("session", s.Key), zap.Error(err))
	}
	metrics.SessionsExpired.Inc()
	r.log.Debug("session expired", zap.String("session", s.Key), zap.String("user", s.UserID))
}

// Sweep expires every session idle for longer than the idle timeout. The key lock is
// held while expiring, so a commit in flight for that session finishes first.
func (r *Registry) Sweep(ctx context.Context) (int, error) {
	lister, ok := r.sessions.(IdleLister)
	if !ok {
		return 0, nil
	}
	cutoff := r.machine.now().Add(-r.idle)
	keys, err := lister.IdleKeys(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list idle sessions: %w", err)
	}

	n := 0
	for _, key := range keys {
		if r.sweepOne(ctx, key, cutoff) {
			n++
		}
	}
	return n, nil
}

func (r *Registry) sweepOne(ctx context.Context, key string, cutoff time.Time) bool {
	defer r.lock(key)()
	s, err := r.sessions.Load(ctx, key)
	if errors.Is(err, ErrSessionNotFound) {
		_ = r.sessions.Delete(ctx, key)
		return false
	}
	if err != nil {
		return false
	}
	if s.LastActivity.After(cutoff) {
		return false
	}
	r.expire(ctx, s)
	return true
}

func (r *Registry) fail(op string, err error) error {
	if err == nil {
		return nil
	}
	kind := ErrorKind(err)
	metrics.RecordError("booking", kind)
	if kind == "unexpected" || kind == "store_unavailable" {
		r.log.Error("booking event failed", zap.String("op", op), zap.String("kind", kind), zap.Error(err))
	} else {
		r.log.Debug("booking event rejected", zap.String("op", op), zap.String("kind", kind), zap.Error(err))
	}
	return err
}
