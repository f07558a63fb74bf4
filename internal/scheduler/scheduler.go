package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper is implemented by anything holding sessions that go stale.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Scheduler periodically expires idle booking sessions.
type Scheduler struct {
	Sessions Sweeper
	Interval time.Duration
	Logger   *zap.Logger

	mu sync.Mutex
	wg sync.WaitGroup
}

func (s *Scheduler) Run(ctx context.Context) error {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	// kick immediately
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// tick skips a round if the previous sweep is still running.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.mu.TryLock() {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.mu.Unlock()

		n, err := s.Sessions.Sweep(ctx)
		if err != nil {
			s.log().Warn("session sweep failed", zap.Error(err))
			return
		}
		if n > 0 {
			s.log().Info("expired idle sessions", zap.Int("count", n))
		}
	}()
}
