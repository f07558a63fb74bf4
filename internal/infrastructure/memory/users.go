package memory

import (
	"context"
	"sync"

	"github.com/example/room-booker/internal/domain/user"
)

type UserRepo struct {
	mu    sync.RWMutex
	byID  map[string]user.User
	names map[string]string
}

func NewUserRepo() *UserRepo {
	return &UserRepo{byID: map[string]user.User{}, names: map[string]string{}}
}

func (r *UserRepo) Create(_ context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.names[u.Username]; taken {
		return user.ErrUsernameTaken
	}
	r.byID[u.ID] = u
	r.names[u.Username] = u.ID
	return nil
}

func (r *UserRepo) GetByUsername(_ context.Context, username string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.names[username]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}
