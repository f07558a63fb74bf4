package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("user: not found")
	ErrUsernameTaken = errors.New("user: username already taken")
)

// User is a person allowed to book. PasswordHash holds a bcrypt hash.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type Repository interface {
	// Create returns ErrUsernameTaken when the username exists.
	Create(ctx context.Context, u User) error
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
}

// NormalizeUsername trims and lower-cases a username for storage and lookup.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (u User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("user id required")
	}
	if u.Username == "" {
		return fmt.Errorf("username required")
	}
	if strings.ContainsAny(u.Username, " \t\n") {
		return fmt.Errorf("username must not contain spaces")
	}
	if u.PasswordHash == "" {
		return fmt.Errorf("password hash required")
	}
	return nil
}
