package postgres

import (
	"context"

	"github.com/example/room-booker/internal/db"
	"github.com/example/room-booker/internal/domain/user"
)

type UserRepo struct{ db *db.DB }

func NewUserRepo(d *db.DB) *UserRepo { return &UserRepo{db: d} }

func (r *UserRepo) Create(ctx context.Context, u user.User) error {
	err := r.db.Exec(ctx,
		`INSERT INTO users (id, username, password_bcrypt, created_at) VALUES ($1,$2,$3,$4)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt,
	)
	if db.IsUniqueViolation(err) {
		return user.ErrUsernameTaken
	}
	return err
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	return r.getOne(ctx, `SELECT id, username, password_bcrypt, created_at FROM users WHERE username=$1`, username)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, `SELECT id, username, password_bcrypt, created_at FROM users WHERE id=$1`, id)
}

func (r *UserRepo) getOne(ctx context.Context, sql string, arg string) (user.User, error) {
	var u user.User
	err := r.db.QueryRow(ctx, sql, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if db.IsNotFound(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, db.WrapNotFound(err)
	}
	return u, nil
}
