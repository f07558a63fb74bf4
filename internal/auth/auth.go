package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/room-booker/internal/domain/user"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Store struct {
	sc    *securecookie.SecureCookie
	users user.Repository
}

type ctxKey string

const userIDKey ctxKey = "userID"

const cookieMaxAge = 14 * 24 * time.Hour

func NewStore(users user.Repository, hashKey, blockKey []byte) *Store {
	sc := securecookie.New(hashKey, blockKey)
	// keep cookie small and secure
	sc.MaxAge(int(cookieMaxAge.Seconds()))
	return &Store{sc: sc, users: users}
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
	return err == nil
}

func (s *Store) CreateUser(ctx context.Context, username, password string) (user.User, error) {
	if len(password) < 8 {
		return user.User{}, fmt.Errorf("password must be at least 8 characters")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return user.User{}, err
	}
	u := user.User{
		ID:           uuid.NewString(),
		Username:     user.NormalizeUsername(username),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := u.Validate(); err != nil {
		return user.User{}, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) Authenticate(ctx context.Context, username, password string) (user.User, error) {
	u, err := s.users.GetByUsername(ctx, user.NormalizeUsername(username))
	if errors.Is(err, user.ErrNotFound) {
		return user.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return user.User{}, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return user.User{}, ErrInvalidCredentials
	}
	return u, nil
}

type Session struct {
	UserID   string
	Username string
}

const cookieName = "roombook_session"

func (s *Store) SetSession(w http.ResponseWriter, r *http.Request, u user.User) error {
	val := map[string]string{"uid": u.ID, "name": u.Username, "v": "1"}
	encoded, err := s.sc.Encode(cookieName, val)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil, // ok for local http; secure in https
		MaxAge:   int(cookieMaxAge.Seconds()),
	})
	return nil
}

func (s *Store) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (s *Store) GetSession(r *http.Request) (Session, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return Session{}, false
	}
	val := map[string]string{}
	if err := s.sc.Decode(cookieName, c.Value, &val); err != nil {
		return Session{}, false
	}
	uid := val["uid"]
	if uid == "" {
		return Session{}, false
	}
	return Session{UserID: uid, Username: val["name"]}, true
}

func (s *Store) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.GetSession(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, userIDKey, sess)
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(userIDKey).(Session)
	return sess, ok
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	sess, ok := SessionFromContext(ctx)
	return sess.UserID, ok && sess.UserID != ""
}
