package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/example/room-booker/internal/auth"
	"github.com/example/room-booker/internal/booking"
	"github.com/example/room-booker/internal/domain/reservation"
	"github.com/example/room-booker/internal/domain/room"
	"github.com/example/room-booker/internal/domain/user"
	"github.com/example/room-booker/internal/metrics"
)

//go:embed templates/*.html static/*
var fs embed.FS

// Authenticator is the slice of auth.Store the handlers use.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (user.User, error)
	SetSession(w http.ResponseWriter, r *http.Request, u user.User) error
	ClearSession(w http.ResponseWriter)
	RequireAuth(next http.Handler) http.Handler
}

type Server struct {
	Auth         Authenticator
	Bookings     *booking.Registry
	Catalog      reservation.Catalog
	Reservations reservation.Store
	Location     *time.Location
	Logger       *zap.Logger

	// Ready is called by /healthz; nil means always ready.
	Ready func(ctx context.Context) error

	// RatePerMinute caps booking actions per user.
	RatePerMinute int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

type roomListing struct {
	Room     room.Room
	Sections []room.Section
}

type bookingRow struct {
	Room     string
	Section  string
	StartsAt time.Time
	ID       string
}

type tmplData struct {
	Title    string
	User     string
	Flash    string
	Rooms    []roomListing
	Bookings []bookingRow
	View     booking.View
	Location *time.Location
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.FileServer(http.FS(fs)))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.Handle("/login", metrics.Middleware("login", http.HandlerFunc(s.handleLogin)))
	mux.Handle("/logout", metrics.Middleware("logout", http.HandlerFunc(s.handleLogout)))

	s.handleAuthed(mux, "GET /{$}", "home", s.handleHome)
	s.handleAuthed(mux, "POST /book", "book_start", s.limited(s.handleBookStart))
	s.handleAuthed(mux, "GET /book/{key}", "book_view", s.handleBookView)
	s.handleAuthed(mux, "POST /book/{key}/date", "book_date", s.limited(s.handleBookDate))
	s.handleAuthed(mux, "POST /book/{key}/slot", "book_slot", s.limited(s.handleBookSlot))

	return mux
}

func (s *Server) handleAuthed(mux *http.ServeMux, pattern, route string, h http.HandlerFunc) {
	mux.Handle(pattern, metrics.Middleware(route, s.Auth.RequireAuth(h)))
}

func (s *Server) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Server) loc() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.Ready != nil {
		if err := s.Ready(r.Context()); err != nil {
			s.log().Warn("health check failed", zap.Error(err))
			http.Error(w, "unavailable\n", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	data, err := s.homeData(r.Context(), sess)
	if err != nil {
		s.log().Error("load home page", zap.Error(err))
		http.Error(w, "failed to load rooms", http.StatusInternalServerError)
		return
	}
	data.Flash = r.URL.Query().Get("flash")
	s.render(w, http.StatusOK, "templates/rooms.html", data)
}

func (s *Server) homeData(ctx context.Context, sess auth.Session) (tmplData, error) {
	data := tmplData{Title: "Rooms", User: sess.Username, Location: s.loc()}

	rooms, err := s.Catalog.ListRooms(ctx)
	if err != nil {
		return data, err
	}
	names := map[string]string{}
	secNames := map[string]string{}
	for _, rm := range rooms {
		secs, err := s.Catalog.ListSections(ctx, rm.ID)
		if err != nil {
			return data, err
		}
		names[rm.ID] = rm.Name
		for _, sec := range secs {
			secNames[sec.ID] = sec.Name
		}
		data.Rooms = append(data.Rooms, roomListing{Room: rm, Sections: secs})
	}

	mine, err := s.Reservations.ListReservationsByUser(ctx, sess.UserID)
	if err != nil {
		return data, err
	}
	for _, res := range mine {
		row := bookingRow{Section: secNames[res.SectionID], StartsAt: res.StartsAt, ID: res.ID}
		if sec, err := s.Catalog.GetSection(ctx, res.SectionID); err == nil {
			row.Section = sec.Name
			row.Room = names[sec.RoomID]
		}
		data.Bookings = append(data.Bookings, row)
	}
	return data, nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, http.StatusOK, "templates/login.html", tmplData{Title: "Login"})
		return
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		username := strings.TrimSpace(r.FormValue("username"))
		password := r.FormValue("password")
		u, err := s.Auth.Authenticate(r.Context(), username, password)
		if err != nil {
			s.render(w, http.StatusUnauthorized, "templates/login.html", tmplData{Title: "Login", Flash: "Invalid username/password"})
			return
		}
		if err := s.Auth.SetSession(w, r, u); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
		return
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Auth.ClearSession(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// limited rejects booking actions beyond the per-user rate.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, _ := auth.UserIDFromContext(r.Context())
		if !s.limiter(uid).Allow() {
			http.Error(w, "too many booking requests, slow down", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

func (s *Server) limiter(userID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limiters == nil {
		s.limiters = map[string]*rate.Limiter{}
	}
	l, ok := s.limiters[userID]
	if !ok {
		n := s.RatePerMinute
		if n <= 0 {
			n = 30
		}
		l = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), n)
		s.limiters[userID] = l
	}
	return l
}

var funcs = template.FuncMap{
	"fmtTime": func(t time.Time, loc *time.Location) string {
		if loc == nil {
			loc = time.UTC
		}
		return t.In(loc).Format("Mon Jan 2, 3:04 PM")
	},
	"lower": strings.ToLower,
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data tmplData) {
	t, err := template.New("").Funcs(funcs).ParseFS(fs,
		"templates/base.html",
		name,
	)
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		s.log().Error("render", zap.String("template", name), zap.Error(err))
	}
}

func Start(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info("listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
