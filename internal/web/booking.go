package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/example/room-booker/internal/auth"
	"github.com/example/room-booker/internal/availability"
	"github.com/example/room-booker/internal/booking"
)

func (s *Server) handleBookStart(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	roomName := strings.TrimSpace(r.FormValue("room"))
	sectionName := strings.TrimSpace(r.FormValue("section"))

	v, err := s.Bookings.Start(r.Context(), "", uid, roomName, sectionName)
	if err != nil {
		if booking.IsUserError(err) {
			http.Redirect(w, r, "/?flash="+url.QueryEscape(err.Error()), http.StatusSeeOther)
			return
		}
		s.log().Error("start booking", zap.Error(err))
		http.Error(w, "failed to start booking", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/book/"+v.Key, http.StatusSeeOther)
}

func (s *Server) handleBookView(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	v, err := s.Bookings.View(r.Context(), r.PathValue("key"), uid)
	s.renderBooking(w, r, v, err)
}

func (s *Server) handleBookDate(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	date, err := availability.ParseDate(r.FormValue("date"))
	if err != nil {
		v, verr := s.Bookings.View(r.Context(), r.PathValue("key"), uid)
		if verr != nil {
			err = verr
		} else {
			err = booking.ErrInvalidSelection
		}
		s.renderBooking(w, r, v, err)
		return
	}
	v, err := s.Bookings.ChooseDate(r.Context(), r.PathValue("key"), uid, date)
	s.renderBooking(w, r, v, err)
}

func (s *Server) handleBookSlot(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(r.FormValue("slot"))
	if err != nil {
		id = -1
	}
	v, err := s.Bookings.ChooseSlot(r.Context(), r.PathValue("key"), uid, booking.SlotID(id))
	s.renderBooking(w, r, v, err)
}

func bookingStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, booking.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, booking.ErrSessionExpired), errors.Is(err, booking.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, booking.ErrInvalidSelection):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) renderBooking(w http.ResponseWriter, r *http.Request, v booking.View, err error) {
	sess, _ := auth.SessionFromContext(r.Context())
	data := tmplData{Title: "Book", User: sess.Username, View: v, Location: s.loc()}
	if err != nil {
		if booking.IsUserError(err) {
			data.Flash = userMessage(err)
		} else {
			s.log().Error("booking event", zap.Error(err))
			data.Flash = "Something went wrong, please try again."
		}
		if v.Key == "" {
			data.Title = "Booking unavailable"
		}
	}
	s.render(w, bookingStatus(err), "templates/book.html", data)
}

// userMessage strips wrapped detail so only the sentinel's text is shown.
func userMessage(err error) string {
	for _, sentinel := range []error{
		booking.ErrNotOwner, booking.ErrInvalidSelection, booking.ErrSessionExpired,
		booking.ErrSessionClosed, booking.ErrStoreUnavailable, booking.ErrUnknownRoom, booking.ErrUnknownSection,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
