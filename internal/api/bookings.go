package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"shareit/internal/export"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	var req bookingRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeRequestError(w, r, err)
		return
	}

	b, err := s.svc.Bookings.Create(r.Context(), userID, req.ItemID, time.Time(*req.Start), time.Time(*req.End))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingResponse(b))
}

func (s *HTTPServer) handleDecideBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	bookingID, err := pathID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	approved, err := strconv.ParseBool(r.URL.Query().Get("approved"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "approved must be true or false")
		return
	}

	b, err := s.svc.Bookings.Decide(r.Context(), userID, bookingID, approved)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	bookingID, err := pathID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}

	b, err := s.svc.Bookings.Get(r.Context(), userID, bookingID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

func (s *HTTPServer) handleListBookerBookings(w http.ResponseWriter, r *http.Request) {
	s.listBookings(w, r, models.ScopeBooker)
}

func (s *HTTPServer) handleListOwnerBookings(w http.ResponseWriter, r *http.Request) {
	s.listBookings(w, r, models.ScopeOwner)
}

func (s *HTTPServer) listBookings(w http.ResponseWriter, r *http.Request, scope models.Scope) {
	userID, err := callerID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	page, err := pageParams(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	state := models.ParseBookingState(r.URL.Query().Get("state"))

	var bookings []*models.Booking
	if scope == models.ScopeOwner {
		bookings, err = s.svc.Bookings.ListForOwner(r.Context(), userID, state, page)
	} else {
		bookings, err = s.svc.Bookings.ListForBooker(r.Context(), userID, state, page)
	}
	if err != nil {
		writeListError(w, r, err, state)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponses(bookings))
}

// handleExportOwnerBookings streams the owner's bookings as an xlsx workbook.
func (s *HTTPServer) handleExportOwnerBookings(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	state := models.ParseBookingState(r.URL.Query().Get("state"))

	bookings, err := s.svc.Bookings.ListForOwner(r.Context(), userID, state, nil)
	if err != nil {
		writeListError(w, r, err, state)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteBookings(&buf, bookings, s.exports.MaxRows, time.UTC); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Int64("user_id", userID).Msg("export failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	fileName := fmt.Sprintf("bookings_%d_%s.xlsx", userID, time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
