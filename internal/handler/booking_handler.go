package handler

import (
	"net/http"

	"github.com/hitoshi/gymman/internal/booking"
)

// BookingHandler は予約のHTTPハンドラー。
type BookingHandler struct {
	service BookingServiceInterface
}

// NewBookingHandler はBookingHandlerを生成する。
func NewBookingHandler(service BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: service}
}

type reserveRequest struct {
	ClassID      string  `json:"classId"`
	MembershipID *string `json:"membershipId"`
	Date         *string `json:"date"`
	Notes        string  `json:"notes"`
}

type updateBookingRequest struct {
	Date         *string `json:"date"`
	Notes        *string `json:"notes"`
	MembershipID *string `json:"membershipId"`
}

// Reserve はログイン中のユーザーとしてクラスを予約する。
// POST /api/classes/reserve, POST /api/bookings
func (h *BookingHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req reserveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	b, err := h.service.Reserve(r.Context(), identity, booking.ReserveInput{
		ClassID:      req.ClassID,
		MembershipID: req.MembershipID,
		Date:         req.Date,
		Notes:        req.Notes,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingResponse(b))
}

// Cancel は予約をキャンセルする。
// POST /api/bookings/{id}/cancel, DELETE /api/classes/reservation/{id}
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "予約")
	if !ok {
		return
	}

	b, err := h.service.Cancel(r.Context(), identity, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// Attend は出席済みにする。
// POST /api/bookings/{id}/attend
func (h *BookingHandler) Attend(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "予約")
	if !ok {
		return
	}

	b, err := h.service.MarkAttended(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// List はGET /api/bookings を処理する。
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.service.FindAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(bookings, toBookingResponse))
}

// Mine はGET /api/bookings/me を処理する。
func (h *BookingHandler) Mine(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	bookings, err := h.service.ListByUser(r.Context(), identity.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(bookings, toBookingResponse))
}

// ListByClass はGET /api/classes/{id}/bookings を処理する。
func (h *BookingHandler) ListByClass(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "クラス")
	if !ok {
		return
	}

	bookings, err := h.service.ListByClass(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(bookings, toBookingResponse))
}

// Get はGET /api/bookings/{id} を処理する。
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "予約")
	if !ok {
		return
	}

	b, err := h.service.FindOne(r.Context(), identity, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// Update はPUT /api/bookings/{id} を処理する。
func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "予約")
	if !ok {
		return
	}

	var req updateBookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	b, err := h.service.Update(r.Context(), id, booking.UpdateInput{
		Date:         req.Date,
		Notes:        req.Notes,
		MembershipID: req.MembershipID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// Remove はDELETE /api/bookings/{id} を処理する。
func (h *BookingHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "予約")
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
