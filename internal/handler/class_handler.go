package handler

import (
	"net/http"

	"github.com/hitoshi/gymman/internal/class"
)

// ClassHandler はクラス管理のHTTPハンドラー。
type ClassHandler struct {
	service ClassServiceInterface
}

// NewClassHandler はClassHandlerを生成する。
func NewClassHandler(service ClassServiceInterface) *ClassHandler {
	return &ClassHandler{service: service}
}

// classRequest はクラス作成・更新のリクエストボディ。
// 定員はmaxParticipantsとcapacityのどちらでも受け付ける。
type classRequest struct {
	Name            *string   `json:"name"`
	Description     *string   `json:"description"`
	DayOfWeek       *string   `json:"dayOfWeek"`
	Date            *string   `json:"date"`
	StartTime       *string   `json:"startTime"`
	EndTime         *string   `json:"endTime"`
	MaxParticipants *int      `json:"maxParticipants"`
	Capacity        *int      `json:"capacity"`
	TrainerID       *string   `json:"trainerId"`
	Equipment       *[]string `json:"equipment"`
	IsActive        *bool     `json:"isActive"`
}

func (req classRequest) capacity() *int {
	if req.MaxParticipants != nil {
		return req.MaxParticipants
	}
	return req.Capacity
}

// Create はPOST /api/classes を処理する。
func (h *ClassHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req classRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := class.CreateInput{
		Name:        deref(req.Name),
		Description: deref(req.Description),
		DayOfWeek:   req.DayOfWeek,
		Date:        req.Date,
		StartTime:   deref(req.StartTime),
		EndTime:     deref(req.EndTime),
		Capacity:    req.capacity(),
		TrainerID:   req.TrainerID,
		IsActive:    req.IsActive,
	}
	if req.Equipment != nil {
		in.Equipment = *req.Equipment
	}

	c, err := h.service.Create(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toClassResponse(c))
}

// List はGET /api/classes を処理する。
func (h *ClassHandler) List(w http.ResponseWriter, r *http.Request) {
	classes, err := h.service.FindAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(classes, toClassResponse))
}

// Get はGET /api/classes/{id} を処理する。
func (h *ClassHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "クラス")
	if !ok {
		return
	}

	c, err := h.service.FindOne(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClassResponse(c))
}

// Update はPUT /api/classes/{id} を処理する。指定されたフィールドのみ更新する。
func (h *ClassHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "クラス")
	if !ok {
		return
	}

	var req classRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.service.Update(r.Context(), id, class.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		DayOfWeek:   req.DayOfWeek,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Capacity:    req.capacity(),
		TrainerID:   req.TrainerID,
		Equipment:   req.Equipment,
		IsActive:    req.IsActive,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClassResponse(c))
}

// Remove はDELETE /api/classes/{id} を処理する。クラスの予約も同時に削除される。
func (h *ClassHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "クラス")
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
