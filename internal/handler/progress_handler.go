package handler

import (
	"net/http"

	"github.com/hitoshi/gymman/internal/progress"
)

// ProgressHandler は進捗記録のHTTPハンドラー。
type ProgressHandler struct {
	service ProgressServiceInterface
}

// NewProgressHandler はProgressHandlerを生成する。
func NewProgressHandler(service ProgressServiceInterface) *ProgressHandler {
	return &ProgressHandler{service: service}
}

type progressRequest struct {
	UserID            *string            `json:"userId"`
	ExerciseID        *string            `json:"exerciseId"`
	Date              *string            `json:"date"`
	Weight            *float64           `json:"weight"`
	BodyFatPercentage *float64           `json:"bodyFatPercentage"`
	MuscleMass        *float64           `json:"muscleMass"`
	Measurements      map[string]float64 `json:"measurements"`
	Notes             *string            `json:"notes"`
}

// Create はPOST /api/progress を処理する。
func (h *ProgressHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req progressRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.service.Create(r.Context(), identity, progress.CreateInput{
		UserID:            req.UserID,
		ExerciseID:        req.ExerciseID,
		Date:              req.Date,
		Weight:            req.Weight,
		BodyFatPercentage: req.BodyFatPercentage,
		MuscleMass:        req.MuscleMass,
		Measurements:      req.Measurements,
		Notes:             deref(req.Notes),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProgressResponse(p))
}

// List はGET /api/progress を処理する。
func (h *ProgressHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.FindAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(records, toProgressResponse))
}

// Mine はGET /api/progress/me を処理する。
func (h *ProgressHandler) Mine(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	records, err := h.service.ListByUser(r.Context(), identity.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(records, toProgressResponse))
}

// ListByExercise はGET /api/progress/exercise/{exerciseId} を処理する。
func (h *ProgressHandler) ListByExercise(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	exerciseID, ok := pathID(w, r, "exerciseId", "エクササイズ")
	if !ok {
		return
	}

	records, err := h.service.ListByExercise(r.Context(), identity, exerciseID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(records, toProgressResponse))
}

// Get はGET /api/progress/{id} を処理する。
func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "進捗記録")
	if !ok {
		return
	}

	p, err := h.service.FindOne(r.Context(), identity, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgressResponse(p))
}

// Update はPUT /api/progress/{id} を処理する。exerciseIdに空文字を渡すと紐付けを外す。
func (h *ProgressHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "進捗記録")
	if !ok {
		return
	}

	var req progressRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.service.Update(r.Context(), identity, id, progress.UpdateInput{
		ExerciseID:        req.ExerciseID,
		Date:              req.Date,
		Weight:            req.Weight,
		BodyFatPercentage: req.BodyFatPercentage,
		MuscleMass:        req.MuscleMass,
		Measurements:      req.Measurements,
		Notes:             req.Notes,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgressResponse(p))
}

// Remove はDELETE /api/progress/{id} を処理する。
func (h *ProgressHandler) Remove(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "進捗記録")
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), identity, id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
