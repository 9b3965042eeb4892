package handler

import (
	"net/http"

	"github.com/hitoshi/gymman/internal/routine"
)

// RoutineHandler はトレーニングルーティンのHTTPハンドラー。
type RoutineHandler struct {
	service RoutineServiceInterface
}

// NewRoutineHandler はRoutineHandlerを生成する。
func NewRoutineHandler(service RoutineServiceInterface) *RoutineHandler {
	return &RoutineHandler{service: service}
}

type routineRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Difficulty  *string `json:"difficulty"`
	Goals       *string `json:"goals"`
	Notes       *string `json:"notes"`
	IsActive    *bool   `json:"isActive"`
}

type exerciseRequest struct {
	Name            string `json:"name"`
	Sets            int    `json:"sets"`
	Reps            int    `json:"reps"`
	RestTime        *int   `json:"restTime"`
	Description     string `json:"description"`
	Notes           string `json:"notes"`
	MeasurementType string `json:"measurementType"`
}

// Create はPOST /api/routines を処理する。ルーティンの所有者はログイン中のユーザーになる。
func (h *RoutineHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req routineRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rt, err := h.service.Create(r.Context(), identity, routine.CreateInput{
		Name:        deref(req.Name),
		Description: deref(req.Description),
		Difficulty:  deref(req.Difficulty),
		Goals:       deref(req.Goals),
		Notes:       deref(req.Notes),
		IsActive:    req.IsActive,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoutineResponse(rt))
}

// List はGET /api/routines を処理する。
func (h *RoutineHandler) List(w http.ResponseWriter, r *http.Request) {
	routines, err := h.service.FindAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(routines, toRoutineResponse))
}

// Mine はGET /api/routines/me を処理する。
func (h *RoutineHandler) Mine(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	routines, err := h.service.ListByUser(r.Context(), identity.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(routines, toRoutineResponse))
}

// Get はGET /api/routines/{id} を処理する。エクササイズを含めて返す。
func (h *RoutineHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "ルーティン")
	if !ok {
		return
	}

	rt, err := h.service.FindOne(r.Context(), identity, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoutineResponse(rt))
}

// Update はPUT /api/routines/{id} を処理する。
func (h *RoutineHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "ルーティン")
	if !ok {
		return
	}

	var req routineRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rt, err := h.service.Update(r.Context(), identity, id, routine.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Difficulty:  req.Difficulty,
		Goals:       req.Goals,
		Notes:       req.Notes,
		IsActive:    req.IsActive,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoutineResponse(rt))
}

// Remove はDELETE /api/routines/{id} を処理する。
func (h *RoutineHandler) Remove(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "ルーティン")
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), identity, id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddExercise はPOST /api/routines/{id}/exercises を処理する。
func (h *RoutineHandler) AddExercise(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "ルーティン")
	if !ok {
		return
	}

	var req exerciseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	e, err := h.service.AddExercise(r.Context(), identity, id, routine.ExerciseInput{
		Name:            req.Name,
		Sets:            req.Sets,
		Reps:            req.Reps,
		RestTime:        req.RestTime,
		Description:     req.Description,
		Notes:           req.Notes,
		MeasurementType: req.MeasurementType,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExerciseResponse(e))
}

// RemoveExercise はDELETE /api/routines/{id}/exercises/{exerciseId} を処理する。
func (h *RoutineHandler) RemoveExercise(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", "ルーティン")
	if !ok {
		return
	}
	exerciseID, ok := pathID(w, r, "exerciseId", "エクササイズ")
	if !ok {
		return
	}

	if err := h.service.RemoveExercise(r.Context(), identity, id, exerciseID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
