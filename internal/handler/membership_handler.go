package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/gymman/internal/membership"
)

// MembershipHandler は会員プランのHTTPハンドラー。
type MembershipHandler struct {
	service MembershipServiceInterface
}

// NewMembershipHandler はMembershipHandlerを生成する。
func NewMembershipHandler(service MembershipServiceInterface) *MembershipHandler {
	return &MembershipHandler{service: service}
}

// membershipRequest は会員プラン作成・更新のリクエストボディ。
// 価格は数値・文字列どちらのJSONでも受け付ける。期間はdurationDaysとdurationのどちらでもよい。
type membershipRequest struct {
	Name         *string          `json:"name"`
	Price        *decimal.Decimal `json:"price"`
	DurationDays *int             `json:"durationDays"`
	Duration     *int             `json:"duration"`
	Type         *string          `json:"type"`
	Description  *string          `json:"description"`
	Benefits     *[]string        `json:"benefits"`
	IsActive     *bool            `json:"isActive"`
	UserID       *string          `json:"userId"`
}

func (req membershipRequest) durationDays() *int {
	if req.DurationDays != nil {
		return req.DurationDays
	}
	return req.Duration
}

// Create はPOST /api/memberships を処理する。
func (h *MembershipHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req membershipRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := membership.CreateInput{
		Name:        deref(req.Name),
		Type:        deref(req.Type),
		Description: deref(req.Description),
		IsActive:    req.IsActive,
		UserID:      req.UserID,
	}
	if req.Price != nil {
		in.Price = *req.Price
	}
	if d := req.durationDays(); d != nil {
		in.DurationDays = *d
	}
	if req.Benefits != nil {
		in.Benefits = *req.Benefits
	}

	m, err := h.service.Create(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMembershipResponse(m))
}

// List はGET /api/memberships を処理する。
func (h *MembershipHandler) List(w http.ResponseWriter, r *http.Request) {
	memberships, err := h.service.FindAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(memberships, toMembershipResponse))
}

// Mine はGET /api/memberships/me を処理する。
func (h *MembershipHandler) Mine(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	memberships, err := h.service.ListByUser(r.Context(), identity.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(memberships, toMembershipResponse))
}

// Get はGET /api/memberships/{id} を処理する。
func (h *MembershipHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "会員プラン")
	if !ok {
		return
	}

	m, err := h.service.FindOne(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMembershipResponse(m))
}

// Update はPUT /api/memberships/{id} を処理する。
func (h *MembershipHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "会員プラン")
	if !ok {
		return
	}

	var req membershipRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := h.service.Update(r.Context(), id, membership.UpdateInput{
		Name:         req.Name,
		Price:        req.Price,
		DurationDays: req.durationDays(),
		Type:         req.Type,
		Description:  req.Description,
		Benefits:     req.Benefits,
		IsActive:     req.IsActive,
		UserID:       req.UserID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMembershipResponse(m))
}

// Remove はDELETE /api/memberships/{id} を処理する。
func (h *MembershipHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "会員プラン")
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
