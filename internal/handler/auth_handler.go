// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"net/http"

	"github.com/hitoshi/gymman/internal/auth"
	"github.com/hitoshi/gymman/internal/middleware"
	"github.com/hitoshi/gymman/internal/model"
)

// AuthHandler は登録・ログイン・トークン更新・ログアウトのハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	cookie  middleware.RefreshCookieConfig
}

// NewAuthHandler は新しいAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, cookie middleware.RefreshCookieConfig) *AuthHandler {
	return &AuthHandler{service: service, cookie: cookie}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type userEnvelope struct {
	User userResponse `json:"user"`
}

type loginResponse struct {
	AccessToken string       `json:"accessToken"`
	User        userResponse `json:"user"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// Register はPOST /api/auth/register を処理する。
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, userEnvelope{User: toUserResponse(user)})
}

// Login はPOST /api/auth/login を処理する。
// アクセストークンはボディで返し、リフレッシュトークンはHttpOnly Cookieに格納する。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.SetRefreshCookie(w, h.cookie, result.RefreshToken, result.RefreshExpiresAt)
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: result.AccessToken,
		User:        toUserResponse(result.User),
	})
}

// Refresh はPOST /api/auth/refresh を処理する。
// Cookieを優先し、無ければボディのrefreshTokenを使う。
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.CookieTransport{Name: middleware.RefreshCookieName}.Extract(r)
	if !ok {
		var req refreshRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		token = req.RefreshToken
	}
	if token == "" {
		middleware.WriteErrorResponse(w, model.NewUnauthorizedError("リフレッシュトークンが必要です。"))
		return
	}

	accessToken, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: accessToken})
}

// Logout はPOST /api/auth/logout を処理する。
// 保存済みのリフレッシュトークンを破棄し、Cookieを削除する。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if err := h.service.Logout(r.Context(), identity.UserID); err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.ClearRefreshCookie(w, h.cookie)
	writeJSON(w, http.StatusOK, messageResponse{Message: "ログアウトしました。"})
}
