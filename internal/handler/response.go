package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/gymman/internal/middleware"
	"github.com/hitoshi/gymman/internal/model"
)

// maxBodyBytes はリクエストボディの上限サイズ。
const maxBodyBytes = 1 << 20

// messageResponse はメッセージのみのレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// decodeJSON はリクエストボディをdstに読み込む。失敗時は400を書き込んでfalseを返す。
// 空のボディは空のオブジェクトとして扱う。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteErrorResponse(w, model.NewBadRequestError("リクエストボディの解析に失敗しました。"))
		return false
	}
	return true
}

// handleServiceError はサービス層から返されたエラーをレスポンスに変換する。
// APIError以外は詳細をログにのみ記録し、500を返す。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, apiErr)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// requireIdentity はリクエストの主体を返す。認証ミドルウェア外で呼ばれた場合は401を書き込む。
func requireIdentity(w http.ResponseWriter, r *http.Request) (model.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, model.NewUnauthorizedError("認証が必要です。"))
		return model.Identity{}, false
	}
	return identity, true
}

// pathID はURLパラメータのUUIDを返す。UUIDとして不正な場合は404を書き込む。
func pathID(w http.ResponseWriter, r *http.Request, key, resource string) (string, bool) {
	id := chi.URLParam(r, key)
	if _, err := uuid.Parse(id); err != nil {
		middleware.WriteErrorResponse(w, model.NewNotFoundError(resource, id))
		return "", false
	}
	return id, true
}
