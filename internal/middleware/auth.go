// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hitoshi/gymman/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに認証済み主体を格納するためのキー。
var identityContextKey = contextKey("identity")

// TokenVerifier はアクセストークンを検証し主体を復元する。
// auth.Serviceが実装する。
type TokenVerifier interface {
	VerifyAccessToken(token string) (model.Identity, error)
}

// NewAuthMiddleware はアクセストークンを検証し、主体をリクエストコンテキストに注入するミドルウェアを返す。
// トークンが無い・不正・期限切れの場合は401を返す。
func NewAuthMiddleware(verifier TokenVerifier, transport TokenTransport) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := transport.Extract(r)
			if !ok {
				WriteErrorResponse(w, model.NewUnauthorizedError("認証が必要です。"))
				return
			}

			identity, err := verifier.VerifyAccessToken(token)
			if err != nil {
				WriteErrorResponse(w, model.NewInvalidTokenError())
				return
			}

			noteUserID(r.Context(), identity.UserID)
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole は主体のロールが許可リストに含まれない場合に403を返すミドルウェアを返す。
// 主体が無い場合は401を返す。NewAuthMiddlewareの後に配置する。
func RequireRole(roles ...model.Role) func(next http.Handler) http.Handler {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				WriteErrorResponse(w, model.NewUnauthorizedError("認証が必要です。"))
				return
			}
			if _, ok := allowed[identity.Role]; !ok {
				WriteErrorResponse(w, model.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext はリクエストコンテキストから主体を取得する。
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(model.Identity)
	if !ok || identity.UserID == "" {
		return model.Identity{}, false
	}
	return identity, true
}

// ContextWithIdentity はコンテキストに主体を注入する。
func ContextWithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return "", fmt.Errorf("user ID not found in context")
	}
	return identity.UserID, nil
}
