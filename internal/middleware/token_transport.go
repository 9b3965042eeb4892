package middleware

import (
	"net/http"
	"strings"
	"time"
)

// RefreshCookieName はリフレッシュトークンを運ぶCookie名。
const RefreshCookieName = "refreshToken"

// RefreshCookiePath はリフレッシュトークンCookieを送信するパス。
const RefreshCookiePath = "/api/auth/refresh"

// TokenTransport はリクエストからトークンを取り出す方式を表す。
type TokenTransport interface {
	Extract(r *http.Request) (string, bool)
}

// HeaderTransport は Authorization: Bearer ヘッダーからトークンを取り出す。
type HeaderTransport struct{}

// Extract はBearerトークンを返す。
func (HeaderTransport) Extract(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// CookieTransport は指定名のCookieからトークンを取り出す。
type CookieTransport struct {
	Name string
}

// Extract はCookieの値を返す。
func (t CookieTransport) Extract(r *http.Request) (string, bool) {
	c, err := r.Cookie(t.Name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// ChainTransport は先頭から順に試し、最初に見つかったトークンを返す。
type ChainTransport []TokenTransport

// Extract は最初に取り出せたトークンを返す。
func (c ChainTransport) Extract(r *http.Request) (string, bool) {
	for _, t := range c {
		if token, ok := t.Extract(r); ok {
			return token, true
		}
	}
	return "", false
}

// RefreshCookieConfig はリフレッシュトークンCookieの属性。
type RefreshCookieConfig struct {
	Secure bool
	Domain string
}

// SetRefreshCookie はHTTP Onlyのリフレッシュトークンを設定する。
func SetRefreshCookie(w http.ResponseWriter, cfg RefreshCookieConfig, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     RefreshCookiePath,
		Domain:   cfg.Domain,
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearRefreshCookie はリフレッシュトークンCookieを削除する。
func ClearRefreshCookie(w http.ResponseWriter, cfg RefreshCookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     RefreshCookiePath,
		Domain:   cfg.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
