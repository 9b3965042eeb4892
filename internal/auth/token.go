package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/gymman/internal/model"
)

// ErrInvalidToken はトークンの署名・期限・形式が不正であることを示す。
var ErrInvalidToken = errors.New("invalid token")

// Claims はアクセストークン・リフレッシュトークンに共通のクレーム。
type Claims struct {
	UserID string     `json:"id"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity はクレームからリクエスト主体を復元する。
func (c *Claims) Identity() model.Identity {
	return model.Identity{UserID: c.UserID, Email: c.Email, Role: c.Role}
}

// TokenConfig はトークン発行の設定。
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenIssuer はHS256署名のアクセストークンとリフレッシュトークンを発行・検証する。
// 2種類のトークンは異なる秘密鍵で署名されるため、互いに取り違えて検証されることはない。
type TokenIssuer struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokenIssuer はTokenIssuerを生成する。
func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	return &TokenIssuer{cfg: cfg, now: time.Now}
}

// IssueAccess はユーザーのアクセストークンを発行する。
func (t *TokenIssuer) IssueAccess(user *model.User) (string, error) {
	token, _, err := t.sign(user, t.cfg.AccessSecret, t.cfg.AccessTTL)
	return token, err
}

// IssueRefresh はユーザーのリフレッシュトークンと有効期限を発行する。
func (t *TokenIssuer) IssueRefresh(user *model.User) (string, time.Time, error) {
	return t.sign(user, t.cfg.RefreshSecret, t.cfg.RefreshTTL)
}

// ParseAccess はアクセストークンを検証してクレームを返す。
func (t *TokenIssuer) ParseAccess(token string) (*Claims, error) {
	return t.parse(token, t.cfg.AccessSecret)
}

// ParseRefresh はリフレッシュトークンを検証してクレームを返す。
func (t *TokenIssuer) ParseRefresh(token string) (*Claims, error) {
	return t.parse(token, t.cfg.RefreshSecret)
}

func (t *TokenIssuer) sign(user *model.User, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (t *TokenIssuer) parse(token string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}
	return claims, nil
}
