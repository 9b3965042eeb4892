package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/gymman/internal/model"
)

var testUser = &model.User{ID: "user-1", Email: "a@x.com", Role: model.RoleTrainer}

func TestTokenIssuer_AccessRoundTrip(t *testing.T) {
	issuer := newTestIssuer()

	token, err := issuer.IssueAccess(testUser)
	if err != nil {
		t.Fatalf("IssueAccess returned error: %v", err)
	}
	claims, err := issuer.ParseAccess(token)
	if err != nil {
		t.Fatalf("ParseAccess returned error: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "a@x.com" || claims.Role != model.RoleTrainer {
		t.Errorf("claims = %+v", claims)
	}
	if claims.ID == "" {
		t.Error("token should carry a jti")
	}
}

func TestTokenIssuer_UniqueJTI(t *testing.T) {
	issuer := newTestIssuer()

	a, _ := issuer.IssueAccess(testUser)
	b, _ := issuer.IssueAccess(testUser)
	if a == b {
		t.Error("tokens issued in the same second should differ")
	}
}

func TestTokenIssuer_RefreshExpiresAfterTTL(t *testing.T) {
	issuer := newTestIssuer()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return base }

	token, expiresAt, err := issuer.IssueRefresh(testUser)
	if err != nil {
		t.Fatalf("IssueRefresh returned error: %v", err)
	}
	if !expiresAt.Equal(base.Add(7 * 24 * time.Hour)) {
		t.Errorf("expiresAt = %v", expiresAt)
	}

	issuer.now = func() time.Time { return base.Add(8 * 24 * time.Hour) }
	if _, err := issuer.ParseRefresh(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenIssuer_SecretsAreSeparate(t *testing.T) {
	issuer := newTestIssuer()

	access, _ := issuer.IssueAccess(testUser)
	if _, err := issuer.ParseRefresh(access); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access token must not verify as refresh token, got %v", err)
	}
}

func TestTokenIssuer_RejectsOtherAlgorithms(t *testing.T) {
	issuer := newTestIssuer()

	claims := &Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build unsigned token: %v", err)
	}
	if _, err := issuer.ParseAccess(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for alg=none, got %v", err)
	}
}

func TestTokenIssuer_RejectsGarbage(t *testing.T) {
	if _, err := newTestIssuer().ParseAccess("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := HashPassword("secret1", 4)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if !CheckPassword(hash, "secret1") {
		t.Error("CheckPassword should accept the original password")
	}
	if CheckPassword(hash, "secret2") {
		t.Error("CheckPassword should reject a different password")
	}
}
