package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/gymman/internal/middleware"
	"github.com/hitoshi/gymman/internal/model"
)

// roleTokenVerifier はトークン文字列をそのままロール名として扱うテスト用の検証器。
type roleTokenVerifier struct{}

func (roleTokenVerifier) VerifyAccessToken(token string) (model.Identity, error) {
	role, ok := model.ParseRole(token)
	if !ok {
		return model.Identity{}, errors.New("invalid token")
	}
	return model.Identity{UserID: testUserID, Email: "u@example.com", Role: role}, nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type testRouterDeps struct {
	users    *mockUserService
	classes  *mockClassService
	bookings *mockBookingService
	health   HealthChecker
}

func newTestRouter(t *testing.T, d testRouterDeps) http.Handler {
	t.Helper()

	if d.users == nil {
		d.users = &mockUserService{}
	}
	if d.classes == nil {
		d.classes = &mockClassService{}
	}
	if d.bookings == nil {
		d.bookings = &mockBookingService{}
	}

	rl := middleware.NewRateLimiter(middleware.PerMinuteConfig(6000, 6000))
	t.Cleanup(rl.Stop)

	return NewRouter(&RouterDeps{
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		TokenVerifier:     roleTokenVerifier{},
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("# metrics"))
		}),
		HealthChecker:     d.health,
		AuthService:       &mockAuthService{},
		UserService:       d.users,
		ClassService:      d.classes,
		MembershipService: &mockMembershipService{},
		BookingService:    d.bookings,
		RoutineService:    &mockRoutineService{},
		ProgressService:   &mockProgressService{},
	})
}

func doRequest(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.RemoteAddr = "192.0.2.1:1234"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_PublicClassRoutes(t *testing.T) {
	router := newTestRouter(t, testRouterDeps{})

	w := doRequest(router, http.MethodGet, "/api/classes", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("GET /api/classes status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRouter_AdminOnlyRoutes_ForbiddenForOthers(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"ユーザー一覧", http.MethodGet, "/api/users"},
		{"ユーザー取得", http.MethodGet, "/api/users/" + testOtherID},
		{"ユーザー削除", http.MethodDelete, "/api/users/" + testOtherID},
		{"クラス削除", http.MethodDelete, "/api/classes/" + testClassID},
		{"予約削除", http.MethodDelete, "/api/bookings/" + testOtherID},
	}

	for _, tt := range tests {
		for _, role := range []string{"member", "trainer", "receptionist"} {
			t.Run(tt.name+"/"+role, func(t *testing.T) {
				users := &mockUserService{
					getFn: func(ctx context.Context, id string) (*model.User, error) {
						t.Error("service must not be reached")
						return nil, nil
					},
				}
				router := newTestRouter(t, testRouterDeps{users: users})

				w := doRequest(router, tt.method, tt.path, role, "")

				if w.Code != http.StatusForbidden {
					t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
				}
				if got := parseAPIErrorResponse(t, w); got.Code != model.ErrCodeForbidden {
					t.Errorf("code = %q, want %q", got.Code, model.ErrCodeForbidden)
				}
			})
		}
	}
}

func TestRouter_AdminRoute_NotFoundOnlyForAdmin(t *testing.T) {
	router := newTestRouter(t, testRouterDeps{})

	w := doRequest(router, http.MethodGet, "/api/users/"+testOtherID, "admin", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("admin status = %d, want %d", w.Code, http.StatusNotFound)
	}

	w = doRequest(router, http.MethodGet, "/api/users/"+testOtherID, "member", "")
	if w.Code != http.StatusForbidden {
		t.Errorf("member status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestRouter_Unauthenticated(t *testing.T) {
	router := newTestRouter(t, testRouterDeps{})

	w := doRequest(router, http.MethodGet, "/api/bookings/me", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if got := parseAPIErrorResponse(t, w); got.Code != model.ErrCodeUnauthorized {
		t.Errorf("code = %q, want %q", got.Code, model.ErrCodeUnauthorized)
	}

	w = doRequest(router, http.MethodGet, "/api/bookings/me", "garbage", "")
	if got := parseAPIErrorResponse(t, w); got.Code != model.ErrCodeInvalidToken {
		t.Errorf("code = %q, want %q", got.Code, model.ErrCodeInvalidToken)
	}
}

func TestRouter_RoleGroups(t *testing.T) {
	router := newTestRouter(t, testRouterDeps{})

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		want   int
	}{
		{"トレーナーはクラス更新可", http.MethodPut, "/api/classes/" + testClassID, "trainer", `{"name":"x"}`, http.StatusOK},
		{"会員はクラス作成不可", http.MethodPost, "/api/classes", "member", `{}`, http.StatusForbidden},
		{"受付はクラス予約一覧可", http.MethodGet, "/api/classes/" + testClassID + "/bookings", "receptionist", "", http.StatusOK},
		{"会員はクラス予約一覧不可", http.MethodGet, "/api/classes/" + testClassID + "/bookings", "member", "", http.StatusForbidden},
		{"会員は予約可", http.MethodPost, "/api/classes/reserve", "member", `{"classId":"` + testClassID + `"}`, http.StatusCreated},
		{"会員は自分の情報を取得可", http.MethodGet, "/api/users/me", "member", "", http.StatusOK},
		{"受付は会員プラン作成可", http.MethodPost, "/api/memberships", "receptionist", `{"name":"m"}`, http.StatusCreated},
		{"トレーナーは会員プラン作成不可", http.MethodPost, "/api/memberships", "trainer", `{"name":"m"}`, http.StatusForbidden},
		{"スタッフは出席登録可", http.MethodPost, "/api/bookings/" + testOtherID + "/attend", "trainer", "", http.StatusOK},
		{"会員は出席登録不可", http.MethodPost, "/api/bookings/" + testOtherID + "/attend", "member", "", http.StatusForbidden},
		{"会員は全ルーティン一覧不可", http.MethodGet, "/api/routines", "member", "", http.StatusForbidden},
		{"会員は全進捗一覧不可", http.MethodGet, "/api/progress", "member", "", http.StatusForbidden},
		{"会員は自分の進捗一覧可", http.MethodGet, "/api/progress/me", "member", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, tt.method, tt.path, tt.token, tt.body)
			if w.Code != tt.want {
				t.Errorf("%s %s status = %d, want %d (body: %s)", tt.method, tt.path, w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestRouter_Health(t *testing.T) {
	t.Run("DB到達可能", func(t *testing.T) {
		router := newTestRouter(t, testRouterDeps{
			health: pingFunc(func(ctx context.Context) error { return nil }),
		})
		w := doRequest(router, http.MethodGet, "/health", "", "")
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("DB到達不可", func(t *testing.T) {
		router := newTestRouter(t, testRouterDeps{
			health: pingFunc(func(ctx context.Context) error { return errors.New("connection refused") }),
		})
		w := doRequest(router, http.MethodGet, "/health", "", "")
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
	})
}

func TestRouter_MetricsAndSecurityHeaders(t *testing.T) {
	router := newTestRouter(t, testRouterDeps{})

	w := doRequest(router, http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("GET /metrics status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", w.Header().Get("X-Content-Type-Options"))
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(t, testRouterDeps{})

	req := httptest.NewRequest(http.MethodOptions, "/api/classes", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
}
