package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/gymman/internal/middleware"
	"github.com/hitoshi/gymman/internal/model"
)

// healthTimeout はヘルスチェック時のDB疎通確認のタイムアウト。
const healthTimeout = 2 * time.Second

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	// HSTS はStrict-Transport-Securityヘッダーを付与するかどうか。
	HSTS           bool
	RateLimiter    *middleware.RateLimiter
	Metrics        middleware.HTTPMetricsRecorder
	MetricsHandler http.Handler
	HealthChecker  HealthChecker

	// 認証
	AuthService   AuthServiceInterface
	RefreshCookie middleware.RefreshCookieConfig

	// リソース
	UserService       UserServiceInterface
	ClassService      ClassServiceInterface
	MembershipService MembershipServiceInterface
	BookingService    BookingServiceInterface
	RoutineService    RoutineServiceInterface
	ProgressService   ProgressServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → RealIP → SecurityHeaders → CORS → Logging → Metrics
//	→ (Auth → RequireRole) → RateLimit
//
// ロール判定はリソース参照より先に行うため、権限のないユーザーが404を受け取ることはない。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(chimw.RequestID)
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(chimw.RealIP)
	r.Use(middleware.NewSecurityHeadersMiddleware(middleware.SecurityHeadersConfig{HSTS: deps.HSTS}))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}

	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.RefreshCookie)
	userHandler := NewUserHandler(deps.UserService)
	classHandler := NewClassHandler(deps.ClassService)
	membershipHandler := NewMembershipHandler(deps.MembershipService)
	bookingHandler := NewBookingHandler(deps.BookingService)
	routineHandler := NewRoutineHandler(deps.RoutineService)
	progressHandler := NewProgressHandler(deps.ProgressService)

	authenticate := middleware.NewAuthMiddleware(deps.TokenVerifier, middleware.HeaderTransport{})
	general := deps.RateLimiter.GeneralMiddleware()

	adminOnly := middleware.RequireRole(model.RoleAdmin)
	staffOnly := middleware.RequireRole(model.StaffRoles...)
	classEditors := middleware.RequireRole(model.RoleAdmin, model.RoleTrainer)
	membershipEditors := middleware.RequireRole(model.RoleAdmin, model.RoleReceptionist)

	// --- 認証不要のルート ---
	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.AuthEndpointMiddleware())
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})
		r.With(authenticate, general).Post("/logout", authHandler.Logout)
	})

	r.Route("/api/classes", func(r chi.Router) {
		r.With(general).Get("/", classHandler.List)
		r.With(general).Get("/{id}", classHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.With(classEditors, general).Post("/", classHandler.Create)
			r.With(classEditors, general).Put("/{id}", classHandler.Update)
			r.With(adminOnly, general).Delete("/{id}", classHandler.Remove)
			r.With(staffOnly, general).Get("/{id}/bookings", bookingHandler.ListByClass)

			r.With(general).Post("/reserve", bookingHandler.Reserve)
			r.With(general).Delete("/reservation/{id}", bookingHandler.Cancel)
		})
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RequireRole → RateLimit(General)
	r.Route("/api/users", func(r chi.Router) {
		r.Use(authenticate)
		r.With(general).Get("/me", userHandler.Me)
		r.With(general).Put("/me", userHandler.UpdateProfile)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly, general)
			r.Get("/", userHandler.List)
			r.Get("/{id}", userHandler.Get)
			r.Put("/{id}", userHandler.Update)
			r.Delete("/{id}", userHandler.Remove)
		})
	})

	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(authenticate)
		r.With(staffOnly, general).Get("/", bookingHandler.List)
		r.With(general).Post("/", bookingHandler.Reserve)
		r.With(general).Get("/me", bookingHandler.Mine)
		r.With(general).Get("/{id}", bookingHandler.Get)
		r.With(general).Post("/{id}/cancel", bookingHandler.Cancel)
		r.With(staffOnly, general).Post("/{id}/attend", bookingHandler.Attend)
		r.With(staffOnly, general).Put("/{id}", bookingHandler.Update)
		r.With(adminOnly, general).Delete("/{id}", bookingHandler.Remove)
	})

	r.Route("/api/memberships", func(r chi.Router) {
		r.Use(authenticate)
		r.With(general).Get("/", membershipHandler.List)
		r.With(general).Get("/me", membershipHandler.Mine)
		r.With(general).Get("/{id}", membershipHandler.Get)
		r.With(membershipEditors, general).Post("/", membershipHandler.Create)
		r.With(membershipEditors, general).Put("/{id}", membershipHandler.Update)
		r.With(membershipEditors, general).Delete("/{id}", membershipHandler.Remove)
	})

	r.Route("/api/routines", func(r chi.Router) {
		r.Use(authenticate)
		r.With(staffOnly, general).Get("/", routineHandler.List)
		r.With(general).Post("/", routineHandler.Create)
		r.With(general).Get("/me", routineHandler.Mine)
		r.With(general).Get("/{id}", routineHandler.Get)
		r.With(general).Put("/{id}", routineHandler.Update)
		r.With(general).Delete("/{id}", routineHandler.Remove)
		r.With(general).Post("/{id}/exercises", routineHandler.AddExercise)
		r.With(general).Delete("/{id}/exercises/{exerciseId}", routineHandler.RemoveExercise)
	})

	r.Route("/api/progress", func(r chi.Router) {
		r.Use(authenticate)
		r.With(staffOnly, general).Get("/", progressHandler.List)
		r.With(general).Post("/", progressHandler.Create)
		r.With(general).Get("/me", progressHandler.Mine)
		r.With(general).Get("/exercise/{exerciseId}", progressHandler.ListByExercise)
		r.With(general).Get("/{id}", progressHandler.Get)
		r.With(general).Put("/{id}", progressHandler.Update)
		r.With(general).Delete("/{id}", progressHandler.Remove)
	})

	return r
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// healthHandler はGET /health を処理する。DBに到達できない場合は503を返す。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker == nil {
			writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "unknown"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := checker.PingContext(ctx); err != nil {
			slog.Warn("health check failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Database: "down"})
			return
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "up"})
	}
}
