// Package app はアプリケーションの起動とサブコマンドの実行を担う。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/gymman/internal/auth"
	"github.com/hitoshi/gymman/internal/booking"
	"github.com/hitoshi/gymman/internal/class"
	"github.com/hitoshi/gymman/internal/config"
	"github.com/hitoshi/gymman/internal/database"
	"github.com/hitoshi/gymman/internal/handler"
	"github.com/hitoshi/gymman/internal/logger"
	"github.com/hitoshi/gymman/internal/membership"
	"github.com/hitoshi/gymman/internal/metrics"
	"github.com/hitoshi/gymman/internal/middleware"
	"github.com/hitoshi/gymman/internal/model"
	"github.com/hitoshi/gymman/internal/progress"
	"github.com/hitoshi/gymman/internal/repository"
	"github.com/hitoshi/gymman/internal/routine"
	"github.com/hitoshi/gymman/internal/security"
	"github.com/hitoshi/gymman/internal/user"
	"github.com/hitoshi/gymman/internal/worker/cleanup"
)

const (
	// defaultPort はPORT未設定時の待ち受けポート。
	defaultPort = "5000"
	// cleanupInterval はメンテナンスジョブの実行間隔。
	cleanupInterval = 24 * time.Hour
	// shutdownTimeout はグレースフルシャットダウンの猶予時間。
	shutdownTimeout = 30 * time.Second
	pingTimeout     = 5 * time.Second
)

// Init はアプリケーションの初期化を行う。
// .envがあれば読み込み、環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, logger.Options{Level: slog.LevelInfo})

	// 2. .envの読み込み。既存の環境変数は上書きしない
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", slog.String("error", err.Error()))
	}

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 4. 設定に合わせてログを再構成する
	logger.SetupDefault(w, logger.Options{
		Level: logger.ParseLevel(cfg.LogLevel),
		Env:   cfg.AppEnv,
	})

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	inv, err := ParseCommand(args)
	if err != nil {
		if w != nil {
			fmt.Fprint(w, Usage)
		}
		return err
	}
	cmd := inv.Command

	switch cmd {
	case CommandHelp:
		if w != nil {
			fmt.Fprint(w, Usage)
		}
		return nil
	case CommandHealthcheck:
		// 軽量サブコマンドのため、フル初期化をスキップする
		port := os.Getenv("PORT")
		if port == "" {
			port = defaultPort
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("env", cfg.AppEnv),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(w, cfg, inv.Migrate)
	default:
		return runServe(cfg)
	}
}

// openDB はDB接続を開き、疎通を確認する。到達できない間はDB_CONNECT_RETRIES回まで再試行する。
func openDB(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.PingWithRetry(context.Background(), db, pingTimeout, cfg.DBConnectRetries); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// server はHTTPサーバーの構成要素をまとめたもの。
type server struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
}

// newServer は全依存関係をワイヤリングし、ルーターを構築する。
// 1つの*sql.DBを全リポジトリで共有する。
func newServer(cfg *config.Config, db *sql.DB, reg *prometheus.Registry) *server {
	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	classRepo := repository.NewPostgresClassRepo(db)
	membershipRepo := repository.NewPostgresMembershipRepo(db)
	bookingRepo := repository.NewPostgresBookingRepo(db)
	routineRepo := repository.NewPostgresRoutineRepo(db)
	exerciseRepo := repository.NewPostgresExerciseRepo(db)
	progressRepo := repository.NewPostgresProgressRepo(db)

	// 2. 横断的関心事の初期化
	sanitizer := security.NewTextSanitizer()
	collector := metrics.NewCollector(reg)

	// 3. ドメインサービスの初期化
	tokens := auth.NewTokenIssuer(auth.TokenConfig{
		AccessSecret:  []byte(cfg.JWTAccessSecret),
		RefreshSecret: []byte(cfg.JWTRefreshSecret),
		AccessTTL:     cfg.JWTAccessTTL,
		RefreshTTL:    cfg.JWTRefreshTTL,
	})
	authService := auth.NewService(userRepo, tokens, auth.ServiceConfig{BcryptCost: cfg.BcryptCost})
	authService.SetLoginRecorder(collector)

	userService := user.NewService(userRepo, sanitizer, cfg.BcryptCost)
	classService := class.NewService(classRepo, userRepo, sanitizer)
	membershipService := membership.NewService(membershipRepo, userRepo, sanitizer)
	bookingService := booking.NewService(bookingRepo, classRepo, membershipRepo, sanitizer,
		booking.ServiceConfig{CancelMode: model.CancelMode(cfg.BookingCancelMode)})
	bookingService.SetReservationRecorder(collector)
	routineService := routine.NewService(routineRepo, exerciseRepo, sanitizer)
	progressService := progress.NewService(progressRepo, exerciseRepo, userRepo, sanitizer)

	// 4. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.PerMinuteConfig(cfg.RateLimitGeneral, cfg.RateLimitAuth),
	)

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		TokenVerifier:     authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		HSTS:              cfg.IsProduction(),
		RateLimiter:       rateLimiter,
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(reg),
		HealthChecker:     db,

		AuthService: authService,
		RefreshCookie: middleware.RefreshCookieConfig{
			Secure: cfg.CookieSecure,
			Domain: cfg.CookieDomain,
		},

		UserService:       userService,
		ClassService:      classService,
		MembershipService: membershipService,
		BookingService:    bookingService,
		RoutineService:    routineService,
		ProgressService:   progressService,
	}

	return &server{
		handler:     handler.NewRouter(deps),
		rateLimiter: rateLimiter,
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	// 2. スキーマの自動適用
	if cfg.AutoMigrate {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("auto migration failed: %w", err)
		}
		slog.Info("database migrations applied")
	}

	// 3. ワイヤリング
	reg := prometheus.NewRegistry()
	srv := newServer(cfg, db, reg)
	defer srv.rateLimiter.Stop()

	// 4. HTTPサーバーの起動
	httpServer := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      srv.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", httpServer.Addr),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 起動直後にメンテナンスジョブを1回実行し、以降24時間ごとに実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	reg := prometheus.NewRegistry()
	job := cleanup.NewCleanupJob(db, slog.Default())
	job.RetentionDays = cfg.BookingRetentionDays
	job.SetRecorder(metrics.NewCollector(reg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 削除件数をスクレイプできるよう/metricsのみを公開する
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	metricsServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker metrics server error", slog.String("error", err.Error()))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker starting",
		slog.Duration("interval", cleanupInterval),
		slog.Int("retention_days", job.RetentionDays),
	)

	runPeriodically(ctx, cleanupInterval, job.Run)

	slog.Info("worker stopped gracefully")
	return nil
}

// runPeriodically はfnを即時に1回実行し、以降intervalごとにctxが終了するまで実行する。
// fnのエラーはログに記録して継続する。
func runPeriodically(ctx context.Context, interval time.Duration, fn func(context.Context) error) {
	run := func() {
		if err := fn(ctx); err != nil && ctx.Err() == nil {
			slog.Error("cleanup job failed", slog.String("error", err.Error()))
		}
	}

	run()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}

// runMigrate はデータベースマイグレーションを実行する。
// upは未適用分をすべて適用し、downは1ステップだけ戻す。versionは現在のスキーマバージョンをwに出力する。
func runMigrate(w io.Writer, cfg *config.Config, action MigrateAction) error {
	slog.Info("running database migrations",
		slog.String("action", string(action)),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	switch action {
	case MigrateDown:
		if err := database.RollbackMigration(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration rollback failed: %w", err)
		}
	case MigrateVersion:
		version, dirty, err := database.MigrationVersion(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to read migration version: %w", err)
		}
		if w != nil {
			fmt.Fprintf(w, "version=%d dirty=%t\n", version, dirty)
		}
		return nil
	default:
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	slog.Info("database migrations completed successfully", slog.String("action", string(action)))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	endpoint := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return "***"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
