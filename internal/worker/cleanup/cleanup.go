// Package cleanup はデータベースのメンテナンスジョブを提供する。
// 期限切れのリフレッシュトークンを消去し、保持期間（デフォルト180日）を超過した
// キャンセル済み予約を日次バッチで削除する。
package cleanup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// 削除対象のラベル。メトリクスとログに使用する。
const (
	TargetRefreshTokens     = "refresh_tokens"
	TargetCancelledBookings = "cancelled_bookings"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Recorder は削除件数を記録する。metrics.Collectorが実装する。
type Recorder interface {
	RecordCleanup(target string, deleted int64)
}

// CleanupJob はメンテナンスジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	db            Executor
	logger        *slog.Logger
	recorder      Recorder
	RetentionDays int // キャンセル済み予約の保持日数（デフォルト: 180）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は180日。
func NewCleanupJob(db Executor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:            db,
		logger:        logger,
		RetentionDays: 180,
	}
}

// SetRecorder は削除件数の記録先を設定する。
func (j *CleanupJob) SetRecorder(r Recorder) {
	j.recorder = r
}

// Run は期限切れのリフレッシュトークンとキャンセル済みの古い予約を削除する。
// 片方が失敗してももう片方は実行し、両方のエラーをまとめて返す。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	tokens, tokenErr := j.exec(ctx, TargetRefreshTokens,
		`UPDATE users
		SET refresh_token = NULL, refresh_token_expires_at = NULL, updated_at = now()
		WHERE refresh_token IS NOT NULL AND refresh_token_expires_at < now()`)

	interval := fmt.Sprintf("%d days", j.RetentionDays)
	bookings, bookingErr := j.exec(ctx, TargetCancelledBookings,
		`DELETE FROM bookings WHERE is_cancelled AND updated_at < now() - $1::interval`, interval)

	if err := errors.Join(tokenErr, bookingErr); err != nil {
		return err
	}

	j.logger.Info("cleanup job completed",
		slog.Int64("refresh_tokens_cleared", tokens),
		slog.Int64("cancelled_bookings_deleted", bookings),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

func (j *CleanupJob) exec(ctx context.Context, target, query string, args ...interface{}) (int64, error) {
	result, err := j.db.ExecContext(ctx, query, args...)
	if err != nil {
		j.logger.Error("cleanup step failed",
			slog.String("target", target),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("%sのクリーンアップに失敗: %w", target, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("failed to read affected rows",
			slog.String("target", target),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("%sの削除件数の取得に失敗: %w", target, err)
	}

	if j.recorder != nil {
		j.recorder.RecordCleanup(target, n)
	}
	return n, nil
}
