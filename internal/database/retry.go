package database

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

const (
	// initialBackoff は接続再試行の初回遅延。
	initialBackoff = time.Second
	// maxBackoff は接続再試行の最大遅延。
	maxBackoff = 30 * time.Second
)

// CalculateBackoff は失敗回数に基づいて指数バックオフ遅延を計算する。
// 初回1秒、2倍ずつ増加、最大30秒。
func CalculateBackoff(failures int) time.Duration {
	delay := initialBackoff
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// PingWithRetry はDBに到達できるまで最大retries回再試行する。
// コンテナ起動直後などDBより先にアプリが立ち上がる場合に使う。
func PingWithRetry(ctx context.Context, db *sql.DB, timeout time.Duration, retries int) error {
	return retry(ctx, retries, CalculateBackoff, func() error {
		return Ping(ctx, db, timeout)
	})
}

func retry(ctx context.Context, retries int, backoff func(int) time.Duration, fn func() error) error {
	err := fn()
	for attempt := 0; err != nil && attempt < retries; attempt++ {
		delay := backoff(attempt)
		slog.Warn("database not reachable, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		err = fn()
	}
	return err
}
