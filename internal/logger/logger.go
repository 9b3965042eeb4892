// Package logger はslogのJSONロガーを構成する。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options はロガーの構成。
type Options struct {
	Level slog.Level
	// Env が空でなければ全てのログにenv属性を付与する。
	Env string
}

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
// すべてのログにservice=gymmanを付与する。
func Setup(w io.Writer, opts Options) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: opts.Level,
	})
	l := slog.New(handler).With(slog.String("service", "gymman"))
	if opts.Env != "" {
		l = l.With(slog.String("env", opts.Env))
	}
	return l
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// writerがnilの場合はos.Stdoutに出力する。
func SetupDefault(w io.Writer, opts Options) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	l := Setup(w, opts)
	slog.SetDefault(l)
	return l
}

// ParseLevel はLOG_LEVELの値をslog.Levelに変換する。未知の値はINFOとする。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
