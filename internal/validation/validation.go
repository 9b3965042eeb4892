// Package validation は各サービスの入力検証で共有する書式チェックを提供する。
package validation

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Email はsがメールアドレスとして妥当かを返す。
func Email(s string) bool {
	return validate.Var(s, "required,email") == nil
}

// URL はsが絶対URLとして妥当かを返す。
func URL(s string) bool {
	return validate.Var(s, "required,url") == nil
}

// ClockTime はsがHH:MM形式の時刻かを返す。
func ClockTime(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil && len(s) == 5
}

// ParseDate はYYYY-MM-DD形式の日付を解析する。
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
