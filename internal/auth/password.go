package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/gymman/internal/model"
)

const (
	// MinPasswordLength はパスワードの最小文字数。
	MinPasswordLength = 6
	// MaxPasswordBytes はbcryptが扱えるパスワードの最大バイト数。
	MaxPasswordBytes = 72
)

// ValidatePassword はパスワードの長さを検証する。
// 上限はUTF-8のバイト数で判定する。
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return model.NewValidationError("password", fmt.Sprintf("パスワードは%d文字以上で入力してください。", MinPasswordLength))
	}
	if len(password) > MaxPasswordBytes {
		return model.NewValidationError("password", fmt.Sprintf("パスワードは%dバイト以内で入力してください。", MaxPasswordBytes))
	}
	return nil
}

// HashPassword はパスワードを指定コストでbcryptハッシュ化する。
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword はパスワードがハッシュと一致するかを返す。
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
