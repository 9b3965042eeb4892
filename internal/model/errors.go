// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"net/http"
)

// APIError は統一エラーフォーマットを表す。
// StatusはHTTPステータスコード、CodeはUIが分岐に使う機械可読なコード。
type APIError struct {
	Status  int    // HTTPステータスコード
	Code    string // エラーコード
	Message string // エラーメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%d %s] %s", e.Status, e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeValidation       = "VALIDATION_FAILED"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInvalidToken     = "INVALID_TOKEN"
	ErrCodeInvalidCreds     = "INVALID_CREDENTIALS"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeNotOwner         = "NOT_RESOURCE_OWNER"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeEmailTaken       = "EMAIL_ALREADY_EXISTS"
	ErrCodeClassFull        = "CLASS_FULL"
	ErrCodeDuplicateBooking = "DUPLICATE_BOOKING"
	ErrCodeAlreadyCancelled = "BOOKING_ALREADY_CANCELLED"
	ErrCodeClassInactive    = "CLASS_INACTIVE"
	ErrCodeInvalidTrainer   = "INVALID_TRAINER"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// NewBadRequestError は入力不正エラーを生成する。
func NewBadRequestError(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: ErrCodeBadRequest, Message: message}
}

// NewValidationError はフィールド単位のバリデーションエラーを生成する。
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("%s: %s", field, reason),
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError(message string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Code: ErrCodeUnauthorized, Message: message}
}

// NewInvalidTokenError はトークン不正・期限切れエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Status:  http.StatusUnauthorized,
		Code:    ErrCodeInvalidToken,
		Message: "トークンが無効または期限切れです。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// メールアドレスの存在有無を推測されないよう、常に同じメッセージを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Status:  http.StatusUnauthorized,
		Code:    ErrCodeInvalidCreds,
		Message: "メールアドレスまたはパスワードが正しくありません。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Status:  http.StatusForbidden,
		Code:    ErrCodeForbidden,
		Message: "この操作を行う権限がありません。",
	}
}

// NewNotOwnerError はリソース所有者以外による操作のエラーを生成する。
func NewNotOwnerError(resource string) *APIError {
	return &APIError{
		Status:  http.StatusForbidden,
		Code:    ErrCodeNotOwner,
		Message: fmt.Sprintf("この%sを操作する権限がありません。", resource),
	}
}

// NewNotFoundError はリソース未検出エラーを生成する。
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%sが見つかりません: %s", resource, id),
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    ErrCodeEmailTaken,
		Message: "このメールアドレスは既に登録されています。",
	}
}

// NewClassFullError は定員超過エラーを生成する。
func NewClassFullError() *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    ErrCodeClassFull,
		Message: "このクラスは満員です。",
	}
}

// NewDuplicateBookingError は同一クラスへの重複予約エラーを生成する。
func NewDuplicateBookingError() *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    ErrCodeDuplicateBooking,
		Message: "このクラスは既に予約済みです。",
	}
}

// NewAlreadyCancelledError はキャンセル済み予約の再キャンセルエラーを生成する。
func NewAlreadyCancelledError() *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    ErrCodeAlreadyCancelled,
		Message: "この予約は既にキャンセルされています。",
	}
}

// NewClassInactiveError は休止中クラスへの予約エラーを生成する。
func NewClassInactiveError() *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    ErrCodeClassInactive,
		Message: "このクラスは現在予約を受け付けていません。",
	}
}

// NewInvalidTrainerError は担当トレーナー指定不正エラーを生成する。
func NewInvalidTrainerError() *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    ErrCodeInvalidTrainer,
		Message: "担当トレーナーのIDが不正です。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Status:  http.StatusInternalServerError,
		Code:    ErrCodeInternal,
		Message: "内部エラーが発生しました。",
	}
}
