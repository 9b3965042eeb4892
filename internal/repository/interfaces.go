// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/gymman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は正規化済みメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// List は全ユーザーを作成日時の昇順で返す。
	List(ctx context.Context) ([]*model.User, error)

	// Create はユーザーを作成する。メールアドレスが重複する場合はErrEmailTakenを返す。
	Create(ctx context.Context, user *model.User) error

	// Update はユーザーのプロフィール・ロール・パスワードを更新する。
	// メールアドレスが重複する場合はErrEmailTakenを返す。
	Update(ctx context.Context, user *model.User) error

	// SetRefreshToken はユーザーのリフレッシュトークンを保存する。
	// tokenにnilを渡すと保存済みトークンを消去する。
	SetRefreshToken(ctx context.Context, userID string, token *string, expiresAt *time.Time) error

	// DeleteByID は指定IDのユーザーを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// ClassRepository はクラスデータの永続化インターフェース。
type ClassRepository interface {
	// FindByID は指定IDのクラスを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Class, error)

	// List は全クラスを返す。
	List(ctx context.Context) ([]*model.Class, error)

	// Create はクラスを作成する。
	Create(ctx context.Context, class *model.Class) error

	// Update はクラス情報を更新する。
	Update(ctx context.Context, class *model.Class) error

	// DeleteWithBookings はクラスの予約を削除した上でクラスを削除する。
	// 両方の削除は同一トランザクションで実行される。
	DeleteWithBookings(ctx context.Context, id string) error
}

// MembershipRepository は会員プランデータの永続化インターフェース。
type MembershipRepository interface {
	// FindByID は指定IDのプランを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Membership, error)

	List(ctx context.Context) ([]*model.Membership, error)

	// ListByUserID はユーザーに紐付くプラン一覧を返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Membership, error)

	Create(ctx context.Context, m *model.Membership) error
	Update(ctx context.Context, m *model.Membership) error
	DeleteByID(ctx context.Context, id string) error
}

// BookingRepository は予約データの永続化インターフェース。
type BookingRepository interface {
	// FindByID は指定IDの予約を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Booking, error)

	List(ctx context.Context) ([]*model.Booking, error)
	ListByUserID(ctx context.Context, userID string) ([]*model.Booking, error)
	ListByClassID(ctx context.Context, classID string) ([]*model.Booking, error)

	// CountActiveByClassID はクラスのキャンセルされていない予約数を返す。
	CountActiveByClassID(ctx context.Context, classID string) (int, error)

	// FindActiveByUserAndClass はユーザーとクラスのキャンセルされていない予約を返す。
	// 見つからない場合はnilを返す。
	FindActiveByUserAndClass(ctx context.Context, userID, classID string) (*model.Booking, error)

	// CreateWithinCapacity はクラス行をロックした状態で定員を再確認し、予約を作成する。
	// 定員に達している場合はErrClassFull、同一ユーザーの有効な予約が存在する場合は
	// ErrDuplicateBookingを返す。
	CreateWithinCapacity(ctx context.Context, booking *model.Booking) error

	// Update は予約の日付・メモ・プラン・キャンセル・出席状態を更新する。
	Update(ctx context.Context, booking *model.Booking) error

	DeleteByID(ctx context.Context, id string) error
}

// RoutineRepository はトレーニングルーティンの永続化インターフェース。
// 種目はExerciseRepositoryで扱う。
type RoutineRepository interface {
	// FindByID は指定IDのルーティンを取得する。種目は含まない。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Routine, error)

	List(ctx context.Context) ([]*model.Routine, error)
	ListByUserID(ctx context.Context, userID string) ([]*model.Routine, error)
	Create(ctx context.Context, routine *model.Routine) error
	Update(ctx context.Context, routine *model.Routine) error

	// DeleteByID は指定IDのルーティンを削除する。種目はCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// ExerciseRepository はルーティン内の種目の永続化インターフェース。
type ExerciseRepository interface {
	// FindByID は指定IDの種目を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Exercise, error)

	// ListByRoutineID はルーティンの種目を作成順に返す。
	ListByRoutineID(ctx context.Context, routineID string) ([]model.Exercise, error)

	Create(ctx context.Context, exercise *model.Exercise) error

	// DeleteByID は指定IDの種目を削除する。参照する進捗記録のexercise_idはNULLになる。
	DeleteByID(ctx context.Context, id string) error
}

// ProgressRepository は進捗記録の永続化インターフェース。
type ProgressRepository interface {
	// FindByID は指定IDの記録を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Progress, error)

	List(ctx context.Context) ([]*model.Progress, error)

	// ListByUserID はユーザーの記録を日付の降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Progress, error)

	// ListByExerciseID は種目に紐付く記録を日付の降順で返す。
	ListByExerciseID(ctx context.Context, exerciseID string) ([]*model.Progress, error)

	Create(ctx context.Context, p *model.Progress) error
	Update(ctx context.Context, p *model.Progress) error
	DeleteByID(ctx context.Context, id string) error
}
