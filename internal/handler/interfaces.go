package handler

import (
	"context"

	"github.com/hitoshi/gymman/internal/auth"
	"github.com/hitoshi/gymman/internal/booking"
	"github.com/hitoshi/gymman/internal/class"
	"github.com/hitoshi/gymman/internal/membership"
	"github.com/hitoshi/gymman/internal/model"
	"github.com/hitoshi/gymman/internal/progress"
	"github.com/hitoshi/gymman/internal/routine"
	"github.com/hitoshi/gymman/internal/user"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	// Refresh はリフレッシュトークンを検証し、新しいアクセストークンを返す。
	Refresh(ctx context.Context, token string) (string, error)
	Logout(ctx context.Context, userID string) error
}

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	List(ctx context.Context) ([]*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	Me(ctx context.Context, actor model.Identity) (*model.User, error)
	Update(ctx context.Context, id string, in user.AdminUpdateInput) (*model.User, error)
	UpdateProfile(ctx context.Context, actor model.Identity, in user.ProfileInput) (*model.User, error)
	Remove(ctx context.Context, id string) error
}

// ClassServiceInterface はクラスハンドラーが必要とするサービスインターフェース。
type ClassServiceInterface interface {
	Create(ctx context.Context, in class.CreateInput) (*model.Class, error)
	FindAll(ctx context.Context) ([]*model.Class, error)
	FindOne(ctx context.Context, id string) (*model.Class, error)
	Update(ctx context.Context, id string, in class.UpdateInput) (*model.Class, error)
	Remove(ctx context.Context, id string) error
}

// MembershipServiceInterface は会員プランハンドラーが必要とするサービスインターフェース。
type MembershipServiceInterface interface {
	Create(ctx context.Context, in membership.CreateInput) (*model.Membership, error)
	FindAll(ctx context.Context) ([]*model.Membership, error)
	FindOne(ctx context.Context, id string) (*model.Membership, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Membership, error)
	Update(ctx context.Context, id string, in membership.UpdateInput) (*model.Membership, error)
	Remove(ctx context.Context, id string) error
}

// BookingServiceInterface は予約ハンドラーが必要とするサービスインターフェース。
type BookingServiceInterface interface {
	Reserve(ctx context.Context, actor model.Identity, in booking.ReserveInput) (*model.Booking, error)
	Cancel(ctx context.Context, actor model.Identity, id string) (*model.Booking, error)
	MarkAttended(ctx context.Context, id string) (*model.Booking, error)
	FindAll(ctx context.Context) ([]*model.Booking, error)
	FindOne(ctx context.Context, actor model.Identity, id string) (*model.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Booking, error)
	ListByClass(ctx context.Context, classID string) ([]*model.Booking, error)
	Update(ctx context.Context, id string, in booking.UpdateInput) (*model.Booking, error)
	Remove(ctx context.Context, id string) error
}

// RoutineServiceInterface はルーティンハンドラーが必要とするサービスインターフェース。
type RoutineServiceInterface interface {
	Create(ctx context.Context, actor model.Identity, in routine.CreateInput) (*model.Routine, error)
	FindAll(ctx context.Context) ([]*model.Routine, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Routine, error)
	FindOne(ctx context.Context, actor model.Identity, id string) (*model.Routine, error)
	Update(ctx context.Context, actor model.Identity, id string, in routine.UpdateInput) (*model.Routine, error)
	Remove(ctx context.Context, actor model.Identity, id string) error
	AddExercise(ctx context.Context, actor model.Identity, routineID string, in routine.ExerciseInput) (*model.Exercise, error)
	RemoveExercise(ctx context.Context, actor model.Identity, routineID, exerciseID string) error
}

// ProgressServiceInterface は進捗記録ハンドラーが必要とするサービスインターフェース。
type ProgressServiceInterface interface {
	Create(ctx context.Context, actor model.Identity, in progress.CreateInput) (*model.Progress, error)
	FindAll(ctx context.Context) ([]*model.Progress, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Progress, error)
	ListByExercise(ctx context.Context, actor model.Identity, exerciseID string) ([]*model.Progress, error)
	FindOne(ctx context.Context, actor model.Identity, id string) (*model.Progress, error)
	Update(ctx context.Context, actor model.Identity, id string, in progress.UpdateInput) (*model.Progress, error)
	Remove(ctx context.Context, actor model.Identity, id string) error
}

// HealthChecker はデータベース疎通確認のインターフェース。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// コンパイル時にサービス実装がインターフェースを満たすことを検証する。
var (
	_ AuthServiceInterface       = (*auth.Service)(nil)
	_ UserServiceInterface       = (*user.Service)(nil)
	_ ClassServiceInterface      = (*class.Service)(nil)
	_ MembershipServiceInterface = (*membership.Service)(nil)
	_ BookingServiceInterface    = (*booking.Service)(nil)
	_ RoutineServiceInterface    = (*routine.Service)(nil)
	_ ProgressServiceInterface   = (*progress.Service)(nil)
)
