// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/gymman/internal/auth"
	"github.com/hitoshi/gymman/internal/model"
	"github.com/hitoshi/gymman/internal/repository"
	"github.com/hitoshi/gymman/internal/security"
	"github.com/hitoshi/gymman/internal/validation"
)

// AdminUpdateInput は管理者によるユーザー更新の入力。nilのフィールドは変更しない。
type AdminUpdateInput struct {
	Name     *string
	Email    *string
	Role     *string
	IsActive *bool
}

// ProfileInput は本人によるプロフィール更新の入力。nilのフィールドは変更しない。
type ProfileInput struct {
	Name         *string
	Phone        *string
	Address      *string
	ProfileImage *string
	DateOfBirth  *string // YYYY-MM-DD、空文字で消去
	Password     *string
}

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo   repository.UserRepository
	sanitizer  security.TextSanitizer
	bcryptCost int
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, sanitizer security.TextSanitizer, bcryptCost int) *Service {
	return &Service{
		userRepo:   userRepo,
		sanitizer:  sanitizer,
		bcryptCost: bcryptCost,
	}
}

// List は全ユーザーを返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// Get は指定IDのユーザーを返す。存在しない場合はNotFoundを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError("ユーザー", id)
	}
	return user, nil
}

// Me はリクエスト主体のユーザーを返す。
func (s *Service) Me(ctx context.Context, actor model.Identity) (*model.User, error) {
	return s.Get(ctx, actor.UserID)
}

// Update は管理者がユーザーの名前・メールアドレス・ロール・有効状態を更新する。
func (s *Service) Update(ctx context.Context, id string, in AdminUpdateInput) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
		if user.Name == "" {
			return nil, model.NewValidationError("name", "名前は必須です。")
		}
	}
	if in.Email != nil {
		email := model.NormalizeEmail(*in.Email)
		if !validation.Email(email) {
			return nil, model.NewValidationError("email", "メールアドレスの形式が正しくありません。")
		}
		if email != user.Email {
			existing, err := s.userRepo.FindByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("メールアドレスの重複確認に失敗しました: %w", err)
			}
			if existing != nil {
				return nil, model.NewEmailTakenError()
			}
		}
		user.Email = email
	}
	if in.Role != nil {
		role, ok := model.ParseRole(*in.Role)
		if !ok {
			return nil, model.NewValidationError("role", "ロールが不正です。")
		}
		user.Role = role
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("user updated by admin",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// UpdateProfile は本人がプロフィールとパスワードを更新する。
func (s *Service) UpdateProfile(ctx context.Context, actor model.Identity, in ProfileInput) (*model.User, error) {
	user, err := s.Get(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
		if user.Name == "" {
			return nil, model.NewValidationError("name", "名前は必須です。")
		}
	}
	if in.Phone != nil {
		user.Phone = s.sanitizer.Sanitize(*in.Phone)
	}
	if in.Address != nil {
		user.Address = s.sanitizer.Sanitize(*in.Address)
	}
	if in.ProfileImage != nil {
		img := strings.TrimSpace(*in.ProfileImage)
		if img != "" && !validation.URL(img) {
			return nil, model.NewValidationError("profileImage", "URLの形式が正しくありません。")
		}
		user.ProfileImage = img
	}
	if in.DateOfBirth != nil {
		if *in.DateOfBirth == "" {
			user.DateOfBirth = nil
		} else {
			dob, ok := validation.ParseDate(*in.DateOfBirth)
			if !ok || dob.After(time.Now()) {
				return nil, model.NewValidationError("dateOfBirth", "生年月日が正しくありません。")
			}
			user.DateOfBirth = &dob
		}
	}
	if in.Password != nil {
		if err := auth.ValidatePassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*in.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Remove は指定IDのユーザーを削除する。
// 予約・ルーティン・進捗記録はCASCADE削除される。
func (s *Service) Remove(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.userRepo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError("ユーザー", id)
		}
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("user removed", slog.String("user_id", id))
	return nil
}

func (s *Service) save(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return model.NewEmailTakenError()
		}
		return fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}
	return nil
}
