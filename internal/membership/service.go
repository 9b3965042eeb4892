// Package membership は会員プラン管理のドメインロジックを提供する。
package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hitoshi/gymman/internal/model"
	"github.com/hitoshi/gymman/internal/repository"
	"github.com/hitoshi/gymman/internal/security"
)

// 価格はNUMERIC(10,2)で保存される。
var maxPrice = decimal.New(1, 8) // 10^8

// CreateInput は会員プラン作成の入力。
type CreateInput struct {
	Name         string
	Price        decimal.Decimal
	DurationDays int
	Type         string
	Description  string
	Benefits     []string
	IsActive     *bool
	UserID       *string
}

// UpdateInput は会員プラン更新の入力。nilのフィールドは変更しない。UserIDは空文字で紐付けを解除する。
type UpdateInput struct {
	Name         *string
	Price        *decimal.Decimal
	DurationDays *int
	Type         *string
	Description  *string
	Benefits     *[]string
	IsActive     *bool
	UserID       *string
}

// Service は会員プラン管理のサービス層。
type Service struct {
	repo      repository.MembershipRepository
	userRepo  repository.UserRepository
	sanitizer security.TextSanitizer
}

// NewService はServiceを生成する。
func NewService(repo repository.MembershipRepository, userRepo repository.UserRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{repo: repo, userRepo: userRepo, sanitizer: sanitizer}
}

// Create は会員プランを作成する。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Membership, error) {
	now := time.Now()
	m := &model.Membership{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(in.Name),
		Price:        in.Price.Round(2),
		DurationDays: in.DurationDays,
		Type:         model.MembershipType(strings.ToLower(in.Type)),
		Description:  s.sanitizer.Sanitize(in.Description),
		Benefits:     security.SanitizeAll(s.sanitizer, in.Benefits),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
	if in.UserID != nil && *in.UserID != "" {
		m.UserID = in.UserID
	}

	if err := s.validate(ctx, m); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("会員プランの作成に失敗しました: %w", err)
	}

	slog.Info("membership created",
		slog.String("membership_id", m.ID),
		slog.String("type", string(m.Type)),
	)
	return m, nil
}

// FindAll は全プランを返す。
func (s *Service) FindAll(ctx context.Context) ([]*model.Membership, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("会員プラン一覧の取得に失敗しました: %w", err)
	}
	return list, nil
}

// FindOne は指定IDのプランを返す。存在しない場合はNotFoundを返す。
func (s *Service) FindOne(ctx context.Context, id string) (*model.Membership, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("会員プランの取得に失敗しました: %w", err)
	}
	if m == nil {
		return nil, model.NewNotFoundError("会員プラン", id)
	}
	return m, nil
}

// ListByUser はユーザーに紐付くプランを返す。
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*model.Membership, error) {
	list, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの会員プラン取得に失敗しました: %w", err)
	}
	return list, nil
}

// Update は指定されたフィールドのみを反映してプランを更新する。
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*model.Membership, error) {
	m, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		m.Name = strings.TrimSpace(*in.Name)
	}
	if in.Price != nil {
		m.Price = in.Price.Round(2)
	}
	if in.DurationDays != nil {
		m.DurationDays = *in.DurationDays
	}
	if in.Type != nil {
		m.Type = model.MembershipType(strings.ToLower(*in.Type))
	}
	if in.Description != nil {
		m.Description = s.sanitizer.Sanitize(*in.Description)
	}
	if in.Benefits != nil {
		m.Benefits = security.SanitizeAll(s.sanitizer, *in.Benefits)
	}
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
	if in.UserID != nil {
		if *in.UserID == "" {
			m.UserID = nil
		} else {
			m.UserID = in.UserID
		}
	}

	if err := s.validate(ctx, m); err != nil {
		return nil, err
	}

	m.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, m); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError("会員プラン", id)
		}
		return nil, fmt.Errorf("会員プランの更新に失敗しました: %w", err)
	}
	return m, nil
}

// Remove は指定IDのプランを削除する。
func (s *Service) Remove(ctx context.Context, id string) error {
	if _, err := s.FindOne(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError("会員プラン", id)
		}
		return fmt.Errorf("会員プランの削除に失敗しました: %w", err)
	}
	slog.Info("membership deleted", slog.String("membership_id", id))
	return nil
}

func (s *Service) validate(ctx context.Context, m *model.Membership) error {
	if m.Name == "" {
		return model.NewValidationError("name", "プラン名は必須です。")
	}
	if !m.Price.IsPositive() || m.Price.GreaterThanOrEqual(maxPrice) {
		return model.NewValidationError("price", "価格は0より大きい値で入力してください。")
	}
	if m.DurationDays <= 0 {
		return model.NewValidationError("durationDays", "有効日数は1以上で入力してください。")
	}
	if !m.Type.Valid() {
		return model.NewValidationError("type", "プラン種別はmonthly・yearly・customのいずれかです。")
	}
	if m.UserID != nil {
		if _, err := uuid.Parse(*m.UserID); err != nil {
			return model.NewValidationError("userId", "ユーザーIDが正しくありません。")
		}
		owner, err := s.userRepo.FindByID(ctx, *m.UserID)
		if err != nil {
			return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
		}
		if owner == nil {
			return model.NewNotFoundError("ユーザー", *m.UserID)
		}
	}
	return nil
}
