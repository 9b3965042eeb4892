// Package class はジムのクラス（グループレッスン）管理のドメインロジックを提供する。
package class

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/gymman/internal/model"
	"github.com/hitoshi/gymman/internal/repository"
	"github.com/hitoshi/gymman/internal/security"
	"github.com/hitoshi/gymman/internal/validation"
)

// CreateInput はクラス作成の入力。
type CreateInput struct {
	Name        string
	Description string
	DayOfWeek   *string
	Date        *string // YYYY-MM-DD
	StartTime   string
	EndTime     string
	Capacity    *int
	TrainerID   *string
	Equipment   []string
	IsActive    *bool
}

// UpdateInput はクラス更新の入力。nilのフィールドは変更しない。
// DayOfWeek・Date・TrainerIDは空文字で消去する。
type UpdateInput struct {
	Name        *string
	Description *string
	DayOfWeek   *string
	Date        *string
	StartTime   *string
	EndTime     *string
	Capacity    *int
	TrainerID   *string
	Equipment   *[]string
	IsActive    *bool
}

// Service はクラス管理のサービス層。
type Service struct {
	classRepo repository.ClassRepository
	userRepo  repository.UserRepository
	sanitizer security.TextSanitizer
}

// NewService はServiceを生成する。
func NewService(classRepo repository.ClassRepository, userRepo repository.UserRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{
		classRepo: classRepo,
		userRepo:  userRepo,
		sanitizer: sanitizer,
	}
}

// Create はクラスを作成する。定員未指定時はDefaultClassCapacityを用いる。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Class, error) {
	now := time.Now()
	c := &model.Class{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		Description: s.sanitizer.Sanitize(in.Description),
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Capacity:    model.DefaultClassCapacity,
		Equipment:   security.SanitizeAll(s.sanitizer, in.Equipment),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Capacity != nil {
		c.Capacity = *in.Capacity
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if err := applySchedule(c, in.DayOfWeek, in.Date); err != nil {
		return nil, err
	}
	if in.TrainerID != nil && *in.TrainerID != "" {
		c.TrainerID = in.TrainerID
	}

	if err := s.validate(ctx, c); err != nil {
		return nil, err
	}

	if err := s.classRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("クラスの作成に失敗しました: %w", err)
	}

	slog.Info("class created",
		slog.String("class_id", c.ID),
		slog.Int("capacity", c.Capacity),
	)
	return c, nil
}

// FindAll は全クラスを返す。
func (s *Service) FindAll(ctx context.Context) ([]*model.Class, error) {
	classes, err := s.classRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("クラス一覧の取得に失敗しました: %w", err)
	}
	return classes, nil
}

// FindOne は指定IDのクラスを返す。存在しない場合はNotFoundを返す。
func (s *Service) FindOne(ctx context.Context, id string) (*model.Class, error) {
	c, err := s.classRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("クラスの取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewNotFoundError("クラス", id)
	}
	return c, nil
}

// Update は指定されたフィールドのみを反映してクラスを更新する。
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*model.Class, error) {
	c, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		c.Description = s.sanitizer.Sanitize(*in.Description)
	}
	if in.StartTime != nil {
		c.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		c.EndTime = *in.EndTime
	}
	if in.Capacity != nil {
		c.Capacity = *in.Capacity
	}
	if in.Equipment != nil {
		c.Equipment = security.SanitizeAll(s.sanitizer, *in.Equipment)
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if in.TrainerID != nil {
		if *in.TrainerID == "" {
			c.TrainerID = nil
		} else {
			c.TrainerID = in.TrainerID
		}
	}
	if in.DayOfWeek != nil || in.Date != nil {
		dow, date := in.DayOfWeek, in.Date
		if dow == nil && c.DayOfWeek != nil {
			v := string(*c.DayOfWeek)
			dow = &v
		}
		if date == nil && c.Date != nil {
			v := c.Date.Format(time.DateOnly)
			date = &v
		}
		if err := applySchedule(c, dow, date); err != nil {
			return nil, err
		}
	}

	if err := s.validate(ctx, c); err != nil {
		return nil, err
	}

	c.UpdatedAt = time.Now()
	if err := s.classRepo.Update(ctx, c); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError("クラス", id)
		}
		return nil, fmt.Errorf("クラスの更新に失敗しました: %w", err)
	}
	return c, nil
}

// Remove はクラスとその予約を削除する。
func (s *Service) Remove(ctx context.Context, id string) error {
	if _, err := s.FindOne(ctx, id); err != nil {
		return err
	}

	if err := s.classRepo.DeleteWithBookings(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError("クラス", id)
		}
		return fmt.Errorf("クラスの削除に失敗しました: %w", err)
	}

	slog.Info("class deleted", slog.String("class_id", id))
	return nil
}

// applySchedule は曜日と日付の入力をクラスに反映する。空文字は未設定として扱う。
func applySchedule(c *model.Class, dayOfWeek, date *string) error {
	c.DayOfWeek = nil
	c.Date = nil
	if dayOfWeek != nil && *dayOfWeek != "" {
		w := model.Weekday(strings.ToLower(strings.TrimSpace(*dayOfWeek)))
		if !w.Valid() {
			return model.NewValidationError("dayOfWeek", "曜日が正しくありません。")
		}
		c.DayOfWeek = &w
	}
	if date != nil && *date != "" {
		d, ok := validation.ParseDate(*date)
		if !ok {
			return model.NewValidationError("date", "日付はYYYY-MM-DD形式で入力してください。")
		}
		c.Date = &d
	}
	return nil
}

// validate はクラスの値を検証する。担当トレーナーは存在し、trainerまたはadminロールでなければならない。
func (s *Service) validate(ctx context.Context, c *model.Class) error {
	if c.Name == "" {
		return model.NewValidationError("name", "クラス名は必須です。")
	}
	if c.DayOfWeek == nil && c.Date == nil {
		return model.NewValidationError("dayOfWeek", "曜日または日付のいずれかを指定してください。")
	}
	if !validation.ClockTime(c.StartTime) {
		return model.NewValidationError("startTime", "開始時刻はHH:MM形式で入力してください。")
	}
	if !validation.ClockTime(c.EndTime) {
		return model.NewValidationError("endTime", "終了時刻はHH:MM形式で入力してください。")
	}
	// HH:MM同士は文字列比較で前後関係を判定できる
	if c.EndTime <= c.StartTime {
		return model.NewValidationError("endTime", "終了時刻は開始時刻より後にしてください。")
	}
	if c.Capacity <= 0 {
		return model.NewValidationError("capacity", "定員は1以上で入力してください。")
	}

	if c.TrainerID != nil {
		if _, err := uuid.Parse(*c.TrainerID); err != nil {
			return model.NewInvalidTrainerError()
		}
		trainer, err := s.userRepo.FindByID(ctx, *c.TrainerID)
		if err != nil {
			return fmt.Errorf("担当トレーナーの取得に失敗しました: %w", err)
		}
		if trainer == nil || (trainer.Role != model.RoleTrainer && trainer.Role != model.RoleAdmin) {
			return model.NewInvalidTrainerError()
		}
	}
	return nil
}
