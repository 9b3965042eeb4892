// Package routine はトレーニングルーティンと種目のドメインロジックを提供する。
package routine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/gymman/internal/model"
	"github.com/hitoshi/gymman/internal/repository"
	"github.com/hitoshi/gymman/internal/security"
)

// CreateInput はルーティン作成の入力。
type CreateInput struct {
	Name        string
	Description string
	Difficulty  string
	Goals       string
	Notes       string
	IsActive    *bool
}

// UpdateInput はルーティン更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	Name        *string
	Description *string
	Difficulty  *string
	Goals       *string
	Notes       *string
	IsActive    *bool
}

// ExerciseInput は種目追加の入力。MeasurementType未指定時はweightとする。
type ExerciseInput struct {
	Name            string
	Sets            int
	Reps            int
	RestTime        *int
	Description     string
	Notes           string
	MeasurementType string
}

// Service はルーティンのサービス層。
type Service struct {
	routineRepo  repository.RoutineRepository
	exerciseRepo repository.ExerciseRepository
	sanitizer    security.TextSanitizer
}

// NewService はServiceを生成する。
func NewService(routineRepo repository.RoutineRepository, exerciseRepo repository.ExerciseRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{
		routineRepo:  routineRepo,
		exerciseRepo: exerciseRepo,
		sanitizer:    sanitizer,
	}
}

// Create はactorを所有者とするルーティンを作成する。
func (s *Service) Create(ctx context.Context, actor model.Identity, in CreateInput) (*model.Routine, error) {
	now := time.Now()
	r := &model.Routine{
		ID:          uuid.New().String(),
		UserID:      actor.UserID,
		Name:        strings.TrimSpace(in.Name),
		Description: s.sanitizer.Sanitize(in.Description),
		Difficulty:  model.Difficulty(strings.ToLower(strings.TrimSpace(in.Difficulty))),
		Goals:       s.sanitizer.Sanitize(in.Goals),
		Notes:       s.sanitizer.Sanitize(in.Notes),
		IsActive:    true,
		Exercises:   []model.Exercise{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if r.Difficulty == "" {
		r.Difficulty = model.DifficultyBeginner
	}
	if in.IsActive != nil {
		r.IsActive = *in.IsActive
	}

	if err := validateRoutine(r); err != nil {
		return nil, err
	}
	if err := s.routineRepo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("ルーティンの作成に失敗しました: %w", err)
	}

	slog.Info("routine created",
		slog.String("routine_id", r.ID),
		slog.String("user_id", r.UserID),
	)
	return r, nil
}

// FindAll は全ルーティンを返す。種目は含まない。
func (s *Service) FindAll(ctx context.Context) ([]*model.Routine, error) {
	list, err := s.routineRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ルーティン一覧の取得に失敗しました: %w", err)
	}
	return list, nil
}

// ListByUser はユーザーのルーティンを返す。
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*model.Routine, error) {
	list, err := s.routineRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーのルーティン取得に失敗しました: %w", err)
	}
	return list, nil
}

// FindOne は種目を含むルーティンを返す。所有者またはスタッフのみ参照できる。
func (s *Service) FindOne(ctx context.Context, actor model.Identity, id string) (*model.Routine, error) {
	r, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(r.UserID) {
		return nil, model.NewNotOwnerError("ルーティン")
	}

	exercises, err := s.exerciseRepo.ListByRoutineID(ctx, r.ID)
	if err != nil {
		return nil, fmt.Errorf("種目の取得に失敗しました: %w", err)
	}
	r.Exercises = exercises
	return r, nil
}

// Update は指定されたフィールドのみを反映してルーティンを更新する。
func (s *Service) Update(ctx context.Context, actor model.Identity, id string, in UpdateInput) (*model.Routine, error) {
	r, err := s.findForWrite(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		r.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		r.Description = s.sanitizer.Sanitize(*in.Description)
	}
	if in.Difficulty != nil {
		r.Difficulty = model.Difficulty(strings.ToLower(strings.TrimSpace(*in.Difficulty)))
	}
	if in.Goals != nil {
		r.Goals = s.sanitizer.Sanitize(*in.Goals)
	}
	if in.Notes != nil {
		r.Notes = s.sanitizer.Sanitize(*in.Notes)
	}
	if in.IsActive != nil {
		r.IsActive = *in.IsActive
	}

	if err := validateRoutine(r); err != nil {
		return nil, err
	}

	r.UpdatedAt = time.Now()
	if err := s.routineRepo.Update(ctx, r); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError("ルーティン", id)
		}
		return nil, fmt.Errorf("ルーティンの更新に失敗しました: %w", err)
	}
	return r, nil
}

// Remove はルーティンを削除する。種目はFKのCASCADEで削除される。
func (s *Service) Remove(ctx context.Context, actor model.Identity, id string) error {
	if _, err := s.findForWrite(ctx, actor, id); err != nil {
		return err
	}
	if err := s.routineRepo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError("ルーティン", id)
		}
		return fmt.Errorf("ルーティンの削除に失敗しました: %w", err)
	}
	slog.Info("routine deleted", slog.String("routine_id", id))
	return nil
}

// AddExercise はルーティンに種目を追加する。
func (s *Service) AddExercise(ctx context.Context, actor model.Identity, routineID string, in ExerciseInput) (*model.Exercise, error) {
	r, err := s.findForWrite(ctx, actor, routineID)
	if err != nil {
		return nil, err
	}

	e := &model.Exercise{
		ID:              uuid.New().String(),
		RoutineID:       r.ID,
		Name:            strings.TrimSpace(in.Name),
		Sets:            in.Sets,
		Reps:            in.Reps,
		RestTime:        in.RestTime,
		Description:     s.sanitizer.Sanitize(in.Description),
		Notes:           s.sanitizer.Sanitize(in.Notes),
		MeasurementType: model.MeasurementType(strings.ToLower(strings.TrimSpace(in.MeasurementType))),
		CreatedAt:       time.Now(),
	}
	if e.MeasurementType == "" {
		e.MeasurementType = model.DefaultMeasurementType
	}
	if err := validateExercise(e); err != nil {
		return nil, err
	}

	if err := s.exerciseRepo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("種目の追加に失敗しました: %w", err)
	}
	return e, nil
}

// RemoveExercise はルーティンから種目を削除する。
// 種目が存在しない場合や別のルーティンに属する場合はNotFoundを返す。
func (s *Service) RemoveExercise(ctx context.Context, actor model.Identity, routineID, exerciseID string) error {
	if _, err := s.findForWrite(ctx, actor, routineID); err != nil {
		return err
	}

	if _, err := uuid.Parse(exerciseID); err != nil {
		return model.NewNotFoundError("種目", exerciseID)
	}
	e, err := s.exerciseRepo.FindByID(ctx, exerciseID)
	if err != nil {
		return fmt.Errorf("種目の取得に失敗しました: %w", err)
	}
	if e == nil || e.RoutineID != routineID {
		return model.NewNotFoundError("種目", exerciseID)
	}

	if err := s.exerciseRepo.DeleteByID(ctx, exerciseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError("種目", exerciseID)
		}
		return fmt.Errorf("種目の削除に失敗しました: %w", err)
	}
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*model.Routine, error) {
	r, err := s.routineRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ルーティンの取得に失敗しました: %w", err)
	}
	if r == nil {
		return nil, model.NewNotFoundError("ルーティン", id)
	}
	return r, nil
}

// findForWrite は変更操作の対象ルーティンを返す。所有者・管理者・トレーナーのみ許可する。
func (s *Service) findForWrite(ctx context.Context, actor model.Identity, id string) (*model.Routine, error) {
	r, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, r.UserID) {
		return nil, model.NewNotOwnerError("ルーティン")
	}
	return r, nil
}

func canModify(actor model.Identity, ownerID string) bool {
	return actor.UserID == ownerID || actor.Role == model.RoleAdmin || actor.Role == model.RoleTrainer
}

func validateRoutine(r *model.Routine) error {
	if r.Name == "" {
		return model.NewValidationError("name", "ルーティン名は必須です。")
	}
	if !r.Difficulty.Valid() {
		return model.NewValidationError("difficulty", "難易度はbeginner・intermediate・advancedのいずれかです。")
	}
	return nil
}

func validateExercise(e *model.Exercise) error {
	if e.Name == "" {
		return model.NewValidationError("name", "種目名は必須です。")
	}
	if e.Sets <= 0 || e.Sets > math.MaxInt32 {
		return model.NewValidationError("sets", fmt.Sprintf("セット数は1から%dの範囲で入力してください。", math.MaxInt32))
	}
	if e.Reps <= 0 || e.Reps > math.MaxInt32 {
		return model.NewValidationError("reps", fmt.Sprintf("回数は1から%dの範囲で入力してください。", math.MaxInt32))
	}
	if e.RestTime != nil && (*e.RestTime < 0 || *e.RestTime > math.MaxInt32) {
		return model.NewValidationError("restTime", fmt.Sprintf("休憩時間は0から%dの範囲で入力してください。", math.MaxInt32))
	}
	if !e.MeasurementType.Valid() {
		return model.NewValidationError("measurementType", "記録単位はweight・reps・timeのいずれかです。")
	}
	return nil
}
