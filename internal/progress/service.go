// Package progress は体組成・トレーニング成果の記録を扱う。
package progress

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

// CreateInput は進捗記録作成の入力。
// UserIDはスタッフが他ユーザーの記録を代行入力する場合のみ参照する。Date未指定時は当日。
type CreateInput struct {
	UserID            *string
	ExerciseID        *string
	Date              *string
	Weight            *float64
	BodyFatPercentage *float64
	MuscleMass        *float64
	Measurements      map[string]float64
	Notes             string
}

// UpdateInput は進捗記録更新の入力。nilのフィールドは変更しない。ExerciseIDは空文字で解除する。
type UpdateInput struct {
	ExerciseID        *string
	Date              *string
	Weight            *float64
	BodyFatPercentage *float64
	MuscleMass        *float64
	Measurements      map[string]float64
	Notes             *string
}

// maxMetric はNUMERIC(6,2)列(体重・筋肉量)に格納できる上限。
const maxMetric = 9999.99

// UserFinder は代行入力先ユーザーの存在確認に使う。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// Service は進捗記録のサービス層。
type Service struct {
	progressRepo repository.ProgressRepository
	exerciseRepo repository.ExerciseRepository
	users        UserFinder
	sanitizer    security.TextSanitizer
	now          func() time.Time
}

// NewService はServiceを生成する。
func NewService(progressRepo repository.ProgressRepository, exerciseRepo repository.ExerciseRepository, users UserFinder, sanitizer security.TextSanitizer) *Service {
	return &Service{
		progressRepo: progressRepo,
		exerciseRepo: exerciseRepo,
		users:        users,
		sanitizer:    sanitizer,
		now:          time.Now,
	}
}

// Create は進捗記録を作成する。
func (s *Service) Create(ctx context.Context, actor model.Identity, in CreateInput) (*model.Progress, error) {
	now := s.now()
	p := &model.Progress{
		ID:                uuid.New().String(),
		UserID:            actor.UserID,
		Date:              truncateDay(now),
		Weight:            in.Weight,
		BodyFatPercentage: in.BodyFatPercentage,
		MuscleMass:        in.MuscleMass,
		Measurements:      cleanMeasurements(in.Measurements),
		Notes:             s.sanitizer.Sanitize(in.Notes),
		CreatedAt:         now,
	}
	if in.UserID != nil && *in.UserID != "" && *in.UserID != actor.UserID {
		if !actor.Role.IsStaff() {
			return nil, model.NewNotOwnerError("進捗記録")
		}
		userID, err := s.checkUser(ctx, *in.UserID)
		if err != nil {
			return nil, err
		}
		p.UserID = userID
	}
	if in.Date != nil && *in.Date != "" {
		d, ok := validation.ParseDate(*in.Date)
		if !ok {
			return nil, model.NewValidationError("date", "日付はYYYY-MM-DD形式で入力してください。")
		}
		p.Date = d
	}
	exerciseID, err := s.checkExercise(ctx, in.ExerciseID)
	if err != nil {
		return nil, err
	}
	p.ExerciseID = exerciseID

	if err := validate(p); err != nil {
		return nil, err
	}
	if err := s.progressRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("進捗記録の作成に失敗しました: %w", err)
	}

	slog.Info("progress recorded",
		slog.String("progress_id", p.ID),
		slog.String("user_id", p.UserID),
	)
	return p, nil
}

// FindAll は全記録を返す。
func (s *Service) FindAll(ctx context.Context) ([]*model.Progress, error) {
	list, err := s.progressRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("進捗記録一覧の取得に失敗しました: %w", err)
	}
	return list, nil
}

// ListByUser はユーザーの記録を日付の降順で返す。
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*model.Progress, error) {
	list, err := s.progressRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの進捗記録取得に失敗しました: %w", err)
	}
	return list, nil
}

// ListByExercise は種目に紐付く記録を日付の降順で返す。
// スタッフ以外には自分の記録のみを返す。
func (s *Service) ListByExercise(ctx context.Context, actor model.Identity, exerciseID string) ([]*model.Progress, error) {
	list, err := s.progressRepo.ListByExerciseID(ctx, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("種目の進捗記録取得に失敗しました: %w", err)
	}
	if actor.Role.IsStaff() {
		return list, nil
	}
	own := make([]*model.Progress, 0, len(list))
	for _, p := range list {
		if p.UserID == actor.UserID {
			own = append(own, p)
		}
	}
	return own, nil
}

// FindOne は記録を返す。本人またはスタッフのみ参照できる。
func (s *Service) FindOne(ctx context.Context, actor model.Identity, id string) (*model.Progress, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(p.UserID) {
		return nil, model.NewNotOwnerError("進捗記録")
	}
	return p, nil
}

// Update は指定されたフィールドのみを反映して記録を更新する。
// Measurementsは指定された場合に全体を置き換える。
func (s *Service) Update(ctx context.Context, actor model.Identity, id string, in UpdateInput) (*model.Progress, error) {
	p, err := s.findForWrite(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if in.Date != nil {
		d, ok := validation.ParseDate(*in.Date)
		if !ok {
			return nil, model.NewValidationError("date", "日付はYYYY-MM-DD形式で入力してください。")
		}
		p.Date = d
	}
	if in.ExerciseID != nil {
		exerciseID, err := s.checkExercise(ctx, in.ExerciseID)
		if err != nil {
			return nil, err
		}
		p.ExerciseID = exerciseID
	}
	if in.Weight != nil {
		p.Weight = in.Weight
	}
	if in.BodyFatPercentage != nil {
		p.BodyFatPercentage = in.BodyFatPercentage
	}
	if in.MuscleMass != nil {
		p.MuscleMass = in.MuscleMass
	}
	if in.Measurements != nil {
		p.Measurements = cleanMeasurements(in.Measurements)
	}
	if in.Notes != nil {
		p.Notes = s.sanitizer.Sanitize(*in.Notes)
	}

	if err := validate(p); err != nil {
		return nil, err
	}
	if err := s.progressRepo.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError("進捗記録", id)
		}
		return nil, fmt.Errorf("進捗記録の更新に失敗しました: %w", err)
	}
	return p, nil
}

// Remove は記録を削除する。
func (s *Service) Remove(ctx context.Context, actor model.Identity, id string) error {
	if _, err := s.findForWrite(ctx, actor, id); err != nil {
		return err
	}
	if err := s.progressRepo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError("進捗記録", id)
		}
		return fmt.Errorf("進捗記録の削除に失敗しました: %w", err)
	}
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*model.Progress, error) {
	p, err := s.progressRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("進捗記録の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewNotFoundError("進捗記録", id)
	}
	return p, nil
}

// findForWrite は本人・管理者・トレーナーにのみ変更を許可する。
func (s *Service) findForWrite(ctx context.Context, actor model.Identity, id string) (*model.Progress, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != actor.UserID && actor.Role != model.RoleAdmin && actor.Role != model.RoleTrainer {
		return nil, model.NewNotOwnerError("進捗記録")
	}
	return p, nil
}

// checkUser は代行入力先のユーザーが存在することを確認する。
func (s *Service) checkUser(ctx context.Context, userID string) (string, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return "", model.NewValidationError("userId", "ユーザーIDの形式が正しくありません。")
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return "", model.NewNotFoundError("ユーザー", userID)
	}
	return u.ID, nil
}

// checkExercise は紐付ける種目の存在を確認する。空文字は紐付けなしを表す。
func (s *Service) checkExercise(ctx context.Context, exerciseID *string) (*string, error) {
	if exerciseID == nil || *exerciseID == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(*exerciseID); err != nil {
		return nil, model.NewNotFoundError("種目", *exerciseID)
	}
	e, err := s.exerciseRepo.FindByID(ctx, *exerciseID)
	if err != nil {
		return nil, fmt.Errorf("種目の取得に失敗しました: %w", err)
	}
	if e == nil {
		return nil, model.NewNotFoundError("種目", *exerciseID)
	}
	id := e.ID
	return &id, nil
}

func validate(p *model.Progress) error {
	if p.Weight != nil && (*p.Weight < 0 || *p.Weight > maxMetric) {
		return model.NewValidationError("weight", fmt.Sprintf("体重は0から%.2fの範囲で入力してください。", maxMetric))
	}
	if p.BodyFatPercentage != nil && (*p.BodyFatPercentage < 0 || *p.BodyFatPercentage > 100) {
		return model.NewValidationError("bodyFatPercentage", "体脂肪率は0から100の範囲で入力してください。")
	}
	if p.MuscleMass != nil && (*p.MuscleMass < 0 || *p.MuscleMass > maxMetric) {
		return model.NewValidationError("muscleMass", fmt.Sprintf("筋肉量は0から%.2fの範囲で入力してください。", maxMetric))
	}
	for name := range p.Measurements {
		if name == "" {
			return model.NewValidationError("measurements", "計測項目名は必須です。")
		}
	}
	return nil
}

// cleanMeasurements は計測項目名の前後の空白を除去した新しいマップを返す。
func cleanMeasurements(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[strings.TrimSpace(k)] = v
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
