// Package booking はクラス予約のドメインロジックを提供する。
//
// 予約はクラスの存在確認、定員確認、重複確認、会員プラン確認の順に検証され、
// 最終的な定員・重複判定はリポジトリのトランザクション内で再度行われる。
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/gymman/internal/model"
	"github.com/hitoshi/gymman/internal/repository"
	"github.com/hitoshi/gymman/internal/security"
	"github.com/hitoshi/gymman/internal/validation"
)

// 予約結果のラベル。メトリクスに使用する。
const (
	OutcomeCreated   = "created"
	OutcomeFull      = "class_full"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
)

// ReserveInput は予約作成の入力。Dateが未指定の場合はクラスの開催日から決定する。
type ReserveInput struct {
	ClassID      string
	MembershipID *string
	Date         *string // YYYY-MM-DD
	Notes        string
}

// UpdateInput は予約更新の入力。nilのフィールドは変更しない。MembershipIDは空文字で解除する。
type UpdateInput struct {
	Date         *string
	Notes        *string
	MembershipID *string
}

// ServiceConfig は予約サービスの設定。
type ServiceConfig struct {
	CancelMode model.CancelMode
}

// ReservationRecorder は予約試行の結果を記録する。
type ReservationRecorder interface {
	RecordReservation(outcome string)
}

// Service は予約のサービス層。
type Service struct {
	bookingRepo    repository.BookingRepository
	classRepo      repository.ClassRepository
	membershipRepo repository.MembershipRepository
	sanitizer      security.TextSanitizer
	config         ServiceConfig
	recorder       ReservationRecorder
	now            func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	bookingRepo repository.BookingRepository,
	classRepo repository.ClassRepository,
	membershipRepo repository.MembershipRepository,
	sanitizer security.TextSanitizer,
	config ServiceConfig,
) *Service {
	if config.CancelMode == "" {
		config.CancelMode = model.CancelModeSoft
	}
	return &Service{
		bookingRepo:    bookingRepo,
		classRepo:      classRepo,
		membershipRepo: membershipRepo,
		sanitizer:      sanitizer,
		config:         config,
		now:            time.Now,
	}
}

// SetReservationRecorder は予約試行の記録先を設定する。
func (s *Service) SetReservationRecorder(r ReservationRecorder) {
	s.recorder = r
}

// Reserve はactorのクラス予約を作成する。
func (s *Service) Reserve(ctx context.Context, actor model.Identity, in ReserveInput) (*model.Booking, error) {
	b, err := s.reserve(ctx, actor, in)
	s.record(err)
	return b, err
}

func (s *Service) reserve(ctx context.Context, actor model.Identity, in ReserveInput) (*model.Booking, error) {
	// 1. クラスの存在と受付状態を確認
	c, err := s.findClass(ctx, in.ClassID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		return nil, model.NewClassInactiveError()
	}

	// 2. 定員を確認
	count, err := s.bookingRepo.CountActiveByClassID(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("予約数の取得に失敗しました: %w", err)
	}
	if count >= c.Capacity {
		return nil, model.NewClassFullError()
	}

	// 3. 同一ユーザーの有効な予約がないことを確認
	existing, err := s.bookingRepo.FindActiveByUserAndClass(ctx, actor.UserID, c.ID)
	if err != nil {
		return nil, fmt.Errorf("既存予約の確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateBookingError()
	}

	// 4. 会員プランを確認
	membershipID, err := s.checkMembership(ctx, actor.UserID, in.MembershipID)
	if err != nil {
		return nil, err
	}

	date, err := s.bookingDate(c, in.Date)
	if err != nil {
		return nil, err
	}

	now := s.now()
	b := &model.Booking{
		ID:           uuid.New().String(),
		UserID:       actor.UserID,
		ClassID:      c.ID,
		MembershipID: membershipID,
		Date:         date,
		StartTime:    c.StartTime,
		EndTime:      c.EndTime,
		Notes:        s.sanitizer.Sanitize(in.Notes),
		IsCancelled:  false,
		HasAttended:  false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 5. クラス行をロックして定員・重複を再確認しながら保存
	if err := s.bookingRepo.CreateWithinCapacity(ctx, b); err != nil {
		switch {
		case errors.Is(err, repository.ErrClassFull):
			return nil, model.NewClassFullError()
		case errors.Is(err, repository.ErrDuplicateBooking):
			return nil, model.NewDuplicateBookingError()
		case errors.Is(err, repository.ErrNotFound):
			return nil, model.NewNotFoundError("クラス", c.ID)
		}
		return nil, fmt.Errorf("予約の作成に失敗しました: %w", err)
	}

	slog.Info("booking created",
		slog.String("booking_id", b.ID),
		slog.String("user_id", b.UserID),
		slog.String("class_id", b.ClassID),
	)
	return b, nil
}

// Cancel は予約をキャンセルする。予約者本人または管理者のみ実行できる。
// ソフトキャンセルではIsCancelledを立て、ハードキャンセルでは行を削除する。
func (s *Service) Cancel(ctx context.Context, actor model.Identity, id string) (*model.Booking, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != actor.UserID && actor.Role != model.RoleAdmin {
		return nil, model.NewNotOwnerError("予約")
	}
	if b.IsCancelled {
		return nil, model.NewAlreadyCancelledError()
	}

	b.IsCancelled = true
	b.UpdatedAt = s.now()

	if s.config.CancelMode == model.CancelModeHard {
		err = s.bookingRepo.DeleteByID(ctx, b.ID)
	} else {
		err = s.bookingRepo.Update(ctx, b)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError("予約", id)
		}
		return nil, fmt.Errorf("予約のキャンセルに失敗しました: %w", err)
	}

	slog.Info("booking cancelled",
		slog.String("booking_id", b.ID),
		slog.String("cancelled_by", actor.UserID),
		slog.String("mode", string(s.config.CancelMode)),
	)
	return b, nil
}

// MarkAttended は予約を出席済みにする。キャンセル済みの予約は対象外。
func (s *Service) MarkAttended(ctx context.Context, id string) (*model.Booking, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.IsCancelled {
		return nil, model.NewBadRequestError("キャンセル済みの予約は出席登録できません。")
	}

	b.HasAttended = true
	b.UpdatedAt = s.now()
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// FindAll は全予約を返す。
func (s *Service) FindAll(ctx context.Context) ([]*model.Booking, error) {
	list, err := s.bookingRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}
	return list, nil
}

// FindOne は予約を返す。予約者本人またはスタッフのみ参照できる。
func (s *Service) FindOne(ctx context.Context, actor model.Identity, id string) (*model.Booking, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(b.UserID) {
		return nil, model.NewNotOwnerError("予約")
	}
	return b, nil
}

// ListByUser はユーザーの予約を返す。
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	list, err := s.bookingRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの予約取得に失敗しました: %w", err)
	}
	return list, nil
}

// ListByClass はクラスの予約を返す。クラスが存在しない場合はNotFoundを返す。
func (s *Service) ListByClass(ctx context.Context, classID string) ([]*model.Booking, error) {
	if _, err := s.findClass(ctx, classID); err != nil {
		return nil, err
	}
	list, err := s.bookingRepo.ListByClassID(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("クラスの予約取得に失敗しました: %w", err)
	}
	return list, nil
}

// Update は予約の日付・メモ・会員プランを更新する。
// 日付は予約時と同じくクラスの開催日・開催曜日と一致しなければならない。
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*model.Booking, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Date != nil {
		if *in.Date == "" {
			return nil, model.NewValidationError("date", "日付はYYYY-MM-DD形式で入力してください。")
		}
		c, err := s.findClass(ctx, b.ClassID)
		if err != nil {
			return nil, err
		}
		d, err := s.bookingDate(c, in.Date)
		if err != nil {
			return nil, err
		}
		b.Date = d
	}
	if in.Notes != nil {
		b.Notes = s.sanitizer.Sanitize(*in.Notes)
	}
	if in.MembershipID != nil {
		membershipID, err := s.checkMembership(ctx, b.UserID, in.MembershipID)
		if err != nil {
			return nil, err
		}
		b.MembershipID = membershipID
	}

	b.UpdatedAt = s.now()
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Remove は予約を削除する。
func (s *Service) Remove(ctx context.Context, id string) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.bookingRepo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError("予約", id)
		}
		return fmt.Errorf("予約の削除に失敗しました: %w", err)
	}
	slog.Info("booking deleted", slog.String("booking_id", id))
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*model.Booking, error) {
	b, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("予約の取得に失敗しました: %w", err)
	}
	if b == nil {
		return nil, model.NewNotFoundError("予約", id)
	}
	return b, nil
}

func (s *Service) findClass(ctx context.Context, id string) (*model.Class, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.NewNotFoundError("クラス", id)
	}
	c, err := s.classRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("クラスの取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewNotFoundError("クラス", id)
	}
	return c, nil
}

func (s *Service) save(ctx context.Context, b *model.Booking) error {
	if err := s.bookingRepo.Update(ctx, b); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return model.NewNotFoundError("予約", b.ID)
		case errors.Is(err, repository.ErrDuplicateBooking):
			return model.NewDuplicateBookingError()
		}
		return fmt.Errorf("予約の更新に失敗しました: %w", err)
	}
	return nil
}

// checkMembership は予約に紐付ける会員プランを検証する。
// プランは存在し有効で、所有者が未設定か予約者本人でなければならない。空文字は紐付けなしを表す。
func (s *Service) checkMembership(ctx context.Context, userID string, membershipID *string) (*string, error) {
	if membershipID == nil || *membershipID == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(*membershipID); err != nil {
		return nil, model.NewNotFoundError("会員プラン", *membershipID)
	}

	m, err := s.membershipRepo.FindByID(ctx, *membershipID)
	if err != nil {
		return nil, fmt.Errorf("会員プランの取得に失敗しました: %w", err)
	}
	if m == nil {
		return nil, model.NewNotFoundError("会員プラン", *membershipID)
	}
	if !m.IsActive {
		return nil, model.NewBadRequestError("この会員プランは現在利用できません。")
	}
	if m.UserID != nil && *m.UserID != userID {
		return nil, model.NewNotOwnerError("会員プラン")
	}
	id := m.ID
	return &id, nil
}

// bookingDate は予約日を決定する。
// 指定がなければ単発クラスは開催日、定期クラスは今日以降で最初の開催曜日を用いる。
func (s *Service) bookingDate(c *model.Class, date *string) (time.Time, error) {
	if date != nil && *date != "" {
		d, ok := validation.ParseDate(*date)
		if !ok {
			return time.Time{}, model.NewValidationError("date", "日付はYYYY-MM-DD形式で入力してください。")
		}
		if c.Date != nil && !sameDay(*c.Date, d) {
			return time.Time{}, model.NewValidationError("date", "クラスの開催日と一致しません。")
		}
		if c.Date == nil && c.DayOfWeek != nil && model.WeekdayOf(d) != *c.DayOfWeek {
			return time.Time{}, model.NewValidationError("date", "クラスの開催曜日と一致しません。")
		}
		return d, nil
	}
	if c.Date != nil {
		return *c.Date, nil
	}
	if c.DayOfWeek != nil {
		return c.DayOfWeek.NextOccurrence(s.now()), nil
	}
	return time.Time{}, model.NewValidationError("date", "予約日を指定してください。")
}

func (s *Service) record(err error) {
	if s.recorder == nil {
		return
	}
	var apiErr *model.APIError
	switch {
	case err == nil:
		s.recorder.RecordReservation(OutcomeCreated)
	case errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeClassFull:
		s.recorder.RecordReservation(OutcomeFull)
	case errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeDuplicateBooking:
		s.recorder.RecordReservation(OutcomeDuplicate)
	default:
		s.recorder.RecordReservation(OutcomeRejected)
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
