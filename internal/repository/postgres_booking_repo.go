package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/gymman/internal/model"
)

const bookingColumns = `id, user_id, class_id, membership_id, date,
	to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
	notes, is_cancelled, has_attended, created_at, updated_at`

// PostgresBookingRepo はPostgreSQLを使用した予約リポジトリ。
type PostgresBookingRepo struct {
	db *sql.DB
}

// NewPostgresBookingRepo はPostgresBookingRepoを生成する。
func NewPostgresBookingRepo(db *sql.DB) *PostgresBookingRepo {
	return &PostgresBookingRepo{db: db}
}

func scanBooking(s rowScanner) (*model.Booking, error) {
	b := &model.Booking{}
	var membershipID sql.NullString
	err := s.Scan(&b.ID, &b.UserID, &b.ClassID, &membershipID, &b.Date, &b.StartTime, &b.EndTime,
		&b.Notes, &b.IsCancelled, &b.HasAttended, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.MembershipID = stringPtr(membershipID)
	return b, nil
}

func (r *PostgresBookingRepo) query(ctx context.Context, query string, args ...any) ([]*model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("予約行の読み取りに失敗しました: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("予約一覧の走査に失敗しました: %w", err)
	}
	return bookings, nil
}

// FindByID は指定IDの予約を取得する。見つからない場合はnilを返す。
func (r *PostgresBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("予約の取得に失敗しました: %w", err)
	}
	return b, nil
}

// List は全予約を日付の降順で返す。
func (r *PostgresBookingRepo) List(ctx context.Context) ([]*model.Booking, error) {
	return r.query(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY date DESC, start_time ASC`)
}

// ListByUserID はユーザーの予約を日付の降順で返す。
func (r *PostgresBookingRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Booking, error) {
	return r.query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 ORDER BY date DESC, start_time ASC`,
		userID,
	)
}

// ListByClassID はクラスの予約を作成順に返す。
func (r *PostgresBookingRepo) ListByClassID(ctx context.Context, classID string) ([]*model.Booking, error) {
	return r.query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE class_id = $1 ORDER BY created_at ASC`,
		classID,
	)
}

// CountActiveByClassID はクラスのキャンセルされていない予約数を返す。
func (r *PostgresBookingRepo) CountActiveByClassID(ctx context.Context, classID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE class_id = $1 AND NOT is_cancelled`,
		classID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("予約数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// FindActiveByUserAndClass はユーザーとクラスのキャンセルされていない予約を返す。
// 見つからない場合はnilを返す。
func (r *PostgresBookingRepo) FindActiveByUserAndClass(ctx context.Context, userID, classID string) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE user_id = $1 AND class_id = $2 AND NOT is_cancelled`,
		userID, classID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーとクラスによる予約の検索に失敗しました: %w", err)
	}
	return b, nil
}

// CreateWithinCapacity はクラス行をFOR UPDATEでロックし、有効な予約数を数え直してから予約を作成する。
// 同じクラスへの同時予約はロックにより直列化される。
func (r *PostgresBookingRepo) CreateWithinCapacity(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var capacity int
	err = tx.QueryRowContext(ctx,
		`SELECT capacity FROM classes WHERE id = $1 FOR UPDATE`,
		b.ClassID,
	).Scan(&capacity)
	if err == sql.ErrNoRows {
		return fmt.Errorf("class %s: %w", b.ClassID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("クラスのロック取得に失敗しました: %w", err)
	}

	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE class_id = $1 AND NOT is_cancelled`,
		b.ClassID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("予約数の取得に失敗しました: %w", err)
	}
	if count >= capacity {
		return ErrClassFull
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bookings (id, user_id, class_id, membership_id, date, start_time, end_time,
		                       notes, is_cancelled, has_attended, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		b.ID, b.UserID, b.ClassID, nullString(b.MembershipID), b.Date, b.StartTime, b.EndTime,
		b.Notes, b.IsCancelled, b.HasAttended, b.CreatedAt, b.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateBooking
	}
	if err != nil {
		return fmt.Errorf("予約の作成に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Update は予約の日付・メモ・プラン・キャンセル・出席状態を更新する。
// キャンセル取り消しで有効な予約が重複する場合はErrDuplicateBookingを返す。
func (r *PostgresBookingRepo) Update(ctx context.Context, b *model.Booking) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET membership_id = $2, date = $3, notes = $4, is_cancelled = $5,
		        has_attended = $6, updated_at = $7
		 WHERE id = $1`,
		b.ID, nullString(b.MembershipID), b.Date, b.Notes, b.IsCancelled, b.HasAttended, b.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateBooking
	}
	if err != nil {
		return fmt.Errorf("予約の更新に失敗しました: %w", err)
	}
	return checkRowsAffected(result, "booking", b.ID)
}

// DeleteByID は指定IDの予約を削除する。
func (r *PostgresBookingRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("予約の削除に失敗しました: %w", err)
	}
	return checkRowsAffected(result, "booking", id)
}

// compile-time interface check
var _ BookingRepository = (*PostgresBookingRepo)(nil)
