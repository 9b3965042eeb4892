package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/gymman/internal/model"
)

// start_time/end_timeはTIME型のため、HH:MM形式の文字列として読み出す。
const classColumns = `id, name, description, day_of_week, date,
	to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
	capacity, trainer_id, equipment, is_active, created_at, updated_at`

// PostgresClassRepo はPostgreSQLを使用したクラスリポジトリ。
type PostgresClassRepo struct {
	db *sql.DB
}

// NewPostgresClassRepo はPostgresClassRepoを生成する。
func NewPostgresClassRepo(db *sql.DB) *PostgresClassRepo {
	return &PostgresClassRepo{db: db}
}

func scanClass(s rowScanner) (*model.Class, error) {
	c := &model.Class{}
	var (
		dayOfWeek sql.NullString
		date      sql.NullTime
		trainerID sql.NullString
	)
	err := s.Scan(&c.ID, &c.Name, &c.Description, &dayOfWeek, &date, &c.StartTime, &c.EndTime,
		&c.Capacity, &trainerID, pq.Array(&c.Equipment), &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if dayOfWeek.Valid {
		w := model.Weekday(dayOfWeek.String)
		c.DayOfWeek = &w
	}
	c.Date = timePtr(date)
	c.TrainerID = stringPtr(trainerID)
	return c, nil
}

func weekdayArg(w *model.Weekday) sql.NullString {
	if w == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*w), Valid: true}
}

// FindByID は指定IDのクラスを取得する。見つからない場合はnilを返す。
func (r *PostgresClassRepo) FindByID(ctx context.Context, id string) (*model.Class, error) {
	c, err := scanClass(r.db.QueryRowContext(ctx,
		`SELECT `+classColumns+` FROM classes WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("クラスの取得に失敗しました: %w", err)
	}
	return c, nil
}

// List は全クラスを開始時刻順に返す。
func (r *PostgresClassRepo) List(ctx context.Context) ([]*model.Class, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+classColumns+` FROM classes ORDER BY date NULLS FIRST, start_time ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("クラス一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var classes []*model.Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("クラス行の読み取りに失敗しました: %w", err)
		}
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("クラス一覧の走査に失敗しました: %w", err)
	}
	return classes, nil
}

// Create はクラスを作成する。
func (r *PostgresClassRepo) Create(ctx context.Context, c *model.Class) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO classes (id, name, description, day_of_week, date, start_time, end_time,
		                      capacity, trainer_id, equipment, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID, c.Name, c.Description, weekdayArg(c.DayOfWeek), nullTime(c.Date), c.StartTime, c.EndTime,
		c.Capacity, nullString(c.TrainerID), pq.Array(nonNilStrings(c.Equipment)), c.IsActive,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("クラスの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はクラス情報を更新する。
func (r *PostgresClassRepo) Update(ctx context.Context, c *model.Class) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE classes SET name = $2, description = $3, day_of_week = $4, date = $5,
		        start_time = $6, end_time = $7, capacity = $8, trainer_id = $9,
		        equipment = $10, is_active = $11, updated_at = $12
		 WHERE id = $1`,
		c.ID, c.Name, c.Description, weekdayArg(c.DayOfWeek), nullTime(c.Date), c.StartTime, c.EndTime,
		c.Capacity, nullString(c.TrainerID), pq.Array(nonNilStrings(c.Equipment)), c.IsActive,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("クラスの更新に失敗しました: %w", err)
	}
	return checkRowsAffected(result, "class", c.ID)
}

// DeleteWithBookings はクラスの予約を削除した上でクラスを削除する。
// 予約が残った状態でクラスだけが削除されることはない。
func (r *PostgresClassRepo) DeleteWithBookings(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE class_id = $1`, id); err != nil {
		return fmt.Errorf("クラスの予約削除に失敗しました: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("クラスの削除に失敗しました: %w", err)
	}
	if err := checkRowsAffected(result, "class", id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ClassRepository = (*PostgresClassRepo)(nil)
