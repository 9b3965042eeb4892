package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/gymman/internal/model"
)

const progressColumns = `id, user_id, exercise_id, date, weight, body_fat_percentage, muscle_mass,
	measurements, notes, created_at`

// PostgresProgressRepo はPostgreSQLを使用した進捗記録リポジトリ。
type PostgresProgressRepo struct {
	db *sql.DB
}

// NewPostgresProgressRepo はPostgresProgressRepoを生成する。
func NewPostgresProgressRepo(db *sql.DB) *PostgresProgressRepo {
	return &PostgresProgressRepo{db: db}
}

func scanProgress(s rowScanner) (*model.Progress, error) {
	p := &model.Progress{}
	var (
		exerciseID   sql.NullString
		weight       sql.NullFloat64
		bodyFat      sql.NullFloat64
		muscleMass   sql.NullFloat64
		measurements []byte
	)
	err := s.Scan(&p.ID, &p.UserID, &exerciseID, &p.Date, &weight, &bodyFat, &muscleMass,
		&measurements, &p.Notes, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.ExerciseID = stringPtr(exerciseID)
	p.Weight = floatPtr(weight)
	p.BodyFatPercentage = floatPtr(bodyFat)
	p.MuscleMass = floatPtr(muscleMass)
	p.Measurements = map[string]float64{}
	if len(measurements) > 0 {
		if err := json.Unmarshal(measurements, &p.Measurements); err != nil {
			return nil, fmt.Errorf("failed to decode measurements: %w", err)
		}
	}
	return p, nil
}

// measurementsArg はJSONBカラムへの書き込み値を返す。
// lib/pqは[]byteをbyteaとして送るため文字列で渡す。
func measurementsArg(m map[string]float64) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode measurements: %w", err)
	}
	return string(b), nil
}

func (r *PostgresProgressRepo) query(ctx context.Context, query string, args ...any) ([]*model.Progress, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("進捗記録一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var records []*model.Progress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("進捗記録行の読み取りに失敗しました: %w", err)
		}
		records = append(records, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("進捗記録一覧の走査に失敗しました: %w", err)
	}
	return records, nil
}

// FindByID は指定IDの記録を取得する。見つからない場合はnilを返す。
func (r *PostgresProgressRepo) FindByID(ctx context.Context, id string) (*model.Progress, error) {
	p, err := scanProgress(r.db.QueryRowContext(ctx,
		`SELECT `+progressColumns+` FROM progress WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("進捗記録の取得に失敗しました: %w", err)
	}
	return p, nil
}

func (r *PostgresProgressRepo) List(ctx context.Context) ([]*model.Progress, error) {
	return r.query(ctx, `SELECT `+progressColumns+` FROM progress ORDER BY date DESC, created_at DESC`)
}

// ListByUserID はユーザーの記録を日付の降順で返す。
func (r *PostgresProgressRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Progress, error) {
	return r.query(ctx,
		`SELECT `+progressColumns+` FROM progress WHERE user_id = $1 ORDER BY date DESC, created_at DESC`,
		userID,
	)
}

// ListByExerciseID は種目に紐付く記録を日付の降順で返す。
func (r *PostgresProgressRepo) ListByExerciseID(ctx context.Context, exerciseID string) ([]*model.Progress, error) {
	return r.query(ctx,
		`SELECT `+progressColumns+` FROM progress WHERE exercise_id = $1 ORDER BY date DESC, created_at DESC`,
		exerciseID,
	)
}

// Create は記録を作成する。
func (r *PostgresProgressRepo) Create(ctx context.Context, p *model.Progress) error {
	measurements, err := measurementsArg(p.Measurements)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO progress (id, user_id, exercise_id, date, weight, body_fat_percentage, muscle_mass,
		                       measurements, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.UserID, nullString(p.ExerciseID), p.Date, nullFloat(p.Weight), nullFloat(p.BodyFatPercentage),
		nullFloat(p.MuscleMass), measurements, p.Notes, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("進捗記録の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は記録を更新する。
func (r *PostgresProgressRepo) Update(ctx context.Context, p *model.Progress) error {
	measurements, err := measurementsArg(p.Measurements)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE progress SET exercise_id = $2, date = $3, weight = $4, body_fat_percentage = $5,
		        muscle_mass = $6, measurements = $7, notes = $8
		 WHERE id = $1`,
		p.ID, nullString(p.ExerciseID), p.Date, nullFloat(p.Weight), nullFloat(p.BodyFatPercentage),
		nullFloat(p.MuscleMass), measurements, p.Notes,
	)
	if err != nil {
		return fmt.Errorf("進捗記録の更新に失敗しました: %w", err)
	}
	return checkRowsAffected(result, "progress", p.ID)
}

func (r *PostgresProgressRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM progress WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("進捗記録の削除に失敗しました: %w", err)
	}
	return checkRowsAffected(result, "progress", id)
}

// compile-time interface check
var _ ProgressRepository = (*PostgresProgressRepo)(nil)
