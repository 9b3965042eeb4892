package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/gymman/internal/model"
)

const exerciseColumns = `id, routine_id, name, sets, reps, rest_time, description, notes, measurement_type, created_at`

// PostgresExerciseRepo はPostgreSQLを使用した種目リポジトリ。
type PostgresExerciseRepo struct {
	db *sql.DB
}

// NewPostgresExerciseRepo はPostgresExerciseRepoを生成する。
func NewPostgresExerciseRepo(db *sql.DB) *PostgresExerciseRepo {
	return &PostgresExerciseRepo{db: db}
}

func scanExercise(s rowScanner, e *model.Exercise) error {
	var (
		restTime sql.NullInt64
		mt       string
	)
	err := s.Scan(&e.ID, &e.RoutineID, &e.Name, &e.Sets, &e.Reps, &restTime, &e.Description,
		&e.Notes, &mt, &e.CreatedAt)
	if err != nil {
		return err
	}
	e.RestTime = intPtr(restTime)
	e.MeasurementType = model.MeasurementType(mt)
	return nil
}

// FindByID は指定IDの種目を取得する。見つからない場合はnilを返す。
func (r *PostgresExerciseRepo) FindByID(ctx context.Context, id string) (*model.Exercise, error) {
	e := &model.Exercise{}
	err := scanExercise(r.db.QueryRowContext(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`,
		id,
	), e)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("種目の取得に失敗しました: %w", err)
	}
	return e, nil
}

// ListByRoutineID はルーティンの種目を作成順に返す。
func (r *PostgresExerciseRepo) ListByRoutineID(ctx context.Context, routineID string) ([]model.Exercise, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE routine_id = $1 ORDER BY created_at ASC`,
		routineID,
	)
	if err != nil {
		return nil, fmt.Errorf("種目一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	exercises := []model.Exercise{}
	for rows.Next() {
		var e model.Exercise
		if err := scanExercise(rows, &e); err != nil {
			return nil, fmt.Errorf("種目行の読み取りに失敗しました: %w", err)
		}
		exercises = append(exercises, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("種目一覧の走査に失敗しました: %w", err)
	}
	return exercises, nil
}

// Create は種目を作成する。
func (r *PostgresExerciseRepo) Create(ctx context.Context, e *model.Exercise) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO exercises (id, routine_id, name, sets, reps, rest_time, description, notes, measurement_type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.RoutineID, e.Name, e.Sets, e.Reps, nullInt(e.RestTime), e.Description, e.Notes,
		string(e.MeasurementType), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("種目の作成に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの種目を削除する。参照する進捗記録のexercise_idはNULLになる。
func (r *PostgresExerciseRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM exercises WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("種目の削除に失敗しました: %w", err)
	}
	return checkRowsAffected(result, "exercise", id)
}

// compile-time interface check
var _ ExerciseRepository = (*PostgresExerciseRepo)(nil)
