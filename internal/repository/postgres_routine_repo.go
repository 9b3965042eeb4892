package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/gymman/internal/model"
)

const routineColumns = `id, user_id, name, description, difficulty, goals, notes, is_active, created_at, updated_at`

// PostgresRoutineRepo はPostgreSQLを使用したルーティンリポジトリ。
type PostgresRoutineRepo struct {
	db *sql.DB
}

// NewPostgresRoutineRepo はPostgresRoutineRepoを生成する。
func NewPostgresRoutineRepo(db *sql.DB) *PostgresRoutineRepo {
	return &PostgresRoutineRepo{db: db}
}

func scanRoutine(s rowScanner) (*model.Routine, error) {
	rt := &model.Routine{}
	var difficulty string
	err := s.Scan(&rt.ID, &rt.UserID, &rt.Name, &rt.Description, &difficulty, &rt.Goals, &rt.Notes,
		&rt.IsActive, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rt.Difficulty = model.Difficulty(difficulty)
	return rt, nil
}

func (r *PostgresRoutineRepo) query(ctx context.Context, query string, args ...any) ([]*model.Routine, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ルーティン一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var routines []*model.Routine
	for rows.Next() {
		rt, err := scanRoutine(rows)
		if err != nil {
			return nil, fmt.Errorf("ルーティン行の読み取りに失敗しました: %w", err)
		}
		routines = append(routines, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ルーティン一覧の走査に失敗しました: %w", err)
	}
	return routines, nil
}

// FindByID は指定IDのルーティンを取得する。見つからない場合はnilを返す。
func (r *PostgresRoutineRepo) FindByID(ctx context.Context, id string) (*model.Routine, error) {
	rt, err := scanRoutine(r.db.QueryRowContext(ctx,
		`SELECT `+routineColumns+` FROM routines WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ルーティンの取得に失敗しました: %w", err)
	}
	return rt, nil
}

func (r *PostgresRoutineRepo) List(ctx context.Context) ([]*model.Routine, error) {
	return r.query(ctx, `SELECT `+routineColumns+` FROM routines ORDER BY created_at DESC`)
}

func (r *PostgresRoutineRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Routine, error) {
	return r.query(ctx,
		`SELECT `+routineColumns+` FROM routines WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
}

// Create はルーティンを作成する。種目は別途ExerciseRepositoryで作成する。
func (r *PostgresRoutineRepo) Create(ctx context.Context, rt *model.Routine) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO routines (id, user_id, name, description, difficulty, goals, notes, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rt.ID, rt.UserID, rt.Name, rt.Description, string(rt.Difficulty), rt.Goals, rt.Notes,
		rt.IsActive, rt.CreatedAt, rt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ルーティンの作成に失敗しました: %w", err)
	}
	return nil
}

func (r *PostgresRoutineRepo) Update(ctx context.Context, rt *model.Routine) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE routines SET name = $2, description = $3, difficulty = $4, goals = $5, notes = $6,
		        is_active = $7, updated_at = $8
		 WHERE id = $1`,
		rt.ID, rt.Name, rt.Description, string(rt.Difficulty), rt.Goals, rt.Notes, rt.IsActive, rt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ルーティンの更新に失敗しました: %w", err)
	}
	return checkRowsAffected(result, "routine", rt.ID)
}

// DeleteByID は指定IDのルーティンを削除する。種目はCASCADE削除される。
func (r *PostgresRoutineRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM routines WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ルーティンの削除に失敗しました: %w", err)
	}
	return checkRowsAffected(result, "routine", id)
}

// compile-time interface check
var _ RoutineRepository = (*PostgresRoutineRepo)(nil)
