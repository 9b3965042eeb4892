package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/gymman/internal/model"
)

const membershipColumns = `id, name, price, duration_days, type, description, benefits,
	is_active, user_id, created_at, updated_at`

// PostgresMembershipRepo はPostgreSQLを使用した会員プランリポジトリ。
type PostgresMembershipRepo struct {
	db *sql.DB
}

// NewPostgresMembershipRepo はPostgresMembershipRepoを生成する。
func NewPostgresMembershipRepo(db *sql.DB) *PostgresMembershipRepo {
	return &PostgresMembershipRepo{db: db}
}

func scanMembership(s rowScanner) (*model.Membership, error) {
	m := &model.Membership{}
	var (
		typ    string
		userID sql.NullString
	)
	err := s.Scan(&m.ID, &m.Name, &m.Price, &m.DurationDays, &typ, &m.Description,
		pq.Array(&m.Benefits), &m.IsActive, &userID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Type = model.MembershipType(typ)
	m.UserID = stringPtr(userID)
	return m, nil
}

func (r *PostgresMembershipRepo) query(ctx context.Context, query string, args ...any) ([]*model.Membership, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("会員プラン一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var memberships []*model.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("会員プラン行の読み取りに失敗しました: %w", err)
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("会員プラン一覧の走査に失敗しました: %w", err)
	}
	return memberships, nil
}

// FindByID は指定IDのプランを取得する。見つからない場合はnilを返す。
func (r *PostgresMembershipRepo) FindByID(ctx context.Context, id string) (*model.Membership, error) {
	m, err := scanMembership(r.db.QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("会員プランの取得に失敗しました: %w", err)
	}
	return m, nil
}

// List は全プランを価格の昇順で返す。
func (r *PostgresMembershipRepo) List(ctx context.Context) ([]*model.Membership, error) {
	return r.query(ctx, `SELECT `+membershipColumns+` FROM memberships ORDER BY price ASC, created_at ASC`)
}

// ListByUserID はユーザーに紐付くプラン一覧を返す。
func (r *PostgresMembershipRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Membership, error) {
	return r.query(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
}

// Create はプランを作成する。
func (r *PostgresMembershipRepo) Create(ctx context.Context, m *model.Membership) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO memberships (id, name, price, duration_days, type, description, benefits,
		                          is_active, user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID, m.Name, m.Price, m.DurationDays, string(m.Type), m.Description,
		pq.Array(nonNilStrings(m.Benefits)), m.IsActive, nullString(m.UserID), m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("会員プランの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はプランを更新する。
func (r *PostgresMembershipRepo) Update(ctx context.Context, m *model.Membership) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE memberships SET name = $2, price = $3, duration_days = $4, type = $5,
		        description = $6, benefits = $7, is_active = $8, user_id = $9, updated_at = $10
		 WHERE id = $1`,
		m.ID, m.Name, m.Price, m.DurationDays, string(m.Type), m.Description,
		pq.Array(nonNilStrings(m.Benefits)), m.IsActive, nullString(m.UserID), m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("会員プランの更新に失敗しました: %w", err)
	}
	return checkRowsAffected(result, "membership", m.ID)
}

// DeleteByID は指定IDのプランを削除する。参照する予約のmembership_idはNULLになる。
func (r *PostgresMembershipRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM memberships WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("会員プランの削除に失敗しました: %w", err)
	}
	return checkRowsAffected(result, "membership", id)
}

// compile-time interface check
var _ MembershipRepository = (*PostgresMembershipRepo)(nil)
