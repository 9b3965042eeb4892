package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/gymman/internal/model"
)

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

const userColumns = `id, email, name, phone, address, profile_image, date_of_birth, password_hash,
	role, is_active, email_verified, refresh_token, refresh_token_expires_at, created_at, updated_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

func scanUser(s rowScanner) (*model.User, error) {
	user := &model.User{}
	var (
		role         string
		dob          sql.NullTime
		refreshToken sql.NullString
		refreshExp   sql.NullTime
	)
	err := s.Scan(&user.ID, &user.Email, &user.Name, &user.Phone, &user.Address, &user.ProfileImage,
		&dob, &user.PasswordHash, &role, &user.IsActive, &user.EmailVerified,
		&refreshToken, &refreshExp, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.Role = model.Role(role)
	user.DateOfBirth = timePtr(dob)
	user.RefreshToken = stringPtr(refreshToken)
	user.RefreshTokenExpiresAt = timePtr(refreshExp)
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail は正規化済みメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// List は全ユーザーを作成日時の昇順で返す。
func (r *PostgresUserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}
	return users, nil
}

// Create はユーザーを作成する。メールアドレスが重複する場合はErrEmailTakenを返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, phone, address, profile_image, date_of_birth, password_hash,
		                    role, is_active, email_verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		user.ID, user.Email, user.Name, user.Phone, user.Address, user.ProfileImage,
		nullTime(user.DateOfBirth), user.PasswordHash, string(user.Role), user.IsActive,
		user.EmailVerified, user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Update はユーザーのプロフィール・ロール・パスワードを更新する。
// リフレッシュトークンはSetRefreshTokenでのみ更新する。
func (r *PostgresUserRepo) Update(ctx context.Context, user *model.User) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = $2, name = $3, phone = $4, address = $5, profile_image = $6,
		        date_of_birth = $7, password_hash = $8, role = $9, is_active = $10,
		        email_verified = $11, updated_at = $12
		 WHERE id = $1`,
		user.ID, user.Email, user.Name, user.Phone, user.Address, user.ProfileImage,
		nullTime(user.DateOfBirth), user.PasswordHash, string(user.Role), user.IsActive,
		user.EmailVerified, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return checkRowsAffected(result, "user", user.ID)
}

// SetRefreshToken はユーザーのリフレッシュトークンを保存する。
// tokenにnilを渡すと保存済みトークンを消去する。
func (r *PostgresUserRepo) SetRefreshToken(ctx context.Context, userID string, token *string, expiresAt *time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token = $2, refresh_token_expires_at = $3, updated_at = NOW()
		 WHERE id = $1`,
		userID, nullString(token), nullTime(expiresAt),
	)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return checkRowsAffected(result, "user", userID)
}

// DeleteByID は指定IDのユーザーを削除する。
// 予約・ルーティン・進捗記録はCASCADE削除される。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return checkRowsAffected(result, "user", id)
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
