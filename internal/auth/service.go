// Package auth はパスワード認証、JWTの発行・検証、リフレッシュトークン管理を提供する。
package auth

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
	"github.com/hitoshi/gymman/internal/validation"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	BcryptCost int // パスワードハッシュのコスト
}

// RegisterInput はユーザー登録の入力。Roleが空の場合はmemberになる。
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// LoginResult はログイン成功時に発行されるトークンとユーザー。
type LoginResult struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
	User             *model.User
}

// LoginRecorder はログイン試行の結果を記録する。
type LoginRecorder interface {
	RecordLogin(success bool)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	tokens   *TokenIssuer
	config   ServiceConfig
	recorder LoginRecorder
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, tokens *TokenIssuer, config ServiceConfig) *Service {
	return &Service{
		userRepo: userRepo,
		tokens:   tokens,
		config:   config,
	}
}

// SetLoginRecorder はログイン試行の記録先を設定する。
func (s *Service) SetLoginRecorder(r LoginRecorder) {
	s.recorder = r
}

// Register はユーザーを登録する。
// メールアドレスは小文字化して保存し、既に存在する場合はConflictを返す。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := model.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)

	if !validation.Email(email) {
		return nil, model.NewValidationError("email", "メールアドレスの形式が正しくありません。")
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, model.NewValidationError("name", "名前は必須です。")
	}

	role := model.DefaultRole
	if in.Role != "" {
		r, ok := model.ParseRole(in.Role)
		if !ok {
			return nil, model.NewValidationError("role", "ロールが不正です。")
		}
		role = r
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	hash, err := HashPassword(in.Password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// 存在確認と挿入の間に同じメールアドレスが登録された場合
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// Login はメールアドレスとパスワードを検証し、アクセストークンとリフレッシュトークンを発行する。
// 未登録・無効化済み・パスワード不一致はいずれも同じエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !user.IsActive || !CheckPassword(user.PasswordHash, password) {
		s.recordLogin(false)
		return nil, model.NewInvalidCredentialsError()
	}

	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, err
	}
	refresh, expiresAt, err := s.tokens.IssueRefresh(user)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.SetRefreshToken(ctx, user.ID, &refresh, &expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	user.RefreshToken = &refresh
	user.RefreshTokenExpiresAt = &expiresAt

	s.recordLogin(true)
	slog.Info("user logged in", slog.String("user_id", user.ID))

	return &LoginResult{
		AccessToken:      access,
		RefreshToken:     refresh,
		RefreshExpiresAt: expiresAt,
		User:             user,
	}, nil
}

// Refresh はリフレッシュトークンを検証し、新しいアクセストークンを発行する。
// トークンはユーザーに保存されている値と一致しなければならない。
func (s *Service) Refresh(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", model.NewUnauthorizedError("リフレッシュトークンがありません。")
	}

	claims, err := s.tokens.ParseRefresh(token)
	if err != nil {
		return "", model.NewInvalidTokenError()
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !user.IsActive || user.RefreshToken == nil || *user.RefreshToken != token {
		return "", model.NewInvalidTokenError()
	}

	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return "", err
	}
	return access, nil
}

// Logout はユーザーの保存済みリフレッシュトークンを消去する。
func (s *Service) Logout(ctx context.Context, userID string) error {
	if userID == "" {
		return model.NewUnauthorizedError("認証が必要です。")
	}

	if err := s.userRepo.SetRefreshToken(ctx, userID, nil, nil); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError("ユーザー", userID)
		}
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}

	slog.Info("user logged out", slog.String("user_id", userID))
	return nil
}

// VerifyAccessToken はアクセストークンを検証してリクエスト主体を返す。
func (s *Service) VerifyAccessToken(token string) (model.Identity, error) {
	claims, err := s.tokens.ParseAccess(token)
	if err != nil {
		return model.Identity{}, err
	}
	return claims.Identity(), nil
}

func (s *Service) recordLogin(success bool) {
	if s.recorder != nil {
		s.recorder.RecordLogin(success)
	}
}
