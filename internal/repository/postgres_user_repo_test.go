package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/hitoshi/gymman/internal/model"
)

var userRowColumns = []string{"id", "email", "name", "phone", "address", "profile_image", "date_of_birth",
	"password_hash", "role", "is_active", "email_verified", "refresh_token", "refresh_token_expires_at",
	"created_at", "updated_at"}

func TestPostgresUserRepo_FindByEmail_ScansRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresUserRepo(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			"user-1", "a@x.com", "Alice", "", "", "", nil,
			"hash", "trainer", true, false, "refresh-token", now,
			now, now,
		))

	user, err := repo.FindByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("FindByEmail returned error: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.Role != model.RoleTrainer {
		t.Errorf("Role = %q, want %q", user.Role, model.RoleTrainer)
	}
	if user.DateOfBirth != nil {
		t.Errorf("DateOfBirth = %v, want nil", user.DateOfBirth)
	}
	if user.RefreshToken == nil || *user.RefreshToken != "refresh-token" {
		t.Errorf("RefreshToken = %v, want refresh-token", user.RefreshToken)
	}
}

func TestPostgresUserRepo_FindByID_NotFoundReturnsNil(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	user, err := repo.FindByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil user, got %+v", user)
	}
}

func TestPostgresUserRepo_Create_UniqueViolationReturnsErrEmailTaken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), &model.User{ID: "u1", Email: "a@x.com", Role: model.RoleMember})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestPostgresUserRepo_Update_UniqueViolationReturnsErrEmailTaken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET email")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Update(context.Background(), &model.User{ID: "u1", Email: "taken@x.com"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestPostgresUserRepo_SetRefreshToken_NilClearsToken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token = $2")).
		WithArgs("u1", nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetRefreshToken(context.Background(), "u1", nil, nil); err != nil {
		t.Fatalf("SetRefreshToken returned error: %v", err)
	}
}

func TestPostgresUserRepo_DeleteByID_NoRowsReturnsErrNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
