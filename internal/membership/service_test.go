package membership

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/gymman/internal/model"
	"github.com/hitoshi/gymman/internal/security"
)

// --- モック ---

type mockMembershipRepo struct {
	findByIDFn     func(ctx context.Context, id string) (*model.Membership, error)
	listByUserIDFn func(ctx context.Context, userID string) ([]*model.Membership, error)
	createFn       func(ctx context.Context, m *model.Membership) error
	updateFn       func(ctx context.Context, m *model.Membership) error
	deleteByIDFn   func(ctx context.Context, id string) error
}

func (r *mockMembershipRepo) FindByID(ctx context.Context, id string) (*model.Membership, error) {
	if r.findByIDFn != nil {
		return r.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (r *mockMembershipRepo) List(context.Context) ([]*model.Membership, error) { return nil, nil }
func (r *mockMembershipRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Membership, error) {
	if r.listByUserIDFn != nil {
		return r.listByUserIDFn(ctx, userID)
	}
	return nil, nil
}
func (r *mockMembershipRepo) Create(ctx context.Context, m *model.Membership) error {
	if r.createFn != nil {
		return r.createFn(ctx, m)
	}
	return nil
}
func (r *mockMembershipRepo) Update(ctx context.Context, m *model.Membership) error {
	if r.updateFn != nil {
		return r.updateFn(ctx, m)
	}
	return nil
}
func (r *mockMembershipRepo) DeleteByID(ctx context.Context, id string) error {
	if r.deleteByIDFn != nil {
		return r.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockUserRepo struct {
	users map[string]*model.User
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	return m.users[id], nil
}
func (m *mockUserRepo) FindByEmail(context.Context, string) (*model.User, error) { return nil, nil }
func (m *mockUserRepo) List(context.Context) ([]*model.User, error)              { return nil, nil }
func (m *mockUserRepo) Create(context.Context, *model.User) error                { return nil }
func (m *mockUserRepo) Update(context.Context, *model.User) error                { return nil }
func (m *mockUserRepo) SetRefreshToken(context.Context, string, *string, *time.Time) error {
	return nil
}
func (m *mockUserRepo) DeleteByID(context.Context, string) error { return nil }

// --- ヘルパー ---

const ownerID = "7a000000-0000-4000-8000-000000000001"

func strPtr(s string) *string { return &s }

func newTestService(repo *mockMembershipRepo) *Service {
	users := &mockUserRepo{users: map[string]*model.User{ownerID: {ID: ownerID}}}
	return NewService(repo, users, security.NewTextSanitizer())
}

func validInput() CreateInput {
	return CreateInput{
		Name:         "Monthly",
		Price:        decimal.RequireFromString("49.99"),
		DurationDays: 30,
		Type:         "MONTHLY",
	}
}

func assertAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T: %v", err, err)
	}
	if apiErr.Status != status || apiErr.Code != code {
		t.Errorf("APIError = %d %s, want %d %s", apiErr.Status, apiErr.Code, status, code)
	}
}

// --- テスト ---

func TestCreate_NormalizesTypeAndRoundsPrice(t *testing.T) {
	svc := newTestService(&mockMembershipRepo{})

	in := validInput()
	in.Price = decimal.RequireFromString("19.999")
	in.Benefits = []string{"Sauna", "<b>Pool</b>"}
	m, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if m.Type != model.MembershipMonthly {
		t.Errorf("Type = %q, want monthly", m.Type)
	}
	if !m.Price.Equal(decimal.RequireFromString("20.00")) {
		t.Errorf("Price = %s, want 20.00", m.Price)
	}
	if len(m.Benefits) != 2 || m.Benefits[1] != "Pool" {
		t.Errorf("Benefits = %v", m.Benefits)
	}
	if !m.IsActive {
		t.Error("new membership should be active by default")
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *CreateInput)
	}{
		{"名前なし", func(in *CreateInput) { in.Name = " " }},
		{"価格0", func(in *CreateInput) { in.Price = decimal.Zero }},
		{"負の価格", func(in *CreateInput) { in.Price = decimal.NewFromInt(-5) }},
		{"価格上限超過", func(in *CreateInput) { in.Price = decimal.NewFromInt(100000000) }},
		{"有効日数0", func(in *CreateInput) { in.DurationDays = 0 }},
		{"不正な種別", func(in *CreateInput) { in.Type = "weekly" }},
		{"不正なユーザーID", func(in *CreateInput) { in.UserID = strPtr("abc") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&mockMembershipRepo{})
			in := validInput()
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), in)
			assertAPIError(t, err, http.StatusBadRequest, model.ErrCodeValidation)
		})
	}
}

func TestCreate_UnknownOwner(t *testing.T) {
	svc := newTestService(&mockMembershipRepo{})

	in := validInput()
	in.UserID = strPtr("7a000000-0000-4000-8000-00000000ffff")
	_, err := svc.Create(context.Background(), in)
	assertAPIError(t, err, http.StatusNotFound, model.ErrCodeNotFound)
}

func TestUpdate_PartialMerge(t *testing.T) {
	existing := &model.Membership{
		ID: "m1", Name: "Yearly", Price: decimal.RequireFromString("499.00"),
		DurationDays: 365, Type: model.MembershipYearly, Benefits: []string{"Pool"},
		IsActive: true, UserID: strPtr(ownerID),
	}
	var saved *model.Membership
	svc := newTestService(&mockMembershipRepo{
		findByIDFn: func(context.Context, string) (*model.Membership, error) {
			cp := *existing
			return &cp, nil
		},
		updateFn: func(_ context.Context, m *model.Membership) error {
			saved = m
			return nil
		},
	})

	price := decimal.RequireFromString("450")
	_, err := svc.Update(context.Background(), "m1", UpdateInput{Price: &price, UserID: strPtr("")})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if !saved.Price.Equal(price) {
		t.Errorf("Price = %s, want 450", saved.Price)
	}
	if saved.UserID != nil {
		t.Errorf("UserID = %v, want nil after unlinking", saved.UserID)
	}
	if saved.Name != "Yearly" || saved.DurationDays != 365 || len(saved.Benefits) != 1 {
		t.Errorf("unspecified fields changed: %+v", saved)
	}
}

func TestFindOne_NotFound(t *testing.T) {
	svc := newTestService(&mockMembershipRepo{})

	_, err := svc.FindOne(context.Background(), "missing")
	assertAPIError(t, err, http.StatusNotFound, model.ErrCodeNotFound)
}

func TestListByUser_PassesUserID(t *testing.T) {
	var gotUserID string
	svc := newTestService(&mockMembershipRepo{
		listByUserIDFn: func(_ context.Context, userID string) ([]*model.Membership, error) {
			gotUserID = userID
			return []*model.Membership{{ID: "m1"}}, nil
		},
	})

	list, err := svc.ListByUser(context.Background(), ownerID)
	if err != nil {
		t.Fatalf("ListByUser returned error: %v", err)
	}
	if gotUserID != ownerID || len(list) != 1 {
		t.Errorf("userID = %q, len = %d", gotUserID, len(list))
	}
}

func TestRemove_NotFound(t *testing.T) {
	svc := newTestService(&mockMembershipRepo{})

	err := svc.Remove(context.Background(), "missing")
	assertAPIError(t, err, http.StatusNotFound, model.ErrCodeNotFound)
}
