package progress

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/hitoshi/gymman/internal/model"
	"github.com/hitoshi/gymman/internal/security"
)

// --- モック ---

type mockProgressRepo struct {
	findByIDFn         func(ctx context.Context, id string) (*model.Progress, error)
	listByExerciseIDFn func(ctx context.Context, exerciseID string) ([]*model.Progress, error)
	createFn           func(ctx context.Context, p *model.Progress) error
	updateFn           func(ctx context.Context, p *model.Progress) error
	deleteByIDFn       func(ctx context.Context, id string) error
}

func (m *mockProgressRepo) FindByID(ctx context.Context, id string) (*model.Progress, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockProgressRepo) List(context.Context) ([]*model.Progress, error) { return nil, nil }
func (m *mockProgressRepo) ListByUserID(context.Context, string) ([]*model.Progress, error) {
	return nil, nil
}
func (m *mockProgressRepo) ListByExerciseID(ctx context.Context, exerciseID string) ([]*model.Progress, error) {
	if m.listByExerciseIDFn != nil {
		return m.listByExerciseIDFn(ctx, exerciseID)
	}
	return nil, nil
}
func (m *mockProgressRepo) Create(ctx context.Context, p *model.Progress) error {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	return nil
}
func (m *mockProgressRepo) Update(ctx context.Context, p *model.Progress) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, p)
	}
	return nil
}
func (m *mockProgressRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockExerciseRepo struct {
	exercises map[string]*model.Exercise
}

func (m *mockExerciseRepo) FindByID(_ context.Context, id string) (*model.Exercise, error) {
	return m.exercises[id], nil
}
func (m *mockExerciseRepo) ListByRoutineID(context.Context, string) ([]model.Exercise, error) {
	return nil, nil
}
func (m *mockExerciseRepo) Create(context.Context, *model.Exercise) error { return nil }
func (m *mockExerciseRepo) DeleteByID(context.Context, string) error      { return nil }

type mockUserFinder struct {
	users map[string]*model.User
}

func (m *mockUserFinder) FindByID(_ context.Context, id string) (*model.User, error) {
	return m.users[id], nil
}

// --- ヘルパー ---

const (
	progressID = "d0000000-0000-4000-8000-000000000001"
	exerciseID = "e0000000-0000-4000-8000-000000000001"
)

var (
	owner   = model.Identity{UserID: "a0000000-0000-4000-8000-000000000001", Role: model.RoleMember}
	other   = model.Identity{UserID: "a0000000-0000-4000-8000-000000000002", Role: model.RoleMember}
	recep   = model.Identity{UserID: "recep-1", Role: model.RoleReceptionist}
	trainer = model.Identity{UserID: "trainer-1", Role: model.RoleTrainer}
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func newTestService(repo *mockProgressRepo) *Service {
	exercises := &mockExerciseRepo{exercises: map[string]*model.Exercise{
		exerciseID: {ID: exerciseID, Name: "Bench"},
	}}
	users := &mockUserFinder{users: map[string]*model.User{
		owner.UserID: {ID: owner.UserID},
		other.UserID: {ID: other.UserID},
	}}
	svc := NewService(repo, exercises, users, security.NewTextSanitizer())
	svc.now = func() time.Time { return time.Date(2026, 3, 11, 21, 30, 0, 0, time.UTC) }
	return svc
}

func storedProgress() *model.Progress {
	return &model.Progress{
		ID: progressID, UserID: owner.UserID, Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Weight: floatPtr(70.5), Measurements: map[string]float64{"waist": 80}, Notes: "baseline",
	}
}

func repoWith(p *model.Progress) *mockProgressRepo {
	return &mockProgressRepo{findByIDFn: func(_ context.Context, id string) (*model.Progress, error) {
		if id != p.ID {
			return nil, nil
		}
		cp := *p
		return &cp, nil
	}}
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

func TestCreate_DefaultsToActorAndToday(t *testing.T) {
	var saved *model.Progress
	svc := newTestService(&mockProgressRepo{createFn: func(_ context.Context, p *model.Progress) error {
		saved = p
		return nil
	}})

	_, err := svc.Create(context.Background(), owner, CreateInput{
		ExerciseID:   strPtr(exerciseID),
		Weight:       floatPtr(71),
		Measurements: map[string]float64{" chest ": 100},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if saved.UserID != owner.UserID {
		t.Errorf("UserID = %q", saved.UserID)
	}
	if got := saved.Date.Format("2006-01-02"); got != "2026-03-11" {
		t.Errorf("Date = %s", got)
	}
	if saved.ExerciseID == nil || *saved.ExerciseID != exerciseID {
		t.Errorf("ExerciseID = %v", saved.ExerciseID)
	}
	if saved.Measurements["chest"] != 100 {
		t.Errorf("Measurements = %v", saved.Measurements)
	}
}

func TestCreate_OnBehalfOfAnotherUser(t *testing.T) {
	svc := newTestService(&mockProgressRepo{})

	_, err := svc.Create(context.Background(), other, CreateInput{UserID: strPtr(owner.UserID)})
	assertAPIError(t, err, http.StatusForbidden, model.ErrCodeNotOwner)

	p, err := svc.Create(context.Background(), recep, CreateInput{UserID: strPtr(owner.UserID)})
	if err != nil {
		t.Fatalf("staff Create returned error: %v", err)
	}
	if p.UserID != owner.UserID {
		t.Errorf("UserID = %q", p.UserID)
	}
}

func TestCreate_OnBehalfOfUnknownUser(t *testing.T) {
	svc := newTestService(&mockProgressRepo{createFn: func(context.Context, *model.Progress) error {
		t.Error("progress should not be saved for an invalid target user")
		return nil
	}})

	_, err := svc.Create(context.Background(), recep, CreateInput{UserID: strPtr("member-7")})
	assertAPIError(t, err, http.StatusBadRequest, model.ErrCodeValidation)

	_, err = svc.Create(context.Background(), trainer, CreateInput{UserID: strPtr("a0000000-0000-4000-8000-00000000ffff")})
	assertAPIError(t, err, http.StatusNotFound, model.ErrCodeNotFound)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		in     CreateInput
		status int
		code   string
	}{
		{"体脂肪率が100超", CreateInput{BodyFatPercentage: floatPtr(100.5)}, http.StatusBadRequest, model.ErrCodeValidation},
		{"体脂肪率が負", CreateInput{BodyFatPercentage: floatPtr(-1)}, http.StatusBadRequest, model.ErrCodeValidation},
		{"負の体重", CreateInput{Weight: floatPtr(-3)}, http.StatusBadRequest, model.ErrCodeValidation},
		{"体重が列の上限超", CreateInput{Weight: floatPtr(10000)}, http.StatusBadRequest, model.ErrCodeValidation},
		{"筋肉量が列の上限超", CreateInput{MuscleMass: floatPtr(12345.6)}, http.StatusBadRequest, model.ErrCodeValidation},
		{"日付形式不正", CreateInput{Date: strPtr("11/03/2026")}, http.StatusBadRequest, model.ErrCodeValidation},
		{"存在しない種目", CreateInput{ExerciseID: strPtr("e0000000-0000-4000-8000-00000000ffff")}, http.StatusNotFound, model.ErrCodeNotFound},
		{"UUIDでない種目", CreateInput{ExerciseID: strPtr("bench")}, http.StatusNotFound, model.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&mockProgressRepo{})
			_, err := svc.Create(context.Background(), owner, tt.in)
			assertAPIError(t, err, tt.status, tt.code)
		})
	}
}

func TestCreate_BodyFatBoundsAccepted(t *testing.T) {
	svc := newTestService(&mockProgressRepo{})
	for _, v := range []float64{0, 100} {
		if _, err := svc.Create(context.Background(), owner, CreateInput{BodyFatPercentage: floatPtr(v)}); err != nil {
			t.Errorf("body fat %v returned error: %v", v, err)
		}
	}
}

func TestUpdate_MergesOnlySuppliedFields(t *testing.T) {
	repo := repoWith(storedProgress())
	var saved *model.Progress
	repo.updateFn = func(_ context.Context, p *model.Progress) error {
		saved = p
		return nil
	}
	svc := newTestService(repo)

	_, err := svc.Update(context.Background(), owner, progressID, UpdateInput{MuscleMass: floatPtr(32)})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if saved.MuscleMass == nil || *saved.MuscleMass != 32 {
		t.Errorf("MuscleMass = %v", saved.MuscleMass)
	}
	if saved.Weight == nil || *saved.Weight != 70.5 || saved.Notes != "baseline" || saved.Measurements["waist"] != 80 {
		t.Errorf("unspecified fields changed: %+v", saved)
	}
}

func TestUpdate_Permissions(t *testing.T) {
	svc := newTestService(repoWith(storedProgress()))
	ctx := context.Background()

	_, err := svc.Update(ctx, other, progressID, UpdateInput{Notes: strPtr("x")})
	assertAPIError(t, err, http.StatusForbidden, model.ErrCodeNotOwner)

	_, err = svc.Update(ctx, recep, progressID, UpdateInput{Notes: strPtr("x")})
	assertAPIError(t, err, http.StatusForbidden, model.ErrCodeNotOwner)

	if _, err := svc.Update(ctx, trainer, progressID, UpdateInput{Notes: strPtr("x")}); err != nil {
		t.Errorf("trainer Update returned error: %v", err)
	}
}

func TestFindOne_OwnerOrStaff(t *testing.T) {
	svc := newTestService(repoWith(storedProgress()))
	ctx := context.Background()

	if _, err := svc.FindOne(ctx, owner, progressID); err != nil {
		t.Errorf("owner FindOne returned error: %v", err)
	}
	if _, err := svc.FindOne(ctx, recep, progressID); err != nil {
		t.Errorf("staff FindOne returned error: %v", err)
	}
	_, err := svc.FindOne(ctx, other, progressID)
	assertAPIError(t, err, http.StatusForbidden, model.ErrCodeNotOwner)

	_, err = svc.FindOne(ctx, owner, "d0000000-0000-4000-8000-00000000ffff")
	assertAPIError(t, err, http.StatusNotFound, model.ErrCodeNotFound)
}

func TestListByExercise_FiltersForMembers(t *testing.T) {
	repo := &mockProgressRepo{listByExerciseIDFn: func(context.Context, string) ([]*model.Progress, error) {
		return []*model.Progress{
			{ID: "p1", UserID: owner.UserID},
			{ID: "p2", UserID: other.UserID},
		}, nil
	}}
	svc := newTestService(repo)

	own, err := svc.ListByExercise(context.Background(), owner, exerciseID)
	if err != nil {
		t.Fatalf("ListByExercise returned error: %v", err)
	}
	if len(own) != 1 || own[0].ID != "p1" {
		t.Errorf("member list = %+v", own)
	}

	all, _ := svc.ListByExercise(context.Background(), trainer, exerciseID)
	if len(all) != 2 {
		t.Errorf("staff list length = %d, want 2", len(all))
	}
}

func TestRemove(t *testing.T) {
	repo := repoWith(storedProgress())
	deleted := ""
	repo.deleteByIDFn = func(_ context.Context, id string) error {
		deleted = id
		return nil
	}
	svc := newTestService(repo)

	err := svc.Remove(context.Background(), other, progressID)
	assertAPIError(t, err, http.StatusForbidden, model.ErrCodeNotOwner)

	if err := svc.Remove(context.Background(), owner, progressID); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if deleted != progressID {
		t.Errorf("deleted = %q", deleted)
	}
}
