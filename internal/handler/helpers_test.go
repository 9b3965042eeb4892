package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/gymman/internal/auth"
	"github.com/hitoshi/gymman/internal/booking"
	"github.com/hitoshi/gymman/internal/class"
	"github.com/hitoshi/gymman/internal/membership"
	"github.com/hitoshi/gymman/internal/middleware"
	"github.com/hitoshi/gymman/internal/model"
	"github.com/hitoshi/gymman/internal/progress"
	"github.com/hitoshi/gymman/internal/routine"
	"github.com/hitoshi/gymman/internal/user"
)

const (
	testUserID  = "11111111-1111-1111-1111-111111111111"
	testClassID = "22222222-2222-2222-2222-222222222222"
	testOtherID = "33333333-3333-3333-3333-333333333333"
)

// withChiURLParam はchiのURLパラメータをリクエストコンテキストに設定するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// withIdentity はリクエストコンテキストに認証済みの主体を設定するヘルパー。
func withIdentity(r *http.Request, role model.Role) *http.Request {
	return r.WithContext(middleware.ContextWithIdentity(r.Context(), model.Identity{
		UserID: testUserID,
		Email:  "member@example.com",
		Role:   role,
	}))
}

// parseAPIErrorResponse はレスポンスボディからエラーレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var result middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// --- モック定義 ---

type mockAuthService struct {
	registerFn func(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	loginFn    func(ctx context.Context, email, password string) (*auth.LoginResult, error)
	refreshFn  func(ctx context.Context, token string) (string, error)
	logoutFn   func(ctx context.Context, userID string) error
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return &model.User{ID: testUserID, Email: in.Email, Name: in.Name, Role: model.RoleMember}, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, model.NewInvalidCredentialsError()
}

func (m *mockAuthService) Refresh(ctx context.Context, token string) (string, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, token)
	}
	return "", model.NewInvalidTokenError()
}

func (m *mockAuthService) Logout(ctx context.Context, userID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, userID)
	}
	return nil
}

type mockUserService struct {
	listFn          func(ctx context.Context) ([]*model.User, error)
	getFn           func(ctx context.Context, id string) (*model.User, error)
	updateFn        func(ctx context.Context, id string, in user.AdminUpdateInput) (*model.User, error)
	updateProfileFn func(ctx context.Context, actor model.Identity, in user.ProfileInput) (*model.User, error)
	removeFn        func(ctx context.Context, id string) error
}

func (m *mockUserService) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserService) Get(ctx context.Context, id string) (*model.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewNotFoundError("ユーザー", id)
}

func (m *mockUserService) Me(ctx context.Context, actor model.Identity) (*model.User, error) {
	return &model.User{ID: actor.UserID, Email: actor.Email, Role: actor.Role}, nil
}

func (m *mockUserService) Update(ctx context.Context, id string, in user.AdminUpdateInput) (*model.User, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return &model.User{ID: id}, nil
}

func (m *mockUserService) UpdateProfile(ctx context.Context, actor model.Identity, in user.ProfileInput) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, actor, in)
	}
	return &model.User{ID: actor.UserID}, nil
}

func (m *mockUserService) Remove(ctx context.Context, id string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, id)
	}
	return nil
}

type mockClassService struct {
	createFn  func(ctx context.Context, in class.CreateInput) (*model.Class, error)
	findAllFn func(ctx context.Context) ([]*model.Class, error)
	findOneFn func(ctx context.Context, id string) (*model.Class, error)
	updateFn  func(ctx context.Context, id string, in class.UpdateInput) (*model.Class, error)
	removeFn  func(ctx context.Context, id string) error
}

func (m *mockClassService) Create(ctx context.Context, in class.CreateInput) (*model.Class, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return &model.Class{ID: testClassID, Name: in.Name}, nil
}

func (m *mockClassService) FindAll(ctx context.Context) ([]*model.Class, error) {
	if m.findAllFn != nil {
		return m.findAllFn(ctx)
	}
	return nil, nil
}

func (m *mockClassService) FindOne(ctx context.Context, id string) (*model.Class, error) {
	if m.findOneFn != nil {
		return m.findOneFn(ctx, id)
	}
	return nil, model.NewNotFoundError("クラス", id)
}

func (m *mockClassService) Update(ctx context.Context, id string, in class.UpdateInput) (*model.Class, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return &model.Class{ID: id}, nil
}

func (m *mockClassService) Remove(ctx context.Context, id string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, id)
	}
	return nil
}

type mockMembershipService struct {
	createFn func(ctx context.Context, in membership.CreateInput) (*model.Membership, error)
	updateFn func(ctx context.Context, id string, in membership.UpdateInput) (*model.Membership, error)
}

func (m *mockMembershipService) Create(ctx context.Context, in membership.CreateInput) (*model.Membership, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return &model.Membership{ID: testOtherID, Name: in.Name, Price: in.Price}, nil
}

func (m *mockMembershipService) FindAll(ctx context.Context) ([]*model.Membership, error) {
	return nil, nil
}

func (m *mockMembershipService) FindOne(ctx context.Context, id string) (*model.Membership, error) {
	return nil, model.NewNotFoundError("会員プラン", id)
}

func (m *mockMembershipService) ListByUser(ctx context.Context, userID string) ([]*model.Membership, error) {
	return nil, nil
}

func (m *mockMembershipService) Update(ctx context.Context, id string, in membership.UpdateInput) (*model.Membership, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return &model.Membership{ID: id}, nil
}

func (m *mockMembershipService) Remove(ctx context.Context, id string) error {
	return nil
}

type mockBookingService struct {
	reserveFn     func(ctx context.Context, actor model.Identity, in booking.ReserveInput) (*model.Booking, error)
	cancelFn      func(ctx context.Context, actor model.Identity, id string) (*model.Booking, error)
	listByClassFn func(ctx context.Context, classID string) ([]*model.Booking, error)
	listByUserFn  func(ctx context.Context, userID string) ([]*model.Booking, error)
	removeFn      func(ctx context.Context, id string) error
}

func (m *mockBookingService) Reserve(ctx context.Context, actor model.Identity, in booking.ReserveInput) (*model.Booking, error) {
	if m.reserveFn != nil {
		return m.reserveFn(ctx, actor, in)
	}
	return &model.Booking{ID: testOtherID, UserID: actor.UserID, ClassID: in.ClassID}, nil
}

func (m *mockBookingService) Cancel(ctx context.Context, actor model.Identity, id string) (*model.Booking, error) {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, actor, id)
	}
	return &model.Booking{ID: id, UserID: actor.UserID, IsCancelled: true}, nil
}

func (m *mockBookingService) MarkAttended(ctx context.Context, id string) (*model.Booking, error) {
	return &model.Booking{ID: id, HasAttended: true}, nil
}

func (m *mockBookingService) FindAll(ctx context.Context) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingService) FindOne(ctx context.Context, actor model.Identity, id string) (*model.Booking, error) {
	return nil, model.NewNotFoundError("予約", id)
}

func (m *mockBookingService) ListByUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockBookingService) ListByClass(ctx context.Context, classID string) ([]*model.Booking, error) {
	if m.listByClassFn != nil {
		return m.listByClassFn(ctx, classID)
	}
	return nil, nil
}

func (m *mockBookingService) Update(ctx context.Context, id string, in booking.UpdateInput) (*model.Booking, error) {
	return &model.Booking{ID: id}, nil
}

func (m *mockBookingService) Remove(ctx context.Context, id string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, id)
	}
	return nil
}

type mockRoutineService struct {
	createFn         func(ctx context.Context, actor model.Identity, in routine.CreateInput) (*model.Routine, error)
	findOneFn        func(ctx context.Context, actor model.Identity, id string) (*model.Routine, error)
	addExerciseFn    func(ctx context.Context, actor model.Identity, routineID string, in routine.ExerciseInput) (*model.Exercise, error)
	removeExerciseFn func(ctx context.Context, actor model.Identity, routineID, exerciseID string) error
}

func (m *mockRoutineService) Create(ctx context.Context, actor model.Identity, in routine.CreateInput) (*model.Routine, error) {
	if m.createFn != nil {
		return m.createFn(ctx, actor, in)
	}
	return &model.Routine{ID: testOtherID, UserID: actor.UserID, Name: in.Name}, nil
}

func (m *mockRoutineService) FindAll(ctx context.Context) ([]*model.Routine, error) {
	return nil, nil
}

func (m *mockRoutineService) ListByUser(ctx context.Context, userID string) ([]*model.Routine, error) {
	return nil, nil
}

func (m *mockRoutineService) FindOne(ctx context.Context, actor model.Identity, id string) (*model.Routine, error) {
	if m.findOneFn != nil {
		return m.findOneFn(ctx, actor, id)
	}
	return nil, model.NewNotFoundError("ルーティン", id)
}

func (m *mockRoutineService) Update(ctx context.Context, actor model.Identity, id string, in routine.UpdateInput) (*model.Routine, error) {
	return &model.Routine{ID: id, UserID: actor.UserID}, nil
}

func (m *mockRoutineService) Remove(ctx context.Context, actor model.Identity, id string) error {
	return nil
}

func (m *mockRoutineService) AddExercise(ctx context.Context, actor model.Identity, routineID string, in routine.ExerciseInput) (*model.Exercise, error) {
	if m.addExerciseFn != nil {
		return m.addExerciseFn(ctx, actor, routineID, in)
	}
	return &model.Exercise{ID: testOtherID, RoutineID: routineID, Name: in.Name}, nil
}

func (m *mockRoutineService) RemoveExercise(ctx context.Context, actor model.Identity, routineID, exerciseID string) error {
	if m.removeExerciseFn != nil {
		return m.removeExerciseFn(ctx, actor, routineID, exerciseID)
	}
	return nil
}

type mockProgressService struct {
	createFn         func(ctx context.Context, actor model.Identity, in progress.CreateInput) (*model.Progress, error)
	listByExerciseFn func(ctx context.Context, actor model.Identity, exerciseID string) ([]*model.Progress, error)
	updateFn         func(ctx context.Context, actor model.Identity, id string, in progress.UpdateInput) (*model.Progress, error)
}

func (m *mockProgressService) Create(ctx context.Context, actor model.Identity, in progress.CreateInput) (*model.Progress, error) {
	if m.createFn != nil {
		return m.createFn(ctx, actor, in)
	}
	return &model.Progress{ID: testOtherID, UserID: actor.UserID}, nil
}

func (m *mockProgressService) FindAll(ctx context.Context) ([]*model.Progress, error) {
	return nil, nil
}

func (m *mockProgressService) ListByUser(ctx context.Context, userID string) ([]*model.Progress, error) {
	return nil, nil
}

func (m *mockProgressService) ListByExercise(ctx context.Context, actor model.Identity, exerciseID string) ([]*model.Progress, error) {
	if m.listByExerciseFn != nil {
		return m.listByExerciseFn(ctx, actor, exerciseID)
	}
	return nil, nil
}

func (m *mockProgressService) FindOne(ctx context.Context, actor model.Identity, id string) (*model.Progress, error) {
	return nil, model.NewNotFoundError("進捗記録", id)
}

func (m *mockProgressService) Update(ctx context.Context, actor model.Identity, id string, in progress.UpdateInput) (*model.Progress, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, actor, id, in)
	}
	return &model.Progress{ID: id, UserID: actor.UserID}, nil
}

func (m *mockProgressService) Remove(ctx context.Context, actor model.Identity, id string) error {
	return nil
}
