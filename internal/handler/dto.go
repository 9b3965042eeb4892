package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/gymman/internal/model"
)

// dateLayout はAPIで扱う日付のフォーマット。
const dateLayout = "2006-01-02"

// userResponse はユーザー情報のレスポンス。パスワードハッシュとリフレッシュトークンは含めない。
type userResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone,omitempty"`
	Address       string    `json:"address,omitempty"`
	ProfileImage  string    `json:"profileImage,omitempty"`
	DateOfBirth   *string   `json:"dateOfBirth,omitempty"`
	Role          string    `json:"role"`
	IsActive      bool      `json:"isActive"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Phone:         u.Phone,
		Address:       u.Address,
		ProfileImage:  u.ProfileImage,
		DateOfBirth:   formatDatePtr(u.DateOfBirth),
		Role:          string(u.Role),
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

type classResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	DayOfWeek   *string   `json:"dayOfWeek,omitempty"`
	Date        *string   `json:"date,omitempty"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	Capacity    int       `json:"maxParticipants"`
	TrainerID   *string   `json:"trainerId,omitempty"`
	Equipment   []string  `json:"equipment"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toClassResponse(c *model.Class) classResponse {
	resp := classResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Date:        formatDatePtr(c.Date),
		StartTime:   c.StartTime,
		EndTime:     c.EndTime,
		Capacity:    c.Capacity,
		TrainerID:   c.TrainerID,
		Equipment:   nonNil(c.Equipment),
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.DayOfWeek != nil {
		d := string(*c.DayOfWeek)
		resp.DayOfWeek = &d
	}
	return resp
}

type membershipResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	DurationDays int             `json:"durationDays"`
	Type         string          `json:"type"`
	Description  string          `json:"description,omitempty"`
	Benefits     []string        `json:"benefits"`
	IsActive     bool            `json:"isActive"`
	UserID       *string         `json:"userId,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func toMembershipResponse(m *model.Membership) membershipResponse {
	return membershipResponse{
		ID:           m.ID,
		Name:         m.Name,
		Price:        m.Price,
		DurationDays: m.DurationDays,
		Type:         string(m.Type),
		Description:  m.Description,
		Benefits:     nonNil(m.Benefits),
		IsActive:     m.IsActive,
		UserID:       m.UserID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type bookingResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	ClassID      string    `json:"classId"`
	MembershipID *string   `json:"membershipId,omitempty"`
	Date         string    `json:"date"`
	StartTime    string    `json:"startTime"`
	EndTime      string    `json:"endTime"`
	Notes        string    `json:"notes,omitempty"`
	IsCancelled  bool      `json:"isCancelled"`
	HasAttended  bool      `json:"hasAttended"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toBookingResponse(b *model.Booking) bookingResponse {
	return bookingResponse{
		ID:           b.ID,
		UserID:       b.UserID,
		ClassID:      b.ClassID,
		MembershipID: b.MembershipID,
		Date:         b.Date.Format(dateLayout),
		StartTime:    b.StartTime,
		EndTime:      b.EndTime,
		Notes:        b.Notes,
		IsCancelled:  b.IsCancelled,
		HasAttended:  b.HasAttended,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

type exerciseResponse struct {
	ID              string    `json:"id"`
	RoutineID       string    `json:"routineId"`
	Name            string    `json:"name"`
	Sets            int       `json:"sets"`
	Reps            int       `json:"reps"`
	RestTime        *int      `json:"restTime,omitempty"`
	Description     string    `json:"description,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	MeasurementType string    `json:"measurementType"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toExerciseResponse(e *model.Exercise) exerciseResponse {
	return exerciseResponse{
		ID:              e.ID,
		RoutineID:       e.RoutineID,
		Name:            e.Name,
		Sets:            e.Sets,
		Reps:            e.Reps,
		RestTime:        e.RestTime,
		Description:     e.Description,
		Notes:           e.Notes,
		MeasurementType: string(e.MeasurementType),
		CreatedAt:       e.CreatedAt,
	}
}

type routineResponse struct {
	ID          string             `json:"id"`
	UserID      string             `json:"userId"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Difficulty  string             `json:"difficulty"`
	Goals       string             `json:"goals,omitempty"`
	Notes       string             `json:"notes,omitempty"`
	IsActive    bool               `json:"isActive"`
	Exercises   []exerciseResponse `json:"exercises"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func toRoutineResponse(r *model.Routine) routineResponse {
	exercises := make([]exerciseResponse, 0, len(r.Exercises))
	for i := range r.Exercises {
		exercises = append(exercises, toExerciseResponse(&r.Exercises[i]))
	}
	return routineResponse{
		ID:          r.ID,
		UserID:      r.UserID,
		Name:        r.Name,
		Description: r.Description,
		Difficulty:  string(r.Difficulty),
		Goals:       r.Goals,
		Notes:       r.Notes,
		IsActive:    r.IsActive,
		Exercises:   exercises,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type progressResponse struct {
	ID                string             `json:"id"`
	UserID            string             `json:"userId"`
	ExerciseID        *string            `json:"exerciseId,omitempty"`
	Date              string             `json:"date"`
	Weight            *float64           `json:"weight,omitempty"`
	BodyFatPercentage *float64           `json:"bodyFatPercentage,omitempty"`
	MuscleMass        *float64           `json:"muscleMass,omitempty"`
	Measurements      map[string]float64 `json:"measurements"`
	Notes             string             `json:"notes,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
}

func toProgressResponse(p *model.Progress) progressResponse {
	measurements := p.Measurements
	if measurements == nil {
		measurements = map[string]float64{}
	}
	return progressResponse{
		ID:                p.ID,
		UserID:            p.UserID,
		ExerciseID:        p.ExerciseID,
		Date:              p.Date.Format(dateLayout),
		Weight:            p.Weight,
		BodyFatPercentage: p.BodyFatPercentage,
		MuscleMass:        p.MuscleMass,
		Measurements:      measurements,
		Notes:             p.Notes,
		CreatedAt:         p.CreatedAt,
	}
}

// mapSlice はモデルのスライスをレスポンスのスライスに変換する。空でもnullではなく[]を返す。
func mapSlice[M any, R any](items []*M, conv func(*M) R) []R {
	out := make([]R, 0, len(items))
	for _, it := range items {
		out = append(out, conv(it))
	}
	return out
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
