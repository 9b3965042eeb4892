package model

import "time"

// Class はジムのクラス（グループレッスン）を表す。
// 曜日指定の定期クラスと日付指定の単発クラスの両方を表現できるため、
// DayOfWeekとDateの少なくとも一方が設定される。
type Class struct {
	ID          string
	Name        string
	Description string
	DayOfWeek   *Weekday
	Date        *time.Time
	StartTime   string // HH:MM
	EndTime     string // HH:MM
	Capacity    int
	TrainerID   *string
	Equipment   []string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DefaultClassCapacity はCapacity未指定時の定員。
const DefaultClassCapacity = 20

// Weekday はクラスの開催曜日を表す。
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

var weekdays = map[Weekday]time.Weekday{
	Sunday:    time.Sunday,
	Monday:    time.Monday,
	Tuesday:   time.Tuesday,
	Wednesday: time.Wednesday,
	Thursday:  time.Thursday,
	Friday:    time.Friday,
	Saturday:  time.Saturday,
}

// Valid は曜日が定義済みの値かどうかを返す。
func (w Weekday) Valid() bool {
	_, ok := weekdays[w]
	return ok
}

// NextOccurrence はfrom以降（当日を含む）で最初にこの曜日となる日付を返す。
func (w Weekday) NextOccurrence(from time.Time) time.Time {
	target := weekdays[w]
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	diff := (int(target) - int(day.Weekday()) + 7) % 7
	return day.AddDate(0, 0, diff)
}

// WeekdayOf はtの曜日を返す。
func WeekdayOf(t time.Time) Weekday {
	for w, d := range weekdays {
		if d == t.Weekday() {
			return w
		}
	}
	return ""
}
