package model

import "time"

// Routine はユーザーのトレーニングルーティンを表す。
type Routine struct {
	ID          string
	UserID      string
	Name        string
	Description string
	Difficulty  Difficulty
	Goals       string
	Notes       string
	IsActive    bool
	Exercises   []Exercise
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Difficulty はルーティンの難易度を表す。
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Valid は難易度が定義済みの値かどうかを返す。
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Exercise はルーティンに含まれる種目を表す。
type Exercise struct {
	ID              string
	RoutineID       string
	Name            string
	Sets            int
	Reps            int
	RestTime        *int // 秒
	Description     string
	Notes           string
	MeasurementType MeasurementType
	CreatedAt       time.Time
}

// MeasurementType は種目の記録単位を表す。
type MeasurementType string

const (
	MeasurementWeight MeasurementType = "weight"
	MeasurementReps   MeasurementType = "reps"
	MeasurementTime   MeasurementType = "time"
)

// DefaultMeasurementType は記録単位未指定時の値。exercises.measurement_typeの列デフォルトと揃える。
const DefaultMeasurementType = MeasurementReps

// Valid は記録単位が定義済みの値かどうかを返す。
func (m MeasurementType) Valid() bool {
	switch m {
	case MeasurementWeight, MeasurementReps, MeasurementTime:
		return true
	}
	return false
}
