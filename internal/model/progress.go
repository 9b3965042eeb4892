package model

import "time"

// Progress は体組成やトレーニング成果の記録を表す。
type Progress struct {
	ID                string
	UserID            string
	ExerciseID        *string
	Date              time.Time
	Weight            *float64
	BodyFatPercentage *float64
	MuscleMass        *float64
	Measurements      map[string]float64
	Notes             string
	CreatedAt         time.Time
}
