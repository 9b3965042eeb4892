package model

import "time"

// Booking はクラスへの予約を表す。
// キャンセルはIsCancelledフラグで表現し、定員・重複判定ではキャンセル済みを除外する。
type Booking struct {
	ID           string
	UserID       string
	ClassID      string
	MembershipID *string
	Date         time.Time
	StartTime    string
	EndTime      string
	Notes        string
	IsCancelled  bool
	HasAttended  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CancelMode は予約キャンセル時の挙動を表す。
type CancelMode string

const (
	// CancelModeSoft はIsCancelledフラグを立てて行を残す。
	CancelModeSoft CancelMode = "soft"
	// CancelModeHard は予約行を削除する。
	CancelModeHard CancelMode = "hard"
)
