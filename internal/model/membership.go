package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Membership は会員プランを表す。
type Membership struct {
	ID           string
	Name         string
	Price        decimal.Decimal
	DurationDays int
	Type         MembershipType
	Description  string
	Benefits     []string
	IsActive     bool
	UserID       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MembershipType は会員プランの種別を表す。
type MembershipType string

const (
	MembershipMonthly MembershipType = "monthly"
	MembershipYearly  MembershipType = "yearly"
	MembershipCustom  MembershipType = "custom"
)

// Valid はプラン種別が定義済みの値かどうかを返す。
func (t MembershipType) Valid() bool {
	switch t {
	case MembershipMonthly, MembershipYearly, MembershipCustom:
		return true
	}
	return false
}
