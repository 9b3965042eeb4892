// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// User はジムの利用者・スタッフを表す。
// PasswordHashとRefreshTokenはAPIレスポンスに含めない。
type User struct {
	ID                    string
	Email                 string
	Name                  string
	Phone                 string
	Address               string
	ProfileImage          string
	DateOfBirth           *time.Time
	PasswordHash          string
	Role                  Role
	IsActive              bool
	EmailVerified         bool
	RefreshToken          *string
	RefreshTokenExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Role はユーザーの権限レベルを表す。
type Role string

const (
	// RoleAdmin は全操作が可能な管理者。
	RoleAdmin Role = "admin"
	// RoleTrainer はクラスを担当するトレーナー。
	RoleTrainer Role = "trainer"
	// RoleMember は一般会員。最も低い権限。
	RoleMember Role = "member"
	// RoleReceptionist は受付スタッフ。
	RoleReceptionist Role = "receptionist"
)

// DefaultRole は登録時にロール未指定の場合に割り当てるロール。
const DefaultRole = RoleMember

// StaffRoles は他ユーザーのデータを参照できるスタッフロールの一覧。
var StaffRoles = []Role{RoleAdmin, RoleTrainer, RoleReceptionist}

// legacyRoles は旧ラベル（ADMIN/TEACHER/STUDENT）から正規ロールへの対応表。
var legacyRoles = map[string]Role{
	"teacher": RoleTrainer,
	"student": RoleMember,
}

// ParseRole は入力文字列を正規ロールに変換する。
// 大文字小文字を区別せず、旧ラベルも受け付ける。
func ParseRole(s string) (Role, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch Role(v) {
	case RoleAdmin, RoleTrainer, RoleMember, RoleReceptionist:
		return Role(v), true
	}
	if r, ok := legacyRoles[v]; ok {
		return r, true
	}
	return "", false
}

// IsStaff はロールがスタッフロールかどうかを返す。
func (r Role) IsStaff() bool {
	for _, s := range StaffRoles {
		if r == s {
			return true
		}
	}
	return false
}

// NormalizeEmail はメールアドレスを前後の空白を除去して小文字化する。
// usersテーブルへの書き込み前に必ず通す。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Identity はアクセストークンから復元したリクエスト主体を表す。
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

// CanAccess は主体がownerIDのリソースにアクセスできるかを返す。
// 本人またはスタッフロールであれば許可する。
func (i Identity) CanAccess(ownerID string) bool {
	return i.UserID == ownerID || i.Role.IsStaff()
}
