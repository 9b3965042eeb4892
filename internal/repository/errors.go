package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// リポジトリが返すセンチネルエラー。サービス層でerrors.Isにより判定する。
var (
	// ErrNotFound は更新・削除対象の行が存在しないことを示す。
	ErrNotFound = errors.New("record not found")
	// ErrEmailTaken はusers.emailのユニーク制約違反を示す。
	ErrEmailTaken = errors.New("email already exists")
	// ErrClassFull はクラスの有効な予約数が定員に達していることを示す。
	ErrClassFull = errors.New("class is full")
	// ErrDuplicateBooking は同一ユーザー・同一クラスの有効な予約が既に存在することを示す。
	ErrDuplicateBooking = errors.New("duplicate active booking")
)

// PostgreSQLのunique_violationエラーコード。
const uniqueViolation = "23505"

// isUniqueViolation はerrがユニーク制約違反かどうかを返す。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// checkRowsAffected は更新・削除が1行以上に作用したことを確認する。
func checkRowsAffected(result sql.Result, what, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}
