// Package repository implements the data access layer for the application.
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrConflict reports a write rejected by a unique constraint.
var ErrConflict = errors.New("unique constraint violation")

const pgUniqueViolation = "23505"

// isUniqueViolation recognizes duplicate-key failures whether or not GORM's
// error translation is enabled on the connection.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// notFound reports a missing row.
func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
