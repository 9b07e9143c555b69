package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrCommentDeleted is returned when a write targets a soft-deleted comment.
var ErrCommentDeleted = errors.New("comment is deleted")

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsForeignKeyViolation reports whether err is a foreign-key failure, which
// means the referenced row does not exist.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return pgCode(err) == pgForeignKeyViolation ||
		strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// IsUniqueViolation reports whether err is a unique or primary-key conflict.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return pgCode(err) == pgUniqueViolation ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
