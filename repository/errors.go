package repository

import (
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrBlogNotFound is returned when no blog entry has the requested id
var ErrBlogNotFound = errors.New("Blog not found", errors.CategoryNotFound).
	WithTextCode("blog_not_found").
	WithCode(errors.CodeNotFound)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
