package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

var uniqueViolationMarkers = []string{
	"duplicate key value",
	"UNIQUE constraint failed",
	`"code":"` + uniqueViolationCode + `"`,
}

// IsUniqueViolation reports whether err, or any error it wraps, is a unique
// constraint violation. Postgres errors are matched by SQLSTATE; errors
// relayed as text (sqlite, the REST remote) by message. When constraintName
// is provided it must appear in the violation as well.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode &&
			(constraintName == "" || pgErr.ConstraintName == constraintName)
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		msg := e.Error()
		for _, marker := range uniqueViolationMarkers {
			if strings.Contains(msg, marker) {
				return constraintName == "" || strings.Contains(msg, constraintName)
			}
		}
	}
	return false
}
