package db

import (
	"strings"

	pkgerrors "github.com/omanfreight/quote-service/pkg/errors"
)

// IsUniqueViolation reports whether err is a unique constraint violation on
// Postgres or SQLite. When constraintName is provided the constraint (or
// column list, on SQLite) must also appear in the error.
func IsUniqueViolation(err error, constraintName string) bool {
	d := pkgerrors.Diagnose(err)
	if !d.UniqueViolation() {
		return false
	}
	return constraintName == "" || d.Constraint == constraintName || strings.Contains(d.Message, constraintName)
}
