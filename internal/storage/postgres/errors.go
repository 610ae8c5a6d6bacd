package postgres

import (
	"errors"

	"github.com/lib/pq"
)

const (
	uniqueViolation     pq.ErrorCode = "23505"
	foreignKeyViolation pq.ErrorCode = "23503"
)

// IsUniqueViolation reports whether err is a unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// IsForeignKeyViolation reports whether err is a foreign key failure, for
// example deleting a blueprint still referenced by a section.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}

// ViolatedConstraint returns the constraint name reported by the server, or
// "" when err is not a Postgres error.
func ViolatedConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}
