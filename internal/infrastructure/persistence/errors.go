package persistence

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// pgUniqueViolation is the Postgres error code for unique_violation
const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a uniqueness constraint failure,
// across GORM's translated error, raw Postgres errors and the sqlite driver
// used in tests.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
