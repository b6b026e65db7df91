package db

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/envelope-app/segora-backend/market"
)

var (
	// ErrNotFound is returned when a row does not exist
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned when registering an email that already exists
	ErrEmailTaken = errors.New("email already registered")

	// ErrConflict is returned when a write violates a uniqueness rule
	ErrConflict = errors.New("conflict")

	// ErrSelfChat is returned when a user opens a chat with themself
	ErrSelfChat = market.ErrSelfChat
)

func pqCode(err error) string {
	var perr *pq.Error
	if errors.As(err, &perr) {
		return perr.Code.Name()
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == "unique_violation"
}

func isForeignKeyViolation(err error) bool {
	return pqCode(err) == "foreign_key_violation"
}

// notFound maps sql.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
