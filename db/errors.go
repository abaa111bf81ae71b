package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Sentinel errors surfaced by Repo methods. Controllers translate these into
// HTTP statuses; anything else is a storage failure.
var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("concurrent update, please refresh")
	ErrInvalidState  = errors.New("invalid state")
	ErrEmptyCart     = errors.New("borrow list is empty")
	ErrDuplicateItem = errors.New("device already in list")
	ErrValidation    = errors.New("invalid input")
)

const pgUniqueViolation = "23505"

// translate maps storage-level errors onto the sentinels. A unique-index
// violation means a concurrent writer won the same precondition check, so it
// comes back as ErrConflict and the caller can retry.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrConflict
	}
	return err
}
