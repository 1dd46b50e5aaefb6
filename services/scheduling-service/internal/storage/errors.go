package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound: the referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict: the scheduled-slot uniqueness constraint rejected an insert.
	ErrConflict = errors.New("slot conflict")
	// ErrContended: a transient lock/serialization failure; callers may retry.
	ErrContended = errors.New("store contended")
	// ErrActiveBooking: the customer already holds a scheduled appointment
	// on or after today.
	ErrActiveBooking = errors.New("active booking exists")
)

// Postgres error codes that indicate transient contention rather than a
// persistent conflict.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// classify maps driver errors onto the package sentinels. Unknown errors
// pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return ErrConflict
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return ErrContended
		}
	}
	return err
}

func IsNotFound(err error) bool  { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool  { return errors.Is(err, ErrConflict) }
func IsContended(err error) bool { return errors.Is(err, ErrContended) }
