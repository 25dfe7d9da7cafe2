package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/abhisek/cogcat/internal/apperr"
)

// classify maps driver errors onto apperr kinds. Errors that are already
// classified pass through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Transient(op, err)
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		switch code & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return apperr.Transient(op, err)
		}
		switch code {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return &apperr.Error{Kind: apperr.KindValidation, Op: op, Msg: "duplicate record", Err: err}
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return &apperr.Error{Kind: apperr.KindNotFound, Op: op, Msg: "referenced record does not exist", Err: err}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// notFoundOr returns a NotFound error for sql.ErrNoRows and classifies
// anything else.
func notFoundOr(op string, err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(op, format, args...)
	}
	return classify(op, err)
}
