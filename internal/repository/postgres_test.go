package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/ramtsps/Art-Academy-Website/internal/domain"
)

func TestMapWriteErrorUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	require.ErrorIs(t, mapWriteError(pgErr, "insert user"), domain.ErrDuplicateEmail)

	// Wrapped violations map too.
	wrapped := fmt.Errorf("exec insert: %w", pgErr)
	require.ErrorIs(t, mapWriteError(wrapped, "insert user"), domain.ErrDuplicateEmail)
}

func TestMapWriteErrorOtherCodesPassThrough(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23502", ColumnName: "email"}
	err := mapWriteError(pgErr, "insert user")
	require.NotErrorIs(t, err, domain.ErrDuplicateEmail)
	require.ErrorAs(t, err, &pgErr)
	require.Contains(t, err.Error(), "insert user")
}

func TestMapWriteErrorKeepsNotFound(t *testing.T) {
	require.ErrorIs(t, mapWriteError(domain.ErrNotFound, "update user"), domain.ErrNotFound)
}

func TestNullHelpers(t *testing.T) {
	require.Equal(t, sql.NullString{}, nullString(""))
	require.Equal(t, sql.NullString{String: "x", Valid: true}, nullString("x"))

	require.Equal(t, sql.NullTime{}, nullTime(time.Time{}))
	at := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	require.Equal(t, sql.NullTime{Time: at, Valid: true}, nullTime(at))
}

func TestMapWriteErrorPlainError(t *testing.T) {
	cause := errors.New("connection reset")
	err := mapWriteError(cause, "update user")
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, domain.ErrDuplicateEmail)
}
