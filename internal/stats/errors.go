package stats

import (
	"errors"
	"strings"

	"exstats/internal/model"
	"exstats/pkg/exception"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUndefinedTable  = "42P01"
	pgDuplicateTable  = "42P07"
	pgUniqueViolation = "23505"

	mysqlTableExists uint16 = 1050
	mysqlNoSuchTable uint16 = 1146
)

// Error is a classified store failure.
// errors.Is matches both Kind (exception.ErrSchemaMissing or
// exception.ErrBackendUnavailable) and the driver error.
type Error struct {
	Kind     error
	Op       string
	Identity model.Identity
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	b.WriteString(", op: ")
	b.WriteString(e.Op)
	if !e.Identity.IsZero() {
		b.WriteString(", identity: ")
		b.WriteString(e.Identity.String())
	}
	if e.Err != nil {
		b.WriteString(", err: ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func classify(op string, id model.Identity, err error) error {
	if err == nil {
		return nil
	}
	kind := exception.ErrBackendUnavailable
	if isMissingTable(err) {
		kind = exception.ErrSchemaMissing
	}
	return &Error{Kind: kind, Op: op, Identity: id, Err: err}
}

func isMissingTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUndefinedTable
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlNoSuchTable
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such table")
}

// isCreateRace reports the error raised when two sessions run
// CREATE TABLE IF NOT EXISTS for the same name at once.
func isCreateRace(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlTableExists
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgDuplicateTable:
		return true
	case pgUniqueViolation:
		return strings.HasPrefix(pgErr.ConstraintName, "pg_type")
	default:
		return false
	}
}
