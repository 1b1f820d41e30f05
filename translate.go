package tidal

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	sqlite "modernc.org/sqlite"

	"github.com/syssam/tidal/dialect"
)

// TranslateError maps driver-specific errors into the tidal error
// taxonomy: constraint violations become ConstraintError with the
// right kind, and transient conflicts (deadlocks, serialization
// failures, lock timeouts) are marked retryable. Unrecognized errors
// are returned unchanged.
func TranslateError(dialectName string, err error) error {
	if err == nil {
		return nil
	}
	switch dialectName {
	case dialect.MySQL:
		return translateMySQL(err)
	case dialect.Postgres:
		return translatePostgres(err)
	case dialect.SQLite:
		return translateSQLite(err)
	}
	return err
}

func translateMySQL(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	switch me.Number {
	case 1062, 1169: // ER_DUP_ENTRY, ER_DUP_UNIQUE
		return NewConstraintError(ConstraintUnique, me.Message, err)
	case 1216, 1217, 1451, 1452: // FK violations
		return NewConstraintError(ConstraintForeignKey, me.Message, err)
	case 1048, 1364: // ER_BAD_NULL_ERROR, ER_NO_DEFAULT_FOR_FIELD
		return NewConstraintError(ConstraintNotNull, me.Message, err)
	case 3819: // ER_CHECK_CONSTRAINT_VIOLATED
		return NewConstraintError(ConstraintCheck, me.Message, err)
	case 1213, 1205: // ER_LOCK_DEADLOCK, ER_LOCK_WAIT_TIMEOUT
		return markRetryable(err)
	}
	return err
}

func translatePostgres(err error) error {
	var pe *pq.Error
	if !errors.As(err, &pe) {
		return err
	}
	switch pe.Code {
	case "23505": // unique_violation
		return NewConstraintError(ConstraintUnique, pe.Message, err)
	case "23503": // foreign_key_violation
		return NewConstraintError(ConstraintForeignKey, pe.Message, err)
	case "23502": // not_null_violation
		return NewConstraintError(ConstraintNotNull, pe.Message, err)
	case "23514": // check_violation
		return NewConstraintError(ConstraintCheck, pe.Message, err)
	case "40001", "40P01": // serialization_failure, deadlock_detected
		return markRetryable(err)
	}
	return err
}

// SQLite primary and extended result codes.
// https://sqlite.org/rescode.html
const (
	sqliteBusy              = 5
	sqliteLocked            = 6
	sqliteConstraint        = 19
	sqliteConstraintCheck   = 275
	sqliteConstraintFK      = 787
	sqliteConstraintNotNull = 1299
	sqliteConstraintPK      = 1555
	sqliteConstraintUnique  = 2067
)

func translateSQLite(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code() {
	case sqliteConstraintUnique, sqliteConstraintPK:
		return NewConstraintError(ConstraintUnique, se.Error(), err)
	case sqliteConstraintFK:
		return NewConstraintError(ConstraintForeignKey, se.Error(), err)
	case sqliteConstraintNotNull:
		return NewConstraintError(ConstraintNotNull, se.Error(), err)
	case sqliteConstraintCheck:
		return NewConstraintError(ConstraintCheck, se.Error(), err)
	case sqliteConstraint:
		return NewConstraintError(ConstraintOther, se.Error(), err)
	case sqliteBusy, sqliteLocked:
		return markRetryable(err)
	}
	return err
}
