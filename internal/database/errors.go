package database

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// mysqlDuplicateEntry is the MySQL error number for a duplicate key.
const mysqlDuplicateEntry = 1062

// pqUniqueViolation is the PostgreSQL SQLSTATE for a unique violation.
const pqUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation from
// either supported driver. Repositories use this to map driver errors to
// domain conflict errors.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}

	return false
}
