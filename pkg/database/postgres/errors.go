package pg

import (
	"database/sql"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/pkg/errors"
)

// CheckNoRows returns outErr in place of inErr when inErr indicates no rows
func CheckNoRows(inErr, outErr error) error {
	if IsNoRows(inErr) {
		return outErr
	}
	return inErr
}

func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// CheckUniqueViolation returns outErr in place of inErr when inErr is a unique
// constraint violation
func CheckUniqueViolation(inErr, outErr error) error {
	if IsUniqueViolation(inErr) {
		return outErr
	}
	return inErr
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
