package pg

import (
	"context"
	"database/sql"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/code-payments/payflow-server/pkg/retry"
)

const maxRetryableAttempts = 5

// ExecuteRetryable retries fn while it fails with a serialization failure, up
// to a bounded number of attempts.
func ExecuteRetryable(fn func() error) error {
	_, err := retry.Retry(
		fn,
		retry.Limit(maxRetryableAttempts),
		func(_ uint, err error) bool {
			return IsSerializationFailure(err)
		},
	)
	return err
}

// ExecuteInTx executes fn within the scope of a new DB transaction. The
// transaction is committed if fn succeeds, and rolled back otherwise.
func ExecuteInTx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(tx *sqlx.Tx) error) error {
	if isolation == sql.LevelDefault {
		isolation = sql.LevelReadCommitted // Postgres default
	}

	tx, err := db.BeginTxx(ctx, &sql.TxOptions{
		Isolation: isolation,
	})
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		// We always need to execute a Rollback() so sql.DB releases the connection.
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return errors.Wrap(rollbackErr, "failed to rollback transaction")
		}
		return err
	}
	return tx.Commit()
}

func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.SerializationFailure
}
