package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	pgutil "github.com/code-payments/payflow-server/pkg/database/postgres"
	"github.com/code-payments/payflow-server/pkg/database/query"
	"github.com/code-payments/payflow-server/pkg/payflow/data/payment"
)

const (
	tableName = "payflow__core_payment"

	maxPageSize = query.DefaultPagingLimit
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	PaymentId     string  `db:"payment_id"`
	Amount        float64 `db:"amount"`
	PaymentMethod string  `db:"payment_method"`

	State uint8 `db:"state"`
}

func toModel(id string, obj *payment.Record) (*model, error) {
	cloned := obj.Clone()
	cloned.Id = id
	if err := cloned.Validate(); err != nil {
		return nil, err
	}

	return &model{
		PaymentId:     cloned.Id,
		Amount:        cloned.Amount,
		PaymentMethod: cloned.PaymentMethod,
		State:         uint8(cloned.State),
	}, nil
}

func fromModel(obj *model) *payment.Record {
	return &payment.Record{
		Id:            obj.PaymentId,
		Amount:        obj.Amount,
		PaymentMethod: obj.PaymentMethod,
		State:         payment.State(obj.State),
	}
}

// dbGetAll pages through the table by id, pageSize rows at a time, within a
// single repeatable read tx so a concurrent replace is never observed halfway
func dbGetAll(ctx context.Context, db *sqlx.DB, pageSize uint64) ([]*model, error) {
	res := []*model{}

	err := pgutil.ExecuteInTx(ctx, db, sql.LevelRepeatableRead, func(tx *sqlx.Tx) error {
		res = res[:0]

		cursor := query.EmptyCursor
		for {
			opts, err := query.DefaultPaginationHandler(
				maxPageSize,
				query.WithLimit(pageSize),
				query.WithDirection(query.Ascending),
				query.WithCursor(cursor),
			)
			if err != nil {
				return err
			}

			q, args := query.PaginateQuery(
				`SELECT id, payment_id, amount, payment_method, state FROM `+tableName+` WHERE (TRUE)`,
				nil,
				opts.Cursor,
				opts.Limit,
				opts.SortBy,
			)

			page := []*model{}
			err = tx.SelectContext(ctx, &page, q, args...)
			if err != nil && !pgutil.IsNoRows(err) {
				return err
			}

			res = append(res, page...)
			if uint64(len(page)) < opts.Limit {
				return nil
			}
			cursor = query.ToCursor(uint64(page[len(page)-1].Id.Int64))
		}
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// dbReplaceAll swaps the table contents for models in one serializable tx,
// retrying on serialization failures
func dbReplaceAll(ctx context.Context, db *sqlx.DB, models []*model) error {
	return pgutil.ExecuteRetryable(func() error {
		return dbReplaceAllInTx(ctx, db, models)
	})
}

func dbReplaceAllInTx(ctx context.Context, db *sqlx.DB, models []*model) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelSerializable, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM `+tableName)
		if err != nil {
			return err
		}

		query := `INSERT INTO ` + tableName + `
			(payment_id, amount, payment_method, state)
			VALUES ($1, $2, $3, $4)
			RETURNING id, payment_id, amount, payment_method, state
		`

		for _, m := range models {
			err := tx.QueryRowxContext(
				ctx,
				query,
				m.PaymentId,
				m.Amount,
				m.PaymentMethod,
				m.State,
			).StructScan(m)
			if err != nil {
				return pgutil.CheckUniqueViolation(err, payment.ErrAlreadyExists)
			}
		}

		return nil
	})
}
