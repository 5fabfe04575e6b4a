package postgres

import (
	"context"
	"database/sql"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/payflow-server/pkg/payflow/data/payment"
)

type store struct {
	log      *logrus.Entry
	db       *sqlx.DB
	pageSize uint64
}

// New returns a new postgres-backed payment.Store
func New(db *sql.DB) payment.Store {
	return &store{
		log:      logrus.StandardLogger().WithField("type", "payment/postgres/store"),
		db:       sqlx.NewDb(db, "pgx"),
		pageSize: maxPageSize,
	}
}

// LoadAll implements payment.Store.LoadAll
//
// Rows that don't describe a valid record are skipped. Unlike the document
// backed stores, connection and query faults are returned.
func (s *store) LoadAll(ctx context.Context) (map[string]*payment.Record, error) {
	models, err := dbGetAll(ctx, s.db, s.pageSize)
	if err != nil {
		return nil, err
	}

	var skipped []string
	res := make(map[string]*payment.Record, len(models))
	for _, model := range models {
		record := fromModel(model)
		if err := record.Validate(); err != nil {
			skipped = append(skipped, model.PaymentId)
			continue
		}
		res[record.Id] = record
	}

	if len(skipped) > 0 {
		s.log.WithFields(logrus.Fields{
			"method":  "LoadAll",
			"skipped": skipped,
		}).Warn("ignoring invalid payment rows")
	}

	return res, nil
}

// SaveAll implements payment.Store.SaveAll
func (s *store) SaveAll(ctx context.Context, records map[string]*payment.Record) error {
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	models := make([]*model, 0, len(records))
	for _, id := range ids {
		m, err := toModel(id, records[id])
		if err != nil {
			return err
		}
		models = append(models, m)
	}

	return dbReplaceAll(ctx, s.db, models)
}
