//go:build integration

package postgres

import (
	"database/sql"
	"os"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/payflow-server/pkg/payflow/data/payment"
	"github.com/code-payments/payflow-server/pkg/payflow/data/payment/tests"

	postgrestest "github.com/code-payments/payflow-server/pkg/database/postgres/test"

	_ "github.com/jackc/pgx/v4/stdlib"
)

const (
	// Used for testing ONLY, the table and migrations are external to this repository
	tableCreate = `
		CREATE TABLE payflow__core_payment (
			id serial NOT NULL PRIMARY KEY,

			payment_id text NOT NULL,
			amount double precision NOT NULL CHECK (amount > 0),
			payment_method text NOT NULL,

			state integer NOT NULL,

			CONSTRAINT payflow__core_payment__uniq__payment_id UNIQUE (payment_id)
		);
	`

	// Used for testing ONLY, the table and migrations are external to this repository
	tableDestroy = `
		DROP TABLE payflow__core_payment;
	`
)

var (
	testStore payment.Store
	teardown  func()
)

func TestMain(m *testing.M) {
	log := logrus.StandardLogger()

	testPool, err := dockertest.NewPool("")
	if err != nil {
		log.WithError(err).Error("Error creating docker pool")
		os.Exit(1)
	}

	db, cleanUpFunc, err := postgrestest.StartPostgresDB(testPool)
	if err != nil {
		log.WithError(err).Error("Error starting postgres image")
		os.Exit(1)
	}
	defer db.Close()

	if err := createTestTables(db); err != nil {
		log.WithError(err).Error("Error creating test tables")
		cleanUpFunc()
		os.Exit(1)
	}

	testStore = New(db)
	teardown = func() {
		if pc := recover(); pc != nil {
			cleanUpFunc()
			panic(pc)
		}

		if err := resetTestTables(db); err != nil {
			log.WithError(err).Error("Error resetting test tables")
			cleanUpFunc()
			os.Exit(1)
		}
	}

	code := m.Run()
	cleanUpFunc()
	os.Exit(code)
}

func TestPaymentPostgresStore(t *testing.T) {
	tests.RunTests(t, testStore, teardown)
}

func TestPaymentPostgresStore_SmallPages(t *testing.T) {
	paged := testStore.(*store)
	tests.RunTests(t, &store{
		log:      paged.log,
		db:       paged.db,
		pageSize: 2,
	}, teardown)
}

func createTestTables(db *sql.DB) error {
	_, err := db.Exec(tableCreate)
	if err != nil {
		logrus.StandardLogger().WithError(err).Error("could not create test tables")
		return err
	}
	return nil
}

func resetTestTables(db *sql.DB) error {
	_, err := db.Exec(tableDestroy)
	if err != nil {
		logrus.StandardLogger().WithError(err).Error("could not drop test tables")
		return err
	}

	return createTestTables(db)
}
