package test

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	_ "github.com/jackc/pgx/v4/stdlib" //nolint:revive

	"github.com/code-payments/payflow-server/pkg/retry"
	"github.com/code-payments/payflow-server/pkg/retry/backoff"
)

const (
	imageName         = "postgres"
	imageTag          = "14.11"
	containerAutoKill = 120 * time.Second

	port     = 5432
	user     = "localtest"
	password = "localpassword"
	dbname   = "testdb"
)

// StartPostgresDB runs a disposable postgres container and returns a client
// connected to it. closeFunc closes the client and purges the container.
func StartPostgresDB(pool *dockertest.Pool) (db *sql.DB, closeFunc func(), err error) {
	closeFunc = func() {}

	log := logrus.StandardLogger().WithField("method", "StartPostgresDB")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: imageName,
		Tag:        imageTag,
		Env: []string{
			"POSTGRES_USER=" + user,
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=" + dbname,
		},
	}, func(config *docker.HostConfig) {
		// set AutoRemove to true so that stopped container goes away by itself
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, closeFunc, errors.Wrap(err, "failed to start resource")
	}

	// Expire() never returns an error
	_ = resource.Expire(uint(containerAutoKill.Seconds()))

	closeFunc = func() {
		if db != nil {
			db.Close()
		}
		if err := pool.Purge(resource); err != nil {
			log.WithError(err).Error("failed to cleanup postgres resource")
		}
	}

	databaseUrl := fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=disable",
		user,
		password,
		resource.GetHostPort(fmt.Sprintf("%d/tcp", port)),
		dbname,
	)

	_, err = retry.Retry(
		func() error {
			if db != nil {
				db.Close()
			}

			db, err = sql.Open("pgx", databaseUrl)
			if err != nil {
				return err
			}
			return db.Ping()
		},
		retry.Limit(50),
		retry.Backoff(backoff.Constant(500*time.Millisecond), 500*time.Millisecond),
	)
	if err != nil {
		closeFunc()
		return nil, func() {}, errors.Wrap(err, "timed out waiting for postgres container to become available")
	}

	return db, closeFunc, nil
}
