package pg

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/rdsutils"
	"github.com/pkg/errors"

	_ "github.com/newrelic/go-agent/v3/integrations/nrpgx"
)

// Registered by nrpgx, wrapping the pgx stdlib driver with New Relic
// datastore segments.
const driverName = "nrpgx"

type Config struct {
	User               string
	Host               string
	Password           string
	Port               int
	DbName             string
	MaxOpenConnections int
	MaxIdleConnections int
}

func (c *Config) validate() error {
	if len(c.Host) == 0 {
		return errors.New("db host is required")
	}
	if c.Port <= 0 {
		return errors.New("db port is required")
	}
	if len(c.User) == 0 {
		return errors.New("db user is required")
	}
	if len(c.DbName) == 0 {
		return errors.New("db name is required")
	}
	return nil
}

func (c *Config) endpoint() string {
	return net.JoinHostPort(c.Host, fmt.Sprintf("%d", c.Port))
}

// NewWithAwsIam gets a DB connection pool authenticated with an IAM token
// derived from awsConfig.
//
// Only provisioned Aurora RDS clusters support IAM auth. See
// https://docs.aws.amazon.com/AmazonRDS/latest/AuroraUserGuide/UsingWithRDS.IAMDBAuth.Connecting.Go.html
func NewWithAwsIam(ctx context.Context, config *Config, awsConfig aws.Config) (*sql.DB, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	// The RDS client is only used for its credential provider and region
	rdsClient := rds.New(awsConfig)

	authToken, err := rdsutils.BuildAuthToken(config.endpoint(), rdsClient.Region, config.User, rdsClient.Credentials)
	if err != nil {
		return nil, errors.Wrap(err, "error building rds auth token")
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		config.Host, config.Port, config.User, authToken, config.DbName,
	)
	return open(ctx, config, dsn)
}

// NewWithUsernameAndPassword gets a DB connection pool using username/password
// credentials.
func NewWithUsernameAndPassword(ctx context.Context, config *Config) (*sql.DB, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	// TODO: enable SSL once the server certificate is distributed with deployments
	dsn := (&url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(config.User, config.Password),
		Host:     config.endpoint(),
		Path:     "/" + config.DbName,
		RawQuery: "sslmode=disable",
	}).String()
	return open(ctx, config, dsn)
}

func open(ctx context.Context, config *Config, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "error opening db")
	}

	if config.MaxOpenConnections > 0 {
		db.SetMaxOpenConns(config.MaxOpenConnections)
	}
	if config.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(config.MaxIdleConnections)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "error pinging db")
	}

	return db, nil
}
