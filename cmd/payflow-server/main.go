package main

import (
	"context"
	"database/sql"
	"net/http"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws/external"
	"github.com/go-redis/redis/v8"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
	xrate "golang.org/x/time/rate"

	pg "github.com/code-payments/payflow-server/pkg/database/postgres"
	"github.com/code-payments/payflow-server/pkg/http/app"
	"github.com/code-payments/payflow-server/pkg/metrics"
	async_summary "github.com/code-payments/payflow-server/pkg/payflow/async/summary"
	payment_data "github.com/code-payments/payflow-server/pkg/payflow/data/payment"
	payment_etcd "github.com/code-payments/payflow-server/pkg/payflow/data/payment/etcd"
	payment_file "github.com/code-payments/payflow-server/pkg/payflow/data/payment/file"
	payment_memory "github.com/code-payments/payflow-server/pkg/payflow/data/payment/memory"
	payment_postgres "github.com/code-payments/payflow-server/pkg/payflow/data/payment/postgres"
	payment_redis "github.com/code-payments/payflow-server/pkg/payflow/data/payment/redis"
	payment_lib "github.com/code-payments/payflow-server/pkg/payflow/payment"
	web_payment "github.com/code-payments/payflow-server/pkg/payflow/server/web/payment"
	"github.com/code-payments/payflow-server/pkg/rate"
)

type payflowApp struct {
	log *logrus.Entry

	server *web_payment.Server

	db          *sql.DB
	etcdClient  *clientv3.Client
	redisClient *redis.Client

	cancelBackground context.CancelFunc
	backgroundWg     sync.WaitGroup

	shutdownCh chan struct{}
	stopOnce   sync.Once
}

func newPayflowApp() *payflowApp {
	return &payflowApp{
		log:        logrus.StandardLogger().WithField("type", "payflow/app"),
		shutdownCh: make(chan struct{}),
	}
}

// Init implements app.App.Init
func (a *payflowApp) Init(rawConfig app.Config, metricsProvider *newrelic.Application) error {
	config, err := decodeAppConfig(rawConfig)
	if err != nil {
		return err
	}

	ctx := context.Background()

	store, err := a.newStore(ctx, config)
	if err != nil {
		return err
	}

	var limiter rate.Limiter = &rate.NoLimiter{}
	if config.RateLimitPerSecond > 0 {
		limiter = rate.NewLocalRateLimiter(xrate.Limit(config.RateLimitPerSecond))
	}

	validator := payment_lib.NewValidator(store, payment_lib.WithEnvConfigs())
	a.server = web_payment.NewPaymentServer(store, validator, limiter)

	if config.EnableSummaryService {
		backgroundCtx, cancel := context.WithCancel(metrics.WithApplication(context.Background(), metricsProvider))
		a.cancelBackground = cancel

		summary := async_summary.New(store, async_summary.WithEnvConfigs())
		a.backgroundWg.Add(1)
		go func() {
			defer a.backgroundWg.Done()

			if err := summary.Start(backgroundCtx, config.SummaryInterval); err != nil && !errors.Is(err, context.Canceled) {
				a.log.WithError(err).Warn("summary service terminated unexpectedly")
			}
		}()
	}

	a.log.WithField("store", config.Store).Info("payflow initialized")
	return nil
}

func (a *payflowApp) newStore(ctx context.Context, config *appConfig) (payment_data.Store, error) {
	switch config.Store {
	case storeTypeMemory:
		return payment_memory.New(), nil
	case storeTypeFile:
		return payment_file.New(config.DataPath), nil
	case storeTypePostgres:
		dbConfig := &pg.Config{
			User:               config.DbUser,
			Host:               config.DbHost,
			Password:           config.DbPassword,
			Port:               config.DbPort,
			DbName:             config.DbName,
			MaxOpenConnections: config.DbMaxOpenConnections,
			MaxIdleConnections: config.DbMaxIdleConnections,
		}

		var db *sql.DB
		if config.DbUseIam {
			awsConfig, err := external.LoadDefaultAWSConfig()
			if err != nil {
				return nil, errors.Wrap(err, "error loading aws config")
			}
			db, err = pg.NewWithAwsIam(ctx, dbConfig, awsConfig)
			if err != nil {
				return nil, err
			}
		} else {
			var err error
			db, err = pg.NewWithUsernameAndPassword(ctx, dbConfig)
			if err != nil {
				return nil, err
			}
		}

		a.db = db
		return payment_postgres.New(db), nil
	case storeTypeEtcd:
		client, err := clientv3.New(clientv3.Config{
			Endpoints:   config.etcdEndpoints(),
			DialTimeout: config.EtcdDialTimeout,
			Logger:      zap.NewNop(),
		})
		if err != nil {
			return nil, errors.Wrap(err, "error creating etcd client")
		}

		a.etcdClient = client
		return payment_etcd.New(client, config.EtcdKey), nil
	case storeTypeRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     config.RedisAddress,
			Password: config.RedisPassword,
			DB:       config.RedisDb,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, errors.Wrap(err, "error pinging redis")
		}

		a.redisClient = client
		return payment_redis.New(client, config.RedisKey), nil
	default:
		return nil, errors.Errorf("unsupported store type %q", config.Store)
	}
}

// RegisterWithHTTP implements app.App.RegisterWithHTTP
func (a *payflowApp) RegisterWithHTTP(mux *http.ServeMux) {
	for pattern, handler := range a.server.GetHandlers() {
		mux.HandleFunc(pattern, handler)
	}
}

// ShutdownChan implements app.App.ShutdownChan
func (a *payflowApp) ShutdownChan() <-chan struct{} {
	return a.shutdownCh
}

// Stop implements app.App.Stop
func (a *payflowApp) Stop() {
	a.stopOnce.Do(func() {
		if a.cancelBackground != nil {
			a.cancelBackground()
		}
		a.backgroundWg.Wait()

		if a.db != nil {
			if err := a.db.Close(); err != nil {
				a.log.WithError(err).Warn("failed to close db")
			}
		}
		if a.etcdClient != nil {
			if err := a.etcdClient.Close(); err != nil {
				a.log.WithError(err).Warn("failed to close etcd client")
			}
		}
		if a.redisClient != nil {
			if err := a.redisClient.Close(); err != nil {
				a.log.WithError(err).Warn("failed to close redis client")
			}
		}

		close(a.shutdownCh)
	})
}

func main() {
	if err := app.Run(newPayflowApp()); err != nil {
		logrus.StandardLogger().WithError(err).Fatal("error running payflow server")
	}
}
