package main

import (
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/code-payments/payflow-server/pkg/http/app"
	payment_etcd "github.com/code-payments/payflow-server/pkg/payflow/data/payment/etcd"
	payment_file "github.com/code-payments/payflow-server/pkg/payflow/data/payment/file"
	payment_redis "github.com/code-payments/payflow-server/pkg/payflow/data/payment/redis"
)

const (
	storeTypeMemory   = "memory"
	storeTypeFile     = "file"
	storeTypePostgres = "postgres"
	storeTypeEtcd     = "etcd"
	storeTypeRedis    = "redis"
)

// appConfig is decoded from the "app" section of the service config
type appConfig struct {
	Store    string `mapstructure:"store"`
	DataPath string `mapstructure:"data_path"`

	DbHost               string `mapstructure:"db_host"`
	DbPort               int    `mapstructure:"db_port"`
	DbUser               string `mapstructure:"db_user"`
	DbPassword           string `mapstructure:"db_password"`
	DbName               string `mapstructure:"db_name"`
	DbUseIam             bool   `mapstructure:"db_use_iam"`
	DbMaxOpenConnections int    `mapstructure:"db_max_open_connections"`
	DbMaxIdleConnections int    `mapstructure:"db_max_idle_connections"`

	EtcdEndpoints   string        `mapstructure:"etcd_endpoints"`
	EtcdKey         string        `mapstructure:"etcd_key"`
	EtcdDialTimeout time.Duration `mapstructure:"etcd_dial_timeout"`

	RedisAddress  string `mapstructure:"redis_address"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDb       int    `mapstructure:"redis_db"`
	RedisKey      string `mapstructure:"redis_key"`

	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second"`

	EnableSummaryService bool          `mapstructure:"enable_summary_service"`
	SummaryInterval      time.Duration `mapstructure:"summary_interval"`
}

var defaultAppConfig = appConfig{
	Store:    storeTypeFile,
	DataPath: payment_file.DefaultPath,

	DbPort: 5432,

	EtcdKey:         payment_etcd.DefaultKey,
	EtcdDialTimeout: 5 * time.Second,

	RedisAddress: "localhost:6379",
	RedisKey:     payment_redis.DefaultKey,

	EnableSummaryService: true,
	SummaryInterval:      time.Minute,
}

func decodeAppConfig(raw app.Config) (*appConfig, error) {
	config := defaultAppConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &config,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(map[string]interface{}(raw)); err != nil {
		return nil, errors.Wrap(err, "error decoding app config")
	}

	config.Store = strings.ToLower(strings.TrimSpace(config.Store))
	switch config.Store {
	case storeTypeMemory, storeTypeFile, storeTypePostgres, storeTypeEtcd, storeTypeRedis:
	default:
		return nil, errors.Errorf("unsupported store type %q", config.Store)
	}

	if config.Store == storeTypeEtcd && len(config.etcdEndpoints()) == 0 {
		return nil, errors.New("etcd store requires at least one endpoint")
	}
	if config.RateLimitPerSecond < 0 {
		return nil, errors.New("rate limit cannot be negative")
	}
	if config.EnableSummaryService && config.SummaryInterval <= 0 {
		return nil, errors.New("summary interval must be positive")
	}

	return &config, nil
}

func (c *appConfig) etcdEndpoints() []string {
	var endpoints []string
	for _, endpoint := range strings.Split(c.EtcdEndpoints, ",") {
		endpoint = strings.TrimSpace(endpoint)
		if len(endpoint) > 0 {
			endpoints = append(endpoints, endpoint)
		}
	}
	return endpoints
}
