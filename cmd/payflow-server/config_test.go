package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/payflow-server/pkg/http/app"
)

func TestDecodeAppConfig_Defaults(t *testing.T) {
	config, err := decodeAppConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, storeTypeFile, config.Store)
	assert.Equal(t, "data.json", config.DataPath)
	assert.Equal(t, "/payflow/payments", config.EtcdKey)
	assert.True(t, config.EnableSummaryService)
	assert.Equal(t, time.Minute, config.SummaryInterval)
	assert.Equal(t, "payflow:payments", config.RedisKey)
	assert.EqualValues(t, 0, config.RateLimitPerSecond)
}

func TestDecodeAppConfig_Overrides(t *testing.T) {
	config, err := decodeAppConfig(app.Config{
		"store":                 "ETCD",
		"etcd_endpoints":        "localhost:2379, localhost:2380,",
		"rate_limit_per_second": "12.5",
		"summary_interval":      "30s",
		"db_port":               "6543",
	})
	require.NoError(t, err)
	assert.Equal(t, storeTypeEtcd, config.Store)
	assert.Equal(t, []string{"localhost:2379", "localhost:2380"}, config.etcdEndpoints())
	assert.Equal(t, 12.5, config.RateLimitPerSecond)
	assert.Equal(t, 30*time.Second, config.SummaryInterval)
	assert.Equal(t, 6543, config.DbPort)
}

func TestDecodeAppConfig_Invalid(t *testing.T) {
	for _, raw := range []app.Config{
		{"store": "mongo"},
		{"store": "etcd"},
		{"rate_limit_per_second": -1},
		{"summary_interval": "0s"},
	} {
		_, err := decodeAppConfig(raw)
		assert.Error(t, err, raw)
	}
}
