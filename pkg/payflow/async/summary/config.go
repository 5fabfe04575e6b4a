package async_summary

import (
	"github.com/code-payments/payflow-server/pkg/config"
	"github.com/code-payments/payflow-server/pkg/config/env"
	"github.com/code-payments/payflow-server/pkg/config/memory"
	"github.com/code-payments/payflow-server/pkg/config/wrapper"
)

const (
	envConfigPrefix = "SUMMARY_SERVICE_"

	BreakdownByMethodConfigEnvName = envConfigPrefix + "BREAKDOWN_BY_METHOD"
	defaultBreakdownByMethod       = true
)

type conf struct {
	breakdownByMethod config.Bool
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			breakdownByMethod: env.NewBoolConfig(BreakdownByMethodConfigEnvName, defaultBreakdownByMethod),
		}
	}
}

type testOverrides struct {
	breakdownByMethod bool
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			breakdownByMethod: wrapper.NewBoolConfig(memory.NewConfig(overrides.breakdownByMethod), defaultBreakdownByMethod),
		}
	}
}
