package payment

import (
	"github.com/code-payments/payflow-server/pkg/config"
	"github.com/code-payments/payflow-server/pkg/config/env"
	"github.com/code-payments/payflow-server/pkg/config/memory"
	"github.com/code-payments/payflow-server/pkg/config/wrapper"
)

const (
	envConfigPrefix = "PAYMENT_"

	CreditCardMaxAmountConfigEnvName = envConfigPrefix + "CREDIT_CARD_MAX_AMOUNT"
	defaultCreditCardMaxAmount       = 10_000

	PayPalMaxAmountConfigEnvName = envConfigPrefix + "PAYPAL_MAX_AMOUNT"
	defaultPayPalMaxAmount       = 5_000
)

type conf struct {
	creditCardMaxAmount config.Float64
	payPalMaxAmount     config.Float64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			creditCardMaxAmount: env.NewFloat64Config(CreditCardMaxAmountConfigEnvName, defaultCreditCardMaxAmount),
			payPalMaxAmount:     env.NewFloat64Config(PayPalMaxAmountConfigEnvName, defaultPayPalMaxAmount),
		}
	}
}

type testOverrides struct {
	creditCardMaxAmount float64
	payPalMaxAmount     float64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	creditCardMaxAmount := overrides.creditCardMaxAmount
	if creditCardMaxAmount == 0 {
		creditCardMaxAmount = defaultCreditCardMaxAmount
	}

	payPalMaxAmount := overrides.payPalMaxAmount
	if payPalMaxAmount == 0 {
		payPalMaxAmount = defaultPayPalMaxAmount
	}

	return func() *conf {
		return &conf{
			creditCardMaxAmount: wrapper.NewFloat64Config(memory.NewConfig(creditCardMaxAmount), defaultCreditCardMaxAmount),
			payPalMaxAmount:     wrapper.NewFloat64Config(memory.NewConfig(payPalMaxAmount), defaultPayPalMaxAmount),
		}
	}
}
