package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	payment_data "github.com/code-payments/payflow-server/pkg/payflow/data/payment"
	"github.com/code-payments/payflow-server/pkg/payflow/data/payment/memory"
)

func TestValidator_PayPalThreshold(t *testing.T) {
	ctx := context.Background()
	validator := NewValidator(memory.New(), withManualTestOverrides(&testOverrides{}))

	for _, tc := range []struct {
		amount   float64
		expected bool
	}{
		{0.01, true},
		{2500, true},
		{4999.99, true},
		{5000, false},
		{5000.01, false},
		{15000, false},
	} {
		ok, reason, err := validator.Validate(ctx, &payment_data.Record{
			Id:            "pp",
			Amount:        tc.amount,
			PaymentMethod: "paypal",
			State:         payment_data.StateRegistered,
		})
		require.NoError(t, err)
		assert.Equal(t, tc.expected, ok, "amount %v", tc.amount)
		if !tc.expected {
			assert.NotEmpty(t, reason)
		}
	}
}

func TestValidator_CreditCardThreshold(t *testing.T) {
	ctx := context.Background()
	validator := NewValidator(memory.New(), withManualTestOverrides(&testOverrides{}))

	for _, method := range []string{"credit_card", "tarjeta_credito"} {
		for _, tc := range []struct {
			amount   float64
			expected bool
		}{
			{1, true},
			{9999.99, true},
			{10000, false},
			{14000, false},
		} {
			ok, _, err := validator.Validate(ctx, &payment_data.Record{
				Id:            "cc",
				Amount:        tc.amount,
				PaymentMethod: method,
				State:         payment_data.StateRegistered,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ok, "%s amount %v", method, tc.amount)
		}
	}
}

func TestValidator_CreditCardOutstandingCap(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	validator := NewValidator(store, withManualTestOverrides(&testOverrides{}))

	candidate := &payment_data.Record{Id: "candidate", Amount: 100, PaymentMethod: "credit_card", State: payment_data.StateRegistered}
	require.NoError(t, payment_data.Put(ctx, store, candidate))

	// The candidate's own persisted record doesn't count against it
	ok, _, err := validator.Validate(ctx, candidate)
	require.NoError(t, err)
	assert.True(t, ok)

	for _, other := range []*payment_data.Record{
		{Id: "paid", Amount: 100, PaymentMethod: "credit_card", State: payment_data.StatePaid},
		{Id: "failed", Amount: 100, PaymentMethod: "credit_card", State: payment_data.StateFailed},
		{Id: "paypal", Amount: 100, PaymentMethod: "paypal", State: payment_data.StateRegistered},
	} {
		require.NoError(t, payment_data.Put(ctx, store, other))
	}

	ok, _, err = validator.Validate(ctx, candidate)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, payment_data.Put(ctx, store, &payment_data.Record{
		Id:            "outstanding",
		Amount:        1,
		PaymentMethod: "tarjeta_credito",
		State:         payment_data.StateRegistered,
	}))

	ok, reason, err := validator.Validate(ctx, candidate)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, reason, "already registered")

	// PayPal has no cross record check
	ok, _, err = validator.Validate(ctx, &payment_data.Record{Id: "pp", Amount: 1, PaymentMethod: "paypal", State: payment_data.StateRegistered})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValidator_UnsupportedMethod(t *testing.T) {
	ctx := context.Background()
	validator := NewValidator(memory.New(), withManualTestOverrides(&testOverrides{}))

	for _, method := range []string{"bitcoin", "cash", "paypal2"} {
		ok, reason, err := validator.Validate(ctx, &payment_data.Record{
			Id:            "x",
			Amount:        1,
			PaymentMethod: method,
			State:         payment_data.StateRegistered,
		})
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Contains(t, reason, method)
	}
}

func TestValidator_ConfiguredThresholds(t *testing.T) {
	ctx := context.Background()
	validator := NewValidator(memory.New(), withManualTestOverrides(&testOverrides{
		creditCardMaxAmount: 50,
		payPalMaxAmount:     20,
	}))

	ok, _, err := validator.Validate(ctx, &payment_data.Record{Id: "cc", Amount: 60, PaymentMethod: "credit_card", State: payment_data.StateRegistered})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _, err = validator.Validate(ctx, &payment_data.Record{Id: "pp", Amount: 19, PaymentMethod: "paypal", State: payment_data.StateRegistered})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _, err = validator.Validate(ctx, &payment_data.Record{Id: "pp", Amount: 20, PaymentMethod: "paypal", State: payment_data.StateRegistered})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidator_EnvThresholds(t *testing.T) {
	ctx := context.Background()
	t.Setenv(PayPalMaxAmountConfigEnvName, "10")

	validator := NewValidator(memory.New(), WithEnvConfigs())

	ok, _, err := validator.Validate(ctx, &payment_data.Record{Id: "pp", Amount: 11, PaymentMethod: "paypal", State: payment_data.StateRegistered})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _, err = validator.Validate(ctx, &payment_data.Record{Id: "cc", Amount: 9000, PaymentMethod: "credit_card", State: payment_data.StateRegistered})
	require.NoError(t, err)
	assert.True(t, ok)
}
