package payment

import (
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	payment_data "github.com/code-payments/payflow-server/pkg/payflow/data/payment"
)

type staticPolicy struct {
	ok     bool
	reason string
	err    error
	calls  int
}

func (p *staticPolicy) Validate(_ context.Context, _ *payment_data.Record) (bool, string, error) {
	p.calls++
	return p.ok, p.reason, p.err
}

func newTestRecord() *payment_data.Record {
	return &payment_data.Record{
		Id:            "test",
		Amount:        100,
		PaymentMethod: "paypal",
		State:         payment_data.StateRegistered,
	}
}

func TestApply_RegisteredPay(t *testing.T) {
	ctx := context.Background()

	policy := &staticPolicy{ok: true}
	state, outcome, err := Apply(ctx, payment_data.StateRegistered, PayOperation(), newTestRecord(), policy)
	require.NoError(t, err)
	assert.Equal(t, payment_data.StatePaid, state)
	assert.True(t, outcome.Ok)
	assert.True(t, outcome.Mutated)
	assert.Equal(t, 1, policy.calls)

	policy = &staticPolicy{ok: false, reason: "too much"}
	state, outcome, err = Apply(ctx, payment_data.StateRegistered, PayOperation(), newTestRecord(), policy)
	require.NoError(t, err)
	assert.Equal(t, payment_data.StateFailed, state)
	assert.False(t, outcome.Ok)
	assert.True(t, outcome.Mutated)
	assert.Equal(t, "too much", outcome.Reason)

	policy = &staticPolicy{err: errors.New("store unavailable")}
	state, _, err = Apply(ctx, payment_data.StateRegistered, PayOperation(), newTestRecord(), policy)
	assert.Error(t, err)
	assert.Equal(t, payment_data.StateRegistered, state)
}

func TestApply_RegisteredRevert(t *testing.T) {
	policy := &staticPolicy{}
	record := newTestRecord()

	state, outcome, err := Apply(context.Background(), payment_data.StateRegistered, RevertOperation(), record, policy)
	require.NoError(t, err)
	assert.Equal(t, payment_data.StateRegistered, state)
	assert.True(t, outcome.Ok)
	assert.False(t, outcome.Mutated)
	assert.Zero(t, policy.calls)
	assert.Equal(t, newTestRecord(), record)
}

func TestApply_RegisteredUpdate(t *testing.T) {
	ctx := context.Background()
	policy := &staticPolicy{}

	amount := func(v float64) *float64 { return &v }
	method := func(v string) *string { return &v }

	for _, tc := range []struct {
		name           string
		amount         *float64
		method         *string
		expectedOk     bool
		expectedAmount float64
		expectedMethod string
	}{
		{"nothing provided", nil, nil, false, 100, "paypal"},
		{"amount only", amount(250), nil, true, 250, "paypal"},
		{"method only", nil, method("credit_card"), true, 100, "credit_card"},
		{"both", amount(250), method("credit_card"), true, 250, "credit_card"},
		{"same values", amount(100), method("paypal"), false, 100, "paypal"},
		{"zero amount", amount(0), nil, false, 100, "paypal"},
		{"negative amount", amount(-5), nil, false, 100, "paypal"},
		{"infinite amount", amount(math.Inf(1)), nil, false, 100, "paypal"},
		{"nan amount", amount(math.NaN()), nil, false, 100, "paypal"},
		{"empty method", nil, method(""), false, 100, "paypal"},
		{"invalid amount with valid method", amount(-5), method("credit_card"), true, 100, "credit_card"},
		{"valid amount with empty method", amount(42), method(""), true, 42, "paypal"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			record := newTestRecord()

			state, outcome, err := Apply(ctx, payment_data.StateRegistered, UpdateOperation(tc.amount, tc.method), record, policy)
			require.NoError(t, err)
			assert.Equal(t, payment_data.StateRegistered, state)
			assert.Equal(t, tc.expectedOk, outcome.Ok)
			assert.Equal(t, tc.expectedOk, outcome.Mutated)
			assert.Equal(t, tc.expectedAmount, record.Amount)
			assert.Equal(t, tc.expectedMethod, record.PaymentMethod)
		})
	}

	assert.Zero(t, policy.calls)
}

func TestApply_RejectedOperations(t *testing.T) {
	ctx := context.Background()

	amount := 50.0
	method := "credit_card"

	for _, tc := range []struct {
		state payment_data.State
		op    Operation
	}{
		{payment_data.StateFailed, PayOperation()},
		{payment_data.StateFailed, UpdateOperation(&amount, &method)},
		{payment_data.StatePaid, PayOperation()},
		{payment_data.StatePaid, RevertOperation()},
		{payment_data.StatePaid, UpdateOperation(&amount, &method)},
	} {
		policy := &staticPolicy{ok: true}
		record := newTestRecord()
		record.State = tc.state

		state, outcome, err := Apply(ctx, tc.state, tc.op, record, policy)
		require.NoError(t, err)
		assert.Equal(t, tc.state, state, "%s from %s", tc.op.Type, tc.state)
		assert.False(t, outcome.Ok)
		assert.False(t, outcome.Mutated)
		assert.NotEmpty(t, outcome.Reason)
		assert.Equal(t, 100.0, record.Amount)
		assert.Equal(t, "paypal", record.PaymentMethod)
		assert.Zero(t, policy.calls)
	}
}

func TestApply_FailedRevert(t *testing.T) {
	record := newTestRecord()
	record.State = payment_data.StateFailed

	state, outcome, err := Apply(context.Background(), payment_data.StateFailed, RevertOperation(), record, &staticPolicy{})
	require.NoError(t, err)
	assert.Equal(t, payment_data.StateRegistered, state)
	assert.True(t, outcome.Ok)
	assert.True(t, outcome.Mutated)
}

func TestApply_Unknown(t *testing.T) {
	ctx := context.Background()

	_, _, err := Apply(ctx, payment_data.StateUnknown, PayOperation(), newTestRecord(), &staticPolicy{})
	assert.Equal(t, ErrUnknownState, err)

	_, _, err = Apply(ctx, payment_data.StateRegistered, Operation{}, newTestRecord(), &staticPolicy{})
	assert.Equal(t, ErrUnknownOperation, err)
}
