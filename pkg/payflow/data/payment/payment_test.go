package payment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalMethod(t *testing.T) {
	assert.Equal(t, MethodCreditCard, CanonicalMethod("credit_card"))
	assert.Equal(t, MethodCreditCard, CanonicalMethod("tarjeta_credito"))
	assert.Equal(t, MethodCreditCard, CanonicalMethod(" Tarjeta_Credito "))
	assert.Equal(t, MethodPayPal, CanonicalMethod("paypal"))
	assert.Equal(t, Method("bitcoin"), CanonicalMethod("bitcoin"))
}

func TestStateNames(t *testing.T) {
	for _, state := range []State{StateRegistered, StatePaid, StateFailed} {
		parsed, err := ParseState(state.String())
		require.NoError(t, err)
		assert.Equal(t, state, parsed)
	}

	_, err := ParseState("REGISTRADO")
	assert.Error(t, err)
	assert.Equal(t, "UNKNOWN", StateUnknown.String())
}

func TestRecordValidate(t *testing.T) {
	valid := Record{Id: "id", Amount: 10, PaymentMethod: "paypal", State: StateRegistered}
	require.NoError(t, valid.Validate())

	for _, invalid := range []Record{
		{Amount: 10, PaymentMethod: "paypal", State: StateRegistered},
		{Id: "id", Amount: 0, PaymentMethod: "paypal", State: StateRegistered},
		{Id: "id", Amount: -1, PaymentMethod: "paypal", State: StateRegistered},
		{Id: "id", Amount: math.Inf(1), PaymentMethod: "paypal", State: StateRegistered},
		{Id: "id", Amount: math.Inf(-1), PaymentMethod: "paypal", State: StateRegistered},
		{Id: "id", Amount: math.NaN(), PaymentMethod: "paypal", State: StateRegistered},
		{Id: "id", Amount: 10, State: StateRegistered},
		{Id: "id", Amount: 10, PaymentMethod: "paypal"},
	} {
		assert.Error(t, invalid.Validate())
	}
}

func TestUnmarshalCollection(t *testing.T) {
	records, skipped, err := UnmarshalCollection([]byte("  \n"))
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, skipped)

	_, _, err = UnmarshalCollection([]byte("{not json"))
	assert.Error(t, err)

	records, skipped, err = UnmarshalCollection([]byte(`{
		"PP002": {"amount": 2500, "payment_method": "paypal", "status": "PAID"},
		"TC001": {"amount": 15000, "payment_method": "tarjeta_credito", "status": "FAILED"},
		"OLD1": {"amount": 10, "payment_method": "paypal", "status": "PAGADO"},
		"NEG1": {"amount": -5, "payment_method": "paypal", "status": "REGISTERED"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"NEG1", "OLD1"}, skipped)
	require.Len(t, records, 2)
	assert.Equal(t, &Record{Id: "PP002", Amount: 2500, PaymentMethod: "paypal", State: StatePaid}, records["PP002"])
	assert.Equal(t, &Record{Id: "TC001", Amount: 15000, PaymentMethod: "tarjeta_credito", State: StateFailed}, records["TC001"])
}

func TestMarshalCollectionRoundTrip(t *testing.T) {
	expected := map[string]*Record{
		"a": {Id: "a", Amount: 12.5, PaymentMethod: "paypal", State: StateRegistered},
		"b": {Id: "b", Amount: 9999.99, PaymentMethod: "credit_card", State: StatePaid},
	}

	data, err := MarshalCollection(expected)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"payment_method": "credit_card"`)
	assert.Contains(t, string(data), `"status": "PAID"`)

	actual, skipped, err := UnmarshalCollection(data)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Equal(t, expected, actual)
}
