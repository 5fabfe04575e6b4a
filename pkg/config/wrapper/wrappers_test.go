package wrapper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/payflow-server/pkg/config"
	"github.com/code-payments/payflow-server/pkg/config/memory"
)

func testTypedConfig[T any](t *testing.T, newConfig func(config.Config, T) config.Typed[T], defaultValue, overriden T, raw interface{}) {
	ctx := context.Background()
	mock := memory.NewConfig(nil)
	wrapper := newConfig(mock, defaultValue)

	// Return the default value when no override is set
	val, err := wrapper.GetSafe(ctx)
	require.NoError(t, err)
	assert.Equal(t, defaultValue, val)

	// The overriden value is returned when set
	mock.Set(raw)
	val, err = wrapper.GetSafe(ctx)
	require.NoError(t, err)
	assert.Equal(t, overriden, val)
	assert.Equal(t, overriden, wrapper.Get(ctx))

	// The last observed config value is returned on error
	mock.Fail(true)
	val, err = wrapper.GetSafe(ctx)
	require.Error(t, err)
	assert.Equal(t, overriden, val)

	// The default value is returned when the override no longer has a value
	mock.Fail(false)
	mock.Set(nil)
	assert.Equal(t, defaultValue, wrapper.Get(ctx))

	// Unsupported source types keep the last value
	mock.Set(struct{}{})
	val, err = wrapper.GetSafe(ctx)
	assert.Equal(t, ErrUnsuportedConversion, err)
	assert.Equal(t, defaultValue, val)
}

func TestBoolConfig(t *testing.T) {
	testTypedConfig(t, NewBoolConfig, true, false, []byte("false"))
	testTypedConfig(t, NewBoolConfig, false, true, true)
}

func TestDurationConfig(t *testing.T) {
	testTypedConfig(t, NewDurationConfig, time.Second, 2*time.Minute, []byte("2m"))
	testTypedConfig(t, NewDurationConfig, time.Second, time.Hour, time.Hour)
}

func TestFloat64Config(t *testing.T) {
	testTypedConfig(t, NewFloat64Config, 10000.0, 2500.5, []byte("2500.5"))
	testTypedConfig(t, NewFloat64Config, 10000.0, 7.0, 7)
}

func TestUint64Config(t *testing.T) {
	testTypedConfig(t, NewUint64Config, uint64(1), uint64(250), []byte("250"))
	testTypedConfig(t, NewUint64Config, uint64(1), uint64(3), uint(3))
}

func TestStringConfig(t *testing.T) {
	testTypedConfig(t, NewStringConfig, "default", "override", []byte("override"))
	testTypedConfig(t, NewStringConfig, "default", "override", "override")
}
