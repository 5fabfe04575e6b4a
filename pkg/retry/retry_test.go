package retry

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/code-payments/payflow-server/pkg/retry/backoff"
)

type testSleeper struct {
	calls []time.Duration
}

func (s *testSleeper) Sleep(d time.Duration) {
	s.calls = append(s.calls, d)
}

func withTestSleeper(t *testing.T) *testSleeper {
	ts := &testSleeper{}
	sleeperImpl = ts
	t.Cleanup(func() { sleeperImpl = &realSleeper{} })
	return ts
}

func TestRetry_HappyPath(t *testing.T) {
	attempts, err := Retry(func() error { return nil }, Limit(5))
	assert.NoError(t, err)
	assert.Equal(t, uint(1), attempts)
}

func TestRetry_StrategiesCombine(t *testing.T) {
	retriableErr := errors.New("retriable")

	attempts, err := Retry(func() error { return errors.New("unknown") }, Limit(5), RetriableErrors(retriableErr))
	assert.EqualError(t, err, "unknown")
	assert.Equal(t, uint(1), attempts)

	attempts, err = Retry(func() error { return errors.Wrap(retriableErr, "wrapped") }, Limit(5), RetriableErrors(retriableErr))
	assert.ErrorIs(t, err, retriableErr)
	assert.Equal(t, uint(5), attempts)
}

func TestRetry_NonRetriableErrors(t *testing.T) {
	fatal := errors.New("fatal")

	var calls int
	attempts, err := Retry(func() error {
		calls++
		if calls == 3 {
			return fatal
		}
		return errors.New("transient")
	}, NonRetriableErrors(fatal))
	assert.Equal(t, fatal, err)
	assert.Equal(t, uint(3), attempts)
}

func TestRetry_Backoff(t *testing.T) {
	ts := withTestSleeper(t)

	_, err := Retry(func() error { return errors.New("err") },
		Limit(4),
		Backoff(backoff.BinaryExponential(time.Second), 3*time.Second),
	)
	assert.Error(t, err)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, ts.calls)
}

func TestLoop(t *testing.T) {
	withTestSleeper(t)

	errNonRetriable := errors.New("non retriable")

	var i int
	err := Loop(
		func() error {
			defer func() { i++ }()

			if i > 10 {
				return errNonRetriable
			}
			if i%2 == 0 {
				return errors.New("transient")
			}
			return nil
		},
		NonRetriableErrors(errNonRetriable),
		Backoff(backoff.Constant(time.Millisecond), time.Millisecond),
	)
	assert.Equal(t, errNonRetriable, err)
	assert.Equal(t, 12, i)
}
