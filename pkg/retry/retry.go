package retry

// Action is a function to be performed in a retriable manner.
type Action func() error

// Retry executes the provided action, potentially multiple times based off of
// the provided strategies. Retry will block until the action is successful, or
// one of the provided strategies indicate no further retries should be performed.
//
// The strategies are executed in the provided order, so any strategies that
// induce delays should be specified last.
func Retry(action Action, strategies ...Strategy) (uint, error) {
	for i := uint(1); ; i++ {
		err := action()
		if err == nil {
			return i, nil
		}

		if !shouldRetry(i, err, strategies) {
			return i, err
		}
	}
}

// Loop executes the provided action infinitely, until one of the provided
// strategies indicates it should not be retried.
//
// Unlike Retry, when the action returns with no error, the internal attempt counter
// is reset, and the action is executed again.
func Loop(action Action, strategies ...Strategy) error {
	for i := uint(1); ; i++ {
		err := action()
		if err == nil {
			i = 0
			continue
		}

		if !shouldRetry(i, err, strategies) {
			return err
		}
	}
}

func shouldRetry(attempts uint, err error, strategies []Strategy) bool {
	for _, s := range strategies {
		if !s(attempts, err) {
			return false
		}
	}
	return true
}
