package async_summary

import (
	"context"
	"sync"

	payment_data "github.com/code-payments/payflow-server/pkg/payflow/data/payment"
)

type countingStore struct {
	payment_data.Store
	err error

	mu    sync.Mutex
	count int
}

func (s *countingStore) LoadAll(ctx context.Context) (map[string]*payment_data.Record, error) {
	s.mu.Lock()
	s.count++
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	return s.Store.LoadAll(ctx)
}

func (s *countingStore) loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
