package memory

import (
	"context"
	"sync"

	"github.com/code-payments/payflow-server/pkg/payflow/data/payment"
)

type store struct {
	mu      sync.Mutex
	records map[string]*payment.Record
}

// New returns a new in memory payment.Store
func New() payment.Store {
	return &store{
		records: make(map[string]*payment.Record),
	}
}

func (s *store) reset() {
	s.mu.Lock()
	s.records = make(map[string]*payment.Record)
	s.mu.Unlock()
}

// LoadAll implements payment.Store.LoadAll
func (s *store) LoadAll(_ context.Context) (map[string]*payment.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneCollection(s.records), nil
}

// SaveAll implements payment.Store.SaveAll
func (s *store) SaveAll(_ context.Context, records map[string]*payment.Record) error {
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return err
		}
	}

	cloned := cloneCollection(records)

	s.mu.Lock()
	s.records = cloned
	s.mu.Unlock()

	return nil
}

func cloneCollection(records map[string]*payment.Record) map[string]*payment.Record {
	res := make(map[string]*payment.Record, len(records))
	for id, record := range records {
		cloned := record.Clone()
		cloned.Id = id
		res[id] = &cloned
	}
	return res
}
