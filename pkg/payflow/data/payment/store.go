package payment

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrNotFound      = errors.New("payment not found")
	ErrAlreadyExists = errors.New("payment already exists")
)

// Store is the durable mapping from payment id to persisted payment record.
// The contract is whole-collection oriented: callers read and replace the
// entire collection.
//
// Implementations make no guarantees about concurrent read-modify-write cycles
// issued by different callers. The last SaveAll wins.
type Store interface {
	// LoadAll returns every persisted record keyed by id.
	//
	// An absent or unparsable backing medium yields an empty mapping and no
	// error. Errors are reserved for faults reaching the medium itself.
	LoadAll(ctx context.Context) (map[string]*Record, error)

	// SaveAll replaces the entire persisted collection with records.
	SaveAll(ctx context.Context, records map[string]*Record) error
}

// Get returns a copy of the record for id.
//
// ErrNotFound is returned if the record cannot be found
func Get(ctx context.Context, s Store, id string) (*Record, error) {
	all, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	record, ok := all[id]
	if !ok {
		return nil, ErrNotFound
	}

	cloned := record.Clone()
	cloned.Id = id
	return &cloned, nil
}

// Put writes record into the collection with a full read-modify-write cycle,
// replacing any existing entry with the same id.
func Put(ctx context.Context, s Store, record *Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	all, err := s.LoadAll(ctx)
	if err != nil {
		return err
	}

	cloned := record.Clone()
	all[record.Id] = &cloned

	return s.SaveAll(ctx, all)
}

// CountByMethodAndState counts the persisted records whose canonical payment
// method and state match, ignoring the record with id excludeId.
func CountByMethodAndState(ctx context.Context, s Store, method Method, state State, excludeId string) (uint64, error) {
	all, err := s.LoadAll(ctx)
	if err != nil {
		return 0, err
	}

	var count uint64
	for id, record := range all {
		if id == excludeId {
			continue
		}

		if record.State == state && record.CanonicalMethod() == method {
			count++
		}
	}
	return count, nil
}
