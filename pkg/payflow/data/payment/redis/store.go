package redis

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/payflow-server/pkg/payflow/data/payment"
)

const DefaultKey = "payflow:payments"

type store struct {
	log    *logrus.Entry
	client *redis.Client
	key    string
}

// New returns a payment.Store keeping the whole collection as a single JSON
// string value under key.
func New(client *redis.Client, key string) payment.Store {
	if len(key) == 0 {
		key = DefaultKey
	}

	return &store{
		log: logrus.StandardLogger().WithFields(logrus.Fields{
			"type": "payment/redis/store",
			"key":  key,
		}),
		client: client,
		key:    key,
	}
}

// LoadAll implements payment.Store.LoadAll
func (s *store) LoadAll(ctx context.Context) (map[string]*payment.Record, error) {
	log := s.log.WithField("method", "LoadAll")

	data, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return make(map[string]*payment.Record), nil
	} else if err != nil {
		return nil, errors.Wrap(err, "error getting payment document")
	}

	records, skipped, err := payment.UnmarshalCollection(data)
	if err != nil {
		log.WithError(err).Warn("payment document is corrupt, treating as empty")
		return make(map[string]*payment.Record), nil
	}

	if len(skipped) > 0 {
		log.WithField("skipped", skipped).Warn("ignoring invalid payment entries")
	}

	return records, nil
}

// SaveAll implements payment.Store.SaveAll
func (s *store) SaveAll(ctx context.Context, records map[string]*payment.Record) error {
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return err
		}
	}

	data, err := payment.MarshalCollection(records)
	if err != nil {
		return errors.Wrap(err, "error encoding payment document")
	}

	// No expiry, the document is the system of record
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return errors.Wrap(err, "error setting payment document")
	}
	return nil
}
