package etcd

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/code-payments/payflow-server/pkg/payflow/data/payment"
)

const DefaultKey = "/payflow/payments"

type store struct {
	log    *logrus.Entry
	client *clientv3.Client
	key    string
}

// New returns a payment.Store that keeps the whole collection as a single JSON
// document stored under key.
func New(client *clientv3.Client, key string) payment.Store {
	if len(key) == 0 {
		key = DefaultKey
	}

	return &store{
		log: logrus.StandardLogger().WithFields(logrus.Fields{
			"type": "payment/etcd/store",
			"key":  key,
		}),
		client: client,
		key:    key,
	}
}

// LoadAll implements payment.Store.LoadAll
func (s *store) LoadAll(ctx context.Context) (map[string]*payment.Record, error) {
	log := s.log.WithField("method", "LoadAll")

	resp, err := s.client.Get(ctx, s.key)
	if err != nil {
		return nil, errors.Wrap(err, "error getting payment document")
	}

	if len(resp.Kvs) == 0 {
		return make(map[string]*payment.Record), nil
	}

	records, skipped, err := payment.UnmarshalCollection(resp.Kvs[0].Value)
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

	_, err = s.client.Put(ctx, s.key, string(data))
	if err != nil {
		return errors.Wrap(err, "error putting payment document")
	}
	return nil
}
