package file

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/payflow-server/pkg/payflow/data/payment"
)

const DefaultPath = "data.json"

type store struct {
	log  *logrus.Entry
	path string
}

// New returns a payment.Store persisting the collection as a single JSON
// document at path.
func New(path string) payment.Store {
	if len(path) == 0 {
		path = DefaultPath
	}

	return &store{
		log:  logrus.StandardLogger().WithField("type", "payment/file/store"),
		path: path,
	}
}

// LoadAll implements payment.Store.LoadAll
//
// A missing or malformed document is treated as an empty collection.
func (s *store) LoadAll(_ context.Context) (map[string]*payment.Record, error) {
	log := s.log.WithFields(logrus.Fields{
		"method": "LoadAll",
		"path":   s.path,
	})

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]*payment.Record), nil
	} else if err != nil {
		log.WithError(err).Warn("failure reading payment document")
		return make(map[string]*payment.Record), nil
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
//
// The document is written to a sibling temp file and renamed over the target,
// so readers never observe a partial write.
func (s *store) SaveAll(_ context.Context, records map[string]*payment.Record) error {
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return err
		}
	}

	data, err := payment.MarshalCollection(records)
	if err != nil {
		return errors.Wrap(err, "error encoding payment document")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "error creating payment document directory")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "error creating temp payment document")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "error writing temp payment document")
	}

	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "error closing temp payment document")
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(err, "error replacing payment document")
	}

	return nil
}
