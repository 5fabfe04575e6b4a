package payment

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

// Entry is the persisted and externally reported shape of a single record.
// The id is the key of the enclosing collection.
type Entry struct {
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
	Status        string  `json:"status"`
}

func ToEntry(r *Record) Entry {
	return Entry{
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
		Status:        r.State.String(),
	}
}

func FromEntry(id string, e Entry) (*Record, error) {
	state, err := ParseState(e.Status)
	if err != nil {
		return nil, err
	}

	r := &Record{
		Id:            id,
		Amount:        e.Amount,
		PaymentMethod: e.PaymentMethod,
		State:         state,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// ToEntries converts a collection into its externally reported shape.
func ToEntries(records map[string]*Record) map[string]Entry {
	entries := make(map[string]Entry, len(records))
	for id, record := range records {
		entries[id] = ToEntry(record)
	}
	return entries
}

// MarshalCollection encodes a collection as an indented JSON object keyed by id.
func MarshalCollection(records map[string]*Record) ([]byte, error) {
	return json.MarshalIndent(ToEntries(records), "", "    ")
}

// UnmarshalCollection decodes a JSON collection. Blank input decodes to an
// empty collection. Entries that don't describe a valid record are dropped and
// their ids returned in skipped, sorted.
func UnmarshalCollection(data []byte) (records map[string]*Record, skipped []string, err error) {
	records = make(map[string]*Record)

	if len(bytes.TrimSpace(data)) == 0 {
		return records, nil, nil
	}

	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, nil, errors.Wrap(err, "malformed payment collection")
	}

	for id, entry := range entries {
		record, err := FromEntry(id, entry)
		if err != nil {
			skipped = append(skipped, id)
			continue
		}
		records[id] = record
	}

	sort.Strings(skipped)
	return records, skipped, nil
}
