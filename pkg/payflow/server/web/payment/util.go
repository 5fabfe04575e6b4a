package payment

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	payment_data "github.com/code-payments/payflow-server/pkg/payflow/data/payment"
	payment_lib "github.com/code-payments/payflow-server/pkg/payflow/payment"
)

const (
	successJsonKey = "success"
	errorJsonKey   = "error"
	messageJsonKey = "message"
	statusJsonKey  = "status"
	dataJsonKey    = "data"
	idJsonKey      = "id"
)

var (
	errInternal = errors.New("internal server error")
)

type GenericApiResponseBody map[string]any

func NewGenericApiSuccessResponseBody() GenericApiResponseBody {
	return map[string]any{
		successJsonKey: true,
	}
}

func NewGenericApiFailureResponseBody(err error) GenericApiResponseBody {
	return map[string]any{
		successJsonKey: false,
		errorJsonKey:   err.Error(),
	}
}

// NewCollectionResponseBody maps every payment id to its persisted shape, with
// no envelope around it.
func NewCollectionResponseBody(records map[string]*payment_data.Record) GenericApiResponseBody {
	body := make(GenericApiResponseBody, len(records))
	for id, entry := range payment_data.ToEntries(records) {
		body[id] = entry
	}
	return body
}

// NewPaymentResponseBody describes a payment in its persisted shape
func NewPaymentResponseBody(record *payment_data.Record) GenericApiResponseBody {
	body := NewGenericApiSuccessResponseBody()
	body[idJsonKey] = record.Id
	body[statusJsonKey] = record.State.String()
	body[dataJsonKey] = payment_data.ToEntry(record)
	return body
}

// NewOutcomeResponseBody describes the result of an operation against a
// payment. The success flag mirrors the business result.
func NewOutcomeResponseBody(record *payment_data.Record, outcome payment_lib.Outcome) GenericApiResponseBody {
	body := NewPaymentResponseBody(record)
	body[successJsonKey] = outcome.Ok
	body[messageJsonKey] = outcome.Reason
	if !outcome.Ok {
		body[errorJsonKey] = outcome.Reason
	}
	return body
}

func (b GenericApiResponseBody) ToJson() ([]byte, error) {
	return json.Marshal(b)
}

// HandleErrorInWebContext maps a payment error onto an HTTP status code and
// the error that is safe to report to the client.
func HandleErrorInWebContext(err error) (int, error) {
	switch {
	case err == nil:
		return http.StatusOK, nil
	case errors.Is(err, payment_data.ErrNotFound):
		return http.StatusNotFound, payment_data.ErrNotFound
	case errors.Is(err, payment_data.ErrAlreadyExists):
		return http.StatusConflict, payment_data.ErrAlreadyExists
	case errors.Is(err, payment_lib.ErrInvalidPayment):
		return http.StatusBadRequest, err
	case errors.Is(err, errInvalidRequest):
		return http.StatusBadRequest, err
	default:
		return http.StatusInternalServerError, errInternal
	}
}

// statusCodeForOutcome returns the code for a completed operation. Operations
// that were not applied are reported as conflicts with the payment's state,
// while a pay attempt that failed validation still committed a transition.
func statusCodeForOutcome(outcome payment_lib.Outcome) int {
	if outcome.Ok || outcome.Mutated {
		return http.StatusOK
	}
	return http.StatusConflict
}
