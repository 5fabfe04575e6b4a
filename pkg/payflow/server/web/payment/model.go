package payment

import (
	"math"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
)

const (
	amountQueryParam        = "amount"
	paymentMethodQueryParam = "payment_method"
)

var (
	errInvalidRequest = errors.New("invalid request")
)

type createRequest struct {
	id            string
	amount        float64
	paymentMethod string
}

type updateRequest struct {
	amount        *float64
	paymentMethod *string
}

func newCreateRequestFromHttpContext(r *http.Request) (*createRequest, error) {
	id := r.PathValue("id")
	if len(id) == 0 {
		return nil, errors.Wrap(errInvalidRequest, "payment id missing")
	}

	amount, err := parseAmountQueryParam(r)
	if err != nil {
		return nil, err
	} else if amount == nil {
		return nil, errors.Wrap(errInvalidRequest, "amount query parameter missing")
	}

	paymentMethod := r.URL.Query().Get(paymentMethodQueryParam)
	if len(paymentMethod) == 0 {
		return nil, errors.Wrap(errInvalidRequest, "payment_method query parameter missing")
	}

	return &createRequest{
		id:            id,
		amount:        *amount,
		paymentMethod: paymentMethod,
	}, nil
}

func newUpdateRequestFromHttpContext(r *http.Request) (*updateRequest, error) {
	amount, err := parseAmountQueryParam(r)
	if err != nil {
		return nil, err
	}

	var paymentMethod *string
	if r.URL.Query().Has(paymentMethodQueryParam) {
		value := r.URL.Query().Get(paymentMethodQueryParam)
		paymentMethod = &value
	}

	return &updateRequest{
		amount:        amount,
		paymentMethod: paymentMethod,
	}, nil
}

// parseAmountQueryParam returns nil when the amount isn't provided. Provided
// values must be numeric, and range checks are left to the payment.
func parseAmountQueryParam(r *http.Request) (*float64, error) {
	if !r.URL.Query().Has(amountQueryParam) {
		return nil, nil
	}

	amount, err := strconv.ParseFloat(r.URL.Query().Get(amountQueryParam), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, errors.Wrap(errInvalidRequest, "amount is not a number")
	}
	return &amount, nil
}
