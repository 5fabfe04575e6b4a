package payment

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

type State uint8

const (
	StateUnknown    State = iota
	StateRegistered       // Created or reverted, awaiting a pay attempt
	StatePaid             // Successfully paid, terminal
	StateFailed           // Pay attempt rejected by validation, must be reverted before retrying
)

// Method is a payment method identifier as supplied by clients.
type Method string

const (
	MethodCreditCard Method = "credit_card"
	MethodPayPal     Method = "paypal"
)

// Accepted spellings that map onto a canonical method.
var methodAliases = map[string]Method{
	"tarjeta_credito": MethodCreditCard,
}

type Record struct {
	Id string

	Amount        float64
	PaymentMethod string

	State State
}

// IsValidAmount reports whether amount is a positive real number. NaN and
// infinities are rejected.
func IsValidAmount(amount float64) bool {
	return amount > 0 && !math.IsInf(amount, 0)
}

func (r *Record) Validate() error {
	if len(r.Id) == 0 {
		return errors.New("payment id is required")
	}

	if !IsValidAmount(r.Amount) {
		return errors.New("amount must be a positive finite number")
	}

	if len(r.PaymentMethod) == 0 {
		return errors.New("payment method is required")
	}

	switch r.State {
	case StateRegistered, StatePaid, StateFailed:
	default:
		return errors.Errorf("invalid state %d", r.State)
	}

	return nil
}

func (r *Record) Clone() Record {
	return Record{
		Id:            r.Id,
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
		State:         r.State,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id
	dst.Amount = r.Amount
	dst.PaymentMethod = r.PaymentMethod
	dst.State = r.State
}

// CanonicalMethod returns the method the record's payment method string maps
// onto. Unrecognized methods are returned as-is.
func (r *Record) CanonicalMethod() Method {
	return CanonicalMethod(r.PaymentMethod)
}

// CanonicalMethod normalizes a client supplied payment method, resolving known
// aliases.
func CanonicalMethod(method string) Method {
	normalized := strings.ToLower(strings.TrimSpace(method))
	if alias, ok := methodAliases[normalized]; ok {
		return alias
	}
	return Method(normalized)
}

func (s State) String() string {
	switch s {
	case StateRegistered:
		return "REGISTERED"
	case StatePaid:
		return "PAID"
	case StateFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// ParseState converts a persisted status name into a State.
func ParseState(name string) (State, error) {
	switch name {
	case "REGISTERED":
		return StateRegistered, nil
	case "PAID":
		return StatePaid, nil
	case "FAILED":
		return StateFailed, nil
	}
	return StateUnknown, errors.Errorf("unknown payment status %q", name)
}
