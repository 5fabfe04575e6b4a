package payment

import (
	"context"

	"github.com/pkg/errors"

	payment_data "github.com/code-payments/payflow-server/pkg/payflow/data/payment"
)

var (
	ErrUnknownState     = errors.New("unknown payment state")
	ErrUnknownOperation = errors.New("unknown payment operation")
)

type OperationType uint8

const (
	OperationUnknown OperationType = iota
	OperationPay
	OperationRevert
	OperationUpdate
)

// Operation is a request to move a payment through its lifecycle. Amount and
// Method are only meaningful for OperationUpdate, where a nil value means the
// field was not provided.
type Operation struct {
	Type OperationType

	Amount *float64
	Method *string
}

func PayOperation() Operation {
	return Operation{Type: OperationPay}
}

func RevertOperation() Operation {
	return Operation{Type: OperationRevert}
}

func UpdateOperation(amount *float64, method *string) Operation {
	return Operation{
		Type:   OperationUpdate,
		Amount: amount,
		Method: method,
	}
}

// Outcome is the result of applying an Operation.
//
// Ok is the business result. A pay attempt that fails validation is not Ok but
// still Mutated, since the payment moves to FAILED. Rejected operations are
// neither Ok nor Mutated.
type Outcome struct {
	Ok      bool
	Reason  string
	Mutated bool
}

// Apply runs op against a payment in state, returning the state the payment
// should move to. record carries the payment's fields and is only modified by a
// successful update. Its State field is ignored in favour of state.
//
// validator is consulted only when paying a REGISTERED payment.
func Apply(ctx context.Context, state payment_data.State, op Operation, record *payment_data.Record, validator Policy) (payment_data.State, Outcome, error) {
	switch op.Type {
	case OperationPay, OperationRevert, OperationUpdate:
	default:
		return state, Outcome{}, ErrUnknownOperation
	}

	switch state {
	case payment_data.StateRegistered:
		return applyRegistered(ctx, op, record, validator)
	case payment_data.StateFailed:
		return applyFailed(op)
	case payment_data.StatePaid:
		return applyPaid(op)
	}
	return state, Outcome{}, ErrUnknownState
}

func applyRegistered(ctx context.Context, op Operation, record *payment_data.Record, validator Policy) (payment_data.State, Outcome, error) {
	switch op.Type {
	case OperationPay:
		candidate := record.Clone()
		candidate.State = payment_data.StateRegistered

		ok, reason, err := validator.Validate(ctx, &candidate)
		if err != nil {
			return payment_data.StateRegistered, Outcome{}, errors.Wrap(err, "error validating payment")
		}

		if !ok {
			return payment_data.StateFailed, Outcome{Reason: reason, Mutated: true}, nil
		}
		return payment_data.StatePaid, Outcome{Ok: true, Reason: "payment completed", Mutated: true}, nil

	case OperationRevert:
		return payment_data.StateRegistered, Outcome{Ok: true, Reason: "payment is already registered"}, nil

	default:
		var changed bool

		if op.Amount != nil && payment_data.IsValidAmount(*op.Amount) && *op.Amount != record.Amount {
			record.Amount = *op.Amount
			changed = true
		}

		if op.Method != nil && len(*op.Method) > 0 && *op.Method != record.PaymentMethod {
			record.PaymentMethod = *op.Method
			changed = true
		}

		if !changed {
			return payment_data.StateRegistered, Outcome{Reason: "no valid changes provided"}, nil
		}
		return payment_data.StateRegistered, Outcome{Ok: true, Reason: "payment updated", Mutated: true}, nil
	}
}

func applyFailed(op Operation) (payment_data.State, Outcome, error) {
	switch op.Type {
	case OperationRevert:
		return payment_data.StateRegistered, Outcome{Ok: true, Reason: "payment reverted", Mutated: true}, nil
	default:
		return payment_data.StateFailed, Outcome{Reason: "payment failed, it must be reverted first"}, nil
	}
}

func applyPaid(op Operation) (payment_data.State, Outcome, error) {
	switch op.Type {
	case OperationPay:
		return payment_data.StatePaid, Outcome{Reason: "payment is already paid"}, nil
	case OperationRevert:
		return payment_data.StatePaid, Outcome{Reason: "paid payments cannot be reverted"}, nil
	default:
		return payment_data.StatePaid, Outcome{Reason: "paid payments are immutable"}, nil
	}
}

func (t OperationType) String() string {
	switch t {
	case OperationPay:
		return "pay"
	case OperationRevert:
		return "revert"
	case OperationUpdate:
		return "update"
	}
	return "unknown"
}
