package payment

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/payflow-server/pkg/metrics"
	payment_data "github.com/code-payments/payflow-server/pkg/payflow/data/payment"
)

const (
	metricsStructName = "payment.Payment"

	transitionEventName = "PaymentTransition"
)

var (
	ErrInvalidPayment = errors.New("invalid payment")
)

// Payment drives a single payment record through its lifecycle, persisting
// every committed change back to the store.
//
// A Payment is not safe for concurrent use, and nothing coordinates separate
// Payment values for the same id. Interleaved operations are last writer wins.
type Payment struct {
	log       *logrus.Entry
	store     payment_data.Store
	validator Policy

	record  payment_data.Record
	persist bool
}

type Option func(p *Payment)

// WithoutPersistence configures a Payment that never writes to the store. The
// store is still consulted for validation.
func WithoutPersistence() Option {
	return func(p *Payment) {
		p.persist = false
	}
}

// New creates a REGISTERED payment and persists it.
//
// ErrInvalidPayment is returned when the id, amount or method is unusable, and
// payment_data.ErrAlreadyExists when a payment with the id is already
// persisted.
func New(ctx context.Context, store payment_data.Store, validator Policy, id string, amount float64, method string, opts ...Option) (*Payment, error) {
	switch {
	case len(id) == 0:
		return nil, errors.Wrap(ErrInvalidPayment, "payment id is required")
	case !payment_data.IsValidAmount(amount):
		return nil, errors.Wrap(ErrInvalidPayment, "amount must be a positive finite number")
	case len(method) == 0:
		return nil, errors.Wrap(ErrInvalidPayment, "payment method is required")
	}

	p := newPayment(store, validator, payment_data.Record{
		Id:            id,
		Amount:        amount,
		PaymentMethod: method,
		State:         payment_data.StateRegistered,
	}, opts...)

	_, err := payment_data.Get(ctx, store, id)
	if err == nil {
		return nil, payment_data.ErrAlreadyExists
	} else if err != payment_data.ErrNotFound {
		return nil, errors.Wrap(err, "error checking for existing payment")
	}

	if p.persist {
		if err := payment_data.Put(ctx, store, &p.record); err != nil {
			return nil, errors.Wrap(err, "error saving payment")
		}
	}

	p.log.WithFields(logrus.Fields{
		"method":         "New",
		"amount":         amount,
		"payment_method": method,
	}).Debug("payment registered")

	return p, nil
}

// Load reconstructs a persisted payment.
//
// payment_data.ErrNotFound is returned if the payment doesn't exist.
func Load(ctx context.Context, store payment_data.Store, validator Policy, id string, opts ...Option) (*Payment, error) {
	record, err := payment_data.Get(ctx, store, id)
	if err != nil {
		return nil, err
	}

	return newPayment(store, validator, *record, opts...), nil
}

func newPayment(store payment_data.Store, validator Policy, record payment_data.Record, opts ...Option) *Payment {
	p := &Payment{
		log: logrus.StandardLogger().WithFields(logrus.Fields{
			"type":    "payment/payment",
			"payment": record.Id,
		}),
		store:     store,
		validator: validator,
		record:    record,
		persist:   true,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Pay attempts to complete the payment. A validation failure moves the payment
// to FAILED and is reported through the Outcome, not the error.
func (p *Payment) Pay(ctx context.Context) (Outcome, error) {
	return p.apply(ctx, "Pay", PayOperation())
}

// Revert moves a FAILED payment back to REGISTERED.
func (p *Payment) Revert(ctx context.Context) (Outcome, error) {
	return p.apply(ctx, "Revert", RevertOperation())
}

// Update changes the amount and/or method of a REGISTERED payment. Nil values
// are left untouched. Provided values that are invalid are ignored.
func (p *Payment) Update(ctx context.Context, amount *float64, method *string) (Outcome, error) {
	return p.apply(ctx, "Update", UpdateOperation(amount, method))
}

func (p *Payment) State() payment_data.State {
	return p.record.State
}

// Record returns a copy of the payment's record.
func (p *Payment) Record() *payment_data.Record {
	cloned := p.record.Clone()
	return &cloned
}

func (p *Payment) apply(ctx context.Context, methodName string, op Operation) (Outcome, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, methodName)
	defer tracer.End()

	log := p.log.WithFields(logrus.Fields{
		"method": methodName,
		"state":  p.record.State.String(),
	})

	working := p.record.Clone()
	newState, outcome, err := Apply(ctx, p.record.State, op, &working, p.validator)
	if err != nil {
		log.WithError(err).Warn("failure applying payment operation")
		tracer.OnError(err)
		return Outcome{}, err
	}

	tracer.AddAttribute("ok", outcome.Ok)
	tracer.AddAttribute("mutated", outcome.Mutated)

	if !outcome.Mutated {
		log.WithField("reason", outcome.Reason).Debug("payment operation not applied")
		return outcome, nil
	}

	working.State = newState

	if p.persist {
		if err := payment_data.Put(ctx, p.store, &working); err != nil {
			log.WithError(err).Warn("failure saving payment")
			tracer.OnError(err)
			return Outcome{}, errors.Wrap(err, "error saving payment")
		}
	}

	previous := p.record.State
	p.record = working

	log.WithFields(logrus.Fields{
		"new_state": newState.String(),
		"ok":        outcome.Ok,
		"reason":    outcome.Reason,
	}).Debug("payment operation applied")

	metrics.RecordEvent(ctx, transitionEventName, map[string]interface{}{
		"operation":      op.Type.String(),
		"from":           previous.String(),
		"to":             newState.String(),
		"ok":             outcome.Ok,
		"payment_method": string(working.CanonicalMethod()),
	})

	return outcome, nil
}
