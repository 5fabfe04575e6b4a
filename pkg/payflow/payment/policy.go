package payment

import (
	"context"
	"fmt"

	"github.com/code-payments/payflow-server/pkg/config"
	payment_data "github.com/code-payments/payflow-server/pkg/payflow/data/payment"
)

// Policy decides whether a REGISTERED payment may be paid. A false result is a
// business outcome and carries a human readable reason. Errors are reserved for
// faults consulting collaborators such as the store.
type Policy interface {
	Validate(ctx context.Context, record *payment_data.Record) (ok bool, reason string, err error)
}

// Validator dispatches to the Policy registered for a record's canonical
// payment method. Records with an unregistered method are always invalid.
type Validator struct {
	policies map[payment_data.Method]Policy
}

// NewValidator returns the Validator with the credit card and PayPal policies.
// The credit card policy consults store for other outstanding credit card
// payments.
func NewValidator(store payment_data.Store, configProvider ConfigProvider) *Validator {
	conf := configProvider()

	return NewValidatorWithPolicies(map[payment_data.Method]Policy{
		payment_data.MethodCreditCard: &creditCardPolicy{
			store:     store,
			maxAmount: conf.creditCardMaxAmount,
		},
		payment_data.MethodPayPal: &payPalPolicy{
			maxAmount: conf.payPalMaxAmount,
		},
	})
}

func NewValidatorWithPolicies(policies map[payment_data.Method]Policy) *Validator {
	copied := make(map[payment_data.Method]Policy, len(policies))
	for method, policy := range policies {
		copied[method] = policy
	}
	return &Validator{policies: copied}
}

// Validate implements Policy.Validate
func (v *Validator) Validate(ctx context.Context, record *payment_data.Record) (bool, string, error) {
	policy, ok := v.policies[record.CanonicalMethod()]
	if !ok {
		return false, fmt.Sprintf("unsupported payment method %q", record.PaymentMethod), nil
	}
	return policy.Validate(ctx, record)
}

type creditCardPolicy struct {
	store     payment_data.Store
	maxAmount config.Float64
}

// Validate implements Policy.Validate
//
// At most one credit card payment may be outstanding system wide. The scan of
// the store is not atomic with the write that follows a successful pay.
func (p *creditCardPolicy) Validate(ctx context.Context, record *payment_data.Record) (bool, string, error) {
	maxAmount := p.maxAmount.Get(ctx)
	if !(record.Amount < maxAmount) {
		return false, fmt.Sprintf("credit card amount must be less than %v", maxAmount), nil
	}

	outstanding, err := payment_data.CountByMethodAndState(
		ctx,
		p.store,
		payment_data.MethodCreditCard,
		payment_data.StateRegistered,
		record.Id,
	)
	if err != nil {
		return false, "", err
	}

	if outstanding > 0 {
		return false, "another credit card payment is already registered", nil
	}
	return true, "", nil
}

type payPalPolicy struct {
	maxAmount config.Float64
}

// Validate implements Policy.Validate
func (p *payPalPolicy) Validate(ctx context.Context, record *payment_data.Record) (bool, string, error) {
	maxAmount := p.maxAmount.Get(ctx)
	if !(record.Amount < maxAmount) {
		return false, fmt.Sprintf("paypal amount must be less than %v", maxAmount), nil
	}
	return true, "", nil
}
