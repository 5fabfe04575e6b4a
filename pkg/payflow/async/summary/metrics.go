package async_summary

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/payflow-server/pkg/metrics"
)

const (
	paymentCountEventName       = "PaymentCountPollingCheck"
	paymentMethodCountEventName = "PaymentMethodCountPollingCheck"

	paymentTotalMetricName = "Payflow/Payments/Total"
)

func (p *service) record(ctx context.Context, s *summary) {
	metrics.RecordCount(ctx, paymentTotalMetricName, s.total)

	fields := logrus.Fields{"total": s.total}
	for state, count := range s.byState {
		metrics.RecordEvent(ctx, paymentCountEventName, map[string]interface{}{
			"count": count,
			"state": state.String(),
		})
		fields[state.String()] = count
	}

	for key, count := range s.byMethod {
		metrics.RecordEvent(ctx, paymentMethodCountEventName, map[string]interface{}{
			"count":          count,
			"state":          key.state.String(),
			"payment_method": string(key.method),
		})
	}

	p.log.WithFields(fields).Debug("payment summary")
}
