package async_summary

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/code-payments/payflow-server/pkg/metrics"
	payment_data "github.com/code-payments/payflow-server/pkg/payflow/data/payment"
	"github.com/code-payments/payflow-server/pkg/retry"
	"github.com/code-payments/payflow-server/pkg/retry/backoff"
)

type methodAndState struct {
	method payment_data.Method
	state  payment_data.State
}

type summary struct {
	total    uint64
	byState  map[payment_data.State]uint64
	byMethod map[methodAndState]uint64
}

func (p *service) worker(serviceCtx context.Context, interval time.Duration) error {
	return retry.Loop(
		func() error {
			select {
			case <-serviceCtx.Done():
				return serviceCtx.Err()
			case <-time.After(interval):
			}

			ctx := serviceCtx
			if nr, ok := serviceCtx.Value(metrics.NewRelicContextKey{}).(*newrelic.Application); ok && nr != nil {
				m := nr.StartTransaction("async__summary_service__collect")
				defer m.End()
				ctx = newrelic.NewContext(serviceCtx, m)
			}

			s, err := p.collect(ctx)
			if err != nil {
				newrelic.FromContext(ctx).NoticeError(err)
				p.log.WithError(err).Warn("failure collecting payment summary")
				return err
			}

			p.record(ctx, s)
			return nil
		},
		retry.NonRetriableErrors(context.Canceled, context.DeadlineExceeded),
		retry.Backoff(backoff.BinaryExponential(interval), 10*interval),
	)
}

func (p *service) collect(ctx context.Context) (*summary, error) {
	all, err := p.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	s := &summary{
		total:    uint64(len(all)),
		byState:  make(map[payment_data.State]uint64),
		byMethod: make(map[methodAndState]uint64),
	}
	for _, state := range []payment_data.State{
		payment_data.StateRegistered,
		payment_data.StatePaid,
		payment_data.StateFailed,
	} {
		s.byState[state] = 0
	}

	breakdown := p.conf.breakdownByMethod.Get(ctx)
	for _, record := range all {
		s.byState[record.State]++
		if breakdown {
			s.byMethod[methodAndState{record.CanonicalMethod(), record.State}]++
		}
	}

	return s, nil
}
