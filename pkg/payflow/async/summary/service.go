package async_summary

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/payflow-server/pkg/payflow/async"
	payment_data "github.com/code-payments/payflow-server/pkg/payflow/data/payment"
)

type service struct {
	log   *logrus.Entry
	conf  *conf
	store payment_data.Store
}

// New returns a service that periodically summarizes the persisted payments
// and reports the counts as metrics events.
func New(store payment_data.Store, configProvider ConfigProvider) async.Service {
	return &service{
		log:   logrus.StandardLogger().WithField("service", "summary"),
		conf:  configProvider(),
		store: store,
	}
}

func (p *service) Start(ctx context.Context, interval time.Duration) error {
	go func() {
		err := p.worker(ctx, interval)
		if err != nil && err != context.Canceled {
			p.log.WithError(err).Warn("summary loop terminated unexpectedly")
		}
	}()

	<-ctx.Done()
	return ctx.Err()
}
