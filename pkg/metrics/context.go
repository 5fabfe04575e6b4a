package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// NewRelicContextKey is the context key under which the New Relic application
// is made available to downstream code.
type NewRelicContextKey struct{}

// WithApplication returns a context carrying the New Relic application. A nil
// app returns ctx unchanged, so metrics recording becomes a no-op.
func WithApplication(ctx context.Context, app *newrelic.Application) context.Context {
	if app == nil {
		return ctx
	}
	return context.WithValue(ctx, NewRelicContextKey{}, app)
}

func applicationFromContext(ctx context.Context) (*newrelic.Application, bool) {
	nr, ok := ctx.Value(NewRelicContextKey{}).(*newrelic.Application)
	return nr, ok && nr != nil
}
