package app

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/payflow-server/pkg/metrics"
)

const (
	requestIdHeaderName = "X-Request-Id"

	requestIdAttributeKey = "http.request.id"
)

// requestIdMiddleware ensures every request and response carries a request id,
// generating one when the client didn't supply it.
func requestIdMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestId := r.Header.Get(requestIdHeaderName)
			if _, err := uuid.Parse(requestId); err != nil {
				requestId = uuid.NewString()
				r.Header.Set(requestIdHeaderName, requestId)
			}

			w.Header().Set(requestIdHeaderName, requestId)

			if txn := newrelic.FromContext(r.Context()); txn != nil {
				txn.AddAttribute(requestIdAttributeKey, requestId)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// newRelicMiddleware runs each request in a New Relic web transaction named
// after the matched route. The transaction and application are available to
// handlers through the request context.
func newRelicMiddleware(app *newrelic.Application) Middleware {
	return func(next http.Handler) http.Handler {
		if app == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			txn := app.StartTransaction(r.Method + " " + r.URL.Path)
			defer txn.End()

			txn.SetWebRequestHTTP(r)
			w = txn.SetWebResponse(w)

			ctx := metrics.WithApplication(newrelic.NewContext(r.Context(), txn), app)
			r = r.WithContext(ctx)

			next.ServeHTTP(w, r)

			// The mux records the matched pattern on the request it routed
			if len(r.Pattern) > 0 {
				txn.SetName(r.Pattern)
			}
		})
	}
}

// recoveryMiddleware converts handler panics into 500s
func recoveryMiddleware(log *logrus.Entry) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}

					log.WithFields(logrus.Fields{
						"path":  r.URL.Path,
						"panic": p,
					}).Error("http handler panicked")
					w.WriteHeader(http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
