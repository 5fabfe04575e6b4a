package payment

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	payment_data "github.com/code-payments/payflow-server/pkg/payflow/data/payment"
	payment_lib "github.com/code-payments/payflow-server/pkg/payflow/payment"
	"github.com/code-payments/payflow-server/pkg/rate"
)

const (
	listPaymentsPath  = "GET /payments"
	getPaymentPath    = "GET /payments/{id}"
	createPaymentPath = "POST /payments/{id}"
	updatePaymentPath = "POST /payments/{id}/update"
	payPaymentPath    = "POST /payments/{id}/pay"
	revertPaymentPath = "POST /payments/{id}/revert"
	healthPath        = "GET /healthz"

	contentTypeHeaderName      = "content-type"
	jsonContentTypeHeaderValue = "application/json"
)

type Server struct {
	log       *logrus.Entry
	store     payment_data.Store
	validator payment_lib.Policy
	limiter   rate.Limiter
}

func NewPaymentServer(store payment_data.Store, validator payment_lib.Policy, limiter rate.Limiter) *Server {
	if limiter == nil {
		limiter = &rate.NoLimiter{}
	}

	return &Server{
		log:       logrus.StandardLogger().WithField("type", "payment/web/server"),
		store:     store,
		validator: validator,
		limiter:   limiter,
	}
}

func (s *Server) listPaymentsHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.log.WithField("path", path)

		statusCode, body := func() (int, GenericApiResponseBody) {
			all, err := s.store.LoadAll(r.Context())
			if err != nil {
				log.WithError(err).Warn("failure loading payments")
				statusCode, err := HandleErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			return http.StatusOK, NewCollectionResponseBody(all)
		}()

		s.writeResponse(w, statusCode, body)
	}
}

func (s *Server) getPaymentHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.log.WithField("path", path)

		statusCode, body := func() (int, GenericApiResponseBody) {
			id := r.PathValue("id")
			log = log.WithField("payment", id)

			record, err := payment_data.Get(r.Context(), s.store, id)
			if err != nil {
				if err != payment_data.ErrNotFound {
					log.WithError(err).Warn("failure getting payment")
				}
				statusCode, err := HandleErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			return http.StatusOK, NewPaymentResponseBody(record)
		}()

		s.writeResponse(w, statusCode, body)
	}
}

func (s *Server) createPaymentHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.log.WithField("path", path)

		statusCode, body := func() (int, GenericApiResponseBody) {
			req, err := newCreateRequestFromHttpContext(r)
			if err != nil {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(err)
			}
			log = log.WithField("payment", req.id)

			p, err := payment_lib.New(r.Context(), s.store, s.validator, req.id, req.amount, req.paymentMethod)
			if err != nil {
				statusCode, err := HandleErrorInWebContext(err)
				if statusCode == http.StatusInternalServerError {
					log.WithError(err).Warn("failure creating payment")
				}
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			body := NewPaymentResponseBody(p.Record())
			body[messageJsonKey] = "payment registered"
			return http.StatusCreated, body
		}()

		s.writeResponse(w, statusCode, body)
	}
}

func (s *Server) updatePaymentHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return s.operationHandler(path, func(ctx context.Context, r *http.Request, p *payment_lib.Payment) (payment_lib.Outcome, error) {
		req, err := newUpdateRequestFromHttpContext(r)
		if err != nil {
			return payment_lib.Outcome{}, err
		}
		return p.Update(ctx, req.amount, req.paymentMethod)
	})
}

func (s *Server) payPaymentHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return s.operationHandler(path, func(ctx context.Context, _ *http.Request, p *payment_lib.Payment) (payment_lib.Outcome, error) {
		return p.Pay(ctx)
	})
}

func (s *Server) revertPaymentHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return s.operationHandler(path, func(ctx context.Context, _ *http.Request, p *payment_lib.Payment) (payment_lib.Outcome, error) {
		return p.Revert(ctx)
	})
}

type operation func(ctx context.Context, r *http.Request, p *payment_lib.Payment) (payment_lib.Outcome, error)

// operationHandler loads the payment named in the path, runs op against it and
// reports the outcome.
func (s *Server) operationHandler(path string, op operation) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.log.WithField("path", path)

		statusCode, body := func() (int, GenericApiResponseBody) {
			ctx := r.Context()

			id := r.PathValue("id")
			log = log.WithField("payment", id)

			p, err := payment_lib.Load(ctx, s.store, s.validator, id)
			if err != nil {
				if err != payment_data.ErrNotFound {
					log.WithError(err).Warn("failure loading payment")
				}
				statusCode, err := HandleErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			outcome, err := op(ctx, r, p)
			if err != nil {
				statusCode, err := HandleErrorInWebContext(err)
				if statusCode == http.StatusInternalServerError {
					log.WithError(err).Warn("failure applying payment operation")
				}
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			return statusCodeForOutcome(outcome), NewOutcomeResponseBody(p.Record(), outcome)
		}()

		s.writeResponse(w, statusCode, body)
	}
}

func (s *Server) healthHandler(_ string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeResponse(w, http.StatusOK, NewGenericApiSuccessResponseBody())
	}
}

// GetHandlers returns handlers keyed by method qualified http.ServeMux patterns
func (s *Server) GetHandlers() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		listPaymentsPath:  s.withRateLimit(listPaymentsPath, s.listPaymentsHandler(listPaymentsPath)),
		getPaymentPath:    s.withRateLimit(getPaymentPath, s.getPaymentHandler(getPaymentPath)),
		createPaymentPath: s.withRateLimit(createPaymentPath, s.createPaymentHandler(createPaymentPath)),
		updatePaymentPath: s.withRateLimit(updatePaymentPath, s.updatePaymentHandler(updatePaymentPath)),
		payPaymentPath:    s.withRateLimit(payPaymentPath, s.payPaymentHandler(payPaymentPath)),
		revertPaymentPath: s.withRateLimit(revertPaymentPath, s.revertPaymentHandler(revertPaymentPath)),
		healthPath:        s.healthHandler(healthPath),
	}
}

func (s *Server) writeResponse(w http.ResponseWriter, statusCode int, body GenericApiResponseBody) {
	marshalled, err := body.ToJson()
	if err != nil {
		s.log.WithError(err).Warn("failure encoding response body")

		statusCode = http.StatusInternalServerError
		marshalled, _ = NewGenericApiFailureResponseBody(errInternal).ToJson()
	}

	w.Header().Set(contentTypeHeaderName, jsonContentTypeHeaderValue)
	w.WriteHeader(statusCode)
	w.Write(marshalled)
}
