package payment

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/payflow-server/pkg/netutil"
)

var (
	errRateLimited = errors.New("rate limited")
)

// withRateLimit limits requests per client IP. Limiter faults fail open.
func (s *Server) withRateLimit(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.log.WithFields(logrus.Fields{
			"method": "withRateLimit",
			"path":   path,
		})

		ip, err := netutil.GetClientIP(r)
		if err != nil {
			log.WithError(err).Debug("client ip unavailable, skipping rate limit")
			next(w, r)
			return
		}

		allowed, err := s.limiter.Allow(ip)
		if err != nil {
			log.WithError(err).Warn("failure checking rate limit")
		} else if !allowed {
			log.WithField("ip", ip).Debug("request rate limited")
			s.writeResponse(w, http.StatusTooManyRequests, NewGenericApiFailureResponseBody(errRateLimited))
			return
		}

		next(w, r)
	}
}
