package middlewares

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dropDatabas3/authgate/internal/http/errors"
	"github.com/dropDatabas3/authgate/internal/observability/logger"
	"github.com/dropDatabas3/authgate/internal/rate"
)

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// IPRateKey agrupa por IP y path. Es la clave por defecto para los
// endpoints de autenticación.
func IPRateKey(r *http.Request) string {
	return fmt.Sprintf("%s:%s", ClientIP(r), r.URL.Path)
}

// WithRateLimit aplica el limiter a cada request. Si el limiter falla
// (ej: Redis caído) el request pasa: preferimos degradar a bloquear.
func WithRateLimit(limiter rate.Limiter, keyFn RateKeyFunc) Middleware {
	if keyFn == nil {
		keyFn = IPRateKey
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			res, err := limiter.Allow(r.Context(), keyFn(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable",
					logger.Component("http.rate"),
					logger.Err(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				if res.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
				}
				errors.WriteError(w, errors.ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
