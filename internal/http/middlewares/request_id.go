package middlewares

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dropDatabas3/authgate/internal/observability/logger"
)

// WithRequestID propaga (o genera) el X-Request-ID y deja un logger
// anotado en el contexto para las capas siguientes.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := r.Header.Get("X-Request-ID")
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", rid)

			ctx := setRequestID(r.Context(), rid)
			ctx = logger.ToContext(ctx, logger.L().With(logger.RequestID(rid)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
