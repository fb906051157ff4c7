// Package metrics expone las métricas Prometheus del servicio.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricsOnce sync.Once

	// HTTP
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Dominio auth
	loginsTotal        *prometheus.CounterVec
	tokensIssuedTotal  *prometheus.CounterVec
	tokenRefreshTotal  *prometheus.CounterVec
	refreshReuseTotal  prometheus.Counter
	revocationsTotal   *prometheus.CounterVec
	blacklistHitsTotal prometheus.Counter
	sweepDeletedTotal  *prometheus.CounterVec
)

// Register inicializa las métricas en el registry dado (o el default) y
// devuelve el handler para /metrics.
func Register(reg prometheus.Registerer) http.Handler {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	metricsOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		loginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_logins_total",
			Help: "Logins por resultado (success, invalid_credentials, disabled, unverified)",
		}, []string{"result"})

		tokensIssuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_tokens_issued_total",
			Help: "Tokens emitidos por tipo",
		}, []string{"kind"})

		tokenRefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_token_refresh_total",
			Help: "Refresh de tokens por resultado",
		}, []string{"result"})

		refreshReuseTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authgate_refresh_reuse_detected_total",
			Help: "Intentos de canjear un refresh token ya revocado (posible robo)",
		})

		revocationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_revocations_total",
			Help: "Revocaciones de refresh tokens por origen (logout, logout_all, password_change)",
		}, []string{"reason"})

		blacklistHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authgate_blacklist_hits_total",
			Help: "Access tokens rechazados por denylist",
		})

		sweepDeletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_sweep_deleted_total",
			Help: "Filas eliminadas por el sweep periódico",
		}, []string{"table"})

		reg.MustRegister(
			httpRequestsTotal, httpRequestDuration,
			loginsTotal, tokensIssuedTotal, tokenRefreshTotal,
			refreshReuseTotal, revocationsTotal, blacklistHitsTotal,
			sweepDeletedTotal,
		)
	})

	return promhttp.Handler()
}

// ObserveHTTP registra una request HTTP terminada.
func ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func Login(result string) {
	if loginsTotal != nil {
		loginsTotal.WithLabelValues(result).Inc()
	}
}

func TokenIssued(kind string) {
	if tokensIssuedTotal != nil {
		tokensIssuedTotal.WithLabelValues(kind).Inc()
	}
}

func TokenRefresh(result string) {
	if tokenRefreshTotal != nil {
		tokenRefreshTotal.WithLabelValues(result).Inc()
	}
}

func RefreshReuseDetected() {
	if refreshReuseTotal != nil {
		refreshReuseTotal.Inc()
	}
}

func Revocation(reason string) {
	if revocationsTotal != nil {
		revocationsTotal.WithLabelValues(reason).Inc()
	}
}

func BlacklistHit() {
	if blacklistHitsTotal != nil {
		blacklistHitsTotal.Inc()
	}
}

func SweepDeleted(table string, n int) {
	if sweepDeletedTotal != nil && n > 0 {
		sweepDeletedTotal.WithLabelValues(table).Add(float64(n))
	}
}
