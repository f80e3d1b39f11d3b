// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpa_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cpa_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// DownloadsTotal counts download resolutions by backend and outcome
	// (success, unauthorized, forbidden, not_found, no_file, signing_failed, error).
	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpa_material_downloads_total",
			Help: "Total number of material download resolutions",
		},
		[]string{"backend", "result"},
	)

	SignerFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpa_presign_fallbacks_total",
			Help: "Presigned URL requests that needed the fallback signer",
		},
		[]string{"result"},
	)

	QuizAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cpa_quiz_attempts_total",
			Help: "Total number of scored quiz attempts",
		},
	)
)

// Middleware records request counts and latency. Routes are labelled by
// their registered pattern so ids do not explode label cardinality.
// Errors from the chain are rendered here with the app's error handler so
// the recorded status is the one the client receives.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		route := "unmatched"
		if r := c.Route(); r != nil && r.Path != "" && r.Path != "/" {
			route = r.Path
		}
		status := strconv.Itoa(c.Response().StatusCode())

		HTTPRequestsTotal.WithLabelValues(c.Method(), route, status).Inc()
		HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return nil
	}
}
