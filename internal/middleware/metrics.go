package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedisErrors counts Redis command failures, labeled by command name.
var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "minato_redis_errors_total",
		Help: "Total number of Redis command errors",
	},
	[]string{"command"},
)

// ImpressionFailures counts dropped impression increments. Impressions are
// fire-and-forget, so this counter is the only place failures surface.
var ImpressionFailures = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "minato_impression_failures_total",
		Help: "Total number of failed daily impression increments",
	},
)

// InitMetrics creates the Prometheus middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the HTTP metrics collection handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
