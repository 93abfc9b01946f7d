package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// ModerationActions counts moderation decisions by action and entity kind.
	ModerationActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_moderation_actions_total",
		Help: "Total moderation actions by action and entity",
	}, []string{"action", "entity"})

	// SubmissionsTotal counts submitted works and comments by entity kind.
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_submissions_total",
		Help: "Total submissions received by entity",
	}, []string{"entity"})
)

// InitMetrics sets up the Prometheus HTTP middleware for the given service name.
func InitMetrics(service string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(service)
}

// MetricsMiddleware adapts the Prometheus middleware to a Fiber handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
