package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	bookings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_total",
			Help: "Booking attempts by outcome",
		},
		[]string{"outcome"},
	)

	priceFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_price_fallback_total",
			Help: "Bookings priced with the configured default because the experience lookup failed",
		},
	)

	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Outbound notifications by kind and status",
		},
		[]string{"kind", "status"},
	)

	slotsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slots_created_total",
			Help: "Slots created by the admin console",
		},
	)

	logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_logins_total",
			Help: "Admin login attempts by result",
		},
		[]string{"result"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func TrackBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}

func TrackPriceFallback() {
	priceFallbacks.Inc()
}

func TrackNotification(kind, status string) {
	notifications.WithLabelValues(kind, status).Inc()
}

func TrackSlotsCreated(n int) {
	slotsCreated.Add(float64(n))
}

func TrackLogin(result string) {
	logins.WithLabelValues(result).Inc()
}

// Middleware records request latency labelled by the matched route pattern.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fiberErr, ok := err.(*fiber.Error); ok {
			status = fiberErr.Code
		}
		requestDuration.
			WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
