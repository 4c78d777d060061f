package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackBooking(t *testing.T) {
	before := testutil.ToFloat64(bookings.WithLabelValues("created"))
	TrackBooking("created")
	assert.Equal(t, before+1, testutil.ToFloat64(bookings.WithLabelValues("created")))
}

func TestTrackSlotsCreated(t *testing.T) {
	before := testutil.ToFloat64(slotsCreated)
	TrackSlotsCreated(3)
	assert.Equal(t, before+3, testutil.ToFloat64(slotsCreated))
}

func TestMiddlewareObservesRoutePattern(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/api/booking/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	res, err := app.Test(httptest.NewRequest("GET", "/api/booking/abc", nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, res.StatusCode)

	count := testutil.CollectAndCount(requestDuration, "http_request_duration_seconds")
	assert.GreaterOrEqual(t, count, 1)
}
