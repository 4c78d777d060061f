package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestIsMatchesSentinelByKind(t *testing.T) {
	err := Validation("party size must be between %d and %d", 1, 10)

	assert.True(t, stderrors.Is(err, ErrValidation))
	assert.False(t, stderrors.Is(err, ErrNotFound))
	assert.Equal(t, "party size must be between 1 and 10", MessageOf(err))
}

func TestKindSurvivesWrapping(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := fmt.Errorf("list slots: %w", Unavailable(cause))

	assert.Equal(t, KindServiceUnavailable, KindOf(err))
	assert.True(t, stderrors.Is(err, ErrServiceUnavailable))
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, KindInternal, KindOf(cause))
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		kind Kind
		code int
	}{
		{KindValidation, 400},
		{KindNotFound, 404},
		{KindSlotUnavailable, 409},
		{KindConflict, 409},
		{KindEmptyResult, 422},
		{KindAuth, 401},
		{KindServiceUnavailable, 503},
		{KindFinalization, 500},
		{KindInternal, 500},
	}
	for _, test := range tests {
		assert.Equalf(t, test.code, Status(test.kind), test.kind.String())
	}
}

func TestRespondHidesInternalCause(t *testing.T) {
	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return Respond(c, zap.NewNop(), stderrors.New("pq: secret table name"))
	})

	res, err := app.Test(httptest.NewRequest("GET", "/boom", nil), -1)
	assert.NoError(t, err)
	body, _ := io.ReadAll(res.Body)

	assert.Equal(t, 500, res.StatusCode)
	assert.False(t, strings.Contains(string(body), "secret"))
}

func TestRespondSlotUnavailableMessage(t *testing.T) {
	app := fiber.New()
	app.Get("/taken", func(c *fiber.Ctx) error {
		return Respond(c, zap.NewNop(), ErrSlotUnavailable)
	})

	res, err := app.Test(httptest.NewRequest("GET", "/taken", nil), -1)
	assert.NoError(t, err)
	body, _ := io.ReadAll(res.Body)

	assert.Equal(t, 409, res.StatusCode)
	assert.Contains(t, string(body), "please choose another")
}
