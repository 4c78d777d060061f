package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ceramics-booking/admin"
	"ceramics-booking/availability"
	"ceramics-booking/booking"
	"ceramics-booking/database"
	"ceramics-booking/events"
	"ceramics-booking/handlers"
	"ceramics-booking/model"
	"ceramics-booking/notify"
	"ceramics-booking/session"
)

const testSecret = "router-test-secret-0123456789"

type Test struct {
	description  string
	method       string
	route        string
	bodyinput    []byte
	cookie       *http.Cookie
	expectedCode int
}

func setupApp(t *testing.T) (*fiber.App, *database.MemoryStore) {
	t.Helper()
	store := database.NewMemoryStore()
	store.PutExperience(model.Experience{
		Name:            "Wheel throwing",
		DurationMinutes: 120,
		Price:           decimal.NewFromInt(120),
		IsActive:        true,
	})

	log := zap.NewNop()
	dispatcher := notify.NewDispatcher(notify.NewLogSink(log), log, time.Second)
	t.Cleanup(func() { _ = dispatcher.Drain(context.Background()) })

	h := handlers.New(handlers.Deps{
		Store:        store,
		Bookings:     booking.NewService(store, dispatcher, log, decimal.NewFromInt(120)),
		Availability: availability.NewService(store),
		Slots:        admin.NewSlotManager(store, log),
		Events:       events.NewService(store, dispatcher, log, "https://mpago.la/ceramics"),
		Guard:        session.NewGuard(testSecret, session.NewStaticCredentials("admin", "clay-pass"), nil),
		Logger:       log,
	})

	app := fiber.New()
	SetupRoutes(app, h, Options{Secret: testSecret, RateLimitPerMin: 600, Logger: log})
	return app, store
}

func do(t *testing.T, app *fiber.App, test Test) (*http.Response, []byte) {
	t.Helper()
	req, _ := http.NewRequest(test.method, test.route, bytes.NewBuffer(test.bodyinput))
	if test.bodyinput != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if test.cookie != nil {
		req.AddCookie(test.cookie)
	}

	res, err := app.Test(req, -1)
	require.NoError(t, err, test.description)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err, test.description)
	return res, body
}

func sessionCookie(res *http.Response) *http.Cookie {
	for _, cookie := range res.Cookies() {
		if cookie.Name == session.CookieName {
			return cookie
		}
	}
	return nil
}

func TestPublicRoutes(t *testing.T) {
	tests := []Test{
		{
			description:  "health",
			method:       "GET",
			route:        "/health",
			expectedCode: 200,
		},
		{
			description:  "available slots",
			method:       "GET",
			route:        "/api/available-slots",
			expectedCode: 200,
		},
		{
			description:  "experiences",
			method:       "GET",
			route:        "/api/experiences",
			expectedCode: 200,
		},
		{
			description:  "unknown booking",
			method:       "GET",
			route:        "/api/booking/missing",
			expectedCode: 404,
		},
		{
			description:  "booking with malformed body",
			method:       "POST",
			route:        "/api/booking",
			bodyinput:    []byte("{not json"),
			expectedCode: 400,
		},
		{
			description:  "booking with invalid email",
			method:       "POST",
			route:        "/api/booking",
			bodyinput:    []byte(`{"slot_id":"s1","name":"Ana","email":"nope","phone":"+5491155550000","number_of_people":2}`),
			expectedCode: 400,
		},
		{
			description:  "booking for a missing slot",
			method:       "POST",
			route:        "/api/booking",
			bodyinput:    []byte(`{"slot_id":"gone","name":"Ana","email":"ana@example.com","phone":"+5491155550000","number_of_people":2}`),
			expectedCode: 404,
		},
		{
			description:  "waitlist with invalid email",
			method:       "POST",
			route:        "/api/waitlist",
			bodyinput:    []byte(`{"email":"not-an-email","eventName":"Raku night"}`),
			expectedCode: 400,
		},
		{
			description:  "login with wrong password",
			method:       "POST",
			route:        "/api/auth/login",
			bodyinput:    []byte(`{"username":"admin","password":"wrong"}`),
			expectedCode: 401,
		},
		{
			description:  "session without cookie",
			method:       "GET",
			route:        "/api/auth/session",
			expectedCode: 401,
		},
		{
			description:  "admin api without cookie",
			method:       "GET",
			route:        "/api/admin/slots",
			expectedCode: 401,
		},
		{
			description:  "admin api with forged cookie",
			method:       "GET",
			route:        "/api/admin/slots",
			cookie:       &http.Cookie{Name: session.CookieName, Value: "garbage"},
			expectedCode: 401,
		},
		{
			description:  "admin console redirects to login",
			method:       "GET",
			route:        "/admin/slots",
			expectedCode: 302,
		},
		{
			description:  "admin login page stays public",
			method:       "GET",
			route:        "/admin/login",
			expectedCode: 200,
		}}

	app, _ := setupApp(t)
	for _, test := range tests {
		res, _ := do(t, app, test)
		assert.Equalf(t, test.expectedCode, res.StatusCode, test.description)
	}
}

func TestBookingFlow(t *testing.T) {
	app, store := setupApp(t)
	slots, err := store.InsertSlots(context.Background(), []model.SlotDraft{
		{Date: "2030-08-10", StartTime: "09:00"},
		{Date: "2030-08-10", StartTime: "14:00"},
	})
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]interface{}{
		"slot_id":          slots[0].ID,
		"name":             "Ana Pérez",
		"email":            "ana@example.com",
		"phone":            "+5491155550000",
		"number_of_people": 3,
	})
	res, raw := do(t, app, Test{description: "create booking", method: "POST", route: "/api/booking", bodyinput: body})
	require.Equal(t, 201, res.StatusCode, string(raw))

	var created struct {
		Success   bool   `json:"success"`
		BookingID string `json:"booking_id"`
		Message   string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.True(t, created.Success)
	assert.NotEmpty(t, created.BookingID)
	assert.NotEmpty(t, created.Message)

	res, raw = do(t, app, Test{description: "list slots", method: "GET", route: "/api/available-slots"})
	require.Equal(t, 200, res.StatusCode)
	var listed []model.Slot
	require.NoError(t, json.Unmarshal(raw, &listed))
	require.Len(t, listed, 2)
	for _, slot := range listed {
		assert.Falsef(t, slot.IsAvailable, "slot %s at %s", slot.Date, slot.StartTime)
	}

	body, _ = json.Marshal(map[string]interface{}{
		"slot_id":          slots[1].ID,
		"name":             "Luis Gómez",
		"email":            "luis@example.com",
		"phone":            "+5491155551111",
		"number_of_people": 2,
	})
	res, _ = do(t, app, Test{description: "second booking same day", method: "POST", route: "/api/booking", bodyinput: body})
	assert.Equal(t, 409, res.StatusCode)

	res, raw = do(t, app, Test{description: "booking details", method: "GET", route: "/api/booking/" + created.BookingID})
	require.Equal(t, 200, res.StatusCode)
	var details struct {
		ID   string `json:"id"`
		Slot struct {
			Date      string `json:"date"`
			StartTime string `json:"start_time"`
		} `json:"available_slots"`
		Experience struct {
			Name string `json:"name"`
		} `json:"experiences"`
	}
	require.NoError(t, json.Unmarshal(raw, &details))
	assert.Equal(t, created.BookingID, details.ID)
	assert.Equal(t, "2030-08-10", details.Slot.Date)
	assert.Equal(t, "09:00", details.Slot.StartTime)
	assert.Equal(t, "Wheel throwing", details.Experience.Name)

	res, raw = do(t, app, Test{description: "calendar day", method: "GET", route: "/api/calendar/2030-08-10"})
	require.Equal(t, 200, res.StatusCode)
	var day availability.DaySlots
	require.NoError(t, json.Unmarshal(raw, &day))
	assert.Empty(t, day.Available)
	assert.Len(t, day.Unavailable, 2)
}

func TestWaitlistRejectsDuplicates(t *testing.T) {
	app, _ := setupApp(t)
	body := []byte(`{"email":"ana@example.com","eventName":"Raku night"}`)

	res, _ := do(t, app, Test{description: "join waitlist", method: "POST", route: "/api/waitlist", bodyinput: body})
	assert.Equal(t, 201, res.StatusCode)

	res, _ = do(t, app, Test{description: "join waitlist again", method: "POST", route: "/api/waitlist",
		bodyinput: []byte(`{"email":"ANA@example.com","eventName":"Raku night"}`)})
	assert.Equal(t, 409, res.StatusCode)
}

func TestEventBooking(t *testing.T) {
	app, _ := setupApp(t)
	body := []byte(`{"numberOfPeople":2,"participants":[{"name":"Ana"},{"name":"Luis"}],
		"phone":"+5491155550000","email":"ana@example.com","eventName":"Raku night",
		"eventDate":"2030-09-01","eventTime":"19:00"}`)

	res, raw := do(t, app, Test{description: "book group", method: "POST", route: "/api/event-booking", bodyinput: body})
	require.Equal(t, 201, res.StatusCode, string(raw))
	var group struct {
		GroupID         string `json:"groupId"`
		MercadoPagoLink string `json:"mercadoPagoLink"`
	}
	require.NoError(t, json.Unmarshal(raw, &group))
	assert.NotEmpty(t, group.GroupID)
	assert.Equal(t, "https://mpago.la/ceramics", group.MercadoPagoLink)

	res, raw = do(t, app, Test{description: "list group", method: "GET", route: "/api/event-booking?event=Raku%20night&group=" + group.GroupID})
	require.Equal(t, 200, res.StatusCode)
	var listed struct {
		Participants []model.EventParticipant `json:"participants"`
	}
	require.NoError(t, json.Unmarshal(raw, &listed))
	assert.Len(t, listed.Participants, 2)

	mismatch := []byte(`{"numberOfPeople":3,"participants":[{"name":"Ana"}],"phone":"+5491155550000",
		"email":"ana@example.com","eventName":"Raku night","eventDate":"2030-09-01","eventTime":"19:00"}`)
	res, _ = do(t, app, Test{description: "participant count mismatch", method: "POST", route: "/api/event-booking", bodyinput: mismatch})
	assert.Equal(t, 400, res.StatusCode)
}

func TestAdminSession(t *testing.T) {
	app, _ := setupApp(t)

	res, raw := do(t, app, Test{description: "login", method: "POST", route: "/api/auth/login",
		bodyinput: []byte(`{"username":"admin","password":"clay-pass"}`)})
	require.Equal(t, 200, res.StatusCode, string(raw))
	cookie := sessionCookie(res)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	tests := []Test{
		{
			description:  "session check",
			method:       "GET",
			route:        "/api/auth/session",
			cookie:       cookie,
			expectedCode: 200,
		},
		{
			description:  "admin slot list",
			method:       "GET",
			route:        "/api/admin/slots",
			cookie:       cookie,
			expectedCode: 200,
		},
		{
			description:  "batch create",
			method:       "POST",
			route:        "/api/admin/slots/batch",
			bodyinput:    []byte(`{"start_date":"2030-08-04","end_date":"2030-08-10","pattern":{"monday":{"enabled":true,"times":["10:00","15:00"]}}}`),
			cookie:       cookie,
			expectedCode: 201,
		},
		{
			description:  "batch without weekdays",
			method:       "POST",
			route:        "/api/admin/slots/batch",
			bodyinput:    []byte(`{"start_date":"2030-08-04","end_date":"2030-08-10","pattern":{}}`),
			cookie:       cookie,
			expectedCode: 400,
		},
		{
			description:  "single slot",
			method:       "POST",
			route:        "/api/admin/slots",
			bodyinput:    []byte(`{"date":"2030-08-12","start_time":"11:00"}`),
			cookie:       cookie,
			expectedCode: 201,
		},
		{
			description:  "admin bookings",
			method:       "GET",
			route:        "/api/admin/bookings",
			cookie:       cookie,
			expectedCode: 200,
		},
		{
			description:  "admin console",
			method:       "GET",
			route:        "/admin/dashboard",
			cookie:       cookie,
			expectedCode: 200,
		},
		{
			description:  "toggle missing slot",
			method:       "PATCH",
			route:        "/api/admin/slots/missing/toggle",
			cookie:       cookie,
			expectedCode: 404,
		}}

	for _, test := range tests {
		res, raw := do(t, app, test)
		assert.Equalf(t, test.expectedCode, res.StatusCode, "%s: %s", test.description, raw)
	}

	res, raw = do(t, app, Test{description: "admin slots after batch", method: "GET", route: "/api/admin/slots?from=2030-08-01&to=2030-08-31", cookie: cookie})
	require.Equal(t, 200, res.StatusCode)
	var listed struct {
		Data []model.Slot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &listed))
	assert.Len(t, listed.Data, 3)

	res, _ = do(t, app, Test{description: "logout", method: "POST", route: "/api/auth/logout", cookie: cookie})
	assert.Equal(t, 200, res.StatusCode)
	cleared := sessionCookie(res)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
}
