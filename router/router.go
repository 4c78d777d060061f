package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"ceramics-booking/handlers"
	"ceramics-booking/metrics"
	"ceramics-booking/middleware"
)

type Options struct {
	Secret          string
	SecureCookies   bool
	RateLimitPerMin int
	AdminStaticDir  string
	Logger          *zap.Logger
}

func SetupRoutes(app *fiber.App, h *handlers.Handler, opts Options) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	app.Use(recover.New(), logger.New(), cors.New())
	app.Use(metrics.Middleware())

	app.Get("/health", h.Health)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/api")
	limit := middleware.RateLimit(opts.RateLimitPerMin, opts.Logger)

	//Public catalogue
	api.Get("/available-slots", h.GetAvailableSlots)
	api.Get("/experiences", h.GetExperiences)
	api.Get("/calendar", h.GetCalendar)
	api.Get("/calendar/:date", h.GetCalendarDay)

	//Booking
	api.Post("/booking", limit, h.CreateBooking)
	api.Get("/booking/:id", h.GetBooking)

	//Events
	api.Post("/event-booking", limit, h.CreateEventBooking)
	api.Get("/event-booking", h.GetEventBooking)
	api.Post("/waitlist", limit, h.JoinWaitlist)

	//Auth
	auth := api.Group("/auth")
	auth.Post("/login", limit, h.Login)
	auth.Post("/logout", h.Logout)
	auth.Get("/session", h.GetSession)

	//Admin API
	adminAPI := api.Group("/admin", middleware.Authorize(h.Guard, opts.Secret, opts.SecureCookies, opts.Logger))
	adminAPI.Get("/slots", h.ListSlots)
	adminAPI.Post("/slots", h.CreateSlot)
	adminAPI.Post("/slots/batch", h.BatchCreateSlots)
	adminAPI.Patch("/slots/:id/toggle", h.ToggleSlot)
	adminAPI.Delete("/slots/:id", h.DeleteSlot)
	adminAPI.Get("/bookings", h.ListBookings)
	adminAPI.Get("/waitlist", h.ListWaitlist)
	adminAPI.Get("/event-participants", h.ListEventParticipants)

	//Admin console pages
	console := app.Group("/admin", middleware.AdminGate(h.Guard, opts.SecureCookies, opts.Logger))
	if opts.AdminStaticDir != "" {
		console.Static("/", opts.AdminStaticDir, fiber.Static{Index: "index.html"})
	} else {
		console.Get("/*", func(c *fiber.Ctx) error {
			info, _ := middleware.SessionInfo(c)
			return c.JSON(fiber.Map{"authenticated": info.Username != "", "user": info.Username})
		})
	}
}
