package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"ceramics-booking/errors"
	"ceramics-booking/metrics"
	"ceramics-booking/middleware"
	"ceramics-booking/session"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var creds credentials
	if err := h.parseBody(c, &creds); err != nil {
		return h.fail(c, err)
	}

	token, info, err := h.Guard.Login(c.UserContext(), creds.Username, creds.Password)
	switch {
	case err == session.ErrUnconfigured:
		metrics.TrackLogin("unconfigured")
		h.Logger.Error("admin login attempted without configured credentials")
		return errors.RaiseInternalServerError(c, "admin credentials are not configured")
	case err == session.ErrBadLogin:
		metrics.TrackLogin("rejected")
		h.Logger.Info("admin login rejected", zap.String("ip", c.IP()))
		return errors.RaisePermissionsError(c, "invalid username or password")
	case err != nil:
		metrics.TrackLogin("error")
		return h.fail(c, err)
	}

	metrics.TrackLogin("ok")
	middleware.SetSessionCookie(c, token, info.ExpiresAt, h.SecureCookies)
	return c.JSON(fiber.Map{
		"success":    true,
		"user":       info.Username,
		"expires_at": info.ExpiresAt})
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	if err := h.Guard.Logout(c.UserContext(), c.Cookies(session.CookieName)); err != nil {
		h.Logger.Warn("failed to revoke admin session", zap.Error(err))
	}
	middleware.ClearSessionCookie(c, h.SecureCookies)
	return c.JSON(fiber.Map{"success": true})
}

func (h *Handler) GetSession(c *fiber.Ctx) error {
	info, err := h.Guard.Validate(c.UserContext(), c.Cookies(session.CookieName))
	if err != nil {
		if errors.KindOf(err) != errors.KindAuth {
			return h.fail(c, err)
		}
		middleware.ClearSessionCookie(c, h.SecureCookies)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"authenticated": false})
	}
	return c.JSON(fiber.Map{
		"authenticated": true,
		"user":          info.Username,
		"expires_at":    info.ExpiresAt})
}
