package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"ceramics-booking/errors"
	"ceramics-booking/session"
)

const (
	identityKey = "identity"
	sessionKey  = "session"

	LoginPage = "/admin/login"
)

// Authorize protects the admin JSON API. The token is read from the session cookie and
// must pass the guard's expiry and revocation checks.
func Authorize(guard *session.Guard, secret string, secure bool, logger *zap.Logger) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:    []byte(secret),
		SigningMethod: "HS256",
		TokenLookup:   "cookie:" + session.CookieName,
		ContextKey:    identityKey,
		ErrorHandler:  jwtError,
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals(identityKey).(*jwt.Token)
			if !ok {
				return errors.RaisePermissionsError(c, "invalid session")
			}
			info, err := guard.Validate(c.UserContext(), token.Raw)
			if err != nil {
				if errors.KindOf(err) == errors.KindAuth {
					ClearSessionCookie(c, secure)
				}
				return errors.Respond(c, logger, err)
			}
			c.Locals(sessionKey, info)
			return c.Next()
		},
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return errors.RaiseError(c, fiber.StatusUnauthorized, "authentication required", "missing session")
	}
	return errors.RaiseError(c, fiber.StatusUnauthorized, "invalid or expired session", "")
}

// AdminGate guards the admin console pages. Callers without a valid session are sent
// to the login page and their cookie is cleared.
func AdminGate(guard *session.Guard, secure bool, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := strings.TrimSuffix(c.Path(), "/")
		if path == LoginPage || strings.HasPrefix(path, LoginPage+".") {
			return c.Next()
		}

		token := c.Cookies(session.CookieName)
		if token == "" {
			return c.Redirect(LoginPage, fiber.StatusFound)
		}

		info, err := guard.Validate(c.UserContext(), token)
		if err != nil {
			if errors.KindOf(err) != errors.KindAuth {
				return errors.Respond(c, logger, err)
			}
			logger.Debug("admin session rejected", zap.String("path", c.Path()), zap.Error(err))
			ClearSessionCookie(c, secure)
			return c.Redirect(LoginPage, fiber.StatusFound)
		}

		c.Locals(sessionKey, info)
		return c.Next()
	}
}

// SessionInfo returns the session stored by Authorize or AdminGate.
func SessionInfo(c *fiber.Ctx) (session.Info, bool) {
	info, ok := c.Locals(sessionKey).(session.Info)
	return info, ok
}

func SetSessionCookie(c *fiber.Ctx, token string, expires time.Time, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(session.Lifetime.Seconds()),
		Secure:   secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func ClearSessionCookie(c *fiber.Ctx, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
