package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// sessionCookieName is the cookie carrying the opaque visitor
// identifier used as the holder identity for holds.
const sessionCookieName = "sid"

// sessionCookieMaxAge keeps the cookie alive across visits well beyond
// any hold lifetime.
const sessionCookieMaxAge = 30 * 24 * time.Hour

// EnsureSession returns middleware that guarantees every request
// carries a stable session identifier.  When the sid cookie is missing
// a fresh UUID is issued and set on the response.  The identifier is
// stored in the context under "session_id" for handlers and the rate
// limiter.
func EnsureSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var sid string
			if cookie, err := c.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
				sid = cookie.Value
			} else {
				sid = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     sessionCookieName,
					Value:    sid,
					Path:     "/",
					MaxAge:   int(sessionCookieMaxAge / time.Second),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			c.Set("session_id", sid)
			return next(c)
		}
	}
}
