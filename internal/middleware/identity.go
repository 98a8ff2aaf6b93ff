package middleware

// identity.go defines helpers shared across middleware files.  The
// rate limiter keys on the visitor's session identifier, which
// EnsureSession stores in the context; unauthenticated callers without
// a session fall back to "anon".

import "github.com/labstack/echo/v4"

// currentSessionID extracts the session identifier from the Echo
// context, falling back to the sid cookie when EnsureSession has not
// run yet (the rate limiter sits in front of it).  It returns "anon"
// when no session has been established at all.
func currentSessionID(c echo.Context) string {
	if v := c.Get("session_id"); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if cookie, err := c.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return "anon"
}
