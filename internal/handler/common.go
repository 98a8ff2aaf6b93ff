package handler

import (
	"errors"

	"github.com/labstack/echo/v4"
)

// getSessionID extracts the opaque session identifier placed in the
// context by the session middleware.  Handlers behind EnsureSession
// can rely on it being present; a missing value indicates a wiring
// mistake and is treated as an internal error by callers.
func getSessionID(c echo.Context) (string, error) {
	v := c.Get("session_id")
	sid, ok := v.(string)
	if !ok || sid == "" {
		return "", errors.New("no session in context")
	}
	return sid, nil
}
