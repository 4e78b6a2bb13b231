package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness endpoint used by load balancers and
// monitoring.  It bypasses auth and the response envelope on purpose.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
