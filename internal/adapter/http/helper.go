package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// ---- helpers ----

// callerID extracts and validates the caller identity supplied by the
// external identity provider.
func callerID(c echo.Context) (string, bool) {
	id := strings.TrimSpace(c.Request().Header.Get("X-Caller-Id"))
	return id, reHex32.MatchString(id)
}

func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil
}

func jsonError(c echo.Context, code int, msg string) error {
	return c.JSON(code, ErrorResponse{Error: msg})
}

func missingCaller(c echo.Context) error {
	return jsonError(c, http.StatusBadRequest, "missing or invalid X-Caller-Id")
}

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
