package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/apperror"
)

// ErrorHandler renders every failure as {"success": false, "error": msg}.
// A passed request deadline is a 504. Classified errors use their kind's
// status and public message; echo errors keep their code; anything else is a
// 500 whose cause is only logged.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, msg := http.StatusInternalServerError, "internal server error"
		var appErr *apperror.Error
		var httpErr *echo.HTTPError
		switch {
		case isTimeout(err):
			status, msg = http.StatusGatewayTimeout, "request timed out"
		case errors.As(err, &appErr):
			status, msg = apperror.HTTPStatus(appErr.Kind), appErr.Message
		case errors.As(err, &httpErr):
			status = httpErr.Code
			if m, ok := httpErr.Message.(string); ok {
				msg = m
			} else {
				msg = fmt.Sprint(httpErr.Message)
			}
			if httpErr.Internal != nil && status >= 500 {
				err = httpErr.Internal
			}
		}

		if status >= 500 {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).Str("request_id", rid).Str("path", c.Request().URL.Path).Msg("request failed")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, map[string]interface{}{"success": false, "error": msg})
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("write error response")
		}
	}
}
