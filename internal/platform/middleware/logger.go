package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/auth"
)

// Logger attaches a request-scoped logger to the request context and writes
// one line per request. Server errors log at error level, client errors at
// warn.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			rid, _ := c.Get("request_id").(string)

			reqLogger := logger.With().Str("request_id", rid).Logger()
			c.SetRequest(c.Request().WithContext(reqLogger.WithContext(c.Request().Context())))

			err := next(c)
			if err != nil {
				// Render now so the logged status is the one the client sees.
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			evt := reqLogger.Info()
			switch {
			case status >= 500:
				evt = reqLogger.Error()
			case status >= 400:
				evt = reqLogger.Warn()
			}
			if err != nil {
				evt = evt.Err(err)
			}
			if uid := auth.UserIDFromContext(req.Context()); uid != "" {
				evt = evt.Str("user_id", uid)
			}

			evt.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return nil
		}
	}
}
