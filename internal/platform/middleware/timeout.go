package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// RequestTimeout puts a deadline on each request's context so database calls
// abort once it passes. The handler always runs to completion on the request
// goroutine; an error caused by the deadline becomes a 504. Zero disables.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	if timeout <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return echomw.ContextTimeoutWithConfig(echomw.ContextTimeoutConfig{
		Timeout: timeout,
		ErrorHandler: func(err error, c echo.Context) error {
			if isTimeout(err) {
				return errTimedOut.WithInternal(err)
			}
			return err
		},
	})
}

var errTimedOut = echo.NewHTTPError(http.StatusGatewayTimeout, "request timed out")

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
