package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/apperror"
)

func timeoutServer(timeout time.Duration, h echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zerolog.Nop())
	e.Use(RequestTimeout(timeout))
	e.GET("/frontdesk/all-visits", h)
	return e
}

func serve(e *echo.Echo) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/frontdesk/all-visits", nil))
	return rec
}

func TestRequestTimeout_CompletesWithinDeadline(t *testing.T) {
	e := timeoutServer(5*time.Second, func(c echo.Context) error {
		if _, ok := c.Request().Context().Deadline(); !ok {
			t.Error("expected context to have a deadline")
		}
		return c.String(http.StatusOK, "ok")
	})

	if rec := serve(e); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRequestTimeout_DeadlineBecomes504(t *testing.T) {
	e := timeoutServer(20*time.Millisecond, func(c echo.Context) error {
		<-c.Request().Context().Done()
		return c.Request().Context().Err()
	})

	rec := serve(e)
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] != false || body["error"] != "request timed out" {
		t.Errorf("body = %v", body)
	}
}

func TestRequestTimeout_WrappedStoreTimeout(t *testing.T) {
	e := timeoutServer(20*time.Millisecond, func(c echo.Context) error {
		<-c.Request().Context().Done()
		return apperror.Persistence("could not load visits", c.Request().Context().Err())
	})

	if rec := serve(e); rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", rec.Code)
	}
}

// A slow handler that ignores its context finishes before the response is
// sent, so nothing touches the echo context after it is released.
func TestRequestTimeout_SlowHandlerFinishesBeforeResponse(t *testing.T) {
	var finished atomic.Bool
	e := timeoutServer(20*time.Millisecond, func(c echo.Context) error {
		time.Sleep(60 * time.Millisecond)
		err := c.JSON(http.StatusOK, map[string]bool{"success": true})
		finished.Store(true)
		return err
	})

	rec := serve(e)
	if !finished.Load() {
		t.Fatal("response was sent while the handler was still running")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequestTimeout_ZeroDisables(t *testing.T) {
	e := timeoutServer(0, func(c echo.Context) error {
		if _, ok := c.Request().Context().Deadline(); ok {
			t.Error("expected no deadline when timeout is zero")
		}
		return c.NoContent(http.StatusNoContent)
	})

	if rec := serve(e); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

func TestRequestTimeout_PropagatesHandlerError(t *testing.T) {
	e := timeoutServer(5*time.Second, func(c echo.Context) error {
		return apperror.NotFound("patient not found")
	})

	if rec := serve(e); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestErrorHandler_BareDeadline(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	ErrorHandler(zerolog.Nop())(context.DeadlineExceeded, c)

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", rec.Code)
	}
}
