package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newRoleContext(role Role) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if role != "" {
		req = req.WithContext(context.WithValue(req.Context(), UserRoleKey, role))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestRequireRole_Allowed(t *testing.T) {
	c, rec := newRoleContext(RoleNurse)

	err := RequireRole(RoleFrontDesk, RoleNurse)(okHandler)(c)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_Denied(t *testing.T) {
	c, _ := newRoleContext(RolePharmacist)

	err := RequireRole(RoleFrontDesk)(okHandler)(c)
	if err == nil {
		t.Fatal("expected error for wrong role")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", httpErr.Code)
	}
}

func TestRequireRole_AdminNotImplicit(t *testing.T) {
	c, _ := newRoleContext(RoleAdmin)

	if err := RequireRole(RoleFrontDesk)(okHandler)(c); err == nil {
		t.Fatal("admin must not pass a frontdesk-only guard")
	}
}

func TestRequireRole_NoRole(t *testing.T) {
	c, _ := newRoleContext("")

	if err := RequireRole(RoleAdmin)(okHandler)(c); err == nil {
		t.Fatal("expected error when the caller has no role")
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"admin", RoleAdmin, false},
		{"FrontDesk", RoleFrontDesk, false},
		{" nurse ", RoleNurse, false},
		{"physician", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRole(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
