package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Role is a staff role. The set is closed; anything else is rejected at
// token verification and at account creation.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleDoctor     Role = "doctor"
	RoleNurse      Role = "nurse"
	RolePharmacist Role = "pharmacist"
	RoleFrontDesk  Role = "frontdesk"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleDoctor, RoleNurse, RolePharmacist, RoleFrontDesk}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleNurse, RolePharmacist, RoleFrontDesk:
		return true
	}
	return false
}

// ParseRole accepts a role name in any letter case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// RequireRole returns middleware that lets the request through only when the
// caller's role is one of roles. Admin gets no implicit access.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			has := RoleFromContext(c.Request().Context())
			for _, required := range roles {
				if has == required {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(names, " or ")))
		}
	}
}
