package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/apperror"
)

type revokeUserRequest struct {
	UserID string `json:"user_id"`
}

// RegisterRevocationRoutes registers the admin-only revocation endpoints.
func RegisterRevocationRoutes(g *echo.Group, store *TokenRevocationStore) {
	admin := RequireRole(RoleAdmin)
	g.POST("/auth/revoke-user", handleRevokeUser(store), admin)
	g.GET("/auth/revocations", handleListRevocations(store), admin)
}

// handleRevokeUser signs a user out of every session.
func handleRevokeUser(store *TokenRevocationStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req revokeUserRequest
		if err := c.Bind(&req); err != nil {
			return apperror.Validation("invalid request body")
		}
		if strings.TrimSpace(req.UserID) == "" {
			return apperror.Validation("user_id is required")
		}

		store.RevokeAllForUser(req.UserID)
		return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
	}
}

func handleListRevocations(store *TokenRevocationStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		entries := store.Entries()
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success": true,
			"count":   len(entries),
			"data":    entries,
		})
	}
}
