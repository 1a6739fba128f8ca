package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/apperror"
)

// Authenticator checks staff credentials. It returns an Unauthorized
// apperror for a wrong email or password.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*Principal, error)
}

// Handler serves login and logout.
type Handler struct {
	authn       Authenticator
	issuer      *TokenIssuer
	revocations *TokenRevocationStore
	log         zerolog.Logger
}

func NewHandler(authn Authenticator, issuer *TokenIssuer, revocations *TokenRevocationStore, log zerolog.Logger) *Handler {
	return &Handler{authn: authn, issuer: issuer, revocations: revocations, log: log}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/auth/login", h.Login)
	g.POST("/auth/logout", h.Logout)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperror.Validation("email and password are required")
	}

	p, err := h.authn.Authenticate(c.Request().Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return err
	}

	tok, err := h.issuer.Issue(*p)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", p.ID).Msg("issue token")
		return apperror.Persistence("could not issue token", err)
	}

	h.log.Info().Str("user_id", p.ID).Str("role", string(p.Role)).Msg("login")
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":      true,
		"access_token": tok.AccessToken,
		"expires_at":   tok.ExpiresAt,
		"user":         p,
	})
}

// Logout revokes the caller's current token until it would have expired.
func (h *Handler) Logout(c echo.Context) error {
	claims := ClaimsFromContext(c.Request().Context())
	if claims == nil || claims.ID == "" {
		return apperror.Unauthorized("not signed in")
	}
	if h.revocations != nil && claims.ExpiresAt != nil {
		h.revocations.RevokeForUser(claims.ID, claims.Subject, claims.ExpiresAt.Time)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}
