package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
	ClaimsKey   contextKey = "claims"
)

// Claims is the payload of an access token. Subject holds the user id and ID
// the token's jti. IssuedNano repeats iat at nanosecond precision, since iat
// is whole seconds and a user cutoff can fall inside the login second.
type Claims struct {
	jwt.RegisteredClaims
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	IssuedNano int64  `json:"iat_ns,omitempty"`
}

// issuedAt is the most precise issue time the token carries.
func (c *Claims) issuedAt() (time.Time, bool) {
	if c.IssuedNano > 0 {
		return time.Unix(0, c.IssuedNano), true
	}
	if c.IssuedAt != nil {
		return c.IssuedAt.Time, true
	}
	return time.Time{}, false
}

type JWTConfig struct {
	Issuer     string
	SigningKey []byte
	// Revocations is optional; when set, revoked tokens are rejected.
	Revocations *TokenRevocationStore
	// Skipper lets matching requests through without a token.
	Skipper func(c echo.Context) bool
}

// JWTMiddleware verifies the HS256 bearer token and stores the caller's id,
// role and claims on the request context.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			token, err := parser.ParseWithClaims(strings.TrimSpace(parts[1]), claims, func(t *jwt.Token) (interface{}, error) {
				return cfg.SigningKey, nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if claims.Subject == "" || !claims.Role.Valid() {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if cfg.Revocations != nil {
				if claims.ID != "" && cfg.Revocations.IsRevoked(claims.ID) {
					return echo.NewHTTPError(http.StatusUnauthorized, "token has been revoked")
				}
				if iat, ok := claims.issuedAt(); ok && cfg.Revocations.IsRevokedFor(claims.Subject, iat) {
					return echo.NewHTTPError(http.StatusUnauthorized, "token has been revoked")
				}
			}

			c.SetRequest(c.Request().WithContext(WithClaims(c.Request().Context(), claims)))
			return next(c)
		}
	}
}

// WithClaims returns a context carrying the caller described by claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.Subject)
	ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
	return context.WithValue(ctx, ClaimsKey, claims)
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func RoleFromContext(ctx context.Context) Role {
	role, _ := ctx.Value(UserRoleKey).(Role)
	return role
}

func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(ClaimsKey).(*Claims)
	return claims
}
