package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists route paths reachable without a bearer token.
var publicPaths = map[string]bool{
	"/health":     true,
	"/health/db":  true,
	"/auth/login": true,
}

// AuthSkipper returns true for requests whose route should skip
// authentication. Pass it as JWTConfig.Skipper.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

func IsPublicPath(path string) bool {
	return publicPaths[path]
}
