package main

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/config"
	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/domain/patient"
	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/domain/staff"
	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/domain/token"
	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/auth"
	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/db"
	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/middleware"
)

// server bundles the echo instance with the background resources that must
// be released on shutdown.
type server struct {
	echo        *echo.Echo
	revocations *auth.TokenRevocationStore
}

func (s *server) Close() {
	s.revocations.Close()
}

// newServer wires repositories, services and routes. The pool is only used
// lazily by request handlers.
func newServer(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (*server, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	revocations := auth.NewTokenRevocationStore(cfg.JWTTTL)
	issuer := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTTTL)

	staffSvc := staff.NewService(staff.NewUserRepo(pool), revocations, logger)

	sequencer := token.NewSequencer(token.NewCounterRepo(pool),
		token.WithLocation(loc),
		token.WithLogger(logger),
	)
	patientSvc := patient.NewService(
		db.NewTxManager(pool),
		patient.NewPatientRepo(pool),
		patient.NewRelationRepo(pool),
		patient.NewVisitRepo(pool),
		patient.NewDetailsRepo(pool),
		sequencer,
		staffSvc,
		logger,
	)
	patientSvc.SetClock(time.Now, loc)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	rl := middleware.DefaultRateLimitConfig()
	rl.RequestsPerSecond = cfg.RateLimitRPS
	rl.BurstSize = cfg.RateLimitBurst

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RateLimit(rl))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(middleware.Recovery(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
		AllowCredentials: true,
	}))
	e.Use(auth.JWTMiddleware(auth.JWTConfig{
		Issuer:      cfg.JWTIssuer,
		SigningKey:  []byte(cfg.JWTSecret),
		Revocations: revocations,
		Skipper:     auth.AuthSkipper,
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool, func() *db.PoolStats { return db.GetPoolStats(pool) }))

	api := e.Group("")
	auth.NewHandler(staffSvc, issuer, revocations, logger).RegisterRoutes(api)
	auth.RegisterRevocationRoutes(api, revocations)
	staff.NewHandler(staffSvc).RegisterRoutes(api)
	patient.NewHandler(patientSvc).RegisterRoutes(api)

	return &server{echo: e, revocations: revocations}, nil
}
