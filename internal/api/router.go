package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/webinar-system/docs"
	"github.com/99minutos/webinar-system/internal/api/handler"
	"github.com/99minutos/webinar-system/internal/api/middleware"
	"github.com/99minutos/webinar-system/internal/core/ports"
	"github.com/99minutos/webinar-system/internal/infrastructure/http/handlers"
)

// Dependencies is everything NewRouter needs. Idempotency, SeatLocker and
// HealthChecks are optional.
type Dependencies struct {
	Organize    ports.OrganizeWebinars
	ChangeSeats ports.ChangeSeats

	Idempotency handler.IdempotencyStore
	SeatLocker  handler.SeatLocker

	HealthChecks []handlers.Check

	// JWTSecret switches identity resolution from X-User-ID to bearer tokens.
	JWTSecret string

	// Registerer and Gatherer default to the Prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	reg := deps.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gat := deps.Gatherer
	if gat == nil {
		gat = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Health probes (no identity required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.HealthChecks...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gat}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Webinar commands ---
	webinarHandler := handler.NewWebinarHandler(
		deps.Organize,
		deps.ChangeSeats,
		deps.Idempotency,
		deps.SeatLocker,
		deps.Log.With().Str("component", "webinar_handler").Logger(),
	)

	v1 := e.Group("/v1", middleware.Identity(deps.JWTSecret))
	v1.POST("/webinars", webinarHandler.Organize)
	v1.POST("/webinars/:id/seats", webinarHandler.ChangeSeats)

	return e
}

// requestLogger emits one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
