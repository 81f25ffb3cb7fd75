package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/messagely/messagely-api/docs"
	"github.com/messagely/messagely-api/internal/api/handler"
	"github.com/messagely/messagely-api/internal/api/middleware"
	"github.com/messagely/messagely-api/internal/core/ports"
	"github.com/messagely/messagely-api/internal/infrastructure/http/handlers"
)

// Dependencies are the services and probes the router wires into handlers.
type Dependencies struct {
	Accounts ports.AccountService
	Messages ports.MessageService
	Tokens   ports.TokenVerifier
	Checks   []handlers.DependencyCheck
	Logger   zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("messagely"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Accounts)
	userHandler := handler.NewUserHandler(deps.Accounts, deps.Messages)
	messageHandler := handler.NewMessageHandler(deps.Messages)
	requireAuth := middleware.Auth(deps.Tokens)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- User routes ---
	users := e.Group("/users", requireAuth)
	users.GET("", userHandler.List)
	self := users.Group("/:username", middleware.CorrectUser())
	self.GET("", userHandler.Get)
	self.GET("/to", userHandler.Received)
	self.GET("/from", userHandler.Sent)

	// --- Message routes ---
	messages := e.Group("/messages", requireAuth)
	messages.POST("", messageHandler.Create)
	messages.GET("/:id", messageHandler.Get)
	messages.POST("/:id/read", messageHandler.MarkRead)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Checks...)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?

	// --- Operational surfaces ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
