// Package server composes the HTTP API and MCP transports into one fiber app.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/golang-jwt/jwt/v5"

	"github.com/evanschultz/leadboard/internal/adapters/server/common"
	"github.com/evanschultz/leadboard/internal/adapters/server/httpapi"
	"github.com/evanschultz/leadboard/internal/adapters/server/mcpapi"
)

// defaultBindAddress defines the localhost-first serve default.
const defaultBindAddress = "127.0.0.1:8420"

// defaultShutdownTimeout bounds graceful shutdown time once context cancellation starts.
const defaultShutdownTimeout = 5 * time.Second

// Config defines serve-mode endpoint configuration.
type Config struct {
	HTTPBind      string
	APIEndpoint   string
	MCPEndpoint   string
	ServerName    string
	ServerVersion string
	// JWTSecret enables bearer authentication on the API and MCP endpoints when set.
	JWTSecret   string
	CORSOrigins []string
}

// Dependencies defines app-facing adapters required by server transports.
type Dependencies struct {
	Service common.Service
	Logger  *charmLog.Logger
}

// NewApp composes one fiber app containing health, REST API, and MCP endpoints.
func NewApp(cfg Config, deps Dependencies) (*fiber.App, Config, error) {
	normalizedCfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, Config{}, err
	}
	if deps.Service == nil {
		return nil, Config{}, fmt.Errorf("board service dependency is required")
	}
	log := deps.Logger
	if log == nil {
		log = charmLog.Default()
	}

	mcpHandler, err := mcpapi.NewHandler(
		mcpapi.Config{
			ServerName:       normalizedCfg.ServerName,
			ServerVersion:    normalizedCfg.ServerVersion,
			EndpointPath:     normalizedCfg.MCPEndpoint,
			ActorFromRequest: bearerActor(normalizedCfg.JWTSecret),
		},
		deps.Service,
	)
	if err != nil {
		return nil, Config{}, fmt.Errorf("configure mcp handler: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               normalizedCfg.ServerName,
		ServerHeader:          normalizedCfg.ServerName,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())
	if len(normalizedCfg.CORSOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(normalizedCfg.CORSOrigins, ","),
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, Mcp-Session-Id",
			AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
			MaxAge:       3600,
		}))
	}
	if log.GetLevel() <= charmLog.DebugLevel {
		app.Use(logger.New())
	}
	app.Use(requestLogger(log))

	app.Get("/healthz", writeHealthStatus)
	app.Get("/readyz", readiness(deps.Service))

	guard := authMiddleware(normalizedCfg.JWTSecret)
	api := app.Group(normalizedCfg.APIEndpoint, guard, httpapi.BindActor())
	httpapi.NewHandler(deps.Service).Register(api)
	app.All(normalizedCfg.MCPEndpoint, guard, adaptor.HTTPHandler(mcpHandler))
	return app, normalizedCfg, nil
}

// Run starts the composed HTTP server and blocks until shutdown or startup failure.
func Run(ctx context.Context, cfg Config, deps Dependencies) error {
	if ctx == nil {
		ctx = context.Background()
	}

	app, normalizedCfg, err := NewApp(cfg, deps)
	if err != nil {
		return fmt.Errorf("build server app: %w", err)
	}
	if deps.Logger != nil {
		deps.Logger.Info("serving",
			"bind", normalizedCfg.HTTPBind,
			"api", normalizedCfg.APIEndpoint,
			"mcp", normalizedCfg.MCPEndpoint,
			"auth", normalizedCfg.JWTSecret != "",
		)
	}

	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- app.Listen(normalizedCfg.HTTPBind)
	}()

	select {
	case err := <-serveErrCh:
		if err != nil {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownErr := app.ShutdownWithTimeout(defaultShutdownTimeout)
		serveErr := <-serveErrCh
		if shutdownErr != nil && !errors.Is(shutdownErr, context.Canceled) {
			return fmt.Errorf("shutdown server: %w", shutdownErr)
		}
		if serveErr != nil {
			return fmt.Errorf("serve after shutdown: %w", serveErr)
		}
		return nil
	}
}

// normalizeConfig applies defaults and validates endpoint collisions.
func normalizeConfig(cfg Config) (Config, error) {
	cfg.HTTPBind = strings.TrimSpace(cfg.HTTPBind)
	if cfg.HTTPBind == "" {
		cfg.HTTPBind = defaultBindAddress
	}

	cfg.APIEndpoint = normalizeEndpoint(cfg.APIEndpoint, "/api/v1")
	cfg.MCPEndpoint = normalizeEndpoint(cfg.MCPEndpoint, "/mcp")
	if cfg.APIEndpoint == cfg.MCPEndpoint {
		return Config{}, fmt.Errorf("api and mcp endpoints must differ")
	}
	if strings.HasPrefix(cfg.MCPEndpoint+"/", cfg.APIEndpoint+"/") {
		return Config{}, fmt.Errorf("mcp endpoint %q must not live under the api prefix %q", cfg.MCPEndpoint, cfg.APIEndpoint)
	}

	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "leadboard"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)

	origins := make([]string, 0, len(cfg.CORSOrigins))
	for _, origin := range cfg.CORSOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	cfg.CORSOrigins = origins
	return cfg, nil
}

// normalizeEndpoint normalizes one endpoint path and applies fallback defaults.
func normalizeEndpoint(path string, fallback string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		path = fallback
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	path = "/" + strings.Trim(path, "/")
	if path == "/" {
		return fallback
	}
	return path
}

// authMiddleware verifies HS256 bearer tokens when a secret is configured.
func authMiddleware(secret string) fiber.Handler {
	if secret == "" {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwt.SigningMethodHS256.Alg(), Key: []byte(secret)},
		ContextKey: httpapi.TokenContextKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return httpapi.WriteError(c, fmt.Errorf("%w: %v", common.ErrUnauthorized, err))
		},
	})
}

// requestLogger records one line per request through the runtime logger.
func requestLogger(log *charmLog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		started := time.Now()
		err := c.Next()
		if err != nil {
			// Let the app error handler write the response before the status is read.
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		status := c.Response().StatusCode()
		fields := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", time.Since(started).Round(time.Microsecond),
		}
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("http request", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("http request", fields...)
		default:
			log.Info("http request", fields...)
		}
		return nil
	}
}

// errorHandler renders fiber routing errors and unhandled failures in the API envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if !errors.As(err, &fiberErr) {
		return httpapi.WriteError(c, err)
	}
	code := common.CodeInvalidRequest
	switch {
	case fiberErr.Code == fiber.StatusNotFound:
		code = common.CodeNotFound
	case fiberErr.Code == fiber.StatusUnauthorized:
		code = common.CodeUnauthorized
	case fiberErr.Code >= fiber.StatusInternalServerError:
		code = common.CodeInternal
	}
	return c.Status(fiberErr.Code).JSON(common.ErrorEnvelope{Error: common.APIError{Code: code, Message: fiberErr.Message}})
}

// writeHealthStatus responds with a deterministic liveness payload.
func writeHealthStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// readiness reports ok only while the backing store answers.
func readiness(service common.BoardService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := service.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
				"error":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
