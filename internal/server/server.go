package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/wichananm65/signup-wizard/internal/config"
	"github.com/wichananm65/signup-wizard/internal/logging"
	"github.com/wichananm65/signup-wizard/internal/user"
	"github.com/wichananm65/signup-wizard/internal/view"
)

// Server wraps a fiber app with configured routes.
type Server struct {
	app  *fiber.App
	addr string
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, repo user.Repository, log logging.Logger) *Server {
	engine := view.NewEngine()
	app := fiber.New(fiber.Config{
		AppName:      "signup-wizard",
		Views:        engine,
		ErrorHandler: errorHandler(log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	setupCORS(app, cfg.AllowedOrigins)

	startedAt := time.Now()
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"uptime": time.Since(startedAt).Truncate(time.Second).String(),
		})
	})
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/users/new", fiber.StatusFound)
	})

	service := user.NewService(repo, cfg.ClientStepPolicy, log.With("component", "wizard"))
	user.NewHandler(service, engine).RegisterPublicRoutes(app)

	return &Server{app: app, addr: cfg.Addr}
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.app.Listen(s.addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func setupCORS(app *fiber.App, origins string) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,HEAD,PUT,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
}

func errorHandler(log logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}
		if code >= fiber.StatusInternalServerError {
			log.Error(c.UserContext(), "request failed",
				"method", c.Method(),
				"path", c.Path(),
				"request_id", c.Locals("requestid"),
				"error", err)
		}
		return c.Status(code).JSON(fiber.Map{"message": message})
	}
}
