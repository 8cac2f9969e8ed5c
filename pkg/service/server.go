package service

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
	fiberadaptor "github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/theapemachine/ukg/pkg/auth"
	"github.com/theapemachine/ukg/pkg/engine"
	"github.com/theapemachine/ukg/pkg/errors"
)

/*
Config sets where the API listens.
*/
type Config struct {
	Host string
	Port int
}

func DefaultConfig() Config {
	return Config{Host: "0.0.0.0", Port: 3210}
}

/*
Server exposes an engine over HTTP. The /v1 routes sit behind bearer auth
when an auth service is supplied; /health and /metrics are always open.
*/
type Server struct {
	cfg       Config
	app       *fiber.App
	engine    *engine.Engine
	auth      *auth.Service
	validator *structValidator
}

/*
NewServer builds the fiber app and registers every route. authSvc may be nil.
*/
func NewServer(cfg Config, eng *engine.Engine, authSvc *auth.Service) *Server {
	srv := &Server{
		cfg:       cfg,
		engine:    eng,
		auth:      authSvc,
		validator: newStructValidator(),
		app: fiber.New(fiber.Config{
			AppName:      "ukg",
			ServerHeader: "UKG-Server",
			ErrorHandler: errorHandler,
		}),
	}

	srv.routes()
	return srv
}

/*
App returns the fiber app, for tests and embedding.
*/
func (srv *Server) App() *fiber.App {
	return srv.app
}

func (srv *Server) routes() {
	srv.app.Use(logger.New(logger.Config{
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
	}))

	srv.app.Get("/health", srv.handleHealth)
	srv.app.Get("/metrics", fiberadaptor.HTTPHandler(srv.engine.Metrics.Handler()))

	v1 := srv.app.Group("/v1")

	if srv.auth != nil {
		v1.Use(srv.auth.Middleware())
	}

	v1.Post("/query", srv.handleQuery)
	v1.Get("/queries/recent", srv.handleRecent)

	v1.Get("/graph/stats", srv.handleGraphStats)
	v1.Get("/graph/search", srv.handleGraphSearch)
	v1.Get("/graph/paths", srv.handlePaths)
	v1.Get("/graph/nodes/:id", srv.handleNode)
	v1.Get("/graph/nodes/:id/neighborhood", srv.handleNeighborhood)
	v1.Post("/graph/nodes", srv.handleAddNode)
	v1.Post("/graph/relationships", srv.handleAddRelationship)

	v1.Get("/personas", srv.handlePersonas)
	v1.Post("/personas/domain", srv.handleDomainPersona)

	v1.Get("/memory/recall", srv.handleRecall)
	v1.Get("/memory/streams", srv.handleStreams)
}

/*
Start listens until the app is shut down.
*/
func (srv *Server) Start() error {
	addr := net.JoinHostPort(srv.cfg.Host, strconv.Itoa(srv.cfg.Port))
	log.Info("starting api server", "addr", addr, "auth", srv.auth != nil)

	return srv.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

func (srv *Server) Shutdown(ctx context.Context) error {
	return srv.app.ShutdownWithContext(ctx)
}

/*
StatusFor maps an error code to an HTTP status.
*/
func StatusFor(code int) int {
	switch code {
	case errors.ErrInvalidQuery.Code, errors.ErrInvalidAxis.Code, errors.ErrInvalidLevel.Code,
		errors.ErrInvalidWeight.Code, errors.ErrInvalidProfile.Code:
		return fiber.StatusBadRequest
	case errors.ErrUnknownNode.Code, errors.ErrUnknownStream.Code, errors.ErrUnknownEntry.Code,
		errors.ErrAlgorithmNotFound.Code, errors.ErrNotFound.Code:
		return fiber.StatusNotFound
	case errors.ErrUnauthorized.Code:
		return fiber.StatusUnauthorized
	case errors.ErrRateLimited.Code:
		return fiber.StatusTooManyRequests
	}

	return fiber.StatusInternalServerError
}

func errorHandler(c fiber.Ctx, err error) error {
	status := StatusFor(errors.Code(err))

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}

	if status >= fiber.StatusInternalServerError {
		log.Error("request failed", "path", c.Path(), "error", err)
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
		"code":  errors.Code(err),
	})
}

/*
bind decodes the request body into out and checks its validate tags.
*/
func (srv *Server) bind(c fiber.Ctx, out any) error {
	if err := c.Bind().Body(out); err != nil {
		return errors.ErrInvalidQuery.WithMessagef("malformed request body: %v", err)
	}

	return srv.validator.Validate(out)
}

func queryInt(c fiber.Ctx, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.ErrInvalidQuery.WithMessagef("%s must be an integer, got %q", key, raw)
	}

	return n, nil
}

func (srv *Server) handleHealth(c fiber.Ctx) error {
	stats := srv.engine.Graph.Stats()

	return c.JSON(fiber.Map{
		"status":  "ok",
		"graph":   fmt.Sprintf("%d nodes, %d relationships", stats.Nodes, stats.Relationships),
		"queries": srv.engine.Metrics.Summary(),
	})
}
