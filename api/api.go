// Package api exposes routine storage and routine graph editing over HTTP.
package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/routine"
	"go.uber.org/zap"
)

// Options configures New.
type Options struct {
	Logger      *zap.Logger
	MaxSessions int
	SessionTTL  time.Duration
}

// Server holds the handlers' dependencies.
type Server struct {
	store    routine.Store
	sessions *sessions
	logger   *zap.Logger
}

// New builds the fiber app serving store.
func New(store routine.Store, opts Options) *fiber.App {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 1024
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	s := &Server{
		store:    store,
		sessions: newSessions(opts.MaxSessions, opts.SessionTTL),
		logger:   opts.Logger,
	}

	app := fiber.New(fiber.Config{ErrorHandler: s.errorHandler})
	s.routes(app)
	return app
}

func (s *Server) routes(app *fiber.App) {
	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", s.createSchema)
	app.Delete("/schema", s.dropSchema)

	// ── Routines ──────────────────────────────────────────────────────
	app.Post("/routines", s.createRoutine)
	app.Get("/routines/:id", s.getRoutine)
	app.Delete("/routines/:id", s.deleteRoutine)
	app.Post("/validate", s.validate)

	// ── Editing sessions ──────────────────────────────────────────────
	app.Post("/routines/:id/sessions", s.openSession)
	app.Get("/sessions/:sid", s.getSession)
	app.Delete("/sessions/:sid", s.closeSession)
	app.Post("/sessions/:sid/graph", s.setGraph)
	app.Post("/sessions/:sid/nodes", s.addNode)
	app.Put("/sessions/:sid/nodes/:nid", s.updateNode)
	app.Delete("/sessions/:sid/nodes/:nid", s.deleteNode)
	app.Post("/sessions/:sid/nodes/:nid/drop", s.dropNode)
	app.Post("/sessions/:sid/nodes/:nid/unlink", s.unlinkNode)
	app.Post("/sessions/:sid/links", s.insertLink)
	app.Delete("/sessions/:sid/links/:lid", s.deleteLink)
	app.Post("/sessions/:sid/links/:lid/insert", s.insertNodeOnLink)
	app.Post("/sessions/:sid/save", s.save)
	app.Post("/sessions/:sid/revert", s.revert)
}

// errorHandler turns unhandled errors into the JSON error shape.
func (s *Server) errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func errorJSON(c fiber.Ctx, code int, msg string) error {
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
