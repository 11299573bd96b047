// Package server exposes the move generator, the engine and engine games
// over HTTP and WebSocket.
package server

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/hailam/chesstree/internal/board"
	"github.com/hailam/chesstree/internal/diagram"
	"github.com/hailam/chesstree/internal/engine"
	"github.com/hailam/chesstree/internal/game"
	"github.com/hailam/chesstree/internal/storage"
)

// StatsStore persists finished games.
type StatsStore interface {
	RecordGame(rec storage.GameRecord) (*storage.MatchStats, error)
	LoadStats() (*storage.MatchStats, error)
}

// Config configures a Server.
type Config struct {
	// Store receives every finished game; nil disables /api/stats.
	Store StatsStore

	MaxDepth    int           // deepest search a request may ask for (default 6)
	MaxMoveTime time.Duration // longest search a request may ask for (default 10s)

	AllowOrigins string // CORS origins, empty disables CORS
	LogRequests  bool
}

// Server is the HTTP API.
type Server struct {
	app      *fiber.App
	cfg      Config
	sessions *sessions
}

// New builds the fiber app and registers every route.
func New(cfg Config) *Server {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = engine.DifficultySettings[engine.Hard].Depth
	}
	if cfg.MaxMoveTime <= 0 {
		cfg.MaxMoveTime = 10 * time.Second
	}

	s := &Server{
		cfg:      cfg,
		sessions: newSessions(cfg.Store),
	}

	app := fiber.New(fiber.Config{
		AppName:               "chesstree",
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	if cfg.LogRequests {
		app.Use(logger.New())
	}
	if cfg.AllowOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowOrigins,
			AllowHeaders: "Origin, Content-Type, Accept",
			AllowMethods: "GET, POST, OPTIONS",
		}))
	}

	api := app.Group("/api")
	api.Get("/health", s.health)
	api.Post("/moves", s.legalMoves)
	api.Post("/bestmove", s.bestMove)
	api.Get("/diagram", s.renderDiagram)
	api.Get("/stats", s.stats)

	games := api.Group("/games")
	games.Post("/", s.createGame)
	games.Get("/:id", s.getGame)
	games.Post("/:id/step", s.stepGame)
	games.Post("/:id/move", s.moveGame)
	games.Get("/:id/pgn", s.gamePGN)
	games.Get("/:id/diagram", s.gameDiagram)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/games/:id", websocket.New(s.streamGame))

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	log.Printf("listening on %s", addr)
	return s.app.Listen(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// errorHandler maps domain errors to status codes.
func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	body := fiber.Map{"error": err.Error()}

	var fe *fiber.Error
	var noMove *engine.NoLegalMoveError
	switch {
	case errors.As(err, &fe):
		status = fe.Code
	case errors.Is(err, board.ErrMalformedFEN), errors.Is(err, diagram.ErrInvalidSize):
		status = fiber.StatusBadRequest
	case errors.Is(err, board.ErrInvalidPosition), errors.Is(err, board.ErrIllegalMove):
		status = fiber.StatusUnprocessableEntity
	case errors.As(err, &noMove):
		status = fiber.StatusConflict
		body["fen"] = noMove.FEN
	case errors.Is(err, game.ErrGameOver), errors.Is(err, game.ErrNoPlayer):
		status = fiber.StatusConflict
	case errors.Is(err, errGameNotFound):
		status = fiber.StatusNotFound
	}

	if status == fiber.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(body)
}
