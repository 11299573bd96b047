package server

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hailam/chesstree/internal/board"
	"github.com/hailam/chesstree/internal/diagram"
	"github.com/hailam/chesstree/internal/engine"
	"github.com/hailam/chesstree/internal/game"
)

type positionRequest struct {
	FEN string `json:"fen"`
}

type searchRequest struct {
	FEN        string `json:"fen"`
	Depth      int    `json:"depth"`
	MoveTimeMs int    `json:"movetime_ms"`
	Difficulty string `json:"difficulty"`
	Seed       uint64 `json:"seed"`
}

type createGameRequest struct {
	FEN        string `json:"fen"`
	White      string `json:"white"`
	Black      string `json:"black"`
	Depth      int    `json:"depth"`
	MoveTimeMs int    `json:"movetime_ms"`
	Difficulty string `json:"difficulty"`
	Seed       uint64 `json:"seed"`
	MaxPlies   int    `json:"max_plies"`
}

type moveRequest struct {
	Move string `json:"move"`
}

func badRequest(format string, args ...any) error {
	return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf(format, args...))
}

// parsePosition reads a FEN, defaulting to the initial position.
func parsePosition(fen string) (board.Position, error) {
	if fen == "" {
		return board.NewPosition(), nil
	}
	return board.ParseFEN(fen)
}

// limits turns request fields into search limits within the server caps.
func (s *Server) limits(depth, moveTimeMs int, difficulty string) (engine.SearchLimits, error) {
	lim := engine.DifficultySettings[engine.Medium]
	if difficulty != "" {
		d, ok := engine.ParseDifficulty(difficulty)
		if !ok {
			return lim, badRequest("unknown difficulty %q", difficulty)
		}
		lim = engine.DifficultySettings[d]
	}
	if depth < 0 || depth > s.cfg.MaxDepth {
		return lim, badRequest("depth must be between 1 and %d", s.cfg.MaxDepth)
	}
	if depth > 0 {
		lim.Depth = depth
	}
	if moveTimeMs < 0 {
		return lim, badRequest("movetime_ms must not be negative")
	}
	if moveTimeMs > 0 {
		lim.MoveTime = time.Duration(moveTimeMs) * time.Millisecond
	}
	lim.Depth = min(lim.Depth, s.cfg.MaxDepth)
	lim.MoveTime = min(lim.MoveTime, s.cfg.MaxMoveTime)
	return lim, nil
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) legalMoves(c *fiber.Ctx) error {
	var req positionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid body: %v", err)
	}
	pos, err := parsePosition(req.FEN)
	if err != nil {
		return err
	}
	moves, err := pos.GenerateLegalMoves()
	if err != nil {
		return err
	}

	resp := movesResponse{
		FEN:     pos.FEN(),
		InCheck: pos.InCheck(),
		Count:   len(moves),
		Moves:   make([]moveView, len(moves)),
	}
	for i := range moves {
		resp.Moves[i] = newMoveView(&moves[i], moves)
	}
	return c.JSON(resp)
}

func (s *Server) bestMove(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid body: %v", err)
	}
	pos, err := parsePosition(req.FEN)
	if err != nil {
		return err
	}
	lim, err := s.limits(req.Depth, req.MoveTimeMs, req.Difficulty)
	if err != nil {
		return err
	}

	var opts []engine.Option
	if req.Seed != 0 {
		opts = append(opts, engine.WithSeed(req.Seed))
	}
	res, err := engine.NewEngine(opts...).Search(c.UserContext(), pos, lim)
	if err != nil {
		return err
	}

	siblings, err := pos.GenerateLegalMoves()
	if err != nil {
		return err
	}
	pv, err := board.MovesToSAN(pos, res.Info.PV)
	if err != nil {
		return err
	}

	return c.JSON(bestMoveResponse{
		Move:    newMoveView(&res.Move, siblings),
		Score:   res.Info.Score,
		MateIn:  engine.MovesToMate(res.Info.MateIn, pos.SideToMove),
		Summary: engine.ScoreToString(res.Info, pos.SideToMove),
		Depth:   res.Info.Depth,
		Nodes:   res.Info.Nodes,
		TimeMs:  res.Info.Time.Milliseconds(),
		PV:      pv,
	})
}

func diagramOptions(c *fiber.Ctx) diagram.Options {
	return diagram.Options{
		Size:        c.QueryInt("size", diagram.DefaultSize),
		Flip:        c.QueryBool("flip", false),
		Coordinates: c.QueryBool("coords", true),
	}
}

func sendPNG(c *fiber.Ctx, pos *board.Position, opts diagram.Options) error {
	var buf bytes.Buffer
	if err := diagram.EncodePNG(&buf, pos, opts); err != nil {
		return err
	}
	c.Type("png")
	return c.Send(buf.Bytes())
}

func (s *Server) renderDiagram(c *fiber.Ctx) error {
	pos, err := parsePosition(c.Query("fen"))
	if err != nil {
		return err
	}
	opts := diagramOptions(c)
	if last := c.Query("last"); last != "" {
		moves, err := pos.GenerateLegalMoves()
		if err != nil {
			return err
		}
		if m, ok := board.FindUCI(moves, last); ok {
			// Show the position after the move with the move highlighted.
			pos = m.Position
			opts.Highlight = diagram.LastMove(&m)
		}
	}
	return sendPNG(c, &pos, opts)
}

func (s *Server) stats(c *fiber.Ctx) error {
	if s.cfg.Store == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "statistics are disabled")
	}
	st, err := s.cfg.Store.LoadStats()
	if err != nil {
		return err
	}
	return c.JSON(st)
}

func (s *Server) createGame(c *fiber.Ctx) error {
	var req createGameRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid body: %v", err)
	}
	pos, err := parsePosition(req.FEN)
	if err != nil {
		return err
	}
	if err := checkSide(&req.White, sideHuman); err != nil {
		return err
	}
	if err := checkSide(&req.Black, sideEngine); err != nil {
		return err
	}
	lim, err := s.limits(req.Depth, req.MoveTimeMs, req.Difficulty)
	if err != nil {
		return err
	}

	sess, err := s.sessions.create(sessionConfig{
		start:    pos,
		white:    req.White,
		black:    req.Black,
		limits:   lim,
		seed:     req.Seed,
		maxPlies: req.MaxPlies,
	})
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return c.Status(fiber.StatusCreated).JSON(newGameState(sess))
}

func checkSide(side *string, def string) error {
	switch *side {
	case "":
		*side = def
	case sideEngine, sideHuman:
	default:
		return badRequest("side must be %q or %q, got %q", sideEngine, sideHuman, *side)
	}
	return nil
}

func (s *Server) getGame(c *fiber.Ctx) error {
	sess, err := s.sessions.get(c.Params("id"))
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return c.JSON(newGameState(sess))
}

func (s *Server) stepGame(c *fiber.Ctx) error {
	sess, err := s.sessions.get(c.Params("id"))
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if _, err := s.sessions.step(c.UserContext(), sess); err != nil {
		return err
	}
	return c.JSON(newGameState(sess))
}

func (s *Server) moveGame(c *fiber.Ctx) error {
	var req moveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid body: %v", err)
	}
	if req.Move == "" {
		return badRequest("move is required")
	}
	sess, err := s.sessions.get(c.Params("id"))
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if _, err := s.sessions.apply(sess, req.Move); err != nil {
		return err
	}
	return c.JSON(newGameState(sess))
}

func (s *Server) gamePGN(c *fiber.Ctx) error {
	sess, err := s.sessions.get(c.Params("id"))
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	pgn, err := sess.game.PGN(game.PGNTags{
		Event: "chesstree game",
		Site:  "chesstree server",
		Date:  sess.created,
		White: sess.white,
		Black: sess.black,
	})
	if err != nil {
		return err
	}
	c.Type("txt")
	return c.SendString(pgn)
}

func (s *Server) gameDiagram(c *fiber.Ctx) error {
	sess, err := s.sessions.get(c.Params("id"))
	if err != nil {
		return err
	}
	sess.mu.Lock()
	pos := sess.game.Position()
	last := sess.game.LastMove()
	opts := diagramOptions(c)
	opts.Highlight = diagram.LastMove(last)
	sess.mu.Unlock()

	return sendPNG(c, &pos, opts)
}
