package server

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/hailam/chesstree/internal/board"
	"github.com/hailam/chesstree/internal/engine"
	"github.com/hailam/chesstree/internal/game"
	"github.com/hailam/chesstree/internal/storage"
)

var errGameNotFound = errors.New("game not found")

const (
	sideEngine = "engine"
	sideHuman  = "human"
)

// session is one game hosted by the server. mu guards the game and the
// subscriber set; every write to a subscriber happens under it.
type session struct {
	mu sync.Mutex

	id           string
	white, black string
	created      time.Time
	game         *game.Game
	conns        map[*websocket.Conn]struct{}
	recorded     bool
}

type sessions struct {
	mu    sync.RWMutex
	byID  map[string]*session
	store StatsStore
}

func newSessions(store StatsStore) *sessions {
	return &sessions{
		byID:  make(map[string]*session),
		store: store,
	}
}

type sessionConfig struct {
	start        board.Position
	white, black string
	limits       engine.SearchLimits
	seed         uint64
	maxPlies     int
}

func (ss *sessions) create(cfg sessionConfig) (*session, error) {
	var opts []engine.Option
	if cfg.seed != 0 {
		opts = append(opts, engine.WithSeed(cfg.seed))
	}
	// Searches are serialised by the session lock, so both sides share one engine.
	eng := engine.NewEngine(opts...)

	var white, black game.Player
	if cfg.white == sideEngine {
		white = game.NewEnginePlayer(eng, cfg.limits)
	}
	if cfg.black == sideEngine {
		black = game.NewEnginePlayer(eng, cfg.limits)
	}

	gameOpts := []game.Option{game.WithStart(cfg.start)}
	if cfg.maxPlies > 0 {
		gameOpts = append(gameOpts, game.WithMaxPlies(cfg.maxPlies))
	}
	g, err := game.New(white, black, gameOpts...)
	if err != nil {
		return nil, err
	}

	s := &session{
		id:      uuid.New().String(),
		white:   cfg.white,
		black:   cfg.black,
		created: time.Now(),
		game:    g,
		conns:   make(map[*websocket.Conn]struct{}),
	}

	ss.mu.Lock()
	ss.byID[s.id] = s
	ss.mu.Unlock()
	return s, nil
}

func (ss *sessions) get(id string) (*session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errGameNotFound
	}
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	s, ok := ss.byID[id]
	if !ok {
		return nil, errGameNotFound
	}
	return s, nil
}

// step asks the engine side to move. The caller holds s.mu.
func (ss *sessions) step(ctx context.Context, s *session) (game.Ply, error) {
	ply, err := s.game.Step(ctx)
	if err != nil {
		return ply, err
	}
	ss.afterPly(s, &ply)
	return ply, nil
}

// apply plays a move given as text for the side to move. The caller holds s.mu.
func (ss *sessions) apply(s *session, text string) (game.Ply, error) {
	pos := s.game.Position()
	m, err := board.ParseMove(&pos, text)
	if err != nil {
		return game.Ply{}, err
	}
	ply, err := s.game.Apply(m)
	if err != nil {
		return ply, err
	}
	ss.afterPly(s, &ply)
	return ply, nil
}

// afterPly broadcasts the ply and records the game once it is over.
func (ss *sessions) afterPly(s *session, ply *game.Ply) {
	history := s.game.History()
	before := s.game.Start()
	if len(history) > 1 {
		before = history[len(history)-2].Move.Position
	}
	siblings, _ := before.GenerateLegalMoves()
	view := newMoveView(&ply.Move, siblings)
	state := newGameState(s)
	s.broadcast(wsMessage{Type: "ply", Ply: &view, State: &state})

	if s.game.Over() && !s.recorded && ss.store != nil {
		s.recorded = true
		rec := storage.GameRecord{
			Result:      string(s.game.Result()),
			Termination: s.game.Termination().String(),
			Plies:       len(history),
			Duration:    s.game.Elapsed(),
		}
		if _, err := ss.store.RecordGame(rec); err != nil {
			log.Printf("game %s: record result: %v", s.id, err)
		}
	}
}

// broadcast sends msg to every subscriber, dropping those that fail.
// The caller holds s.mu.
func (s *session) broadcast(msg wsMessage) {
	for c := range s.conns {
		if err := c.WriteJSON(msg); err != nil {
			delete(s.conns, c)
		}
	}
}

func (s *session) subscribe(c *websocket.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[c] = struct{}{}
	state := newGameState(s)
	return c.WriteJSON(wsMessage{Type: "state", State: &state})
}

func (s *session) unsubscribe(c *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}
