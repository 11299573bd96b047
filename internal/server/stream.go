package server

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/websocket/v2"
	"github.com/hailam/chesstree/internal/game"
)

// streamGame sends the game state on connect and one message per ply
// afterwards. Clients drive the game with "step", "play" and "move" messages;
// plies made through the HTTP routes are streamed as well.
func (s *Server) streamGame(c *websocket.Conn) {
	sess, err := s.sessions.get(c.Params("id"))
	if err != nil {
		if werr := c.WriteJSON(wsMessage{Type: "error", Error: err.Error()}); werr != nil {
			log.Printf("game %s: write error: %v", c.Params("id"), werr)
		}
		c.Close()
		return
	}

	if err := sess.subscribe(c); err != nil {
		log.Printf("game %s: subscribe: %v", sess.id, err)
		return
	}
	defer sess.unsubscribe(c)

	for {
		var msg clientMessage
		if err := c.ReadJSON(&msg); err != nil {
			return
		}
		if err := s.handleClientMessage(sess, msg); err != nil {
			sess.mu.Lock()
			werr := c.WriteJSON(wsMessage{Type: "error", Error: err.Error()})
			sess.mu.Unlock()
			if werr != nil {
				return
			}
		}
	}
}

func (s *Server) handleClientMessage(sess *session, msg clientMessage) error {
	ctx := context.Background()

	switch msg.Type {
	case "step":
		sess.mu.Lock()
		defer sess.mu.Unlock()
		_, err := s.sessions.step(ctx, sess)
		return err

	case "move":
		sess.mu.Lock()
		defer sess.mu.Unlock()
		_, err := s.sessions.apply(sess, msg.Move)
		return err

	case "play":
		// Engine moves until the game ends or a human is to move. The lock
		// is released between plies so other requests can observe progress.
		for {
			sess.mu.Lock()
			if sess.game.Over() {
				sess.mu.Unlock()
				return nil
			}
			_, err := s.sessions.step(ctx, sess)
			sess.mu.Unlock()
			if errors.Is(err, game.ErrNoPlayer) {
				return nil
			}
			if err != nil {
				return err
			}
		}

	default:
		return errors.New("unknown message type: " + msg.Type)
	}
}
