package game

import (
	"fmt"
	"strconv"
	"time"

	"github.com/hailam/chesstree/internal/board"
	"github.com/notnil/chess"
)

// PGNTags are written into the PGN header; empty values are skipped.
type PGNTags struct {
	Event string
	Site  string
	White string
	Black string
	Round int
	Date  time.Time
}

// PGN replays the game into a PGN document.
func (g *Game) PGN(tags PGNTags) (string, error) {
	fen, err := chess.FEN(g.start.FEN())
	if err != nil {
		return "", fmt.Errorf("game: start position: %w", err)
	}
	cg := chess.NewGame(fen, chess.UseNotation(chess.UCINotation{}))

	addTag := func(k, v string) {
		if v != "" {
			cg.AddTagPair(k, v)
		}
	}
	addTag("Event", tags.Event)
	addTag("Site", tags.Site)
	if !tags.Date.IsZero() {
		addTag("Date", tags.Date.Format("2006.01.02"))
	}
	if tags.Round > 0 {
		addTag("Round", strconv.Itoa(tags.Round))
	}
	addTag("White", tags.White)
	addTag("Black", tags.Black)
	if g.start != board.NewPosition() {
		addTag("SetUp", "1")
		addTag("FEN", g.start.FEN())
	}
	if g.termination != Ongoing {
		addTag("Termination", g.termination.String())
	}

	for i := range g.history {
		uci := g.history[i].Move.UCI()
		if err := cg.MoveStr(uci); err != nil {
			return "", fmt.Errorf("game: replay ply %d (%s): %w", i+1, uci, err)
		}
	}

	if g.result == Draw && cg.Outcome() == chess.NoOutcome {
		method := chess.DrawOffer
		switch g.termination {
		case FiftyMoveRule:
			method = chess.FiftyMoveRule
		case ThreefoldRepetition:
			method = chess.ThreefoldRepetition
		}
		if err := cg.Draw(method); err != nil {
			// Adjudications chess does not recognise are recorded as agreed draws.
			if err := cg.Draw(chess.DrawOffer); err != nil {
				return "", fmt.Errorf("game: record draw: %w", err)
			}
		}
	}

	// Moves were replayed as UCI; the document is written in SAN.
	chess.UseNotation(chess.AlgebraicNotation{})(cg)
	return cg.String(), nil
}
