package engine

import "github.com/hailam/chesstree/internal/board"

// PieceValue is the material value of each piece type in pawns.
var PieceValue = [7]int{
	board.Pawn:        1,
	board.Knight:      3,
	board.Bishop:      3,
	board.Rook:        5,
	board.Queen:       9,
	board.King:        0,
	board.NoPieceType: 0,
}

// Evaluate returns the material balance of the position, positive when
// White is ahead.
func Evaluate(pos *board.Position) int {
	score := 0
	for sq := board.Square(0); sq < board.NoSquare; sq++ {
		piece := pos.PieceAt(sq)
		if piece == board.NoPiece {
			continue
		}
		v := PieceValue[piece.Type()]
		if piece.Color() == board.White {
			score += v
		} else {
			score -= v
		}
	}
	return score
}
