package board

import (
	"testing"
)

func findMove(t *testing.T, fen, long string) Move {
	t.Helper()
	for _, m := range generate(t, fen) {
		if m.String() == long {
			return m
		}
	}
	t.Fatalf("%s: move %s not generated", fen, long)
	return Move{}
}

func TestCheckmate(t *testing.T) {
	// Back rank mate: Black is already checkmated.
	pos := MustParseFEN("R6k/6pp/8/8/8/8/8/K7 b - - 0 1")

	if !pos.InCheck() {
		t.Error("expected black to be in check")
	}
	moves, err := pos.GenerateLegalMoves()
	if err != nil {
		t.Fatal("GenerateLegalMoves:", err)
	}
	if len(moves) != 0 {
		t.Errorf("checkmated side has %d moves", len(moves))
	}
}

func TestNotCheckmate(t *testing.T) {
	// King can capture the checking rook.
	pos := MustParseFEN("6Rk/8/8/8/8/8/8/K7 b - - 0 1")

	moves, err := pos.GenerateLegalMoves()
	if err != nil {
		t.Fatal("GenerateLegalMoves:", err)
	}
	names := make(map[string]bool)
	for i := range moves {
		names[moves[i].String()] = true
	}
	if len(moves) != 2 || !names["h8xg8"] || !names["h8-h7"] {
		t.Errorf("expected h8xg8 and h8-h7, got %v", names)
	}
}

func TestMoveTags(t *testing.T) {
	tests := []struct {
		name      string
		fen       string
		move      string
		check     bool
		checkmate bool
		stalemate bool
	}{
		{"back rank mate", "6k1/5ppp/8/8/8/8/8/K2R4 w - - 0 1", "d1-d8", true, true, false},
		{"queen mate", "8/8/8/8/8/5K1k/5Q2/8 w - - 0 1", "f2-g3", true, true, false},
		{"plain check", "8/8/8/8/8/5K1k/5Q2/8 w - - 0 1", "f2-f1", true, false, false},
		{"stalemate", "k7/8/8/1Q6/8/8/8/7K w - - 0 1", "b5-b6", false, false, true},
		{"quiet", StartFEN, "e2-e4", false, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := findMove(t, tc.fen, tc.move)
			if m.Check != tc.check || m.Checkmate != tc.checkmate || m.Stalemate != tc.stalemate {
				t.Errorf("check=%v mate=%v stalemate=%v, want %v %v %v",
					m.Check, m.Checkmate, m.Stalemate, tc.check, tc.checkmate, tc.stalemate)
			}
		})
	}
}
