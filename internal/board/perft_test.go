package board

import "testing"

type perftCase struct {
	depth    int
	expected uint64
}

func runPerft(t *testing.T, fen string, tests []perftCase) {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("Failed to parse FEN: %v", err)
	}

	for _, tc := range tests {
		t.Run("", func(t *testing.T) {
			if tc.expected > 50000 && testing.Short() {
				t.Skip("skipping deep perft in short mode")
			}
			got, err := Perft(pos, tc.depth)
			if err != nil {
				t.Fatalf("perft(%d): %v", tc.depth, err)
			}
			if got != tc.expected {
				t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
			}
		})
	}
}

// TestPerftStartingPosition tests move generation from the starting position.
func TestPerftStartingPosition(t *testing.T) {
	runPerft(t, StartFEN, []perftCase{
		{1, 20},
		{2, 400},
		{3, 8902},
		{4, 197281},
	})
}

// TestPerftKiwipete tests the famous Kiwipete position with many edge cases.
func TestPerftKiwipete(t *testing.T) {
	runPerft(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", []perftCase{
		{1, 48},
		{2, 2039},
		{3, 97862},
	})
}

// TestPerftPosition3 tests en passant edge cases.
func TestPerftPosition3(t *testing.T) {
	runPerft(t, "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", []perftCase{
		{1, 14},
		{2, 191},
		{3, 2812},
		{4, 43238},
	})
}

// TestPerftPosition4 covers promotions and castling through attacked squares.
func TestPerftPosition4(t *testing.T) {
	runPerft(t, "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", []perftCase{
		{1, 6},
		{2, 264},
		{3, 9467},
	})
}

func TestPerftPosition5(t *testing.T) {
	runPerft(t, "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", []perftCase{
		{1, 44},
		{2, 1486},
		{3, 62379},
	})
}

// TestPerftEnPassantPin tests the specific en passant horizontal pin edge case.
// Black pawn on e4 can capture en passant d3, but this would expose the black king
// on a4 to the white rook on h4.
func TestPerftEnPassantPin(t *testing.T) {
	pos := MustParseFEN("8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")

	moves, err := pos.GenerateLegalMoves()
	if err != nil {
		t.Fatalf("GenerateLegalMoves: %v", err)
	}
	for _, m := range moves {
		if m.From == NewSquare(4, 3) && m.To == NewSquare(3, 2) {
			t.Errorf("En passant move %v should be illegal (horizontal pin)", m.UCI())
		}
	}

	// Depth 1: Ka3, Ka5, Kb3, Kb4, Kb5, e3 = 6 moves
	runPerft(t, pos.FEN(), []perftCase{
		{1, 6},
		{2, 94},
	})
}

func TestDivideSumsToPerft(t *testing.T) {
	pos := NewPosition()
	div, err := Divide(pos, 2)
	if err != nil {
		t.Fatalf("Divide: %v", err)
	}
	if len(div) != 20 {
		t.Fatalf("Divide returned %d root moves, want 20", len(div))
	}
	var sum uint64
	for _, n := range div {
		sum += n
	}
	if sum != 400 {
		t.Errorf("Divide sum = %d, want 400", sum)
	}
	if div["e2e4"] != 20 {
		t.Errorf("Divide[e2e4] = %d, want 20", div["e2e4"])
	}
}
