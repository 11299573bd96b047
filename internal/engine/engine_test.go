package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hailam/chesstree/internal/board"
)

func bestFEN(t *testing.T, fen string, depth int) board.Move {
	t.Helper()
	eng := NewEngine(WithSeed(1))
	move, err := eng.BestMove(board.MustParseFEN(fen), depth, 30*time.Second)
	if err != nil {
		t.Fatalf("BestMove(%s): %v", fen, err)
	}
	return move
}

func TestBestMove(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		depth int
		want  string
	}{
		{"capture undefended queen", "8/8/3k4/4Q3/8/8/8/4K3 b - - 0 1", 2, "8/8/8/4k3/8/8/8/4K3 w - - 0 2"},
		{"promote to queen", "8/4KP1k/8/8/8/8/8/8 w - - 0 1", 2, "5Q2/4K2k/8/8/8/8/8/8 b - - 0 1"},
		{"white mates in one", "8/8/8/8/8/5K1k/5Q2/8 w - - 0 1", 2, "8/8/8/8/8/5KQk/8/8 b - - 1 1"},
		{"black mates in one", "6K1/8/6k1/3Qr3/8/8/8/8 b - - 0 1", 2, "4r1K1/8/6k1/3Q4/8/8/8/8 w - - 1 2"},
		{"mate found at depth three", "8/8/8/8/8/5K1k/5Q2/8 w - - 0 1", 3, "8/8/8/8/8/5KQk/8/8 b - - 1 1"},
		{"capture into dead draw keeps material", "4k3/8/8/8/8/8/3p4/2B4K w - - 0 1", 1, "4k3/8/8/8/8/8/3B4/7K b - - 0 1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			move := bestFEN(t, tc.fen, tc.depth)
			if got := move.Position.FEN(); got != tc.want {
				t.Errorf("best move %s leads to %q, want %q", move.String(), got, tc.want)
			}
		})
	}
}

func TestMateReported(t *testing.T) {
	eng := NewEngine(WithSeed(7))
	var infos []SearchInfo
	eng.OnInfo = func(info SearchInfo) { infos = append(infos, info) }

	res, err := eng.Search(context.Background(), board.MustParseFEN("8/8/8/8/8/5K1k/5Q2/8 w - - 0 1"), SearchLimits{Depth: 4})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Move.Checkmate {
		t.Errorf("move %s is not checkmate", res.Move.String())
	}
	if res.Info.MateIn != 2 {
		t.Errorf("MateIn = %d, want 2", res.Info.MateIn)
	}
	if n := MovesToMate(res.Info.MateIn, board.White); n != 1 {
		t.Errorf("MovesToMate = %d, want 1", n)
	}
	if len(infos) != 1 {
		t.Errorf("expected search to stop after the first pass, got %d passes", len(infos))
	}
	if got := ScoreToString(res.Info, board.White); got != "Mate in 1" {
		t.Errorf("ScoreToString = %q", got)
	}
}

func TestNoLegalMove(t *testing.T) {
	tests := []struct {
		name string
		fen  string
	}{
		{"checkmated", "R6k/6pp/8/8/8/8/8/K7 b - - 0 1"},
		{"stalemated", "6r1/8/8/8/8/6bK/8/5k2 w - - 0 1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			eng := NewEngine(WithSeed(1))
			_, err := eng.BestMove(board.MustParseFEN(tc.fen), 2, time.Second)
			if !errors.Is(err, ErrNoLegalMove) {
				t.Fatalf("err = %v, want ErrNoLegalMove", err)
			}
			var nlm *NoLegalMoveError
			if !errors.As(err, &nlm) || nlm.FEN != tc.fen {
				t.Errorf("error does not carry the position: %v", err)
			}
		})
	}
}

func TestInvalidPositionPropagates(t *testing.T) {
	eng := NewEngine(WithSeed(1))
	_, err := eng.BestMove(board.MustParseFEN("8/8/3k4/4P3/8/3K4/8/8 w - - 0 1"), 2, time.Second)
	if !errors.Is(err, board.ErrInvalidPosition) {
		t.Errorf("err = %v, want ErrInvalidPosition", err)
	}
}

func TestSeededSearchIsDeterministic(t *testing.T) {
	pos := board.NewPosition()
	var first string
	for i := 0; i < 3; i++ {
		eng := NewEngine(WithSeed(42))
		move, err := eng.BestMove(pos, 1, 0)
		if err != nil {
			t.Fatal(err)
		}
		if i == 0 {
			first = move.UCI()
		} else if move.UCI() != first {
			t.Errorf("run %d chose %s, first run chose %s", i, move.UCI(), first)
		}
	}
}

func TestTimeBudgetStillReturnsMove(t *testing.T) {
	eng := NewEngine(WithSeed(3))
	start := time.Now()
	res, err := eng.Search(context.Background(), board.NewPosition(), SearchLimits{Depth: 6, MoveTime: 50 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if res.Move.IsNull() {
		t.Fatal("no move returned")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("search ignored its budget: %v", elapsed)
	}
	if res.Info.Depth < 1 {
		t.Errorf("Depth = %d, want at least one completed pass", res.Info.Depth)
	}
}

func TestCancelledContextStopsAfterFirstPass(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := NewEngine(WithSeed(5))
	res, err := eng.Search(ctx, board.NewPosition(), SearchLimits{Depth: 5})
	if err != nil {
		t.Fatal(err)
	}
	if res.Info.Depth != 1 {
		t.Errorf("Depth = %d, want 1", res.Info.Depth)
	}
	if res.Info.Nodes != 20 {
		t.Errorf("Nodes = %d, want 20", res.Info.Nodes)
	}
}

func TestDifficultyDefaults(t *testing.T) {
	eng := NewEngine(WithSeed(1), WithDifficulty(Easy))
	var depths []int
	eng.OnInfo = func(info SearchInfo) { depths = append(depths, info.Depth) }
	if _, err := eng.Search(context.Background(), board.MustParseFEN("8/8/3k4/4Q3/8/8/8/4K3 b - - 0 1"), SearchLimits{}); err != nil {
		t.Fatal(err)
	}
	if len(depths) != DifficultySettings[Easy].Depth {
		t.Errorf("ran %d passes, want %d", len(depths), DifficultySettings[Easy].Depth)
	}
	if d, ok := ParseDifficulty("hard"); !ok || d != Hard {
		t.Errorf("ParseDifficulty(hard) = %v %v", d, ok)
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		fen  string
		want int
	}{
		{board.StartFEN, 0},
		{"8/8/3k4/4Q3/8/8/8/4K3 b - - 0 1", 9},
		{"4k3/pppp4/8/8/8/8/8/4K2R w - - 0 1", 1},
		{"rn2k3/8/8/8/8/8/8/4K3 w - - 0 1", -8},
	}
	for _, tc := range tests {
		pos := board.MustParseFEN(tc.fen)
		if got := Evaluate(&pos); got != tc.want {
			t.Errorf("Evaluate(%s) = %d, want %d", tc.fen, got, tc.want)
		}
	}
}

func TestTimeManager(t *testing.T) {
	tm := NewTimeManager()

	tm.Init(UCILimits{MoveTime: 300 * time.Millisecond}, board.White, 0)
	if tm.OptimumTime() != 300*time.Millisecond {
		t.Errorf("fixed movetime: %v", tm.OptimumTime())
	}

	tm.Init(UCILimits{Depth: 3}, board.White, 0)
	if got := tm.Limits(3); got.MoveTime != 0 || got.Depth != 3 {
		t.Errorf("depth-only limits = %+v", got)
	}

	tm.Init(UCILimits{Time: [2]time.Duration{60 * time.Second, 10 * time.Second}, MovesToGo: 20}, board.Black, 40)
	if got := tm.OptimumTime(); got != 500*time.Millisecond {
		t.Errorf("black clock budget = %v, want 500ms", got)
	}

	pos := board.MustParseFEN("8/8/3k4/4Q3/8/8/8/4K3 b - - 0 3")
	if Ply(&pos) != 5 {
		t.Errorf("Ply = %d, want 5", Ply(&pos))
	}
}
