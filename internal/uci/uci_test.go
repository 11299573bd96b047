package uci

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/hailam/chesstree/internal/engine"
)

func run(t *testing.T, script ...string) string {
	t.Helper()
	var out bytes.Buffer
	u := New(engine.NewEngine(engine.WithSeed(1)), &out)
	if err := u.Run(strings.NewReader(strings.Join(script, "\n") + "\n")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String()
}

func TestHandshake(t *testing.T) {
	out := run(t, "uci", "isready")
	for _, want := range []string{"id name chesstree", "option name Difficulty", "uciok", "readyok"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestGoFindsMate(t *testing.T) {
	out := run(t,
		"position fen 8/8/8/8/8/5K1k/5Q2/8 w - - 0 1",
		"go depth 2",
	)
	if !strings.Contains(out, "bestmove f2g3") {
		t.Errorf("expected bestmove f2g3:\n%s", out)
	}
	if !strings.Contains(out, "score mate 1") {
		t.Errorf("expected a mate score:\n%s", out)
	}
}

func TestNoLegalMoveReportsNullMove(t *testing.T) {
	out := run(t,
		"position fen 8/8/8/8/8/5KQk/8/8 b - - 1 1",
		"go depth 2",
	)
	if !strings.Contains(out, "bestmove 0000") {
		t.Errorf("expected bestmove 0000:\n%s", out)
	}
}

func TestPositionWithMoves(t *testing.T) {
	out := run(t,
		"position startpos moves e2e4 e7e5 g1f3",
		"d",
	)
	want := "Fen: rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2"
	if !strings.Contains(out, want) {
		t.Errorf("expected %q:\n%s", want, out)
	}

	out = run(t, "position startpos moves e2e5", "d")
	if !strings.Contains(out, "illegal move: e2e5") {
		t.Errorf("illegal move not reported:\n%s", out)
	}
	if !strings.Contains(out, "Fen: rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1") {
		t.Errorf("position changed after illegal move:\n%s", out)
	}
}

func TestPerft(t *testing.T) {
	out := run(t, "position startpos", "perft 2")
	if !strings.Contains(out, "Nodes: 400") {
		t.Errorf("perft 2 from start:\n%s", out)
	}
	if !strings.Contains(out, "e2e4: 20") {
		t.Errorf("missing divide line:\n%s", out)
	}
}

func TestStopEndsInfiniteSearch(t *testing.T) {
	var out bytes.Buffer
	u := New(engine.NewEngine(engine.WithSeed(1)), &out)

	done := make(chan error, 1)
	r, w := io.Pipe()
	go func() { done <- u.Run(r) }()

	io.WriteString(w, "position startpos\n")
	io.WriteString(w, "go infinite\n")
	time.Sleep(50 * time.Millisecond)
	io.WriteString(w, "stop\n")
	io.WriteString(w, "quit\n")
	w.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("search did not stop")
	}
	if !strings.Contains(out.String(), "bestmove ") {
		t.Errorf("no bestmove after stop:\n%s", out.String())
	}
}

func TestParseGoOptions(t *testing.T) {
	opts := parseGoOptions(strings.Fields("wtime 60000 btime 30000 winc 1000 binc 500 movestogo 20 depth 4"))
	if opts.WTime != time.Minute || opts.BTime != 30*time.Second {
		t.Errorf("clocks = %v %v", opts.WTime, opts.BTime)
	}
	if opts.WInc != time.Second || opts.BInc != 500*time.Millisecond {
		t.Errorf("increments = %v %v", opts.WInc, opts.BInc)
	}
	if opts.MovesToGo != 20 || opts.Depth != 4 {
		t.Errorf("movestogo %d depth %d", opts.MovesToGo, opts.Depth)
	}
}

func TestSetOptionDifficulty(t *testing.T) {
	var out bytes.Buffer
	eng := engine.NewEngine()
	u := New(eng, &out)
	if err := u.Run(strings.NewReader("setoption name Difficulty value hard\n")); err != nil {
		t.Fatal(err)
	}
	if eng.Difficulty() != engine.Hard {
		t.Errorf("difficulty = %v, want hard", eng.Difficulty())
	}
}
