// Package uci implements the Universal Chess Interface protocol on top of the engine.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hailam/chesstree/internal/board"
	"github.com/hailam/chesstree/internal/engine"
)

// infiniteDepth bounds "go infinite"; the tree grows until stop arrives long before.
const infiniteDepth = 64

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine   *engine.Engine
	position board.Position
	tm       *engine.TimeManager

	out   io.Writer
	outMu sync.Mutex

	// Search state
	searching  bool
	searchDone chan struct{}
	cancel     context.CancelFunc

	// CPU profiling
	profileFile *os.File
}

// New creates a new UCI protocol handler writing responses to out.
func New(eng *engine.Engine, out io.Writer) *UCI {
	return &UCI{
		engine:   eng,
		position: board.NewPosition(),
		tm:       engine.NewTimeManager(),
		out:      out,
	}
}

// Run reads commands from in until "quit" or end of input. A search still
// running at end of input is allowed to finish.
func (u *UCI) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.println("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleQuit()
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.println(u.position.String())
			u.printf("Fen: %s\n", u.position.FEN())
		case "perft":
			u.handlePerft(args)
		default:
			u.printf("info string unknown command: %s\n", cmd)
		}
	}

	u.wait()
	return scanner.Err()
}

func (u *UCI) printf(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format, args...)
}

func (u *UCI) println(s string) {
	u.printf("%s\n", s)
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.println("id name chesstree")
	u.println("id author chesstree authors")
	u.println("")
	u.println("option name Difficulty type combo default medium var easy var medium var hard")
	u.println("option name CPUProfile type string default <empty>")
	u.println("uciok")
}

// handleNewGame resets the board for a new game.
func (u *UCI) handleNewGame() {
	u.handleStop()
	u.position = board.NewPosition()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var pos board.Position
	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
	case "fen":
		var err error
		pos, err = board.ParseFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			u.printf("info string invalid FEN: %v\n", err)
			return
		}
	default:
		return
	}

	if movesAt < len(args) {
		for _, moveStr := range args[movesAt+1:] {
			next, err := applyUCI(pos, moveStr)
			if err != nil {
				u.printf("info string %v\n", err)
				return
			}
			pos = next
		}
	}

	u.position = pos
}

// applyUCI plays a coordinate move such as e2e4 or a7a8q on pos.
func applyUCI(pos board.Position, s string) (board.Position, error) {
	moves, err := pos.GenerateLegalMoves()
	if err != nil {
		return pos, err
	}
	m, ok := board.FindUCI(moves, s)
	if !ok {
		return pos, fmt.Errorf("illegal move: %s", s)
	}
	return m.Position, nil
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth     int
	MoveTime  time.Duration
	Infinite  bool
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}

// handleGo starts a search with the given parameters.
func (u *UCI) handleGo(args []string) {
	u.handleStop()

	opts := parseGoOptions(args)
	limits := u.calculateLimits(opts)

	pos := u.position
	u.engine.OnInfo = func(info engine.SearchInfo) {
		u.sendInfo(pos, info)
	}

	ctx, cancel := context.WithCancel(context.Background())
	u.cancel = cancel
	u.searching = true
	u.searchDone = make(chan struct{})

	go func() {
		defer close(u.searchDone)
		defer cancel()

		res, err := u.engine.Search(ctx, pos, limits)
		switch {
		case errors.Is(err, engine.ErrNoLegalMove):
			u.println("bestmove 0000")
		case err != nil:
			u.printf("info string search failed: %v\n", err)
			u.println("bestmove 0000")
		default:
			u.printf("bestmove %s\n", res.Move.UCI())
		}
	}()
}

// parseGoOptions parses "go" command arguments.
func parseGoOptions(args []string) GoOptions {
	opts := GoOptions{}

	intArg := func(i int) int {
		if i+1 >= len(args) {
			return 0
		}
		n, _ := strconv.Atoi(args[i+1])
		return n
	}
	msArg := func(i int) time.Duration {
		return time.Duration(intArg(i)) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			opts.Depth = intArg(i)
			i++
		case "movetime":
			opts.MoveTime = msArg(i)
			i++
		case "infinite":
			opts.Infinite = true
		case "wtime":
			opts.WTime = msArg(i)
			i++
		case "btime":
			opts.BTime = msArg(i)
			i++
		case "winc":
			opts.WInc = msArg(i)
			i++
		case "binc":
			opts.BInc = msArg(i)
			i++
		case "movestogo":
			opts.MovesToGo = intArg(i)
			i++
		}
	}

	return opts
}

// calculateLimits converts GoOptions to engine.SearchLimits. With no depth,
// time or clock given, the engine's difficulty preset applies.
func (u *UCI) calculateLimits(opts GoOptions) engine.SearchLimits {
	if opts.Infinite {
		return engine.SearchLimits{Depth: infiniteDepth}
	}
	if opts.Depth == 0 && opts.MoveTime == 0 && opts.WTime == 0 && opts.BTime == 0 {
		return engine.DifficultySettings[u.engine.Difficulty()]
	}

	u.tm.Init(engine.UCILimits{
		Time:      [2]time.Duration{opts.WTime, opts.BTime},
		Inc:       [2]time.Duration{opts.WInc, opts.BInc},
		MovesToGo: opts.MovesToGo,
		MoveTime:  opts.MoveTime,
		Depth:     opts.Depth,
	}, u.position.SideToMove, engine.Ply(&u.position))

	limits := u.tm.Limits(opts.Depth)
	if limits.Depth == 0 && limits.MoveTime > 0 {
		// Clock-driven: deepen until the budget runs out.
		limits.Depth = infiniteDepth
	}
	return limits
}

// sendInfo outputs search info in UCI format. Scores are from the point of
// view of the side to move, in centipawns.
func (u *UCI) sendInfo(pos board.Position, info engine.SearchInfo) {
	var parts []string

	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))

	if n := engine.MovesToMate(info.MateIn, pos.SideToMove); n != 0 {
		parts = append(parts, fmt.Sprintf("score mate %d", n))
	} else {
		cp := info.Score * 100
		if pos.SideToMove == board.Black {
			cp = -cp
		}
		parts = append(parts, fmt.Sprintf("score cp %d", cp))
	}

	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))

	// NPS
	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}

	if len(info.PV) > 0 {
		pv := make([]string, len(info.PV))
		for i := range info.PV {
			pv[i] = info.PV[i].UCI()
		}
		parts = append(parts, "pv "+strings.Join(pv, " "))
	}

	u.printf("info %s\n", strings.Join(parts, " "))
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.searching {
		u.cancel()
		u.wait()
	}
}

func (u *UCI) wait() {
	if u.searching {
		<-u.searchDone
		u.searching = false
	}
}

// handleQuit stops any search and profile.
func (u *UCI) handleQuit() {
	u.handleStop()
	u.stopProfile()
}

func (u *UCI) stopProfile() {
	if u.profileFile != nil {
		pprof.StopCPUProfile()
		u.profileFile.Close()
		u.profileFile = nil
		u.println("info string CPU profile saved")
	}
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) {
	u.handleStop()

	// Format: setoption name <name> value <value>
	var name, value []string
	var field *[]string

	for _, arg := range args {
		switch arg {
		case "name":
			field = &name
		case "value":
			field = &value
		default:
			if field != nil {
				*field = append(*field, arg)
			}
		}
	}

	val := strings.Join(value, " ")
	switch strings.ToLower(strings.Join(name, " ")) {
	case "difficulty":
		d, ok := engine.ParseDifficulty(strings.ToLower(val))
		if !ok {
			u.printf("info string unknown difficulty: %s\n", val)
			return
		}
		u.engine.SetDifficulty(d)
	case "cpuprofile":
		u.stopProfile()
		if val == "" || val == "stop" || val == "<empty>" {
			return
		}
		f, err := os.Create(val)
		if err != nil {
			u.printf("info string failed to create profile: %v\n", err)
			return
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			u.printf("info string failed to start profile: %v\n", err)
			return
		}
		u.profileFile = f
		u.printf("info string CPU profiling to %s\n", val)
	}
}

// handlePerft runs a perft test, printing per-move counts first.
func (u *UCI) handlePerft(args []string) {
	depth := 3
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			depth = n
		}
	}

	start := time.Now()
	counts, err := board.Divide(u.position, depth)
	if err != nil {
		u.printf("info string perft failed: %v\n", err)
		return
	}
	elapsed := time.Since(start)

	keys := make([]string, 0, len(counts))
	var nodes uint64
	for k, n := range counts {
		keys = append(keys, k)
		nodes += n
	}
	sort.Strings(keys)
	for _, k := range keys {
		u.printf("%s: %d\n", k, counts[k])
	}

	u.printf("Nodes: %d\n", nodes)
	u.printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		u.printf("NPS: %.0f\n", float64(nodes)/elapsed.Seconds())
	}
}
