package engine

import (
	"math/rand/v2"
	"sync/atomic"

	"github.com/hailam/chesstree/internal/board"
)

// node is one position in the search tree. mate is a signed ply distance:
// positive when White forces mate, negative when Black does, 0 when unknown.
// A node whose side to move is checkmated has distance ±1.
type node struct {
	move     board.Move
	eval     int
	mate     int
	terminal bool // checkmate or stalemate: never expanded
	expanded bool
	children []node
}

func newRoot(pos board.Position) *node {
	return &node{
		move: board.Move{From: board.NoSquare, To: board.NoSquare, Position: pos},
		eval: Evaluate(&pos),
	}
}

// newChild scores a generated move by material. Checkmate and stalemate are
// settled here from the move's tags so they are never expanded.
func newChild(m board.Move) node {
	n := node{move: m, eval: Evaluate(&m.Position)}
	switch {
	case m.Checkmate:
		n.terminal = true
		n.mate = -colorSign(m.Position.SideToMove)
	case m.Stalemate:
		n.terminal = true
		n.eval = 0
	}
	return n
}

func colorSign(c board.Color) int {
	if c == board.White {
		return 1
	}
	return -1
}

// extend adds one ply to a mate distance, away from zero.
func extend(mate int) int {
	switch {
	case mate > 0:
		return mate + 1
	case mate < 0:
		return mate - 1
	}
	return 0
}

// Searcher grows and scores a search tree.
type Searcher struct {
	stop  atomic.Pointer[atomic.Bool] // flag of the current search
	nodes uint64
	rng   *rand.Rand
}

// NewSearcher creates a new searcher whose ties are broken by rng.
func NewSearcher(rng *rand.Rand) *Searcher {
	return &Searcher{rng: rng}
}

// Stop signals the current search to stop.
func (s *Searcher) Stop() {
	if f := s.stop.Load(); f != nil {
		f.Store(true)
	}
}

// Reset starts a new search and returns its stop flag. Timers and
// cancellation hooks must set the returned flag rather than call Stop, so a
// late callback from an earlier search cannot stop this one.
func (s *Searcher) Reset() *atomic.Bool {
	f := new(atomic.Bool)
	s.stop.Store(f)
	s.nodes = 0
	return f
}

// IsStopped returns true if the current search has been stopped.
func (s *Searcher) IsStopped() bool {
	f := s.stop.Load()
	return f != nil && f.Load()
}

// Nodes returns the number of nodes created by the current search.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// deepen runs one pass below n: a leaf is expanded by one ply, an inner node
// recurses into its children. Scores are backed up on the way out, including
// after a stop.
func (s *Searcher) deepen(n *node) error {
	if n.terminal {
		return nil
	}

	if !n.expanded {
		moves, err := n.move.Position.GenerateLegalMoves()
		if err != nil {
			return err
		}
		n.expanded = true
		n.children = make([]node, len(moves))
		for i := range moves {
			n.children[i] = newChild(moves[i])
		}
		s.nodes += uint64(len(moves))
	} else {
		for i := range n.children {
			if s.IsStopped() {
				break
			}
			if err := s.deepen(&n.children[i]); err != nil {
				return err
			}
		}
	}

	n.backup()
	return nil
}

func (n *node) mover() board.Color {
	return n.move.Position.SideToMove
}

// wins and loses classify a child from the point of view of the side to move at n.
func (n *node) wins(c *node) bool {
	return c.mate != 0 && (c.mate > 0) == (n.mover() == board.White)
}

func (n *node) loses(c *node) bool {
	return c.mate != 0 && (c.mate > 0) != (n.mover() == board.White)
}

// better reports whether evaluation a is preferable to b for the side to move at n.
func (n *node) better(a, b int) bool {
	if n.mover() == board.White {
		return a > b
	}
	return a < b
}

func (n *node) backup() {
	if len(n.children) == 0 {
		return
	}
	n.mate = n.backupMate()
	n.eval = n.backupEval()
}

// backupMate prefers the quickest forced win, then any line without a known
// mate, and only when every child loses, the slowest loss.
func (n *node) backupMate() int {
	best := 0
	for i := range n.children {
		c := &n.children[i]
		if n.wins(c) && (best == 0 || abs(c.mate) < abs(best)) {
			best = c.mate
		}
	}
	if best != 0 {
		return extend(best)
	}

	for i := range n.children {
		if n.children[i].mate == 0 {
			return 0
		}
	}

	for i := range n.children {
		if c := &n.children[i]; abs(c.mate) > abs(best) {
			best = c.mate
		}
	}
	return extend(best)
}

// backupEval takes the best child evaluation for the side to move. While no
// forced mate is known, children that lose by force are ignored.
func (n *node) backupEval() int {
	skipLosses := n.mate == 0
	found := false
	best := 0
	for i := range n.children {
		c := &n.children[i]
		if skipLosses && n.loses(c) {
			continue
		}
		if !found || n.better(c.eval, best) {
			best = c.eval
			found = true
		}
	}
	if !found {
		return n.eval
	}
	return best
}

// candidates returns the children that realise n's backed-up score.
func (n *node) candidates() []*node {
	var out []*node
	for i := range n.children {
		c := &n.children[i]
		if n.mate != 0 {
			if extend(c.mate) == n.mate {
				out = append(out, c)
			}
		} else if c.eval == n.eval && !n.loses(c) {
			out = append(out, c)
		}
	}
	return out
}

// choose picks one candidate uniformly at random.
func (s *Searcher) choose(root *node) *node {
	cands := root.candidates()
	if len(cands) == 0 {
		return &root.children[0]
	}
	if len(cands) == 1 {
		return cands[0]
	}
	return cands[s.rng.IntN(len(cands))]
}

// principalVariation follows the first candidate at every level.
func principalVariation(root *node) []board.Move {
	var pv []board.Move
	for n := root; n.expanded && len(n.children) > 0; {
		cands := n.candidates()
		if len(cands) == 0 {
			break
		}
		n = cands[0]
		pv = append(pv, n.move)
	}
	return pv
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
