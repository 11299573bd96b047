package board

// Zobrist keys, generated from a fixed seed so hashes are stable across runs.
var (
	zobristPiece      [13][64]uint64 // indexed by Piece; row 0 stays zero
	zobristEnPassant  [8]uint64      // one per file
	zobristCastling   [16]uint64     // all 16 castling combinations
	zobristSideToMove uint64         // XOR when black to move
)

func init() {
	initZobrist()
}

// Simple PRNG for reproducible Zobrist keys
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := newPRNG(0x98F107A2BEEF1234)

	for piece := WhitePawn; piece <= BlackKing; piece++ {
		for sq := range 64 {
			zobristPiece[piece][sq] = rng.next()
		}
	}
	for file := range 8 {
		zobristEnPassant[file] = rng.next()
	}
	for i := range 16 {
		zobristCastling[i] = rng.next()
	}
	zobristSideToMove = rng.next()
}

// Hash returns a Zobrist hash of the placement, side to move, castling
// rights and en passant square. Two positions with equal Key have equal Hash;
// the move clocks are ignored.
func (p *Position) Hash() uint64 {
	var h uint64
	for sq, piece := range p.squares {
		if piece != NoPiece {
			h ^= zobristPiece[piece][sq]
		}
	}
	if p.EnPassant != NoSquare {
		h ^= zobristEnPassant[p.EnPassant.File()]
	}
	h ^= zobristCastling[p.CastlingRights&0xF]
	if p.SideToMove == Black {
		h ^= zobristSideToMove
	}
	return h
}
