package board

import (
	"errors"
	"testing"
)

func TestFENRoundTrip(t *testing.T) {
	for _, fen := range []string{
		StartFEN,
		"rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq c6 0 2",
		"6kR/pppq1rB1/n2pr3/3Pp3/1PP3Q1/P3P3/6K1/7R b - - 0 29",
		"r3k2r/8/8/8/8/8/8/R3K2R w Kq - 7 44",
	} {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		if got := pos.FEN(); got != fen {
			t.Errorf("FEN() = %q, want %q", got, fen)
		}
	}
}

func TestParseFENFields(t *testing.T) {
	pos := MustParseFEN("rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w Kq c6 3 17")

	if pos.SideToMove != White {
		t.Errorf("SideToMove = %v, want White", pos.SideToMove)
	}
	if pos.CastlingRights != WhiteKingSideCastle|BlackQueenSideCastle {
		t.Errorf("CastlingRights = %v, want Kq", pos.CastlingRights)
	}
	if pos.EnPassant != NewSquare(2, 5) {
		t.Errorf("EnPassant = %v, want c6", pos.EnPassant)
	}
	if pos.HalfMoveClock != 3 || pos.FullMoveNumber != 17 {
		t.Errorf("clocks = %d/%d, want 3/17", pos.HalfMoveClock, pos.FullMoveNumber)
	}
	if pos.PieceAt(E1) != WhiteKing || pos.PieceAt(NewSquare(2, 4)) != BlackPawn {
		t.Error("pieces not placed where expected")
	}
	if pos.KingSquare(Black) != E8 {
		t.Errorf("KingSquare(Black) = %v, want e8", pos.KingSquare(Black))
	}
}

func TestParseFENRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		fen  string
	}{
		{"empty", ""},
		{"missing full move", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0"},
		{"extra field", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1 x"},
		{"seven ranks", "rnbqkbnr/pppppppp/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"nine in rank", "rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"rank overflow", "rnbqkbnr/ppppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"rank underflow", "rnbqkbnr/ppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"bad piece", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNa w KQkq - 0 1"},
		{"bad side", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR c KQkq - 0 1"},
		{"bad castling", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkp - 0 1"},
		{"bad en passant", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq j2 0 1"},
		{"en passant off rank", "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e4 0 1"},
		{"en passant for wrong side", "rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR b KQkq d6 0 2"},
		{"white en passant with white to move", "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e3 0 1"},
		{"bad half move", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - d 1"},
		{"bad full move", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 0"},
		{"no kings", "8/8/8/8/8/8/8/8 w - - 0 1"},
		{"two white kings", "k7/8/8/8/8/8/8/K6K w - - 0 1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFEN(tc.fen)
			if !errors.Is(err, ErrMalformedFEN) {
				t.Errorf("ParseFEN(%q) err = %v, want ErrMalformedFEN", tc.fen, err)
			}
		})
	}
}

func TestPositionEquality(t *testing.T) {
	a := NewPosition()
	b := MustParseFEN(StartFEN)
	if a != b {
		t.Error("identical positions compare unequal")
	}
	b.HalfMoveClock++
	if a == b {
		t.Error("positions with different clocks compare equal")
	}
	if a.Key() != b.Key() {
		t.Error("Key should ignore clocks")
	}
}

func TestSquare(t *testing.T) {
	sq, err := ParseSquare("e4")
	if err != nil {
		t.Fatal(err)
	}
	if sq.File() != 4 || sq.Rank() != 3 || sq.String() != "e4" {
		t.Errorf("e4 parsed as file %d rank %d %q", sq.File(), sq.Rank(), sq)
	}
	if _, ok := H8.Offset(1, 0); ok {
		t.Error("h8+1 file should be off board")
	}
	if got, ok := A1.Offset(2, 1); !ok || got.String() != "c2" {
		t.Errorf("a1 offset (2,1) = %v %v, want c2", got, ok)
	}
	if NoSquare.String() != "-" {
		t.Errorf("NoSquare.String() = %q", NoSquare.String())
	}
	for _, bad := range []string{"", "e", "i1", "a9", "e44"} {
		if _, err := ParseSquare(bad); err == nil {
			t.Errorf("ParseSquare(%q) succeeded", bad)
		}
	}
}

func TestPieceEncoding(t *testing.T) {
	for _, c := range []byte("PNBRQKpnbrqk") {
		p := PieceFromChar(c)
		if p == NoPiece {
			t.Fatalf("PieceFromChar(%c) = NoPiece", c)
		}
		if p.String() != string(c) {
			t.Errorf("round trip %c -> %s", c, p)
		}
		if NewPiece(p.Type(), p.Color()) != p {
			t.Errorf("NewPiece(%v, %v) != %s", p.Type(), p.Color(), p)
		}
	}
	if NoPiece.Type() != NoPieceType || NoPiece.Color() != NoColor {
		t.Error("NoPiece should have no type and no color")
	}
}

func TestHashFollowsKey(t *testing.T) {
	a := MustParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 11")
	b := MustParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 7 40")
	if a.Hash() != b.Hash() {
		t.Error("clocks changed the hash")
	}

	variants := []string{
		"r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 11",
		"r3k2r/8/8/8/8/8/8/R3K2R w Kkq - 0 11",
		"r3k2r/8/8/8/8/8/8/R4K1R w kq - 0 11",
	}
	for _, fen := range variants {
		c := MustParseFEN(fen)
		if c.Hash() == a.Hash() {
			t.Errorf("%s hashes like the base position", fen)
		}
	}
}
