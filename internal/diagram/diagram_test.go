package diagram

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/hailam/chesstree/internal/board"
)

func near(t *testing.T, got color.Color, want color.RGBA) {
	t.Helper()
	r, g, b, _ := got.RGBA()
	diff := func(a uint32, b uint8) int {
		d := int(a>>8) - int(b)
		if d < 0 {
			d = -d
		}
		return d
	}
	if diff(r, want.R) > 2 || diff(g, want.G) > 2 || diff(b, want.B) > 2 {
		t.Errorf("pixel = %v, want about %v", got, want)
	}
}

func TestRenderSquares(t *testing.T) {
	pos := board.NewPosition()
	img, err := Render(&pos, Options{Size: 256})
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 256 || b.Dy() != 256 {
		t.Fatalf("bounds = %v", b)
	}

	// Corners of h1 (light) and a1 (dark) are never covered by a disc.
	near(t, img.At(7*32+2, 7*32+2), color.RGBA{0xf0, 0xd9, 0xb5, 0xff})
	near(t, img.At(2, 7*32+2), color.RGBA{0xb5, 0x88, 0x63, 0xff})
}

func TestRenderHighlightAndFlip(t *testing.T) {
	pos := board.MustParseFEN("4k3/8/8/8/4P3/8/8/4K3 b - - 0 1")
	m := board.Move{From: board.NewSquare(4, 1), To: board.NewSquare(4, 3)}

	img, err := Render(&pos, Options{Size: 256, Highlight: LastMove(&m)})
	if err != nil {
		t.Fatal(err)
	}
	// e2 is light: column 4, row 6.
	near(t, img.At(4*32+2, 6*32+2), color.RGBA{0xcd, 0xd2, 0x6a, 0xff})

	flipped, err := Render(&pos, Options{Size: 256, Flip: true, Highlight: LastMove(&m)})
	if err != nil {
		t.Fatal(err)
	}
	// Flipped, e2 sits at column 3, row 1.
	near(t, flipped.At(3*32+2, 1*32+2), color.RGBA{0xcd, 0xd2, 0x6a, 0xff})

	if LastMove(&board.Move{From: board.NoSquare}) != nil {
		t.Error("null move should not highlight")
	}
}

func TestSVGHasOneDiscPerPiece(t *testing.T) {
	pos := board.NewPosition()
	svg, err := SVG(&pos, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(svg, "<circle"); n != 32 {
		t.Errorf("got %d discs, want 32", n)
	}
	if n := strings.Count(svg, "<rect"); n != 64 {
		t.Errorf("got %d squares, want 64", n)
	}
}

func TestInvalidSize(t *testing.T) {
	pos := board.NewPosition()
	for _, size := range []int{-8, 10, 4096} {
		if _, err := Render(&pos, Options{Size: size}); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("size %d: err = %v, want ErrInvalidSize", size, err)
		}
	}

	img, err := Render(&pos, Options{Size: 100})
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 96 {
		t.Errorf("size 100 rendered at %d, want 96", img.Bounds().Dx())
	}
}

func TestEncodePNG(t *testing.T) {
	pos := board.NewPosition()
	var buf bytes.Buffer
	if err := EncodePNG(&buf, &pos, Options{Size: 128, Coordinates: true}); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != 128 {
		t.Errorf("width = %d, want 128", img.Bounds().Dx())
	}
}
