// Package diagram renders board positions as PNG images.
package diagram

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"

	"github.com/hailam/chesstree/internal/board"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	DefaultSize = 480
	MinSize     = 64
	MaxSize     = 2048
)

// ErrInvalidSize is returned for sizes outside [MinSize, MaxSize].
var ErrInvalidSize = errors.New("diagram: invalid size")

// Board colors
var (
	lightSquare  = "#f0d9b5"
	darkSquare   = "#b58863"
	lightHilite  = "#cdd26a"
	darkHilite   = "#aaa23a"
	whiteFill    = "#fafafa"
	blackFill    = "#262626"
	pieceOutline = "#111111"
	whiteLetter  = color.RGBA{0x26, 0x26, 0x26, 0xff}
	blackLetter  = color.RGBA{0xfa, 0xfa, 0xfa, 0xff}
	coordOnLight = color.RGBA{0xb5, 0x88, 0x63, 0xff}
	coordOnDark  = color.RGBA{0xf0, 0xd9, 0xb5, 0xff}
)

// Options controls how a diagram is drawn.
type Options struct {
	Size        int            // edge length in pixels, rounded down to a multiple of 8; 0 means DefaultSize
	Flip        bool           // draw with Black at the bottom
	Coordinates bool           // label files and ranks along the edges
	Highlight   []board.Square // squares to tint, typically the last move
}

// LastMove returns the squares to highlight for m, or nil for a null move.
func LastMove(m *board.Move) []board.Square {
	if m == nil || m.IsNull() {
		return nil
	}
	return []board.Square{m.From, m.To}
}

func (o Options) normalize() (Options, error) {
	if o.Size == 0 {
		o.Size = DefaultSize
	}
	if o.Size < MinSize || o.Size > MaxSize {
		return o, fmt.Errorf("%w: %d", ErrInvalidSize, o.Size)
	}
	o.Size -= o.Size % 8
	return o, nil
}

// cell returns the screen column and row of sq.
func (o Options) cell(sq board.Square) (col, row int) {
	if o.Flip {
		return 7 - sq.File(), sq.Rank()
	}
	return sq.File(), 7 - sq.Rank()
}

// SVG returns the board and piece discs as an SVG document. Piece letters
// are not part of it; Render draws them on top.
func SVG(pos *board.Position, opts Options) (string, error) {
	opts, err := opts.normalize()
	if err != nil {
		return "", err
	}
	return boardSVG(pos, opts), nil
}

func boardSVG(pos *board.Position, opts Options) string {
	size := opts.Size
	sq := size / 8

	hilite := make(map[board.Square]bool, len(opts.Highlight))
	for _, s := range opts.Highlight {
		hilite[s] = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, size, size, size, size)
	b.WriteByte('\n')

	for s := board.Square(0); s < board.NoSquare; s++ {
		col, row := opts.cell(s)
		light := (s.File()+s.Rank())%2 == 1
		fill := darkSquare
		switch {
		case hilite[s] && light:
			fill = lightHilite
		case hilite[s]:
			fill = darkHilite
		case light:
			fill = lightSquare
		}
		fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`, col*sq, row*sq, sq, sq, fill)
		b.WriteByte('\n')
	}

	for s := board.Square(0); s < board.NoSquare; s++ {
		piece := pos.PieceAt(s)
		if piece == board.NoPiece {
			continue
		}
		col, row := opts.cell(s)
		fill := whiteFill
		if piece.Color() == board.Black {
			fill = blackFill
		}
		r := float64(sq) * 0.4
		fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" stroke="%s" stroke-width="%.1f"/>`,
			float64(col*sq)+float64(sq)/2, float64(row*sq)+float64(sq)/2, r, fill, pieceOutline, float64(sq)/24)
		b.WriteByte('\n')
	}

	b.WriteString("</svg>\n")
	return b.String()
}

// Render draws pos into a new RGBA image.
func Render(pos *board.Position, opts Options) (*image.RGBA, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	size := opts.Size

	icon, err := oksvg.ReadIconStream(strings.NewReader(boardSVG(pos, opts)))
	if err != nil {
		return nil, fmt.Errorf("diagram: parse board svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	rgba := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	if err := drawLabels(rgba, pos, opts); err != nil {
		return nil, err
	}
	return rgba, nil
}

// EncodePNG renders pos and writes it to w as PNG.
func EncodePNG(w io.Writer, pos *board.Position, opts Options) error {
	img, err := Render(pos, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

var (
	boldOnce sync.Once
	boldFont *opentype.Font
	boldErr  error
)

func loadBold() (*opentype.Font, error) {
	boldOnce.Do(func() {
		boldFont, boldErr = opentype.Parse(gobold.TTF)
	})
	return boldFont, boldErr
}

func newFace(size float64) (font.Face, error) {
	f, err := loadBold()
	if err != nil {
		return nil, fmt.Errorf("diagram: load font: %w", err)
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// drawLabels writes piece letters centred on their discs and, when asked,
// file and rank coordinates in the square corners.
func drawLabels(dst *image.RGBA, pos *board.Position, opts Options) error {
	sq := opts.Size / 8

	face, err := newFace(float64(sq) * 0.45)
	if err != nil {
		return err
	}
	defer face.Close()

	d := &font.Drawer{Dst: dst, Face: face}
	ascent := face.Metrics().Ascent

	for s := board.Square(0); s < board.NoSquare; s++ {
		piece := pos.PieceAt(s)
		if piece == board.NoPiece {
			continue
		}
		letter := strings.ToUpper(piece.String())
		d.Src = image.NewUniform(whiteLetter)
		if piece.Color() == board.Black {
			d.Src = image.NewUniform(blackLetter)
		}

		col, row := opts.cell(s)
		width := d.MeasureString(letter)
		x := fixed.I(col*sq+sq/2) - width/2
		y := fixed.I(row*sq+sq/2) + ascent/2 - fixed.I(1)
		d.Dot = fixed.Point26_6{X: x, Y: y}
		d.DrawString(letter)
	}

	if !opts.Coordinates {
		return nil
	}

	small, err := newFace(float64(sq) * 0.2)
	if err != nil {
		return err
	}
	defer small.Close()
	d.Face = small
	pad := max(sq/20, 1)

	for i := range 8 {
		// Files along the bottom row, ranks along the left column.
		fileSq := board.NewSquare(i, 0)
		rankSq := board.NewSquare(0, i)
		if opts.Flip {
			fileSq = board.NewSquare(i, 7)
			rankSq = board.NewSquare(7, i)
		}

		col, row := opts.cell(fileSq)
		label := fileSq.String()[:1]
		d.Src = image.NewUniform(coordColor(fileSq))
		d.Dot = fixed.P((col+1)*sq-pad, (row+1)*sq-pad)
		d.Dot.X -= d.MeasureString(label)
		d.DrawString(label)

		col, row = opts.cell(rankSq)
		label = rankSq.String()[1:]
		d.Src = image.NewUniform(coordColor(rankSq))
		d.Dot = fixed.P(col*sq+pad, row*sq+pad)
		d.Dot.Y += small.Metrics().Ascent
		d.DrawString(label)
	}
	return nil
}

func coordColor(sq board.Square) color.Color {
	if (sq.File()+sq.Rank())%2 == 1 {
		return coordOnLight
	}
	return coordOnDark
}
