// Package render draws a static PNG snapshot of a position, for the
// -render debug flag.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/notnil/chess"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	squareSize = 64
	boardSize  = squareSize * 8
)

var (
	light = color.RGBA{R: 0xee, G: 0xee, B: 0xd2, A: 0xff}
	dark  = color.RGBA{R: 0x76, G: 0x96, B: 0x5b, A: 0xff}
	ink   = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
)

// pieceLetters mirrors FEN's own letter convention: uppercase white,
// lowercase black.
var pieceLetters = map[chess.PieceType][2]byte{
	chess.Pawn:   {'P', 'p'},
	chess.Knight: {'N', 'n'},
	chess.Bishop: {'B', 'b'},
	chess.Rook:   {'R', 'r'},
	chess.Queen:  {'Q', 'q'},
	chess.King:   {'K', 'k'},
}

// Board draws pos onto a boardSize x boardSize PNG and writes it to w.
// Pieces are rendered as their FEN letter using the stock bitmap face
// from x/image/font/basicfont, rather than a scalable glyph outline - no
// licensed font asset ships with this repo to feed a truetype parser.
func Board(pos *chess.Position, w io.Writer) error {
	img := image.NewRGBA(image.Rect(0, 0, boardSize, boardSize))

	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			sq := color.Color(light)
			if (r+f)%2 == 1 {
				sq = dark
			}
			draw.Draw(img, image.Rect(f*squareSize, r*squareSize, (f+1)*squareSize, (r+1)*squareSize),
				&image.Uniform{C: sq}, image.Point{}, draw.Src)
		}
	}

	board := pos.Board()
	for sq, piece := range board.SquareMap() {
		rank := 7 - int(sq)/8
		file := int(sq) % 8

		letters, ok := pieceLetters[piece.Type()]
		if !ok {
			continue
		}
		letter := letters[0]
		if piece.Color() == chess.Black {
			letter = letters[1]
		}

		drawLetter(img, file*squareSize+squareSize/3, rank*squareSize+squareSize*2/3, letter)
	}

	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("render: encode png: %w", err)
	}
	return nil
}

func drawLetter(img draw.Image, x, y int, letter byte) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(ink),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(string(letter))
}
