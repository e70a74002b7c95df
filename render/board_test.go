package render

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardRendersDecodablePNG(t *testing.T) {
	game := chess.NewGame()
	var buf bytes.Buffer

	require.NoError(t, Board(game.Position(), &buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, boardSize, img.Bounds().Dx())
	assert.Equal(t, boardSize, img.Bounds().Dy())
}
