package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionCanInitialize(t *testing.T) {
	New()
}

func TestPositionCanMakeMoves(t *testing.T) {
	p := New()

	require.True(t, p.MakeMove("e2e4"))
	require.True(t, p.MakeMove("e7e5"))
	require.True(t, p.MakeMove("e1e2"))
	require.True(t, p.MakeMove("e8e7"))
}

func TestPositionRejectsIllegalMove(t *testing.T) {
	p := New()

	assert.False(t, p.MakeMove("e2e5"))
	assert.Equal(t, 0, p.Ply())
}

func TestPositionCanUnmakeMoves(t *testing.T) {
	p := New()

	require.True(t, p.MakeMove("e2e4"))
	require.True(t, p.MakeMove("e7e5"))
	require.True(t, p.MakeMove("e1e2"))
	require.True(t, p.MakeMove("e8e7"))

	for i := 0; i < 4; i++ {
		p.UnmakeMove()
	}

	assert.Equal(t, 0, p.Ply())
}

func TestPositionCanGetFEN(t *testing.T) {
	p := New()

	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", p.FEN())
}

func TestPositionCanIterateMoves(t *testing.T) {
	p := New()
	moves := p.ValidMoves()

	assert.Len(t, moves, 20)
}

func TestPositionInitialInputLayerIsCorrect(t *testing.T) {
	p := New()

	headers := p.GetHeaders()
	frames := p.GetFrames()

	expectedHeaders := []float32{
		1.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, // move number = 1
		0.0, 0.0, 0.0, 0.0, 0.0, 0.0, // halfmove clock = 0
		1.0, 1.0, 1.0, 1.0, // castling = all
	}

	assert.Equal(t, expectedHeaders, headers)

	// First (FrameCount-1) frames must be all zero.
	leadZeros := FrameSize * boardSquares * (FrameCount - 1)
	for i := 0; i < leadZeros; i++ {
		assert.Equalf(t, float32(0.0), frames[i], "frame offset %d", i)
	}

	lastFrame := frames[leadZeros:]
	require.Len(t, lastFrame, FrameSize*boardSquares)

	// a1 is a white rook: plane index 3 (Rook), color offset 0.
	assert.Equal(t, float32(1.0), lastFrame[3])
	// e1 is a white king: square index 4, plane index 5.
	assert.Equal(t, float32(1.0), lastFrame[4*FrameSize+5])
	// a8 is a black rook: square index 56, plane index 3+6=9.
	assert.Equal(t, float32(1.0), lastFrame[56*FrameSize+9])
	// e8 is a black king: square index 60, plane index 5+6=11.
	assert.Equal(t, float32(1.0), lastFrame[60*FrameSize+11])
	// e4 (empty) has every plane bit zero except the repetition bits.
	for i := 0; i < 12; i++ {
		assert.Equalf(t, float32(0.0), lastFrame[28*FrameSize+i], "e4 plane %d", i)
	}
}

func TestPositionFramesAreSideToMoveRelative(t *testing.T) {
	p := New()
	require.True(t, p.MakeMove("e2e4"))

	// Black to move: GetFrames must select the mirrored buffer, so the
	// most recently moved pawn (now an opponent piece from black's POV)
	// appears on the opponent planes of the mirrored square 63-28=35 (d5,
	// since the mirror flips both rank and file).
	frames := p.GetFrames()
	leadZeros := FrameSize * boardSquares * (FrameCount - 1)
	lastFrame := frames[leadZeros:]

	assert.Equal(t, float32(1.0), lastFrame[35*FrameSize+0+6])
}

func TestPositionGetLMMMatchesValidMoveCount(t *testing.T) {
	p := New()

	lmm, moves := p.GetLMM()
	require.Len(t, moves, 20)

	set := 0
	for _, v := range lmm {
		if v == 1.0 {
			set++
		}
	}
	assert.Equal(t, 20, set)
}

func TestPositionIsGameOverDetectsCheckmate(t *testing.T) {
	p := New()

	// Fool's mate.
	require.True(t, p.MakeMove("f2f3"))
	require.True(t, p.MakeMove("e7e5"))
	require.True(t, p.MakeMove("g2g4"))
	require.True(t, p.MakeMove("d8h4"))

	value, terminal := p.IsGameOver()
	require.True(t, terminal)
	assert.Equal(t, -1.0, value)
}

func TestPositionCloneIsIndependent(t *testing.T) {
	p := New()
	require.True(t, p.MakeMove("e2e4"))

	clone := p.Clone()
	require.True(t, clone.MakeMove("e7e5"))

	assert.Equal(t, 1, p.Ply())
	assert.Equal(t, 2, clone.Ply())
}
