package game

import (
	"strconv"
	"strings"

	"github.com/notnil/chess"
)

// snapshot is one ply of game history: a fully independent board clone plus
// its precomputed header vector, position hash, and halfmove clock,
// mirroring the stack entries a recursive make/unmake search would
// otherwise need to rebuild on every backtrack.
type snapshot struct {
	game     *chess.Game
	header   [HeaderSize]float32
	hash     [16]byte
	halfmove int
}

// Position is the side-to-move relative view of a chess game that the
// search tree walks. Unlike the library's own *chess.Game (a single mutable
// line of play), Position keeps every ply on an explicit stack so the tree
// can push a move down a branch and pop back out of it without replaying
// moves from the start.
type Position struct {
	states  []snapshot
	wframes []float32
	bframes []float32
}

// New returns a Position loaded with the starting chess position.
func New() *Position {
	g := chess.NewGame()

	p := &Position{
		states: []snapshot{{
			game:     g,
			header:   genHeaders(g),
			hash:     g.Position().Hash(),
			halfmove: parseHalfmoveClock(g),
		}},
	}

	// Pre-fill FrameCount-1 zero blocks so GetFrames always returns a
	// full FrameCount-deep history, even right after New().
	zeros := make([]float32, FrameSize*boardSquares*(FrameCount-1))
	p.wframes = append(p.wframes, zeros...)
	p.bframes = append(p.bframes, zeros...)

	p.pushFrame(0)

	return p
}

// Clone returns an independent deep copy of p.
func (p *Position) Clone() *Position {
	states := make([]snapshot, len(p.states))
	for i, s := range p.states {
		states[i] = snapshot{game: s.game.Clone(), header: s.header, hash: s.hash, halfmove: s.halfmove}
	}

	wframes := make([]float32, len(p.wframes))
	copy(wframes, p.wframes)
	bframes := make([]float32, len(p.bframes))
	copy(bframes, p.bframes)

	return &Position{states: states, wframes: wframes, bframes: bframes}
}

func (p *Position) top() snapshot {
	return p.states[len(p.states)-1]
}

// SideToMove returns the color to move in the current position.
func (p *Position) SideToMove() chess.Color {
	return p.top().game.Position().Turn()
}

// Ply returns the number of half-moves played since the starting position.
func (p *Position) Ply() int {
	return len(p.states) - 1
}

// FEN returns the current position in Forsyth-Edwards notation.
func (p *Position) FEN() string {
	return p.top().game.Position().String()
}

// Board returns the underlying chess.Position, for debug rendering.
func (p *Position) Board() *chess.Position {
	return p.top().game.Position()
}

// ValidMoves returns every legal move in the current position.
func (p *Position) ValidMoves() []*chess.Move {
	return p.top().game.ValidMoves()
}

// MakeMove applies mv (in UCI-like notation, e.g. "e2e4") to the position.
// It returns false and leaves the position unchanged if mv is illegal.
func (p *Position) MakeMove(mv string) bool {
	next := p.top().game.Clone()

	if err := next.MoveStr(mv); err != nil {
		return false
	}

	hash := next.Position().Hash()
	p.states = append(p.states, snapshot{
		game:     next,
		header:   genHeaders(next),
		hash:     hash,
		halfmove: parseHalfmoveClock(next),
	})

	p.pushFrame(p.countReps(hash))

	return true
}

// UnmakeMove pops the most recently made move. It panics if called on a
// Position with nothing to unmake, matching the stack's invariant that a
// selection walk never unmakes further than it has made.
func (p *Position) UnmakeMove() {
	if len(p.states) <= 1 {
		panic("game: UnmakeMove with no move to unmake")
	}
	p.states = p.states[:len(p.states)-1]

	frameLen := FrameSize * boardSquares
	p.wframes = p.wframes[:len(p.wframes)-frameLen]
	p.bframes = p.bframes[:len(p.bframes)-frameLen]
}

// countReps counts how many states on the stack (including the current one)
// share hash, i.e. how many times this exact position has occurred.
func (p *Position) countReps(hash [16]byte) int {
	reps := 0
	for _, s := range p.states {
		if s.hash == hash {
			reps++
		}
	}
	return reps
}

// GetFrames returns the current FrameCount-deep, side-to-move relative
// input tensor, flattened as FrameCount*64*FrameSize float32s.
func (p *Position) GetFrames() []float32 {
	if p.SideToMove() == chess.White {
		return p.wframes[len(p.wframes)-TotalFramesSize:]
	}
	return p.bframes[len(p.bframes)-TotalFramesSize:]
}

// GetHeaders returns the current position's header vector.
func (p *Position) GetHeaders() []float32 {
	hdr := p.top().header
	return hdr[:]
}

// GetLMM returns the legal-move mask for the current position (1.0 at
// src*64+dst for every legal move, side-to-move relative) alongside the
// list of moves the mask was built from, in matching order semantics.
func (p *Position) GetLMM() ([ActionSpace]float32, []*chess.Move) {
	var lmm [ActionSpace]float32
	moves := p.ValidMoves()

	white := p.SideToMove() == chess.White

	for _, mv := range moves {
		src := int(mv.S1())
		dst := int(mv.S2())

		if !white {
			src = 63 - src
			dst = 63 - dst
		}

		lmm[src*boardSquares+dst] = 1.0
	}

	return lmm, moves
}

// IsGameOver reports whether the current position is terminal. The
// returned value is white-POV absolute: 1 if white has won, -1 if black has
// won, 0 for any draw. The second return is false while the game is
// ongoing, in which case the value is meaningless.
//
// chess.Game.Outcome() covers checkmate, stalemate, 5-fold repetition,
// the 75-move rule, and full insufficient material, but not the 50-move
// rule or plain 3-fold repetition - both are checked here explicitly
// against this position's own halfmove clock and hash stack.
func (p *Position) IsGameOver() (float64, bool) {
	switch p.top().game.Outcome() {
	case chess.WhiteWon:
		return 1, true
	case chess.BlackWon:
		return -1, true
	case chess.Draw:
		return 0, true
	}

	if p.top().halfmove >= 50 {
		return 0, true
	}

	if p.countReps(p.top().hash) >= 3 {
		return 0, true
	}

	return 0, false
}

// pushFrame appends one new frame block, built from the current top board
// and its repetition count, onto both POV frame buffers.
func (p *Position) pushFrame(reps int) {
	board := p.top().game.Position().Board()
	sqMap := board.SquareMap()

	last := len(p.wframes)

	p.wframes = append(p.wframes, make([]float32, FrameSize*boardSquares)...)
	p.bframes = append(p.bframes, make([]float32, FrameSize*boardSquares)...)

	wdst := p.wframes[last:]
	bdst := p.bframes[last:]

	rbitlow := float32(reps & 1)
	rbithigh := float32((reps >> 1) & 1)

	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			sq := chess.Square(r*8 + f)
			piece, occupied := sqMap[sq]

			woff := r*(FrameSize*8) + f*FrameSize
			wframe := wdst[woff : woff+FrameSize]
			wframe[12] = rbitlow
			wframe[13] = rbithigh

			boff := (7-r)*(FrameSize*8) + (7-f)*FrameSize
			bframe := bdst[boff : boff+FrameSize]
			bframe[12] = rbitlow
			bframe[13] = rbithigh

			if !occupied {
				continue
			}

			colorIdx := 0
			if piece.Color() == chess.Black {
				colorIdx = 1
			}

			pieceIdx := pieceIndex(piece.Type())

			wframe[pieceIdx+colorIdx*6] = 1.0
			bframe[pieceIdx+6-colorIdx*6] = 1.0
		}
	}
}

// pieceIndex maps a piece type to the plane index used within a single
// square's frame, matching the own-pieces-first-six / opponent-next-six
// layout FrameSize documents.
func pieceIndex(t chess.PieceType) int {
	switch t {
	case chess.Pawn:
		return 0
	case chess.Knight:
		return 1
	case chess.Bishop:
		return 2
	case chess.Rook:
		return 3
	case chess.Queen:
		return 4
	case chess.King:
		return 5
	default:
		return 0
	}
}

// parseHalfmoveClock reads the halfmove clock field out of g's FEN, the
// same source genHeaders parses its own copy from.
func parseHalfmoveClock(g *chess.Game) int {
	fields := strings.Fields(g.Position().String())
	if len(fields) < 5 {
		return 0
	}
	clock, _ := strconv.Atoi(fields[4])
	return clock
}

// genHeaders derives the header vector for g's current position directly
// from its FEN, rather than from the library's richer (and less portable)
// castling-rights accessors.
func genHeaders(g *chess.Game) [HeaderSize]float32 {
	fields := strings.Fields(g.Position().String())

	var turn, castling string
	halfmove, fullmove := 0, 1

	if len(fields) >= 6 {
		turn = fields[1]
		castling = fields[2]
		halfmove, _ = strconv.Atoi(fields[4])
		fullmove, _ = strconv.Atoi(fields[5])
	}

	var hdr [HeaderSize]float32

	for i := 0; i < 8; i++ {
		hdr[i] = float32((fullmove >> i) & 1)
	}
	for i := 0; i < 6; i++ {
		hdr[i+8] = float32((halfmove >> i) & 1)
	}

	hasWK := strings.Contains(castling, "K")
	hasWQ := strings.Contains(castling, "Q")
	hasBK := strings.Contains(castling, "k")
	hasBQ := strings.Contains(castling, "q")

	if turn == "b" {
		hasWK, hasBK = hasBK, hasWK
		hasWQ, hasBQ = hasBQ, hasWQ
	}

	hdr[14] = boolBit(hasWK)
	hdr[15] = boolBit(hasWQ)
	hdr[16] = boolBit(hasBK)
	hdr[17] = boolBit(hasBQ)

	return hdr
}

func boolBit(b bool) float32 {
	if b {
		return 1.0
	}
	return 0.0
}
