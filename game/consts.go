// Package game wraps github.com/notnil/chess to provide the side-to-move
// relative position representation the search tree and encoder operate on.
package game

// Tensor layout constants. These couple the search engine to the trained
// network and must not change without retraining.
const (
	// FrameCount is the number of historical ply frames stacked per input.
	FrameCount = 6
	// FrameSize is the per-square plane count: 6 own-piece planes, 6
	// opponent planes, 2 repetition bits.
	FrameSize = 14
	// HeaderSize is the length of the per-position header vector.
	HeaderSize = 18

	// boardSquares is the number of squares on the board.
	boardSquares = 64

	// TotalFramesSize is the flattened length returned by GetFrames.
	TotalFramesSize = FrameCount * boardSquares * FrameSize

	// ActionSpace is the width of the policy/LMM index space (src*64+dst).
	ActionSpace = 4096
)
