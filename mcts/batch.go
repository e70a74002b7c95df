package mcts

import (
	"github.com/alphabeth/puctsearch/game"
	"github.com/notnil/chess"
)

// Batch collects the positions a selection pass has claimed for network
// evaluation, flattened into the tensors an Inferencer expects.
type Batch struct {
	headers []float32
	frames  []float32
	lmm     []float32
	moves   [][]*chess.Move
	nodes   []int
}

// NewBatch returns an empty Batch sized to hold reserveSize positions.
func NewBatch(reserveSize int) *Batch {
	return &Batch{
		headers: make([]float32, 0, reserveSize*game.HeaderSize),
		frames:  make([]float32, 0, reserveSize*game.TotalFramesSize),
		lmm:     make([]float32, 0, reserveSize*game.ActionSpace),
		moves:   make([][]*chess.Move, 0, reserveSize),
		nodes:   make([]int, 0, reserveSize),
	}
}

// Add appends p's current network inputs to the batch, associated with
// node.
func (b *Batch) Add(p *game.Position, node int) {
	b.headers = append(b.headers, p.GetHeaders()...)
	b.frames = append(b.frames, p.GetFrames()...)

	lmm, moves := p.GetLMM()

	b.moves = append(b.moves, moves)
	b.nodes = append(b.nodes, node)
	b.lmm = append(b.lmm, lmm[:]...)
}

// Size returns the number of positions collected in this batch.
func (b *Batch) Size() int { return len(b.nodes) }

// Headers returns the batch's flattened header inputs.
func (b *Batch) Headers() []float32 { return b.headers }

// Frames returns the batch's flattened frame inputs.
func (b *Batch) Frames() []float32 { return b.frames }

// LMM returns the batch's flattened legal-move-mask inputs.
func (b *Batch) LMM() []float32 { return b.lmm }

// IntoResult pairs this batch with the network's output to build a
// BatchResult the tree can expand with.
func (b *Batch) IntoResult(policy, value []float32) *BatchResult {
	return &BatchResult{
		policy: policy,
		value:  value,
		nodes:  b.nodes,
		moves:  b.moves,
	}
}

// BatchResult is an executed Batch: the network's policy and value output
// for every position that was collected.
type BatchResult struct {
	moves  [][]*chess.Move
	nodes  []int
	value  []float32
	policy []float32
}

// Size returns the number of positions in this result.
func (r *BatchResult) Size() int { return len(r.nodes) }

// PolicyForAction returns the policy weight the network assigned to
// action at batch index idx, reading the side-to-move relative slot the
// encoder wrote the legal-move mask to.
func (r *BatchResult) PolicyForAction(idx int, action *chess.Move, pov chess.Color) float32 {
	src := int(action.S1())
	dst := int(action.S2())

	if pov == chess.Black {
		src = 63 - src
		dst = 63 - dst
	}

	return r.policy[idx*game.ActionSpace+src*64+dst]
}
