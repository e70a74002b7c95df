package mcts

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/alphabeth/puctsearch/game"
	"github.com/chewxy/math32"
	rng "github.com/leesper/go_rng"
	distrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distmv"
)

// Tree manages a single search tree rooted at one chess position. It is an
// arena: nodes are addressed by index into a flat slice rather than by
// pointer, so pushing the root forward is a cheap repack instead of a
// pointer-graph walk. The tree is not safe for concurrent mutation - the
// controller serializes every call into it and only parallelizes the slow
// network-inference step between NextBatch and Expand calls.
type Tree struct {
	nodes    []Node
	params   Params
	position *game.Position

	noiseSource distrand.Source
	mt          *rng.MT19937_64
}

// NewTree builds a tree with a single root node over rootpos.
func NewTree(rootpos *game.Position, params Params) *Tree {
	mt := rng.NewMT19937_64()
	mt.Seed(time.Now().UnixNano())

	return &Tree{
		nodes:       []Node{newRoot(rootpos.SideToMove())},
		params:      params,
		position:    rootpos,
		noiseSource: distrand.NewSource(uint64(time.Now().UnixNano())),
		mt:          mt,
	}
}

// Position returns the tree's root position.
func (t *Tree) Position() *game.Position { return t.position }

// Root returns the root node.
func (t *Tree) Root() *Node { return &t.nodes[0] }

// Len returns the number of nodes currently allocated in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node at idx.
func (t *Tree) Node(idx int) *Node { return &t.nodes[idx] }

// NextBatch walks the tree up to params.BatchSize times, collecting every
// claimed leaf into a Batch ready for network evaluation. It stops early
// once a walk finds every path already claimed.
func (t *Tree) NextBatch() *Batch {
	batch := NewBatch(int(t.params.BatchSize))

	for i := uint8(0); i < t.params.BatchSize; i++ {
		if !t.mctsSelect(batch, 0) {
			break
		}
	}

	return batch
}

// mctsSelect performs a single selection walk starting at node this,
// mutating t.position as it descends and restoring it before returning.
// It returns true if a leaf was reached (claimed for expansion or folded
// in as an already-known terminal), false if this subtree is fully
// claimed by other in-flight walks.
func (t *Tree) mctsSelect(b *Batch, this int) bool {
	node := &t.nodes[this]

	if node.Claim {
		return false
	}

	if node.Children == nil {
		if node.Terminal == TerminalUnknown {
			if v, over := t.position.IsGameOver(); over {
				node.Terminal = TerminalYes
				node.Value = v
			} else {
				node.Terminal = TerminalNo
			}
		}

		if node.Terminal == TerminalYes {
			res := node.Value
			if res == 1.0 {
				res = -1.0
			}
			t.backprop(this, res, 0, 1)
			return true
		}

		node.Claim = true
		b.Add(t.position, this)
		return true
	}

	children := node.Children
	curN := float64(node.N)

	type scored struct {
		idx int
		uct float64
	}
	pairs := make([]scored, len(children))

	sqrtN := float64(math32.Sqrt(float32(curN)))

	for i, cidx := range children {
		child := &t.nodes[cidx]
		uct := -child.Q() + (child.P*t.params.PUCTPolicyWeight*sqrtN)/(float64(child.N)+1.0)
		pairs[i] = scored{cidx, uct}
	}

	// SliceStable so exact-score ties break deterministically by lower
	// child id, matching the order children were expanded in.
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].uct > pairs[j].uct })

	child := pairs[0].idx

	if !t.position.MakeMove(t.nodes[child].Action) {
		panic("mcts: stored action is no longer legal in replayed position")
	}

	result := t.mctsSelect(b, child)

	t.position.UnmakeMove()

	return result
}

// backprop adds value to node idx's accumulator and propagates its
// negation up to the parent, mirroring the alternating-POV convention
// every node's W is stored in its own side-to-move's frame.
func (t *Tree) backprop(idx int, value float64, depth int, terminal uint32) {
	node := &t.nodes[idx]

	node.N++
	node.TN += terminal
	node.W += value

	if depth > node.MaxDepth {
		node.MaxDepth = depth
	}

	if node.Parent != noParent {
		t.backprop(node.Parent, -value, depth+1, terminal)
	}
}

// Expand applies a BatchResult to the tree: every claimed node gets its
// children populated from the position's legal moves, noise-blended
// policy priors, and a backpropagated value.
func (t *Tree) Expand(result *BatchResult) {
	for i := 0; i < result.Size(); i++ {
		target := result.nodes[i]
		moves := result.moves[i]

		if len(moves) == 0 {
			panic("mcts: expansion target has no legal moves")
		}

		noise := t.sampleNoise(len(moves))

		newChildren := make([]int, 0, len(moves))
		targetColor := t.nodes[target].Color
		childColor := targetColor.Other()

		for j, mv := range moves {
			modelP := float64(result.PolicyForAction(i, mv, targetColor))
			if math32.IsNaN(float32(modelP)) {
				panic("mcts: policy is NaN out of network")
			}

			p := noise[j]*t.params.PUCTNoiseWeight + modelP*(1.0-t.params.PUCTNoiseWeight)

			newChildren = append(newChildren, len(t.nodes))
			t.nodes = append(t.nodes, newChild(target, p, mv.String(), childColor))
		}

		t.nodes[target].Children = newChildren
		t.nodes[target].Claim = false

		value := result.value[i]

		if t.params.RolloutWeight > 0 {
			rollout := t.rollout(target)
			blended := float64(value)*(1.0-t.params.RolloutWeight) + rollout*t.params.RolloutWeight
			t.backprop(target, blended, 0, 0)
		} else {
			t.backprop(target, float64(value), 0, 0)
		}
	}
}

// sampleNoise returns a Dirichlet-distributed noise vector of length n,
// blended into every non-root expansion's policy prior per the design
// note that noise is not restricted to the root.
func (t *Tree) sampleNoise(n int) []float64 {
	if n == 1 {
		return []float64{1.0}
	}

	alpha := make([]float64, n)
	for i := range alpha {
		alpha[i] = t.params.PUCTNoiseAlpha
	}

	dist := distmv.NewDirichlet(alpha, t.noiseSource)
	return dist.Rand(nil)
}

// rollout plays uniformly random legal moves from node start's position
// until a terminal is reached, without recording the path in the tree,
// and returns the result from start's own point of view: 1 if the side to
// move at start eventually wins, -1 if it loses, 0 for a draw.
func (t *Tree) rollout(start int) float64 {
	var path []int
	for cur := start; cur != 0; cur = t.nodes[cur].Parent {
		path = append(path, cur)
	}

	pos := t.position.Clone()
	for i := len(path) - 1; i >= 0; i-- {
		if !pos.MakeMove(t.nodes[path[i]].Action) {
			panic("mcts: rollout path action is no longer legal")
		}
	}

	for {
		if _, over := pos.IsGameOver(); over {
			break
		}

		moves := pos.ValidMoves()
		mv := moves[t.mt.Int63n(int64(len(moves)))]

		if !pos.MakeMove(mv.String()) {
			panic("mcts: rollout chose an illegal move")
		}
	}

	value, _ := pos.IsGameOver()
	if value == 0 {
		return 0
	}

	// A decisive result means the side to move at the end was mated.
	if t.nodes[start].Color == pos.SideToMove() {
		return -1
	}
	return 1
}

// Push advances the tree by one action, discarding every sibling subtree
// and repacking the surviving subtree into a fresh, compactly indexed node
// slice so indices stay dense.
func (t *Tree) Push(action string) {
	if t.nodes[0].Children == nil {
		panic("mcts: cannot push before the root has been expanded")
	}

	var newNodes []Node
	found := false

	for _, c := range t.nodes[0].Children {
		if t.nodes[c].Action == action {
			t.copySubtree(c, &newNodes, noParent)
			found = true
		}
	}

	if !found {
		panic("mcts: push action not found among root children")
	}

	t.nodes = newNodes

	if !t.position.MakeMove(action) {
		panic("mcts: push action is illegal in the root position")
	}
}

// copySubtree copies the subtree rooted at root into nodes, reparenting it
// under newParent, and returns its new index.
func (t *Tree) copySubtree(root int, nodes *[]Node, newParent int) int {
	newID := len(*nodes)
	*nodes = append(*nodes, t.nodes[root])

	if children := t.nodes[root].Children; children != nil {
		newChildren := make([]int, 0, len(children))
		for _, c := range children {
			newChildren = append(newChildren, t.copySubtree(c, nodes, newID))
		}
		(*nodes)[newID].Children = newChildren
	}

	(*nodes)[newID].Parent = newParent
	return newID
}

// Pick samples an action from the root's children, weighted by visit
// count plus one raised to 1/temperature, switching to TemperatureDrop
// once the position's ply reaches TemperatureDropPly.
func (t *Tree) Pick() (string, float64) {
	root := t.nodes[0]
	if root.Children == nil {
		panic("mcts: cannot pick with no children")
	}

	temp := t.params.Temperature
	if uint32(t.position.Ply()) >= t.params.TemperatureDropPly {
		temp = t.params.TemperatureDrop
	}

	actions := make([]string, len(root.Children))
	qs := make([]float64, len(root.Children))
	weights := make([]float64, len(root.Children))

	var total float64
	for i, c := range root.Children {
		child := &t.nodes[c]
		actions[i] = child.Action
		qs[i] = child.Q()
		weights[i] = float64(math32.Pow(float32(child.N+1), float32(1.0/temp)))
		total += weights[i]
	}

	r := distrand.New(t.noiseSource).Float64() * total
	var accum float64
	for i, w := range weights {
		accum += w
		if r < accum {
			return actions[i], qs[i]
		}
	}

	last := len(actions) - 1
	return actions[last], qs[last]
}

// GetMCTSPairs returns, for every root child, its share of the visits
// summed over all root children alongside the action that reached it - the MCTS
// improved-policy signal a training loop would consume.
func (t *Tree) GetMCTSPairs() []MCTSPair {
	root := t.nodes[0]

	var totalN float64
	for _, c := range root.Children {
		totalN += float64(t.nodes[c].N)
	}

	pairs := make([]MCTSPair, len(root.Children))
	for i, c := range root.Children {
		child := &t.nodes[c]
		prob := 0.0
		if totalN > 0 {
			prob = float64(child.N) / totalN
		}
		pairs[i] = MCTSPair{Prob: prob, Action: child.Action}
	}

	return pairs
}

// MCTSPair is one entry of the tree's improved policy distribution.
type MCTSPair struct {
	Prob   float64
	Action string
}

// MarshalJSON encodes the pair as a two-element array, matching the wire
// format a (f64, String) tuple serializes to.
func (p MCTSPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{p.Prob, p.Action})
}

// NodeSnapshot is the serializable view of one tree node used by the
// Searching progress message and by treedump.
type NodeSnapshot struct {
	N      uint32  `json:"n"`
	P      float64 `json:"p"`
	W      float64 `json:"w"`
	Q      float64 `json:"q"`
	TN     uint32  `json:"tn"`
	Depth  int     `json:"depth"`
	Action string  `json:"action"`
}

// Snapshot returns a NodeSnapshot for every child of the root, the same
// set of nodes the reference implementation's tree serialization exposes.
func (t *Tree) Snapshot() []NodeSnapshot {
	root := t.nodes[0]
	out := make([]NodeSnapshot, 0, len(root.Children))

	for _, c := range root.Children {
		n := t.nodes[c]
		action := n.Action
		if action == "" {
			action = "none"
		}
		out = append(out, NodeSnapshot{
			N: n.N, P: n.P, W: n.W, Q: n.Q(), TN: n.TN, Depth: n.MaxDepth, Action: action,
		})
	}

	return out
}

// EnsureRootExpanded performs a single one-node batch/expand round trip
// if the root has no children yet, matching the control protocol's Push
// command behavior when the tree hasn't been searched before advancing.
func (t *Tree) EnsureRootExpanded(nn Inferencer) error {
	if t.nodes[0].Children != nil {
		return nil
	}

	batch := t.NextBatch()
	result, err := nn.Infer(batch)
	if err != nil {
		return err
	}

	t.Expand(result)
	return nil
}
