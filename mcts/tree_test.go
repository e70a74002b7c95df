package mcts

import (
	"testing"

	"github.com/alphabeth/puctsearch/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInferencer returns a uniform policy and a zero value for every
// claimed node, enough to exercise expansion without a real network.
type fakeInferencer struct{}

func (fakeInferencer) Infer(b *Batch) (*BatchResult, error) {
	policy := make([]float32, b.Size()*game.ActionSpace)
	for i := range policy {
		policy[i] = 1.0 / float32(game.ActionSpace)
	}
	value := make([]float32, b.Size())
	return b.IntoResult(policy, value), nil
}

func searchNTimes(t *testing.T, tree *Tree, nn Inferencer, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		batch := tree.NextBatch()
		if batch.Size() == 0 {
			break
		}
		result, err := nn.Infer(batch)
		require.NoError(t, err)
		tree.Expand(result)
	}
}

func TestTreeRootExpandsAndAccumulatesVisits(t *testing.T) {
	params := DefaultParams()
	params.BatchSize = 1
	params.RolloutWeight = 0

	tree := NewTree(game.New(), params)
	nn := fakeInferencer{}

	searchNTimes(t, tree, nn, 40)

	root := tree.Root()
	assert.True(t, root.N > 0)
	assert.NotNil(t, root.Children)
	assert.LessOrEqual(t, int(root.N), 40)
}

func TestTreeQStaysInUnitRange(t *testing.T) {
	params := DefaultParams()
	params.BatchSize = 4

	tree := NewTree(game.New(), params)
	nn := fakeInferencer{}

	searchNTimes(t, tree, nn, 50)

	for i := range tree.nodes {
		q := tree.nodes[i].Q()
		assert.GreaterOrEqual(t, q, -1.0)
		assert.LessOrEqual(t, q, 1.0)
	}
}

func TestTreePushPreservesSubtreeStatistics(t *testing.T) {
	params := DefaultParams()
	params.BatchSize = 1

	tree := NewTree(game.New(), params)
	nn := fakeInferencer{}

	searchNTimes(t, tree, nn, 60)

	root := tree.Root()
	require.NotNil(t, root.Children)

	keptAction := tree.nodes[root.Children[0]].Action
	keptN := tree.nodes[root.Children[0]].N

	tree.Push(keptAction)

	assert.Equal(t, keptN, tree.nodes[0].N)
	assert.Equal(t, noParent, tree.nodes[0].Parent)
	assert.Equal(t, 1, tree.position.Ply())
}

func TestTreePickReturnsALegalRootChild(t *testing.T) {
	params := DefaultParams()
	params.BatchSize = 1

	tree := NewTree(game.New(), params)
	nn := fakeInferencer{}

	searchNTimes(t, tree, nn, 30)

	action, _ := tree.Pick()

	found := false
	for _, c := range tree.Root().Children {
		if tree.nodes[c].Action == action {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTreeFoldsInTerminalWithoutCallingNetwork(t *testing.T) {
	pos := game.New()
	// Fool's mate: four plies to a forced checkmate.
	for _, mv := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		require.True(t, pos.MakeMove(mv))
	}

	params := DefaultParams()
	params.BatchSize = 8

	tree := NewTree(pos, params)

	batch := tree.NextBatch()

	// The root is immediately terminal: no leaves should be claimed for
	// network evaluation.
	assert.Equal(t, 0, batch.Size())
	assert.Equal(t, uint32(1), tree.Root().N)
	assert.Equal(t, uint32(1), tree.Root().TN)
}

func TestTreeGetMCTSPairsSumsToOne(t *testing.T) {
	params := DefaultParams()
	params.BatchSize = 1

	tree := NewTree(game.New(), params)
	nn := fakeInferencer{}

	searchNTimes(t, tree, nn, 80)

	pairs := tree.GetMCTSPairs()
	require.NotEmpty(t, pairs)

	var total float64
	for _, p := range pairs {
		total += p.Prob
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}
