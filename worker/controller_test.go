package worker

import (
	"io"
	"testing"

	dual "github.com/alphabeth/puctsearch/dualnet"
	"github.com/alphabeth/puctsearch/mcts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() mcts.Params {
	p := mcts.DefaultParams()
	p.SearchNodes = 30
	p.BatchSize = 2
	p.NumThreads = 2
	return p
}

func TestControllerSearchReachesSearchNodes(t *testing.T) {
	c, err := NewController(testParams(), dual.Mock{}, io.Discard)
	require.NoError(t, err)
	defer c.Close()

	action, pairs, err := c.Search(nil)

	require.NoError(t, err)
	assert.NotEmpty(t, action)
	assert.NotEmpty(t, pairs)
	assert.GreaterOrEqual(t, c.Tree().Root().N, testParams().SearchNodes)
}

func TestControllerPushAdvancesWithoutPriorSearch(t *testing.T) {
	c, err := NewController(testParams(), dual.Mock{}, io.Discard)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Push("e2e4"))
	assert.Equal(t, 1, c.Tree().Position().Ply())
}

func TestControllerLoadRejectsIllegalMove(t *testing.T) {
	c, err := NewController(testParams(), dual.Mock{}, io.Discard)
	require.NoError(t, err)
	defer c.Close()

	err = c.Load([]string{"e2e5"})
	assert.Error(t, err)
}

func TestControllerSearchOnTerminalPositionReturnsOutcome(t *testing.T) {
	c, err := NewController(testParams(), dual.Mock{}, io.Discard)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Load([]string{"f2f3", "e7e5", "g2g4", "d8h4"}))

	_, _, err = c.Search(nil)
	require.Error(t, err)

	var outcomeErr *OutcomeError
	require.ErrorAs(t, err, &outcomeErr)
	assert.Equal(t, -1.0, outcomeErr.Value)
}

func TestControllerInputReturnsShapedTensors(t *testing.T) {
	c, err := NewController(testParams(), dual.Mock{}, io.Discard)
	require.NoError(t, err)
	defer c.Close()

	headers, frames, lmm, err := c.Input([]string{"e2e4"})
	require.NoError(t, err)

	assert.Len(t, headers, 18)
	assert.Len(t, frames, 6*64*14)
	assert.Len(t, lmm, 4096)
}
