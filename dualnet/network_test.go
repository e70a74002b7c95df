package dual

import (
	"testing"

	"github.com/alphabeth/puctsearch/game"
	"github.com/alphabeth/puctsearch/mcts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfIsValid(t *testing.T) {
	assert.True(t, DefaultConf().IsValid())
}

func TestMockInferReturnsShapedOutput(t *testing.T) {
	b := mcts.NewBatch(2)
	p := game.New()
	b.Add(p, 0)
	b.Add(p, 1)

	m := Mock{Value: 0.5}
	result, err := m.Infer(b)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Size())
}

func TestMockInferOnEmptyBatchReturnsEmptyResult(t *testing.T) {
	b := mcts.NewBatch(0)
	m := Mock{}

	result, err := m.Infer(b)

	require.NoError(t, err)
	assert.Equal(t, 0, result.Size())
}
