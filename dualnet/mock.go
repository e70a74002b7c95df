package dual

import (
	"github.com/alphabeth/puctsearch/mcts"
)

// Mock is a deterministic mcts.Inferencer used by tests and by searchd
// when no -model_path is given: it needs no trained weights and its
// output is a pure function of the input, so assertions on search
// behavior don't depend on gorgonia's numeric output.
type Mock struct {
	// Value is returned for every position in a batch.
	Value float32
}

// Infer returns a uniform policy over every slot and Value for every
// position, ignoring the legal-move mask. Expand reads the policy entry of
// each legal move only and uses it as is, without renormalizing, the same
// way it treats a real network's raw output.
func (m Mock) Infer(b *mcts.Batch) (*mcts.BatchResult, error) {
	size := b.Size()
	if size == 0 {
		return b.IntoResult(nil, nil), nil
	}

	policy := make([]float32, size*4096)
	for i := range policy {
		policy[i] = 1.0 / 4096.0
	}

	value := make([]float32, size)
	for i := range value {
		value[i] = m.Value
	}

	return b.IntoResult(policy, value), nil
}

var _ mcts.Inferencer = Mock{}
