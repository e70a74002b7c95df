package mcts

// Inferencer runs a batch of positions through a policy/value network.
// Implementations live in package dualnet; this interface is declared here
// (not there) so dualnet can depend on mcts's Batch/BatchResult types
// without mcts needing to import dualnet back.
type Inferencer interface {
	Infer(b *Batch) (*BatchResult, error)
}
