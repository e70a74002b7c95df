// Package worker runs a pool of inference workers alongside a single
// search tree controller. The tree itself is single-writer: only the
// Controller ever calls into it, and concurrency is limited to the slow
// step of running positions through the network between a NextBatch and
// the matching Expand.
package worker

import "github.com/alphabeth/puctsearch/mcts"

// Msg is the sum type a worker goroutine reports back to its pool,
// mirroring the two-variant WorkerMsg enum a single channel would
// otherwise need a tagged union for.
type Msg interface {
	isMsg()
}

// ReadyMsg announces that a worker is idle and wants its next batch sent
// on Reply. Reply is the worker's own intake channel; sending nil on it
// tells the worker to stop.
type ReadyMsg struct {
	Reply chan *mcts.Batch
}

func (ReadyMsg) isMsg() {}

// ExpandMsg carries a worker's finished inference result back to the
// controller, or the error that inference failed with.
type ExpandMsg struct {
	Result *mcts.BatchResult
	Err    error
}

func (ExpandMsg) isMsg() {}
