package worker

import (
	"sync"

	"github.com/alphabeth/puctsearch/mcts"
)

// Worker runs one goroutine that repeatedly offers to evaluate a batch,
// evaluates whatever it's handed, and reports the result back - until its
// intake channel is sent a nil batch, which tells it to return.
type Worker struct {
	intake chan *mcts.Batch
}

// newWorker starts a worker goroutine that publishes ReadyMsg/ExpandMsg to
// outgoing using nn to run inference, and signals wg when it stops.
func newWorker(outgoing chan<- Msg, nn mcts.Inferencer, wg *sync.WaitGroup) *Worker {
	w := &Worker{intake: make(chan *mcts.Batch)}

	go func() {
		defer wg.Done()

		for {
			outgoing <- ReadyMsg{Reply: w.intake}

			batch := <-w.intake
			if batch == nil {
				return
			}

			result, err := nn.Infer(batch)
			outgoing <- ExpandMsg{Result: result, Err: err}
		}
	}()

	return w
}

// stop tells the worker to return after its current round trip.
func (w *Worker) stop() {
	w.intake <- nil
}
