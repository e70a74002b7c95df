package worker

import (
	"sync"

	"github.com/alphabeth/puctsearch/mcts"
)

// Pool manages a fixed set of inference workers sharing one outgoing
// message channel, the Go analogue of the worker.rs thread pool plus its
// mpsc::channel fan-in.
type Pool struct {
	Outgoing chan Msg

	workers []*Worker
	wg      sync.WaitGroup
}

// NewPool starts n workers, all evaluating batches with nn.
func NewPool(n int, nn mcts.Inferencer) *Pool {
	p := &Pool{Outgoing: make(chan Msg, n*2)}

	for i := 0; i < n; i++ {
		p.wg.Add(1)
		p.workers = append(p.workers, newWorker(p.Outgoing, nn, &p.wg))
	}

	return p
}

// Len returns the number of workers in the pool.
func (p *Pool) Len() int { return len(p.workers) }

// Stop signals every worker to return and waits for them to finish,
// mirroring worker.rs's Worker::join graceful-shutdown shape.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		w.stop()
	}
	p.wg.Wait()
}
