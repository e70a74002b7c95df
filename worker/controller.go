package worker

import (
	"io"
	"log"
	"time"

	"github.com/alphabeth/puctsearch/game"
	"github.com/alphabeth/puctsearch/mcts"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// statusInterval bounds how often Search reports progress through
// onStatus while a search is running.
const statusInterval = time.Second

// Controller owns one search tree and the pool of workers that evaluate
// it, implementing the protocol's Config/Load/Input/Push/Go/Stop state
// machine (see main.rs for the reference shape this follows).
type Controller struct {
	tree   *mcts.Tree
	params mcts.Params
	nn     mcts.Inferencer
	pool   *Pool
	log    *log.Logger

	closers []io.Closer
}

// NewController builds a controller over the starting position, with a
// fresh worker pool sized to params.NumThreads.
func NewController(params mcts.Params, nn mcts.Inferencer, logOut io.Writer) (*Controller, error) {
	if !params.IsValid() {
		return nil, errors.New("worker: invalid search parameters")
	}

	return &Controller{
		tree:   mcts.NewTree(game.New(), params),
		params: params,
		nn:     nn,
		pool:   NewPool(params.NumThreads, nn),
		log:    log.New(logOut, "[controller] ", log.Ltime),
	}, nil
}

// Reconfigure stores a new Params without discarding the current search.
// SearchNodes applies from the next Search; the existing tree keeps its
// old params, and the new ones reach the tree when the next Load builds
// one. The worker pool keeps the size it was created with.
func (c *Controller) Reconfigure(params mcts.Params) error {
	if !params.IsValid() {
		return errors.New("worker: invalid search parameters")
	}
	c.params = params
	return nil
}

// Load resets the tree to the starting position advanced by moves.
func (c *Controller) Load(moves []string) error {
	pos := game.New()
	for _, mv := range moves {
		if !pos.MakeMove(mv) {
			return errors.Errorf("worker: invalid move %q while loading", mv)
		}
	}

	c.tree = mcts.NewTree(pos, c.params)
	return nil
}

// Input returns the network-input tensors (headers, frames, lmm) for the
// starting position advanced by moves, without touching the tree - the
// debug/no-search analogue of Load.
func (c *Controller) Input(moves []string) (headers, frames, lmm []float32, err error) {
	pos := game.New()
	for _, mv := range moves {
		if !pos.MakeMove(mv) {
			return nil, nil, nil, errors.Errorf("worker: invalid move %q", mv)
		}
	}

	mask, _ := pos.GetLMM()
	return pos.GetHeaders(), pos.GetFrames(), mask[:], nil
}

// Push advances the tree by action, performing a quick one-node expansion
// first if the root has never been searched.
func (c *Controller) Push(action string) error {
	if c.tree.Root().Children == nil {
		if err := c.tree.EnsureRootExpanded(c.nn); err != nil {
			return errors.Wrap(err, "worker: root expansion before push")
		}
	}

	c.tree.Push(action)
	return nil
}

// Outcome reports the current position's terminal result, if any.
func (c *Controller) Outcome() (float64, bool) {
	return c.tree.Position().IsGameOver()
}

// Search drives the tree to params.SearchNodes root visits, dispatching
// batches to the worker pool and folding results back in as they arrive.
// onStatus, if non-nil, is called roughly every statusInterval with the
// current tree for the caller to publish a progress snapshot.
func (c *Controller) Search(onStatus func(*mcts.Tree)) (action string, pairs []mcts.MCTSPair, err error) {
	if value, over := c.tree.Position().IsGameOver(); over {
		return "", nil, &OutcomeError{Value: value}
	}

	last := time.Now()

	for c.tree.Root().N < c.params.SearchNodes {
		switch m := (<-c.pool.Outgoing).(type) {
		case ReadyMsg:
			m.Reply <- c.tree.NextBatch()
		case ExpandMsg:
			if m.Err != nil {
				return "", nil, errors.Wrap(m.Err, "worker: inference failed")
			}
			c.tree.Expand(m.Result)
		}

		if onStatus != nil && time.Since(last) > statusInterval {
			last = time.Now()
			onStatus(c.tree)
		}
	}

	// Drain: collect exactly one Ready per worker before replying, so
	// every worker is idle (not mid-flight on a batch belonging to this
	// search) when the next Go command starts.
	readies := make([]ReadyMsg, 0, c.pool.Len())
	for len(readies) < c.pool.Len() {
		switch m := (<-c.pool.Outgoing).(type) {
		case ExpandMsg:
			if m.Err == nil {
				c.tree.Expand(m.Result)
			}
		case ReadyMsg:
			readies = append(readies, m)
		}
	}
	for _, r := range readies {
		c.pool.Outgoing <- r
	}

	action, _ = c.tree.Pick()
	pairs = c.tree.GetMCTSPairs()
	c.log.Printf("search done: %d nodes, picked %s", c.tree.Root().N, action)

	return action, pairs, nil
}

// Tree exposes the current tree, for treedump/render debug tooling.
func (c *Controller) Tree() *mcts.Tree { return c.tree }

// Close stops the worker pool and closes any registered resources,
// accumulating every failure rather than stopping at the first one - the
// same posture agent.go's Close takes when tearing down several
// inferers at once.
func (c *Controller) Close() error {
	c.pool.Stop()

	var result *multierror.Error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// OutcomeError signals that Search was asked to search a position that is
// already game-over; Value is the white-POV-absolute result.
type OutcomeError struct {
	Value float64
}

func (e *OutcomeError) Error() string {
	return "worker: position is already game-over"
}
