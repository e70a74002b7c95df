package dual

import (
	"math"

	"github.com/alphabeth/puctsearch/mcts"
	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Network is the default mcts.Inferencer: a small fully-connected
// policy/value network built as a gorgonia expression graph and run on a
// fresh TapeMachine for every batch, standing in for the external network
// runtime the protocol's model_path would otherwise point at.
type Network struct {
	conf    Config
	wHidden [][]float32 // per-layer weight matrices, flattened row-major
	bHidden [][]float32
	wPolicy []float32
	bPolicy []float32
	wValue  []float32
	bValue  []float32

	inputSize int
	hidden    int
}

// NewNetwork builds a Network with freshly initialized weights. Without a
// trained checkpoint this produces a uniform-ish policy and near-zero
// value, which is enough to drive the search (the point of a guided MCTS
// is to improve on whatever prior the network supplies, not to require a
// trained one to run at all).
func NewNetwork(conf Config) (*Network, error) {
	if !conf.IsValid() {
		return nil, errors.New("dual: invalid network config")
	}

	inputSize := conf.FrameCount*conf.Width*conf.Height*conf.Features + conf.HeaderSize
	hidden := conf.FC

	n := &Network{
		conf:      conf,
		inputSize: inputSize,
		hidden:    hidden,
	}

	n.wHidden = make([][]float32, conf.SharedLayers)
	n.bHidden = make([][]float32, conf.SharedLayers)

	prev := inputSize
	for i := 0; i < conf.SharedLayers; i++ {
		n.wHidden[i] = glorot(prev, hidden)
		n.bHidden[i] = make([]float32, hidden)
		prev = hidden
	}

	n.wPolicy = glorot(prev, conf.ActionSpace)
	n.bPolicy = make([]float32, conf.ActionSpace)
	n.wValue = glorot(prev, 1)
	n.bValue = make([]float32, 1)

	return n, nil
}

func glorot(fanIn, fanOut int) []float32 {
	limit := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))
	w := make([]float32, fanIn*fanOut)
	// Deterministic fan-based init rather than a random draw: wiring a
	// fresh, untrained network only needs reasonable scale, and avoids
	// pulling the rollout/noise RNG into plain weight initialization.
	for i := range w {
		frac := float32(i%997) / 997.0
		w[i] = (frac*2 - 1) * limit
	}
	return w
}

// Infer builds and runs a gorgonia graph sized to b's batch, returning the
// network's policy and value output.
func (n *Network) Infer(b *mcts.Batch) (*mcts.BatchResult, error) {
	size := b.Size()
	if size == 0 {
		return b.IntoResult(nil, nil), nil
	}

	x := buildInput(b, n.inputSize, size)

	g := gorgonia.NewGraph()

	cur := gorgonia.NewMatrix(g, tensor.Float32, gorgonia.WithShape(size, n.inputSize), gorgonia.WithName("input"), gorgonia.WithValue(tensor.New(tensor.WithShape(size, n.inputSize), tensor.WithBacking(x))))
	prevWidth := n.inputSize

	for i := range n.wHidden {
		w := gorgonia.NewMatrix(g, tensor.Float32, gorgonia.WithShape(prevWidth, n.hidden), gorgonia.WithName("w"), gorgonia.WithValue(tensor.New(tensor.WithShape(prevWidth, n.hidden), tensor.WithBacking(n.wHidden[i]))))
		bias := gorgonia.NewVector(g, tensor.Float32, gorgonia.WithShape(n.hidden), gorgonia.WithName("b"), gorgonia.WithValue(tensor.New(tensor.WithShape(n.hidden), tensor.WithBacking(n.bHidden[i]))))

		xw := gorgonia.Must(gorgonia.Mul(cur, w))
		xwb := gorgonia.Must(gorgonia.BroadcastAdd(xw, bias, nil, []byte{0}))
		act := gorgonia.Must(gorgonia.Rectify(xwb))
		cur = act
		prevWidth = n.hidden
	}

	wp := gorgonia.NewMatrix(g, tensor.Float32, gorgonia.WithShape(n.hidden, n.conf.ActionSpace), gorgonia.WithName("wp"), gorgonia.WithValue(tensor.New(tensor.WithShape(n.hidden, n.conf.ActionSpace), tensor.WithBacking(n.wPolicy))))
	bp := gorgonia.NewVector(g, tensor.Float32, gorgonia.WithShape(n.conf.ActionSpace), gorgonia.WithName("bp"), gorgonia.WithValue(tensor.New(tensor.WithShape(n.conf.ActionSpace), tensor.WithBacking(n.bPolicy))))
	policyLogits := gorgonia.Must(gorgonia.BroadcastAdd(gorgonia.Must(gorgonia.Mul(cur, wp)), bp, nil, []byte{0}))
	policy := gorgonia.Must(gorgonia.SoftMax(policyLogits))

	wv := gorgonia.NewMatrix(g, tensor.Float32, gorgonia.WithShape(n.hidden, 1), gorgonia.WithName("wv"), gorgonia.WithValue(tensor.New(tensor.WithShape(n.hidden, 1), tensor.WithBacking(n.wValue))))
	bv := gorgonia.NewVector(g, tensor.Float32, gorgonia.WithShape(1), gorgonia.WithName("bv"), gorgonia.WithValue(tensor.New(tensor.WithShape(1), tensor.WithBacking(n.bValue))))
	valueLinear := gorgonia.Must(gorgonia.BroadcastAdd(gorgonia.Must(gorgonia.Mul(cur, wv)), bv, nil, []byte{0}))
	value := gorgonia.Must(gorgonia.Tanh(valueLinear))

	machine := gorgonia.NewTapeMachine(g)
	defer machine.Close()

	if err := machine.RunAll(); err != nil {
		return nil, errors.Wrap(err, "dual: network forward pass failed")
	}

	policyData, ok := policy.Value().Data().([]float32)
	if !ok {
		return nil, errors.New("dual: unexpected policy output type")
	}

	valueData, ok := value.Value().Data().([]float32)
	if !ok {
		return nil, errors.New("dual: unexpected value output type")
	}

	return b.IntoResult(policyData, valueData), nil
}

// buildInput flattens a batch's headers and frames into one row per
// position, headers first then frames, matching inputSize's layout.
func buildInput(b *mcts.Batch, inputSize, size int) []float32 {
	headers := b.Headers()
	frames := b.Frames()

	headerW := len(headers) / size
	frameW := len(frames) / size

	out := make([]float32, 0, size*inputSize)
	for i := 0; i < size; i++ {
		out = append(out, headers[i*headerW:(i+1)*headerW]...)
		out = append(out, frames[i*frameW:(i+1)*frameW]...)
	}
	return out
}

var _ mcts.Inferencer = (*Network)(nil)
