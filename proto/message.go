package proto

import (
	"encoding/json"

	"github.com/alphabeth/puctsearch/mcts"
)

// Message is one outgoing control message.
type Message interface {
	isMessage()
	json.Marshaler
}

// ErrorMessage reports that the previous command could not be processed.
type ErrorMessage struct{ Text string }

func (ErrorMessage) isMessage() {}
func (m ErrorMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"Error": m.Text})
}

// SearchingMessage is a progress snapshot published periodically during a
// Go command's search, carrying the root's children statistics.
type SearchingMessage struct{ Nodes []mcts.NodeSnapshot }

func (SearchingMessage) isMessage() {}
func (m SearchingMessage) MarshalJSON() ([]byte, error) {
	nodes := m.Nodes
	if nodes == nil {
		nodes = []mcts.NodeSnapshot{}
	}
	return json.Marshal(map[string][]mcts.NodeSnapshot{"Searching": nodes})
}

// InputMessage answers an InputCommand with the raw network-input tensors.
type InputMessage struct {
	Headers []float32
	Frames  []float32
	LMM     []float32
}

func (InputMessage) isMessage() {}
func (m InputMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"Input": map[string]interface{}{
			"headers": m.Headers,
			"frames":  m.Frames,
			"lmm":     m.LMM,
		},
	})
}

// DoneMessage answers a Go command with the chosen action and the
// resulting improved-policy distribution.
type DoneMessage struct {
	Action    string
	MCTSPairs []mcts.MCTSPair
}

func (DoneMessage) isMessage() {}
func (m DoneMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"Done": map[string]interface{}{
			"action":     m.Action,
			"mcts_pairs": m.MCTSPairs,
		},
	})
}

// OutcomeMessage answers a Go command issued against an already
// game-over position.
type OutcomeMessage struct{ Value float64 }

func (OutcomeMessage) isMessage() {}
func (m OutcomeMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]float64{"Outcome": m.Value})
}
