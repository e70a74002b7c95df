// Package proto implements the line-delimited JSON control-plane protocol
// a client speaks to drive one worker.Controller: one JSON value per line,
// newline-terminated, with Rust-serde's externally-tagged enum encoding -
// a unit variant is a bare JSON string ("Go"), a variant carrying data is
// a single-key object ({"Push":"e2e4"}).
package proto

import (
	"bytes"
	"encoding/json"

	"github.com/alphabeth/puctsearch/mcts"
	"github.com/pkg/errors"
)

// Command is one incoming control message.
type Command interface {
	isCommand()
}

// PushCommand advances the tree by action.
type PushCommand struct{ Action string }

func (PushCommand) isCommand() {}

// GoCommand starts (or resumes) searching the current position.
type GoCommand struct{}

func (GoCommand) isCommand() {}

// LoadCommand resets the tree to the starting position advanced by Actions.
type LoadCommand struct{ Actions []string }

func (LoadCommand) isCommand() {}

// InputCommand requests the network-input tensors for the starting
// position advanced by Actions, without touching the tree.
type InputCommand struct{ Actions []string }

func (InputCommand) isCommand() {}

// ConfigCommand (re)configures search parameters. The very first command
// on a connection must be one of these.
type ConfigCommand struct{ Params mcts.Params }

func (ConfigCommand) isCommand() {}

// StopCommand ends the session.
type StopCommand struct{}

func (StopCommand) isCommand() {}

// ParseCommand decodes one protocol line into a Command.
func ParseCommand(line []byte) (Command, error) {
	line = bytes.TrimSpace(line)

	var tag string
	if err := json.Unmarshal(line, &tag); err == nil {
		switch tag {
		case "Go":
			return GoCommand{}, nil
		case "Stop":
			return StopCommand{}, nil
		default:
			return nil, errors.Errorf("proto: unknown command %q", tag)
		}
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(line, &envelope); err != nil {
		return nil, errors.Wrap(err, "proto: malformed command")
	}
	if len(envelope) != 1 {
		return nil, errors.New("proto: command object must have exactly one field")
	}

	for key, raw := range envelope {
		switch key {
		case "Push":
			var action string
			if err := json.Unmarshal(raw, &action); err != nil {
				return nil, errors.Wrap(err, "proto: malformed Push command")
			}
			return PushCommand{Action: action}, nil
		case "Load":
			var actions []string
			if err := json.Unmarshal(raw, &actions); err != nil {
				return nil, errors.Wrap(err, "proto: malformed Load command")
			}
			return LoadCommand{Actions: actions}, nil
		case "Input":
			var actions []string
			if err := json.Unmarshal(raw, &actions); err != nil {
				return nil, errors.Wrap(err, "proto: malformed Input command")
			}
			return InputCommand{Actions: actions}, nil
		case "Config":
			var params mcts.Params
			if err := json.Unmarshal(raw, &params); err != nil {
				return nil, errors.Wrap(err, "proto: malformed Config command")
			}
			return ConfigCommand{Params: params}, nil
		default:
			return nil, errors.Errorf("proto: unknown command %q", key)
		}
	}

	panic("unreachable")
}
