package proto

import (
	"bufio"
	"io"
	"net"

	"github.com/alphabeth/puctsearch/mcts"
	"github.com/alphabeth/puctsearch/worker"
	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

// DefaultPort is the control-plane TCP port.
const DefaultPort = 8124

// Server accepts exactly one control-plane client and drives a
// worker.Controller from its commands until Stop or a connection error,
// matching main.rs's accept-one-client shape.
type Server struct {
	listener net.Listener
	logOut   io.Writer

	// OnSearching, if set, is called with every Searching progress
	// snapshot alongside the reply already sent to the client - wiring
	// for the -dump-dot debug flag.
	OnSearching func(nodes []mcts.NodeSnapshot)

	// OnPositionChange, if set, is called after every command that moves
	// the tree's root position (Load and Push) - wiring for the -render
	// debug flag.
	OnPositionChange func(pos *chess.Position)
}

// Listen binds addr and returns a Server ready to accept one client.
func Listen(addr string, logOut io.Writer) (*Server, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "proto: listen")
	}
	return &Server{listener: l, logOut: logOut}, nil
}

// Addr returns the server's bound address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Close stops accepting new connections.
func (s *Server) Close() error { return s.listener.Close() }

// Serve accepts one client and runs the protocol loop to completion.
// newInferencer builds the Inferencer the controller will use once the
// client's first Config command supplies search parameters. If the first
// command is malformed, is not a Config, or carries invalid parameters,
// Serve replies with an Error and returns without reading further.
func (s *Server) Serve(newInferencer func(mcts.Params) (mcts.Inferencer, error)) error {
	conn, err := s.listener.Accept()
	if err != nil {
		return errors.Wrap(err, "proto: accept")
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	line, err := readLine(reader)
	if err != nil {
		return errors.Wrap(err, "proto: reading first command")
	}

	first, err := ParseCommand(line)
	if err != nil {
		return writeMessage(writer, ErrorMessage{Text: err.Error()})
	}

	cfg, ok := first.(ConfigCommand)
	if !ok {
		return writeMessage(writer, ErrorMessage{Text: "invalid first message, expected configuration"})
	}

	if !cfg.Params.IsValid() {
		return writeMessage(writer, ErrorMessage{Text: "invalid search parameters"})
	}

	nn, err := newInferencer(cfg.Params)
	if err != nil {
		return writeMessage(writer, ErrorMessage{Text: err.Error()})
	}

	ctrl, err := worker.NewController(cfg.Params, nn, s.logOut)
	if err != nil {
		return writeMessage(writer, ErrorMessage{Text: err.Error()})
	}
	defer ctrl.Close()

	for {
		line, err := readLine(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return errors.Wrap(err, "proto: reading command")
		}

		cmd, err := ParseCommand(line)
		if err != nil {
			// A malformed command is a protocol error, not a connection
			// error: reply and keep reading. Once configured, only Stop or
			// an I/O failure ends the session.
			if err := writeMessage(writer, ErrorMessage{Text: err.Error()}); err != nil {
				return err
			}
			continue
		}

		if done, err := s.dispatch(ctrl, writer, cmd); done || err != nil {
			return err
		}
	}
}

// dispatch executes one command against ctrl, writing any reply to
// writer. done is true once a Stop command should end the session; a
// non-nil err (such as a failed write to the connection) ends it too.
func (s *Server) dispatch(ctrl *worker.Controller, writer *bufio.Writer, cmd Command) (done bool, err error) {
	switch c := cmd.(type) {
	case StopCommand:
		return true, nil

	case ConfigCommand:
		if err := ctrl.Reconfigure(c.Params); err != nil {
			return false, writeMessage(writer, ErrorMessage{Text: err.Error()})
		}
		return false, nil

	case LoadCommand:
		if err := ctrl.Load(c.Actions); err != nil {
			return false, writeMessage(writer, ErrorMessage{Text: err.Error()})
		}
		s.notifyPositionChange(ctrl)
		return false, nil

	case InputCommand:
		headers, frames, lmm, err := ctrl.Input(c.Actions)
		if err != nil {
			return false, writeMessage(writer, ErrorMessage{Text: err.Error()})
		}
		return false, writeMessage(writer, InputMessage{Headers: headers, Frames: frames, LMM: lmm})

	case PushCommand:
		if err := ctrl.Push(c.Action); err != nil {
			return false, writeMessage(writer, ErrorMessage{Text: err.Error()})
		}
		s.notifyPositionChange(ctrl)
		return false, nil

	case GoCommand:
		action, pairs, err := ctrl.Search(func(t *mcts.Tree) {
			snapshot := t.Snapshot()
			_ = writeMessage(writer, SearchingMessage{Nodes: snapshot})
			if s.OnSearching != nil {
				s.OnSearching(snapshot)
			}
		})
		if err != nil {
			var outcomeErr *worker.OutcomeError
			if errors.As(err, &outcomeErr) {
				return false, writeMessage(writer, OutcomeMessage{Value: outcomeErr.Value})
			}
			return false, writeMessage(writer, ErrorMessage{Text: err.Error()})
		}
		return false, writeMessage(writer, DoneMessage{Action: action, MCTSPairs: pairs})

	default:
		return false, errors.Errorf("proto: unhandled command type %T", cmd)
	}
}

func (s *Server) notifyPositionChange(ctrl *worker.Controller) {
	if s.OnPositionChange == nil {
		return
	}
	var pos *chess.Position = ctrl.Tree().Position().Board()
	s.OnPositionChange(pos)
}

// readLine reads one newline-terminated protocol line, returning io.EOF
// only when the connection closed with nothing left to read.
func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line == "" {
			return nil, io.EOF
		}
		if err != io.EOF {
			return nil, errors.Wrap(err, "proto: reading line")
		}
	}

	return []byte(line), nil
}

// writeMessage writes one newline-terminated JSON message and flushes it,
// so a slow client can't buffer several replies before reading any.
func writeMessage(w *bufio.Writer, m Message) error {
	data, err := m.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "proto: encoding message")
	}

	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "proto: writing message")
	}
	if err := w.WriteByte('\n'); err != nil {
		return errors.Wrap(err, "proto: writing message")
	}
	return errors.Wrap(w.Flush(), "proto: flushing message")
}
