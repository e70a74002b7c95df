package proto

import (
	"bufio"
	"encoding/json"
	"io"
	"net"
	"testing"

	dual "github.com/alphabeth/puctsearch/dualnet"
	"github.com/alphabeth/puctsearch/mcts"
	"github.com/stretchr/testify/require"
)

func TestServeHandlesConfigPushAndStop(t *testing.T) {
	srv, err := Listen("127.0.0.1:0", io.Discard)
	require.NoError(t, err)
	defer srv.Close()

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(func(mcts.Params) (mcts.Inferencer, error) {
			return dual.Mock{}, nil
		})
	}()

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	params := mcts.DefaultParams()
	configLine, err := json.Marshal(map[string]mcts.Params{"Config": params})
	require.NoError(t, err)

	require.NoError(t, writeLine(writer, string(configLine)))
	require.NoError(t, writeLine(writer, `{"Push":"e2e4"}`))
	require.NoError(t, writeLine(writer, `"Stop"`))

	_, err = reader.ReadString('\n')
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}

	require.NoError(t, <-done)
}

func writeLine(w *bufio.Writer, line string) error {
	if _, err := w.WriteString(line); err != nil {
		return err
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return w.Flush()
}
