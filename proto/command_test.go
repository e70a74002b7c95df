package proto

import (
	"encoding/json"
	"testing"

	"github.com/alphabeth/puctsearch/mcts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommandUnitVariants(t *testing.T) {
	cmd, err := ParseCommand([]byte(`"Go"`))
	require.NoError(t, err)
	assert.Equal(t, GoCommand{}, cmd)

	cmd, err = ParseCommand([]byte(`"Stop"`))
	require.NoError(t, err)
	assert.Equal(t, StopCommand{}, cmd)
}

func TestParseCommandUnknownUnitVariant(t *testing.T) {
	_, err := ParseCommand([]byte(`"Bogus"`))
	assert.Error(t, err)
}

func TestParseCommandPush(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"Push":"e2e4"}`))
	require.NoError(t, err)
	assert.Equal(t, PushCommand{Action: "e2e4"}, cmd)
}

func TestParseCommandLoadAndInput(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"Load":["e2e4","e7e5"]}`))
	require.NoError(t, err)
	assert.Equal(t, LoadCommand{Actions: []string{"e2e4", "e7e5"}}, cmd)

	cmd, err = ParseCommand([]byte(`{"Input":["e2e4"]}`))
	require.NoError(t, err)
	assert.Equal(t, InputCommand{Actions: []string{"e2e4"}}, cmd)
}

func TestParseCommandConfig(t *testing.T) {
	params := mcts.DefaultParams()
	raw, err := json.Marshal(map[string]mcts.Params{"Config": params})
	require.NoError(t, err)

	cmd, err := ParseCommand(raw)
	require.NoError(t, err)

	got, ok := cmd.(ConfigCommand)
	require.True(t, ok)
	assert.Equal(t, params, got.Params)
}

func TestParseCommandRejectsMultiKeyObject(t *testing.T) {
	_, err := ParseCommand([]byte(`{"Push":"e2e4","Load":["e2e4"]}`))
	assert.Error(t, err)
}

func TestParseCommandRejectsMalformedJSON(t *testing.T) {
	_, err := ParseCommand([]byte(`not json`))
	assert.Error(t, err)
}
