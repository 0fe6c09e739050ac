package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with fresh flag values and captured output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STREAMIR_LOG_FILE", filepath.Join(t.TempDir(), "test.log"))
	t.Setenv("STREAMIR_TYPING_INTERVAL", "1ms")
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func TestRootCommandFlags(t *testing.T) {
	configFlag := rootCmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	logLevelFlag := rootCmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, logLevelFlag)
	assert.Equal(t, "info", logLevelFlag.DefValue)

	for _, name := range []string{"convert", "replay", "repair", "type", "chat"} {
		c, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
	}
}

const wireMessage = `{
  "id": "m1",
  "role": "assistant",
  "parts": [
    {"type": "text", "text": "Checking", "state": "done"},
    {"type": "step-start"},
    {"type": "dynamic-tool", "toolName": "weather", "toolCallId": "call-1",
     "state": "approval-requested", "input": {"city": "Paris"}, "approval": {"id": "ap-1"}}
  ]
}`

func TestConvertForward(t *testing.T) {
	out, err := execute(t, wireMessage, "convert")
	require.NoError(t, err)

	var conv struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Blocks []struct {
			ID      string         `json:"id"`
			Type    string         `json:"type"`
			Content map[string]any `json:"content"`
		} `json:"blocks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &conv))
	assert.Equal(t, "m1", conv.ID)
	assert.Equal(t, "streaming", conv.Status)
	require.Len(t, conv.Blocks, 2)
	assert.Equal(t, "text", conv.Blocks[0].Type)
	assert.Equal(t, "call-1", conv.Blocks[1].ID)
	assert.Equal(t, "approval-required", conv.Blocks[1].Content["status"])
}

func TestConvertReverseYAML(t *testing.T) {
	ir := `{
  "id": "m2",
  "role": "assistant",
  "blocks": [
    {"id": "c1", "type": "tool", "status": "completed",
     "content": {"toolCallId": "c1", "toolName": "search", "status": "success", "output": {"hits": 3}}},
    {"id": "e1", "type": "error", "status": "error", "content": {"message": "boom"}}
  ]
}`
	out, err := execute(t, ir, "convert", "--reverse", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "id: m2")
	assert.Contains(t, out, "type: tool-search")
	assert.Contains(t, out, "state: output-available")
	assert.Contains(t, out, "hits: 3")
	assert.NotContains(t, out, "boom")
}

func TestConvertErrors(t *testing.T) {
	_, err := execute(t, wireMessage, "convert", "-o", "xml")
	assert.Error(t, err)

	_, err = execute(t, `{"id":"m1","role":"robot","parts":[]}`, "convert")
	assert.Error(t, err)

	_, err = execute(t, `not json`, "convert")
	assert.Error(t, err)
}

func TestRepair(t *testing.T) {
	out, err := execute(t, "hello `world", "repair", "--healer", "heuristic")
	require.NoError(t, err)
	assert.Equal(t, "hello `world`", out)

	out, err = execute(t, "a *stray\n\nthen **bold", "repair")
	require.NoError(t, err)
	assert.Equal(t, "a *stray\n\nthen **bold**", out)
}

const events = `{"type":"start","messageId":"m1"}
{"type":"text-start","id":"t1"}
{"type":"text-delta","id":"t1","delta":"Hello"}
{"type":"text-end","id":"t1"}
data: {"type":"tool-input-available","toolCallId":"c1","toolName":"rm","input":{"path":"/tmp"}}
data: {"type":"tool-approval-request","toolCallId":"c1","approvalId":"ap1"}
{"type":"finish"}
`

func TestReplay(t *testing.T) {
	t.Run("leaves approvals open", func(t *testing.T) {
		out, err := execute(t, events, "replay", "--plain")
		require.NoError(t, err)
		assert.Contains(t, out, "Hello")
		assert.Contains(t, out, "[approval-required]")
		assert.Contains(t, out, "7 events, 2 blocks, status streaming")
	})

	t.Run("deny answers approvals", func(t *testing.T) {
		out, err := execute(t, events, "replay", "--plain", "--deny")
		require.NoError(t, err)
		assert.Contains(t, out, "[approval-required]")
		assert.Contains(t, out, "[denied]")
		assert.Contains(t, out, "status completed")
	})

	t.Run("approve and deny are exclusive", func(t *testing.T) {
		_, err := execute(t, events, "replay", "--approve", "--deny")
		assert.Error(t, err)
	})
}

func TestType(t *testing.T) {
	out, err := execute(t, "", "type", "hi", "there")
	require.NoError(t, err)
	assert.Equal(t, "hi there\n", out)
}
