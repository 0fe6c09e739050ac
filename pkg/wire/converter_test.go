package wire

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/killallgit/streamir/pkg/ir"
	"github.com/killallgit/streamir/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestToConversation(t *testing.T) {
	t.Run("dynamic tool awaiting approval", func(t *testing.T) {
		c := NewConverter()
		conv, err := c.ToConversation(&Message{
			ID:   "m1",
			Role: "assistant",
			Parts: []Part{{
				Type:       PartDynamicTool,
				ToolName:   "weather",
				ToolCallID: "call-1",
				State:      StateApprovalRequested,
				Input:      json.RawMessage(`{"city":"Paris"}`),
				Approval:   &Approval{ID: "ap-1"},
			}},
		})
		require.NoError(t, err)
		require.Equal(t, 1, conv.Len())

		b, _ := conv.Last()
		assert.Equal(t, "call-1", b.ID)
		assert.Equal(t, ir.BlockTool, b.Type)
		assert.Equal(t, ir.StatusStreaming, b.Status)
		assert.Equal(t, ir.StatusStreaming, conv.Status())

		tool, ok := b.Tool()
		require.True(t, ok)
		assert.Equal(t, ir.ToolApprovalRequired, tool.Status)
		assert.Equal(t, "weather", tool.ToolName)
		assert.True(t, tool.Dynamic)
		assert.Equal(t, map[string]any{"city": "Paris"}, tool.Input)
		require.NotNil(t, tool.Approval)
		assert.Equal(t, "ap-1", tool.Approval.ID)
		assert.False(t, tool.Approval.Decided())
	})

	t.Run("unknown part types are dropped", func(t *testing.T) {
		conv, err := NewConverter().ToConversation(&Message{
			ID:    "m1",
			Role:  "assistant",
			Parts: []Part{{Type: "step-start"}, {Type: "data-weather"}},
		})
		require.NoError(t, err)
		assert.Equal(t, 0, conv.Len())
		assert.Equal(t, ir.StatusCompleted, conv.Status())
	})

	t.Run("structural errors", func(t *testing.T) {
		c := NewConverter()
		_, err := c.ToConversation(nil)
		assert.ErrorIs(t, err, ErrInvalidMessage)

		_, err = c.ToConversation(&Message{ID: "m1", Role: "robot"})
		assert.ErrorIs(t, err, ErrInvalidMessage)

		_, err = c.ToConversation(&Message{ID: "m1", Role: "user", Parts: []Part{{Text: "x"}}})
		assert.ErrorIs(t, err, ErrInvalidMessage)
	})

	t.Run("text states", func(t *testing.T) {
		conv, err := NewConverter().ToConversation(&Message{
			ID:   "m1",
			Role: "assistant",
			Parts: []Part{
				{Type: PartReasoning, Text: "thinking", State: TextDone},
				{Type: PartText, Text: "Hel", State: TextStreaming},
			},
		})
		require.NoError(t, err)
		blocks := conv.Blocks()
		require.Len(t, blocks, 2)
		assert.Equal(t, ir.BlockThinking, blocks[0].Type)
		assert.Equal(t, ir.StatusCompleted, blocks[0].Status)
		assert.Equal(t, ir.StatusStreaming, blocks[1].Status)
		assert.Equal(t, ir.StatusStreaming, conv.Status())
	})

	t.Run("text without state is complete", func(t *testing.T) {
		b, ok, err := NewConverter().PartToBlock(Part{Type: PartText, Text: "hi"})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, ir.StatusCompleted, b.Status)
	})

	t.Run("block ids come from the injected generator", func(t *testing.T) {
		c := NewConverter(WithIDGenerator(ir.NewCounterIDs("x")))
		blocks, err := c.ToBlocks([]Part{
			{Type: PartText, Text: "a"},
			{Type: "tool-search", State: StateInputAvailable},
			{Type: PartText, Text: "b"},
		})
		require.NoError(t, err)
		require.Len(t, blocks, 3)
		assert.Equal(t, "x-1", blocks[0].ID)
		assert.Equal(t, "x-2", blocks[1].ID)
		assert.Equal(t, "x-3", blocks[2].ID)
	})

	t.Run("sources and files", func(t *testing.T) {
		blocks, err := NewConverter().ToBlocks([]Part{
			{Type: PartSourceURL, SourceID: "s1", URL: "https://example.com", Title: "Example"},
			{Type: PartSourceDocument, SourceID: "s2", Title: "Report", MediaType: "application/pdf", Filename: "r.pdf"},
			{Type: PartFile, URL: "data:text/plain;base64,aGk=", MediaType: "text/plain"},
		})
		require.NoError(t, err)
		require.Len(t, blocks, 3)

		src := blocks[0].Content.(*ir.SourceContent)
		assert.Equal(t, ir.SourceURL, src.SourceType)
		assert.Equal(t, "https://example.com", src.URL)

		doc := blocks[1].Content.(*ir.SourceContent)
		assert.Equal(t, ir.SourceDocument, doc.SourceType)
		assert.Equal(t, "r.pdf", doc.Filename)

		assert.Equal(t, ir.BlockFile, blocks[2].Type)
		assert.Equal(t, ir.StatusCompleted, blocks[2].Status)
	})
}

func TestToolParts(t *testing.T) {
	c := NewConverter()

	t.Run("tool name derivation", func(t *testing.T) {
		b, _, err := c.PartToBlock(Part{Type: "tool-getWeather", ToolCallID: "c1", State: StateInputAvailable})
		require.NoError(t, err)
		tool, _ := b.Tool()
		assert.Equal(t, "getWeather", tool.ToolName)
		assert.False(t, tool.Dynamic)

		b, _, err = c.PartToBlock(Part{Type: PartDynamicTool, ToolCallID: "c2"})
		require.NoError(t, err)
		tool, _ = b.Tool()
		assert.Equal(t, "unknown", tool.ToolName)
		assert.Equal(t, ir.ToolPending, tool.Status)
	})

	t.Run("bare tool prefix is not a tool", func(t *testing.T) {
		_, ok, err := c.PartToBlock(Part{Type: "tool-"})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("tool status drives block status", func(t *testing.T) {
		cases := map[string]ir.ContentStatus{
			StateInputStreaming:    ir.StatusStreaming,
			StateInputAvailable:    ir.StatusStreaming,
			StateApprovalRequested: ir.StatusStreaming,
			StateApprovalResponded: ir.StatusStreaming,
			StateOutputAvailable:   ir.StatusCompleted,
			StateOutputDenied:      ir.StatusCompleted,
			StateOutputError:       ir.StatusError,
		}
		for state, want := range cases {
			b, _, err := c.PartToBlock(Part{Type: "tool-x", ToolCallID: "c-" + state, State: state})
			require.NoError(t, err)
			assert.Equal(t, want, b.Status, state)
		}
	})

	t.Run("approval before the approval phase is dropped", func(t *testing.T) {
		b, _, err := c.PartToBlock(Part{
			Type:       "tool-x",
			ToolCallID: "c1",
			State:      StateInputAvailable,
			Approval:   &Approval{ID: "ap"},
		})
		require.NoError(t, err)
		tool, _ := b.Tool()
		assert.Nil(t, tool.Approval)
	})

	t.Run("streaming input is repaired", func(t *testing.T) {
		b, _, err := c.PartToBlock(Part{
			Type:       "tool-x",
			ToolCallID: "c1",
			State:      StateInputStreaming,
			Input:      json.RawMessage(`"{\"city\": \"Par"`),
		})
		require.NoError(t, err)
		tool, _ := b.Tool()
		assert.Equal(t, map[string]any{"city": "Par"}, tool.Input)
	})

	t.Run("complete string input stays a string", func(t *testing.T) {
		b, _, err := c.PartToBlock(Part{
			Type:       "tool-x",
			ToolCallID: "c1",
			State:      StateInputAvailable,
			Input:      json.RawMessage(`"plain"`),
		})
		require.NoError(t, err)
		tool, _ := b.Tool()
		assert.Equal(t, "plain", tool.Input)
	})

	t.Run("missing call id gets a generated block id", func(t *testing.T) {
		conv := NewConverter(WithIDGenerator(ir.IDFunc(func() string { return "gen" })))
		b, _, err := conv.PartToBlock(Part{Type: "tool-x", State: StateInputAvailable})
		require.NoError(t, err)
		assert.Equal(t, "gen", b.ID)

		p, ok, err := conv.BlockToPart(b)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "gen", p.ToolCallID)
	})
}

func TestRoundTrip(t *testing.T) {
	c := NewConverter()

	t.Run("success survives", func(t *testing.T) {
		in := &Message{ID: "m1", Role: "assistant", Parts: []Part{
			{Type: PartText, Text: "Looking it up", State: TextDone},
			{
				Type:       "tool-search",
				ToolCallID: "c1",
				State:      StateOutputAvailable,
				Input:      json.RawMessage(`{"q":"go"}`),
				Output:     json.RawMessage(`{"hits":3}`),
			},
		}}
		conv, err := c.ToConversation(in)
		require.NoError(t, err)

		out, err := c.FromConversation(conv)
		require.NoError(t, err)
		assert.Equal(t, "m1", out.ID)
		assert.Equal(t, "assistant", out.Role)
		require.Len(t, out.Parts, 2)
		assert.Equal(t, TextDone, out.Parts[0].State)

		tool := out.Parts[1]
		assert.Equal(t, "tool-search", tool.Type)
		assert.Equal(t, "c1", tool.ToolCallID)
		assert.Equal(t, StateOutputAvailable, tool.State)
		assert.JSONEq(t, `{"q":"go"}`, string(tool.Input))
		assert.JSONEq(t, `{"hits":3}`, string(tool.Output))
	})

	t.Run("running reads back as approved", func(t *testing.T) {
		tool := &ir.ToolContent{ToolCallID: "c1", ToolName: "deploy", Status: ir.ToolRunning,
			Approval: &ir.ToolApproval{ID: "ap", Approved: boolPtr(true)}}
		p, ok, err := c.BlockToPart(ir.NewToolBlock("c1", tool))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, StateApprovalResponded, p.State)

		b, _, err := c.PartToBlock(p)
		require.NoError(t, err)
		back, _ := b.Tool()
		assert.Equal(t, ir.ToolApproved, back.Status)
		require.NotNil(t, back.Approval)
		assert.True(t, *back.Approval.Approved)
	})

	t.Run("dynamic tools keep their name", func(t *testing.T) {
		tool := &ir.ToolContent{ToolCallID: "c1", ToolName: "mcp.fetch", Dynamic: true, Status: ir.ToolReady}
		p, _, err := c.BlockToPart(ir.NewToolBlock("c1", tool))
		require.NoError(t, err)
		assert.Equal(t, PartDynamicTool, p.Type)
		assert.Equal(t, "mcp.fetch", p.ToolName)
		assert.Equal(t, StateInputAvailable, p.State)
	})

	t.Run("nameless tool survives as dynamic unknown", func(t *testing.T) {
		tool := &ir.ToolContent{ToolCallID: "call-1", Status: ir.ToolSuccess, Output: "done"}
		parts, err := c.FromBlocks([]ir.Block{ir.NewToolBlock("call-1", tool)})
		require.NoError(t, err)
		require.Len(t, parts, 1)
		assert.Equal(t, PartDynamicTool, parts[0].Type)
		assert.Equal(t, "unknown", parts[0].ToolName)
		assert.True(t, parts[0].IsToolPart())

		blocks, err := c.ToBlocks(parts)
		require.NoError(t, err)
		require.Len(t, blocks, 1)
		back, ok := blocks[0].Tool()
		require.True(t, ok)
		assert.Equal(t, "call-1", blocks[0].ID)
		assert.Equal(t, "call-1", back.ToolCallID)
		assert.Equal(t, ir.ToolSuccess, back.Status)
		assert.Equal(t, "done", back.Output)
		assert.Equal(t, "unknown", back.ToolName)
	})
}

func TestFromBlocks(t *testing.T) {
	var buf bytes.Buffer
	c := NewConverter(WithLogger(logger.NewWriter(logger.LevelDebug, &buf)))

	parts, err := c.FromBlocks([]ir.Block{
		ir.NewImageBlock("i1", &ir.ImageContent{URL: "https://example.com/cat.png", MediaType: "image/png"}),
		ir.NewErrorBlock("e1", "boom"),
		ir.NewThinkingBlock("r1", "hmm", ir.StatusStreaming),
	})
	require.NoError(t, err)
	require.Len(t, parts, 2)

	assert.Equal(t, PartFile, parts[0].Type)
	assert.Equal(t, "image/png", parts[0].MediaType)
	assert.Equal(t, PartReasoning, parts[1].Type)
	assert.Equal(t, TextStreaming, parts[1].State)

	assert.Contains(t, buf.String(), "e1")

	_, _, err = c.BlockToPart(ir.Block{ID: "bad"})
	assert.ErrorIs(t, err, ir.ErrNilContent)

	_, err = c.FromConversation(nil)
	assert.ErrorIs(t, err, ErrInvalidMessage)
}
