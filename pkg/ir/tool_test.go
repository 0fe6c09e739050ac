package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolStatusPredicates(t *testing.T) {
	tests := []struct {
		status    ToolStatus
		awaiting  bool
		terminal  bool
		executing bool
	}{
		{ToolPending, false, false, false},
		{ToolStreaming, false, false, false},
		{ToolReady, false, false, false},
		{ToolRunning, false, false, true},
		{ToolApprovalRequired, true, false, false},
		{ToolApproved, false, false, true},
		{ToolDenied, false, true, false},
		{ToolSuccess, false, true, false},
		{ToolError, false, true, false},
	}
	require.Len(t, tests, len(ToolStatuses))

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.Equal(t, tt.awaiting, IsToolAwaitingApproval(tt.status))
			assert.Equal(t, tt.terminal, IsToolTerminal(tt.status))
			assert.Equal(t, tt.executing, IsToolExecuting(tt.status))

			// exactly one of awaiting / in-flight / terminal
			inFlight := !IsToolAwaitingApproval(tt.status) && !IsToolTerminal(tt.status)
			count := 0
			for _, b := range []bool{IsToolAwaitingApproval(tt.status), inFlight, IsToolTerminal(tt.status)} {
				if b {
					count++
				}
			}
			assert.Equal(t, 1, count)
		})
	}
}

func TestToolTransitionTable(t *testing.T) {
	t.Run("terminal states have no exits", func(t *testing.T) {
		for _, from := range ToolStatuses {
			if !IsToolTerminal(from) {
				continue
			}
			for _, to := range ToolStatuses {
				assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
			}
		}
	})

	t.Run("approval-required only from ready", func(t *testing.T) {
		for _, from := range ToolStatuses {
			assert.Equal(t, from == ToolReady, CanTransition(from, ToolApprovalRequired), from.String())
		}
	})

	t.Run("approved and denied only from approval-required", func(t *testing.T) {
		for _, from := range ToolStatuses {
			want := from == ToolApprovalRequired
			assert.Equal(t, want, CanTransition(from, ToolApproved), from.String())
			assert.Equal(t, want, CanTransition(from, ToolDenied), from.String())
		}
	})

	t.Run("no state returns to pending", func(t *testing.T) {
		for _, from := range ToolStatuses {
			assert.False(t, CanTransition(from, ToolPending), from.String())
		}
	})

	t.Run("every status is known", func(t *testing.T) {
		for _, s := range ToolStatuses {
			assert.True(t, s.Valid())
		}
		assert.False(t, ToolStatus("input-available").Valid())
	})
}

func TestToolContentLifecycle(t *testing.T) {
	t.Run("approve then run to success", func(t *testing.T) {
		tool := &ToolContent{ToolCallID: "call-1", ToolName: "search", Status: ToolPending}

		require.NoError(t, tool.Transition(ToolStreaming))
		require.NoError(t, tool.Transition(ToolReady))
		require.NoError(t, tool.RequestApproval("ap-1"))
		assert.Equal(t, ToolApprovalRequired, tool.Status)
		require.NotNil(t, tool.Approval)
		assert.Equal(t, "ap-1", tool.Approval.ID)
		assert.False(t, tool.Approval.Decided())

		require.NoError(t, tool.Approve("looks fine"))
		assert.Equal(t, ToolApproved, tool.Status)
		require.True(t, tool.Approval.Decided())
		assert.True(t, *tool.Approval.Approved)
		assert.Equal(t, "looks fine", tool.Approval.Reason)

		require.NoError(t, tool.Start())
		require.NoError(t, tool.Complete(map[string]any{"hits": 3.0}))
		assert.Equal(t, ToolSuccess, tool.Status)
		assert.Equal(t, map[string]any{"hits": 3.0}, tool.Output)
		assert.NoError(t, tool.Validate())
	})

	t.Run("deny is terminal", func(t *testing.T) {
		tool := &ToolContent{Status: ToolReady}
		require.NoError(t, tool.RequestApproval("ap-2"))
		require.NoError(t, tool.Deny("no network access"))
		assert.Equal(t, ToolDenied, tool.Status)
		assert.False(t, *tool.Approval.Approved)

		err := tool.Start()
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, ToolDenied, tool.Status)
	})

	t.Run("approving a tool that is not awaiting approval is rejected", func(t *testing.T) {
		tool := &ToolContent{Status: ToolReady}
		err := tool.Approve("")
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, ToolReady, tool.Status)
		assert.Nil(t, tool.Approval)
	})

	t.Run("fail records error text", func(t *testing.T) {
		tool := &ToolContent{Status: ToolRunning}
		require.NoError(t, tool.Fail("timeout"))
		assert.Equal(t, ToolError, tool.Status)
		assert.Equal(t, "timeout", tool.ErrorText)
		assert.ErrorIs(t, tool.Fail("again"), ErrInvalidTransition)
		assert.Equal(t, "timeout", tool.ErrorText)
	})

	t.Run("approval before approval-required is invalid", func(t *testing.T) {
		tool := &ToolContent{Status: ToolReady, Approval: &ToolApproval{ID: "x"}}
		assert.Error(t, tool.Validate())
	})

	t.Run("clone copies approval", func(t *testing.T) {
		yes := true
		tool := &ToolContent{Status: ToolApproved, Approval: &ToolApproval{ID: "a", Approved: &yes}}
		cp := tool.clone().(*ToolContent)
		*cp.Approval.Approved = false
		cp.Approval.ID = "b"
		assert.True(t, *tool.Approval.Approved)
		assert.Equal(t, "a", tool.Approval.ID)
	})
}

func TestToolBlockStatus(t *testing.T) {
	for _, s := range ToolStatuses {
		want := StatusStreaming
		switch s {
		case ToolSuccess, ToolDenied:
			want = StatusCompleted
		case ToolError:
			want = StatusError
		}
		assert.Equal(t, want, s.BlockStatus(), s.String())
	}
}
