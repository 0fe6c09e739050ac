package wire

import (
	"testing"

	"github.com/killallgit/streamir/pkg/ir"
	"github.com/stretchr/testify/assert"
)

func TestStateMapping(t *testing.T) {
	t.Run("every wire state maps forward", func(t *testing.T) {
		assert.Equal(t, ir.ToolStreaming, ToolStatusFromState(StateInputStreaming))
		assert.Equal(t, ir.ToolReady, ToolStatusFromState(StateInputAvailable))
		assert.Equal(t, ir.ToolApprovalRequired, ToolStatusFromState(StateApprovalRequested))
		assert.Equal(t, ir.ToolApproved, ToolStatusFromState(StateApprovalResponded))
		assert.Equal(t, ir.ToolSuccess, ToolStatusFromState(StateOutputAvailable))
		assert.Equal(t, ir.ToolError, ToolStatusFromState(StateOutputError))
		assert.Equal(t, ir.ToolDenied, ToolStatusFromState(StateOutputDenied))
		assert.Equal(t, ir.ToolPending, ToolStatusFromState(""))
		assert.Equal(t, ir.ToolPending, ToolStatusFromState("output-preliminary"))
	})

	t.Run("reverse covers all nine statuses", func(t *testing.T) {
		for _, s := range ir.ToolStatuses {
			assert.NotEmpty(t, StateFromToolStatus(s), s)
		}
	})

	t.Run("forward then reverse is stable on wire states", func(t *testing.T) {
		for _, state := range []string{
			StateInputStreaming, StateInputAvailable, StateApprovalRequested,
			StateApprovalResponded, StateOutputAvailable, StateOutputError, StateOutputDenied,
		} {
			assert.Equal(t, state, StateFromToolStatus(ToolStatusFromState(state)))
		}
	})

	t.Run("lossy statuses", func(t *testing.T) {
		assert.Equal(t, ir.ToolStreaming, ToolStatusFromState(StateFromToolStatus(ir.ToolPending)))
		assert.Equal(t, ir.ToolApproved, ToolStatusFromState(StateFromToolStatus(ir.ToolRunning)))
	})
}
