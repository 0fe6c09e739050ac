package wire

import "github.com/killallgit/streamir/pkg/ir"

// ToolStatusFromState maps a wire tool state onto ir.ToolStatus. Anything
// unrecognised, including an empty state, is pending.
func ToolStatusFromState(state string) ir.ToolStatus {
	switch state {
	case StateInputStreaming:
		return ir.ToolStreaming
	case StateInputAvailable:
		return ir.ToolReady
	case StateApprovalRequested:
		return ir.ToolApprovalRequired
	case StateApprovalResponded:
		return ir.ToolApproved
	case StateOutputAvailable:
		return ir.ToolSuccess
	case StateOutputError:
		return ir.ToolError
	case StateOutputDenied:
		return ir.ToolDenied
	default:
		return ir.ToolPending
	}
}

// StateFromToolStatus maps an ir.ToolStatus onto a wire tool state.
//
// This is not the inverse of ToolStatusFromState: running and approved both
// become approval-responded, so a running tool reads back as approved.
func StateFromToolStatus(status ir.ToolStatus) string {
	switch status {
	case ir.ToolPending, ir.ToolStreaming:
		return StateInputStreaming
	case ir.ToolReady:
		return StateInputAvailable
	case ir.ToolApprovalRequired:
		return StateApprovalRequested
	case ir.ToolApproved, ir.ToolRunning:
		return StateApprovalResponded
	case ir.ToolSuccess:
		return StateOutputAvailable
	case ir.ToolError:
		return StateOutputError
	case ir.ToolDenied:
		return StateOutputDenied
	default:
		return StateInputStreaming
	}
}

func contentStatusFromTextState(state string) ir.ContentStatus {
	if state == TextStreaming {
		return ir.StatusStreaming
	}
	return ir.StatusCompleted
}

func textStateFromStatus(status ir.ContentStatus) string {
	if status == ir.StatusStreaming {
		return TextStreaming
	}
	return TextDone
}
