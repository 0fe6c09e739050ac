package ir

import (
	"fmt"
	"slices"
)

// ToolStatus is the execution state of a tool call.
type ToolStatus string

const (
	ToolPending          ToolStatus = "pending"
	ToolStreaming        ToolStatus = "streaming"
	ToolReady            ToolStatus = "ready"
	ToolRunning          ToolStatus = "running"
	ToolApprovalRequired ToolStatus = "approval-required"
	ToolApproved         ToolStatus = "approved"
	ToolDenied           ToolStatus = "denied"
	ToolSuccess          ToolStatus = "success"
	ToolError            ToolStatus = "error"
)

// ToolStatuses lists all nine tool states.
var ToolStatuses = []ToolStatus{
	ToolPending,
	ToolStreaming,
	ToolReady,
	ToolRunning,
	ToolApprovalRequired,
	ToolApproved,
	ToolDenied,
	ToolSuccess,
	ToolError,
}

// toolTransitions is the complete transition table. approval-required is
// only entered from ready, approved/denied only from approval-required, and
// success, error and denied have no outgoing edges.
var toolTransitions = map[ToolStatus][]ToolStatus{
	ToolPending:          {ToolStreaming, ToolReady, ToolError},
	ToolStreaming:        {ToolReady, ToolError},
	ToolReady:            {ToolRunning, ToolApprovalRequired, ToolSuccess, ToolError},
	ToolApprovalRequired: {ToolApproved, ToolDenied},
	ToolApproved:         {ToolRunning, ToolSuccess, ToolError},
	ToolRunning:          {ToolSuccess, ToolError},
	ToolSuccess:          nil,
	ToolError:            nil,
	ToolDenied:           nil,
}

// String returns the string representation of the tool status
func (s ToolStatus) String() string {
	return string(s)
}

// Valid reports whether s is one of the nine tool states.
func (s ToolStatus) Valid() bool {
	_, ok := toolTransitions[s]
	return ok
}

// CanTransition reports whether a tool may move from one state to another.
func CanTransition(from, to ToolStatus) bool {
	return slices.Contains(toolTransitions[from], to)
}

// IsToolAwaitingApproval reports whether the tool is blocked on a human decision.
func IsToolAwaitingApproval(s ToolStatus) bool {
	return s == ToolApprovalRequired
}

// IsToolTerminal reports whether the tool can no longer change state.
func IsToolTerminal(s ToolStatus) bool {
	return s == ToolSuccess || s == ToolError || s == ToolDenied
}

// IsToolExecuting reports whether the tool has been cleared to run.
func IsToolExecuting(s ToolStatus) bool {
	return s == ToolRunning || s == ToolApproved
}

// HasPassedApproval reports whether an approval record may be attached in
// state s: approval-required and every state after it.
func HasPassedApproval(s ToolStatus) bool {
	switch s {
	case ToolPending, ToolStreaming, ToolReady:
		return false
	default:
		return true
	}
}

// BlockStatus maps a tool state onto the status of the block holding it.
// Anything not yet terminal counts as streaming.
func (s ToolStatus) BlockStatus() ContentStatus {
	switch s {
	case ToolError:
		return StatusError
	case ToolSuccess, ToolDenied:
		return StatusCompleted
	default:
		return StatusStreaming
	}
}

// ToolApproval records the approval request for a tool call and, once
// answered, the decision.
type ToolApproval struct {
	ID       string `json:"id"`
	Approved *bool  `json:"approved,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Decided reports whether the approval has been answered.
func (a *ToolApproval) Decided() bool {
	return a != nil && a.Approved != nil
}

// ToolContent is a single tool call and its lifecycle.
type ToolContent struct {
	ToolCallID string        `json:"toolCallId"`
	ToolName   string        `json:"toolName"`
	Dynamic    bool          `json:"dynamic,omitempty"`
	Status     ToolStatus    `json:"status"`
	Input      any           `json:"input,omitempty"`
	Output     any           `json:"output,omitempty"`
	ErrorText  string        `json:"errorText,omitempty"`
	Approval   *ToolApproval `json:"approval,omitempty"`
}

func (*ToolContent) Type() BlockType { return BlockTool }
func (*ToolContent) isContent()      {}
func (c *ToolContent) clone() Content {
	cp := *c
	if c.Approval != nil {
		a := *c.Approval
		if c.Approval.Approved != nil {
			v := *c.Approval.Approved
			a.Approved = &v
		}
		cp.Approval = &a
	}
	return &cp
}

// Transition moves the tool to state to. Invalid transitions are rejected
// with ErrInvalidTransition and leave the tool unchanged.
func (c *ToolContent) Transition(to ToolStatus) error {
	if !CanTransition(c.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, to)
	}
	c.Status = to
	return nil
}

// RequestApproval moves a ready tool to approval-required and attaches a
// fresh approval record.
func (c *ToolContent) RequestApproval(approvalID string) error {
	if err := c.Transition(ToolApprovalRequired); err != nil {
		return err
	}
	c.Approval = &ToolApproval{ID: approvalID}
	return nil
}

// Approve records a positive decision for a tool awaiting approval.
func (c *ToolContent) Approve(reason string) error {
	return c.decide(ToolApproved, true, reason)
}

// Deny records a negative decision for a tool awaiting approval.
func (c *ToolContent) Deny(reason string) error {
	return c.decide(ToolDenied, false, reason)
}

func (c *ToolContent) decide(to ToolStatus, approved bool, reason string) error {
	if err := c.Transition(to); err != nil {
		return err
	}
	if c.Approval == nil {
		c.Approval = &ToolApproval{}
	}
	c.Approval.Approved = &approved
	c.Approval.Reason = reason
	return nil
}

// Start marks the tool as running.
func (c *ToolContent) Start() error {
	return c.Transition(ToolRunning)
}

// Complete stores the tool output and marks it successful.
func (c *ToolContent) Complete(output any) error {
	if err := c.Transition(ToolSuccess); err != nil {
		return err
	}
	c.Output = output
	return nil
}

// Fail stores the error text and marks the tool as failed.
func (c *ToolContent) Fail(errText string) error {
	if err := c.Transition(ToolError); err != nil {
		return err
	}
	c.ErrorText = errText
	return nil
}

// Validate checks the tool content for internally inconsistent state.
func (c *ToolContent) Validate() error {
	if !c.Status.Valid() {
		return fmt.Errorf("ir: unknown tool status %q", c.Status)
	}
	if c.Approval != nil && !HasPassedApproval(c.Status) {
		return fmt.Errorf("ir: approval attached to tool in state %s", c.Status)
	}
	return nil
}
