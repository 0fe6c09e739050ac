package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/killallgit/streamir/pkg/ir"
)

// Event types of the UI message stream
const (
	EventStart               = "start"
	EventFinish              = "finish"
	EventAbort               = "abort"
	EventError               = "error"
	EventStartStep           = "start-step"
	EventFinishStep          = "finish-step"
	EventTextStart           = "text-start"
	EventTextDelta           = "text-delta"
	EventTextEnd             = "text-end"
	EventReasoningStart      = "reasoning-start"
	EventReasoningDelta      = "reasoning-delta"
	EventReasoningEnd        = "reasoning-end"
	EventToolInputStart      = "tool-input-start"
	EventToolInputDelta      = "tool-input-delta"
	EventToolInputAvailable  = "tool-input-available"
	EventToolInputError      = "tool-input-error"
	EventToolApprovalRequest = "tool-approval-request"
	EventToolOutputAvailable = "tool-output-available"
	EventToolOutputError     = "tool-output-error"
	EventToolOutputDenied    = "tool-output-denied"
	EventSourceURL           = "source-url"
	EventSourceDocument      = "source-document"
	EventFile                = "file"
)

// abortedText is the error text given to tools cut off by an abort.
const abortedText = "aborted"

// Event is one chunk of the UI message stream.
type Event struct {
	Type           string          `json:"type"`
	ID             string          `json:"id,omitempty"`
	MessageID      string          `json:"messageId,omitempty"`
	Delta          string          `json:"delta,omitempty"`
	ToolCallID     string          `json:"toolCallId,omitempty"`
	ToolName       string          `json:"toolName,omitempty"`
	Dynamic        bool            `json:"dynamic,omitempty"`
	InputTextDelta string          `json:"inputTextDelta,omitempty"`
	Input          json.RawMessage `json:"input,omitempty"`
	Output         json.RawMessage `json:"output,omitempty"`
	ErrorText      string          `json:"errorText,omitempty"`
	ApprovalID     string          `json:"approvalId,omitempty"`
	SourceID       string          `json:"sourceId,omitempty"`
	URL            string          `json:"url,omitempty"`
	Title          string          `json:"title,omitempty"`
	MediaType      string          `json:"mediaType,omitempty"`
	Filename       string          `json:"filename,omitempty"`
}

var errMissingToolCallID = errors.New("wire: tool event without toolCallId")

// Assembler builds a conversation incrementally from stream events. Text and
// reasoning blocks get fresh ids; tool blocks are keyed by their toolCallId.
type Assembler struct {
	settings
	conv *ir.Conversation

	mu     sync.Mutex
	text   map[string]string
	inputs map[string]*ir.PartialInput
}

func NewAssembler(conv *ir.Conversation, opts ...Option) *Assembler {
	return &Assembler{
		settings: newSettings(opts),
		conv:     conv,
		text:     make(map[string]string),
		inputs:   make(map[string]*ir.PartialInput),
	}
}

// Conversation returns the conversation being assembled.
func (a *Assembler) Conversation() *ir.Conversation {
	return a.conv
}

// Apply folds one event into the conversation. Unknown event types are
// ignored.
func (a *Assembler) Apply(e Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch e.Type {
	case EventTextStart:
		return a.startText(e.ID, false)
	case EventReasoningStart:
		return a.startText(e.ID, true)
	case EventTextDelta:
		return a.appendText(e.ID, e.Delta, false)
	case EventReasoningDelta:
		return a.appendText(e.ID, e.Delta, true)
	case EventTextEnd, EventReasoningEnd:
		return a.endText(e.ID)
	case EventToolInputStart:
		return a.toolInputStart(e)
	case EventToolInputDelta:
		return a.toolInputDelta(e)
	case EventToolInputAvailable:
		return a.toolInputAvailable(e)
	case EventToolInputError:
		return a.toolInputError(e)
	case EventToolApprovalRequest:
		return a.updateTool(e.ToolCallID, func(t *ir.ToolContent) error {
			return t.RequestApproval(e.ApprovalID)
		})
	case EventToolOutputAvailable:
		return a.updateTool(e.ToolCallID, func(t *ir.ToolContent) error {
			return t.Complete(decodeValue(e.Output))
		})
	case EventToolOutputError:
		return a.updateTool(e.ToolCallID, func(t *ir.ToolContent) error {
			return t.Fail(e.ErrorText)
		})
	case EventToolOutputDenied:
		if b, ok := a.conv.Block(e.ToolCallID); ok {
			if t, _ := b.Tool(); t != nil && t.Status == ir.ToolDenied {
				return nil
			}
		}
		return a.updateTool(e.ToolCallID, func(t *ir.ToolContent) error {
			return t.Deny("")
		})
	case EventSourceURL:
		return a.conv.Append(ir.NewSourceBlock(a.ids.NewID(), &ir.SourceContent{
			SourceType: ir.SourceURL,
			SourceID:   e.SourceID,
			URL:        e.URL,
			Title:      e.Title,
		}))
	case EventSourceDocument:
		return a.conv.Append(ir.NewSourceBlock(a.ids.NewID(), &ir.SourceContent{
			SourceType: ir.SourceDocument,
			SourceID:   e.SourceID,
			Title:      e.Title,
			MediaType:  e.MediaType,
			Filename:   e.Filename,
		}))
	case EventFile:
		return a.conv.Append(ir.NewFileBlock(a.ids.NewID(), &ir.FileContent{
			URL:       e.URL,
			MediaType: e.MediaType,
			Filename:  e.Filename,
		}))
	case EventError:
		return a.conv.Append(ir.NewErrorBlock(a.ids.NewID(), e.ErrorText))
	case EventFinish:
		return a.sealOpen(false)
	case EventAbort:
		return a.sealOpen(true)
	default:
		a.log.Debug("ignoring stream event %q", e.Type)
		return nil
	}
}

// Respond records a human decision for a tool awaiting approval.
func (a *Assembler) Respond(toolCallID string, approved bool, reason string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.updateTool(toolCallID, func(t *ir.ToolContent) error {
		if approved {
			return t.Approve(reason)
		}
		return t.Deny(reason)
	})
}

func (a *Assembler) startText(eventID string, reasoning bool) error {
	id := a.ids.NewID()
	a.text[eventID] = id
	if reasoning {
		return a.conv.Append(ir.NewThinkingBlock(id, "", ir.StatusStreaming))
	}
	return a.conv.Append(ir.NewTextBlock(id, "", ir.StatusStreaming))
}

// appendText tolerates a delta without a preceding start by opening the
// block on the fly.
func (a *Assembler) appendText(eventID, delta string, reasoning bool) error {
	id, ok := a.text[eventID]
	if !ok {
		if err := a.startText(eventID, reasoning); err != nil {
			return err
		}
		id = a.text[eventID]
	}
	return a.conv.AppendText(id, delta)
}

func (a *Assembler) endText(eventID string) error {
	id, ok := a.text[eventID]
	if !ok {
		return fmt.Errorf("%w: text %q", ir.ErrBlockNotFound, eventID)
	}
	delete(a.text, eventID)
	return a.conv.Seal(id, ir.StatusCompleted)
}

func (a *Assembler) toolInputStart(e Event) error {
	if e.ToolCallID == "" {
		return errMissingToolCallID
	}
	a.inputs[e.ToolCallID] = ir.NewPartialInput()
	return a.conv.Upsert(ir.NewToolBlock(e.ToolCallID, &ir.ToolContent{
		ToolCallID: e.ToolCallID,
		ToolName:   e.ToolName,
		Dynamic:    e.Dynamic,
		Status:     ir.ToolStreaming,
	}))
}

func (a *Assembler) toolInputDelta(e Event) error {
	input, ok := a.inputs[e.ToolCallID]
	if !ok {
		if err := a.toolInputStart(e); err != nil {
			return err
		}
		input = a.inputs[e.ToolCallID]
	}
	value, ok := input.Append(e.InputTextDelta)
	if !ok {
		return nil
	}
	return a.updateTool(e.ToolCallID, func(t *ir.ToolContent) error {
		t.Input = value
		return nil
	})
}

func (a *Assembler) toolInputAvailable(e Event) error {
	if err := a.ensureTool(e); err != nil {
		return err
	}
	delete(a.inputs, e.ToolCallID)
	return a.updateTool(e.ToolCallID, func(t *ir.ToolContent) error {
		t.Input = decodeValue(e.Input)
		return t.Transition(ir.ToolReady)
	})
}

func (a *Assembler) toolInputError(e Event) error {
	if err := a.ensureTool(e); err != nil {
		return err
	}
	delete(a.inputs, e.ToolCallID)
	return a.updateTool(e.ToolCallID, func(t *ir.ToolContent) error {
		if v := decodeValue(e.Input); v != nil {
			t.Input = v
		}
		return t.Fail(e.ErrorText)
	})
}

// ensureTool adds a pending tool block when input arrives without a start
// event.
func (a *Assembler) ensureTool(e Event) error {
	if e.ToolCallID == "" {
		return errMissingToolCallID
	}
	if _, ok := a.conv.Block(e.ToolCallID); ok {
		return nil
	}
	return a.conv.Append(ir.NewToolBlock(e.ToolCallID, &ir.ToolContent{
		ToolCallID: e.ToolCallID,
		ToolName:   e.ToolName,
		Dynamic:    e.Dynamic,
		Status:     ir.ToolPending,
	}))
}

func (a *Assembler) updateTool(toolCallID string, fn func(*ir.ToolContent) error) error {
	if toolCallID == "" {
		return errMissingToolCallID
	}
	return a.conv.UpdateTool(toolCallID, fn)
}

// sealOpen completes every text and thinking block still streaming. On
// abort every unfinished tool is settled too, so an aborted conversation
// never stays streaming.
func (a *Assembler) sealOpen(abort bool) error {
	var errs []error
	for _, b := range a.conv.Blocks() {
		if b.Status != ir.StatusStreaming {
			continue
		}
		switch {
		case ir.IsTextBlock(b), ir.IsThinkingBlock(b):
			errs = append(errs, a.conv.Seal(b.ID, ir.StatusCompleted))
		case abort && ir.IsToolBlock(b):
			errs = append(errs, a.conv.UpdateTool(b.ID, abortTool))
		}
	}
	clear(a.text)
	if abort {
		clear(a.inputs)
	}
	return errors.Join(errs...)
}

// abortTool denies a tool still waiting for a decision and fails any other
// unfinished tool.
func abortTool(t *ir.ToolContent) error {
	if ir.IsToolAwaitingApproval(t.Status) {
		return t.Deny(abortedText)
	}
	return t.Fail(abortedText)
}
