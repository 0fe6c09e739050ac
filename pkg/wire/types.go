package wire

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrInvalidMessage is returned for structurally invalid wire input, such
// as a nil message, an unknown role or a part without a type.
var ErrInvalidMessage = errors.New("wire: invalid message")

// Message is a conversation turn in wire form.
type Message struct {
	ID       string          `json:"id"`
	Role     string          `json:"role"`
	Parts    []Part          `json:"parts"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// Part is one tagged unit of a wire message. Which fields are meaningful
// depends on Type.
type Part struct {
	Type             string          `json:"type"`
	Text             string          `json:"text,omitempty"`
	State            string          `json:"state,omitempty"`
	MediaType        string          `json:"mediaType,omitempty"`
	Filename         string          `json:"filename,omitempty"`
	URL              string          `json:"url,omitempty"`
	SourceID         string          `json:"sourceId,omitempty"`
	Title            string          `json:"title,omitempty"`
	ToolCallID       string          `json:"toolCallId,omitempty"`
	ToolName         string          `json:"toolName,omitempty"`
	Input            json.RawMessage `json:"input,omitempty"`
	Output           json.RawMessage `json:"output,omitempty"`
	ErrorText        string          `json:"errorText,omitempty"`
	Approval         *Approval       `json:"approval,omitempty"`
	ProviderMetadata json.RawMessage `json:"providerMetadata,omitempty"`
}

// Approval mirrors ir.ToolApproval on the wire.
type Approval struct {
	ID       string `json:"id"`
	Approved *bool  `json:"approved,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Part type tags
const (
	PartText           = "text"
	PartReasoning      = "reasoning"
	PartFile           = "file"
	PartSourceURL      = "source-url"
	PartSourceDocument = "source-document"
	PartDynamicTool    = "dynamic-tool"
	toolPrefix         = "tool-"

	unknownToolName = "unknown"
)

// Text and reasoning states
const (
	TextStreaming = "streaming"
	TextDone      = "done"
)

// Tool part states
const (
	StateInputStreaming    = "input-streaming"
	StateInputAvailable    = "input-available"
	StateApprovalRequested = "approval-requested"
	StateApprovalResponded = "approval-responded"
	StateOutputAvailable   = "output-available"
	StateOutputError       = "output-error"
	StateOutputDenied      = "output-denied"
)

// IsToolPart reports whether the part is a static or dynamic tool call.
func (p Part) IsToolPart() bool {
	return p.Type == PartDynamicTool || (strings.HasPrefix(p.Type, toolPrefix) && len(p.Type) > len(toolPrefix))
}

// ToolDisplayName derives the tool name from the part tag: the explicit
// toolName for dynamic tools ("unknown" if absent), otherwise the tag with
// its "tool-" prefix removed.
func (p Part) ToolDisplayName() string {
	if p.Type == PartDynamicTool {
		if p.ToolName == "" {
			return unknownToolName
		}
		return p.ToolName
	}
	return strings.TrimPrefix(p.Type, toolPrefix)
}
