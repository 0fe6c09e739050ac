package ir

// Role identifies who produced a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

// ContentStatus is the lifecycle status shared by conversations and blocks.
// A block moves streaming -> completed|error and never back.
type ContentStatus string

const (
	StatusStreaming ContentStatus = "streaming"
	StatusCompleted ContentStatus = "completed"
	StatusError     ContentStatus = "error"
)

// String returns the string representation of the status
func (s ContentStatus) String() string {
	return string(s)
}

// Valid reports whether s is a known status.
func (s ContentStatus) Valid() bool {
	switch s {
	case StatusStreaming, StatusCompleted, StatusError:
		return true
	default:
		return false
	}
}

// BlockType discriminates the content carried by a Block.
type BlockType string

const (
	BlockText     BlockType = "text"
	BlockTool     BlockType = "tool"
	BlockThinking BlockType = "thinking"
	BlockImage    BlockType = "image"
	BlockFile     BlockType = "file"
	BlockError    BlockType = "error"
	BlockSource   BlockType = "source"
)

// BlockTypes lists every block type in declaration order.
var BlockTypes = []BlockType{
	BlockText,
	BlockTool,
	BlockThinking,
	BlockImage,
	BlockFile,
	BlockError,
	BlockSource,
}

// String returns the string representation of the block type
func (t BlockType) String() string {
	return string(t)
}

// SourceType distinguishes url sources from document sources.
type SourceType string

const (
	SourceURL      SourceType = "url"
	SourceDocument SourceType = "document"
)
