package ir

// Content is the payload of a Block. The set of implementations is closed:
// only the variants in this package satisfy it, and each reports the single
// BlockType it belongs to. Use a type switch to handle specific content.
type Content interface {
	Type() BlockType
	clone() Content
	isContent()
}

var (
	_ Content = (*TextContent)(nil)
	_ Content = (*ThinkingContent)(nil)
	_ Content = (*ToolContent)(nil)
	_ Content = (*ImageContent)(nil)
	_ Content = (*FileContent)(nil)
	_ Content = (*ErrorContent)(nil)
	_ Content = (*SourceContent)(nil)
)

// TextContent is assistant or user prose, usually markdown.
type TextContent struct {
	Text string `json:"text"`
}

func (*TextContent) Type() BlockType { return BlockText }
func (*TextContent) isContent()      {}
func (c *TextContent) clone() Content {
	cp := *c
	return &cp
}

// ThinkingContent is model reasoning shown separately from the answer.
type ThinkingContent struct {
	Text      string `json:"text"`
	Signature string `json:"signature,omitempty"`
}

func (*ThinkingContent) Type() BlockType { return BlockThinking }
func (*ThinkingContent) isContent()      {}
func (c *ThinkingContent) clone() Content {
	cp := *c
	return &cp
}

// ImageContent references an image by URL (which may be a data URL).
type ImageContent struct {
	URL       string `json:"url"`
	MediaType string `json:"mediaType,omitempty"`
	Alt       string `json:"alt,omitempty"`
}

func (*ImageContent) Type() BlockType { return BlockImage }
func (*ImageContent) isContent()      {}
func (c *ImageContent) clone() Content {
	cp := *c
	return &cp
}

// FileContent references an attached file.
type FileContent struct {
	URL       string `json:"url"`
	MediaType string `json:"mediaType"`
	Filename  string `json:"filename,omitempty"`
}

func (*FileContent) Type() BlockType { return BlockFile }
func (*FileContent) isContent()      {}
func (c *FileContent) clone() Content {
	cp := *c
	return &cp
}

// ErrorContent carries a user-visible failure inside the conversation.
type ErrorContent struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (*ErrorContent) Type() BlockType { return BlockError }
func (*ErrorContent) isContent()      {}
func (c *ErrorContent) clone() Content {
	cp := *c
	return &cp
}

// SourceContent is a citation: either a URL or a document reference.
type SourceContent struct {
	SourceType SourceType `json:"sourceType"`
	SourceID   string     `json:"sourceId"`
	URL        string     `json:"url,omitempty"`
	Title      string     `json:"title,omitempty"`
	MediaType  string     `json:"mediaType,omitempty"`
	Filename   string     `json:"filename,omitempty"`
}

func (*SourceContent) Type() BlockType { return BlockSource }
func (*SourceContent) isContent()      {}
func (c *SourceContent) clone() Content {
	cp := *c
	return &cp
}
