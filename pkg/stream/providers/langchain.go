package providers

import (
	"context"
	"strings"
	"sync"

	"github.com/killallgit/streamir/pkg/ir"
	"github.com/killallgit/streamir/pkg/logger"
	"github.com/killallgit/streamir/pkg/stream"
	"github.com/tmc/langchaingo/llms"
)

var log = logger.WithComponent("providers")

// Message is one turn of history sent to the model
type Message struct {
	Role    ir.Role
	Content string
}

// MessagesFromConversation flattens the text blocks of each conversation
// into one message per conversation.
func MessagesFromConversation(convs ...*ir.Conversation) []Message {
	out := make([]Message, 0, len(convs))
	for _, c := range convs {
		var sb strings.Builder
		for _, b := range c.Blocks() {
			if !ir.IsTextBlock(b) {
				continue
			}
			text, _ := b.Text()
			sb.WriteString(text)
		}
		if sb.Len() == 0 {
			continue
		}
		out = append(out, Message{Role: c.Role, Content: sb.String()})
	}
	return out
}

// LangChainSource turns a langchaingo model's streaming callback into a
// push source for stream.Consumer.
type LangChainSource struct {
	llm  llms.Model
	opts []llms.CallOption
}

// NewLangChainSource creates a streaming source from a LangChain model
func NewLangChainSource(llm llms.Model, opts ...llms.CallOption) *LangChainSource {
	return &LangChainSource{
		llm:  llm,
		opts: opts,
	}
}

// Prompt streams the answer to a single user prompt.
func (l *LangChainSource) Prompt(ctx context.Context, prompt string) stream.Source {
	return l.Stream(ctx, []Message{{Role: ir.RoleUser, Content: prompt}})
}

// Stream returns a source for the model's answer to messages. Generation
// starts when a consumer acquires the source and is cancelled when that
// consumer releases it.
func (l *LangChainSource) Stream(ctx context.Context, messages []Message) stream.Source {
	return stream.FromPush(&generation{
		source:   l,
		ctx:      ctx,
		messages: toMessageContent(messages),
		pipe:     stream.NewPipe(),
	})
}

func toMessageContent(messages []Message) []llms.MessageContent {
	llmMessages := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		messageType := llms.ChatMessageTypeHuman
		switch msg.Role {
		case ir.RoleSystem:
			messageType = llms.ChatMessageTypeSystem
		case ir.RoleAssistant:
			messageType = llms.ChatMessageTypeAI
		case ir.RoleUser:
			messageType = llms.ChatMessageTypeHuman
		}
		llmMessages = append(llmMessages, llms.TextParts(messageType, msg.Content))
	}
	return llmMessages
}

type generation struct {
	source   *LangChainSource
	ctx      context.Context
	messages []llms.MessageContent
	pipe     *stream.Pipe

	once   sync.Once
	cancel context.CancelFunc
}

func (g *generation) Acquire() (stream.Reader, error) {
	r, err := g.pipe.Acquire()
	if err != nil {
		return nil, err
	}
	g.once.Do(func() {
		ctx, cancel := context.WithCancel(g.ctx)
		g.cancel = cancel
		go g.run(ctx)
	})
	return &generationReader{Reader: r, cancel: g.cancel}, nil
}

func (g *generation) run(ctx context.Context) {
	var streamed bool
	handler := stream.HandlerFunc{
		ChunkFunc: func(chunk []byte) error {
			streamed = true
			return g.pipe.OnChunk(chunk)
		},
		ErrorFunc: g.pipe.OnError,
	}

	opts := append([]llms.CallOption{llms.WithStreamingFunc(stream.ToStreamingFunc(handler))}, g.source.opts...)
	response, err := g.source.llm.GenerateContent(ctx, g.messages, opts...)
	if err != nil {
		log.Debug("generation failed: %v", err)
		g.pipe.OnError(err)
		return
	}

	// Models that ignore the streaming callback still answer in one piece
	if !streamed && response != nil && len(response.Choices) > 0 {
		if err := g.pipe.Write(response.Choices[0].Content); err != nil {
			return
		}
	}
	_ = g.pipe.Close()
}

type generationReader struct {
	stream.Reader
	cancel context.CancelFunc
}

func (r *generationReader) Release() {
	r.Reader.Release()
	r.cancel()
}
