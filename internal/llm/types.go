// Package llm provides a provider-neutral chat completion client with
// OpenAI and Anthropic backends.
package llm

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// Role is the author of a message.
type Role string

// Message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolChoice controls whether the model may call tools.
type ToolChoice string

// Tool choices.
const (
	ToolChoiceAuto ToolChoice = "auto"
	ToolChoiceNone ToolChoice = "none"
)

// ToolCall is one tool invocation requested by the model. Arguments is the
// raw JSON object string produced by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is one entry in a conversation.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string

	// native is the provider's own representation of an assistant reply,
	// replayed verbatim when the message is sent back.
	native any
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// ToolResultMessage creates the reply to the tool call with the given id.
func ToolResultMessage(toolCallID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID}
}

// Request is a single completion request.
type Request struct {
	Messages   []Message
	Tools      []mcp.Tool
	ToolChoice ToolChoice
}

// Client sends completion requests to a model provider.
type Client interface {
	// Complete returns the assistant message for req. It makes exactly one
	// attempt; failures wrap shared.ErrUpstream.
	Complete(ctx context.Context, req Request) (*Message, error)

	// Model returns the model identifier in use.
	Model() string
}

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config selects and configures a provider.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// Default models per provider.
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-sonnet-4-5"
)

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
