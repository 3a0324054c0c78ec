// Package chat runs the two-step model exchange behind a single chat message.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/shopchat/internal/llm"
	"github.com/ashureev/shopchat/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
)

// Fallback replies used when the model returns no usable text.
const (
	FallbackAfterTool = "Sorry, I couldn't process your request."
	FallbackNoTool    = "Sorry, I couldn't understand or process your request with the available tools."
)

// ToolRunner executes a parsed tool call.
type ToolRunner interface {
	Dispatch(ctx context.Context, call tools.Call) (tools.Result, error)
}

// Relay answers one user message. It holds no per-conversation state and is
// safe for concurrent use.
type Relay struct {
	model  llm.Client
	runner ToolRunner
	tools  []mcp.Tool
	logger *slog.Logger
}

// NewRelay creates a Relay offering the standard tool set.
func NewRelay(model llm.Client, runner ToolRunner, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		model:  model,
		runner: runner,
		tools:  tools.Definitions(),
		logger: logger,
	}
}

// Reply sends message to the model with the tools available. When the model
// calls a tool, the first call is run and a second request asks for the final
// answer in the fixed output format. Only the first tool call of a turn is
// honored.
func (r *Relay) Reply(ctx context.Context, message string) (string, error) {
	user := llm.UserMessage(message)

	first, err := r.model.Complete(ctx, llm.Request{
		Messages:   []llm.Message{user},
		Tools:      r.tools,
		ToolChoice: llm.ToolChoiceAuto,
	})
	if err != nil {
		return "", fmt.Errorf("tool decision: %w", err)
	}

	if len(first.ToolCalls) == 0 {
		if strings.TrimSpace(first.Content) == "" {
			return FallbackNoTool, nil
		}
		return first.Content, nil
	}

	call := first.ToolCalls[0]
	if extra := len(first.ToolCalls) - 1; extra > 0 {
		r.logger.Debug("Ignoring additional tool calls", "tool", call.Name, "ignored", extra)
	}

	result, err := r.runTool(ctx, call)
	if err != nil {
		return "", err
	}

	final, err := r.model.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			user,
			*first,
			llm.ToolResultMessage(call.ID, result),
			llm.SystemMessage(formatDirective),
		},
		Tools:      r.tools,
		ToolChoice: llm.ToolChoiceNone,
	})
	if err != nil {
		return "", fmt.Errorf("final answer: %w", err)
	}

	if final.Content == "" {
		return FallbackAfterTool, nil
	}
	return final.Content, nil
}

// runTool parses and executes call and returns its JSON-encoded result.
func (r *Relay) runTool(ctx context.Context, call llm.ToolCall) (string, error) {
	parsed, err := tools.ParseCall(call.Name, call.Arguments)
	if err != nil {
		return "", err
	}

	result, err := r.runner.Dispatch(ctx, parsed)
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", call.Name, err)
	}
	return tools.Encode(result)
}
