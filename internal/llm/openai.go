package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashureev/shopchat/internal/shared"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIClient talks to the OpenAI chat completions API or any compatible
// gateway reachable at BaseURL.
type OpenAIClient struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIClient creates an OpenAI client. An empty baseURL uses the SDK
// default endpoint.
func NewOpenAIClient(apiKey, model, baseURL string, timeout time.Duration) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", shared.ErrConfiguration)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIClient{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: timeout,
	}, nil
}

// Model implements Client.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Complete implements Client. Tools are omitted from the request when the
// choice is ToolChoiceNone.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Message, error) {
	messages, err := openAIMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(c.model),
	}
	if len(req.Tools) > 0 && req.ToolChoice != ToolChoiceNone {
		params.Tools = openAITools(req.Tools)
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(string(ToolChoiceAuto)),
		}
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: openai chat completion: %w", shared.ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: openai returned no choices", shared.ErrUpstream)
	}

	msg := resp.Choices[0].Message
	out := &Message{
		Role:    RoleAssistant,
		Content: msg.Content,
		native:  msg.ToParam(),
	}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

func openAIMessages(messages []Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		case RoleAssistant:
			if native, ok := m.native.(openai.ChatCompletionMessageParamUnion); ok {
				out = append(out, native)
				continue
			}
			if len(m.ToolCalls) > 0 {
				return nil, errors.New("assistant tool calls can only be replayed to the client that produced them")
			}
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			return nil, fmt.Errorf("unknown message role %q", m.Role)
		}
	}
	return out, nil
}
