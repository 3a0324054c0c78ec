package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ashureev/shopchat/internal/catalog"
	"github.com/ashureev/shopchat/internal/domain"
	"github.com/ashureev/shopchat/internal/llm"
	"github.com/ashureev/shopchat/internal/shared"
	"github.com/ashureev/shopchat/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedModel returns its replies in order and records each request.
type scriptedModel struct {
	replies  []*llm.Message
	errs     []error
	requests []llm.Request
}

func (m *scriptedModel) Complete(_ context.Context, req llm.Request) (*llm.Message, error) {
	i := len(m.requests)
	m.requests = append(m.requests, req)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.replies) {
		return nil, errors.New("unexpected model call")
	}
	return m.replies[i], nil
}

func (m *scriptedModel) Model() string { return "scripted" }

type stubConverter struct {
	out string
	err error
}

func (s stubConverter) Convert(context.Context, float64, string, string) (string, error) {
	return s.out, s.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRelay(model llm.Client, conv tools.Converter) *Relay {
	store := catalog.New([]domain.Product{
		{DisplayTitle: "Red Shirt", URL: "u1", Price: "$10", ProductType: "Shirts"},
		{DisplayTitle: "Blue Shirt", URL: "u2", Price: "$12", ProductType: "Shirts"},
		{DisplayTitle: "Green Shirt", URL: "u3", Price: "$14", ProductType: "Shirts"},
	})
	return NewRelay(model, tools.NewDispatcher(store, conv, discard()), discard())
}

func toolCallReply(name, args string) *llm.Message {
	return &llm.Message{
		Role:      llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{{ID: "call_1", Name: name, Arguments: args}},
	}
}

func TestReply_DirectAnswer(t *testing.T) {
	t.Parallel()
	model := &scriptedModel{replies: []*llm.Message{{Role: llm.RoleAssistant, Content: "Hello!"}}}

	got, err := newRelay(model, stubConverter{}).Reply(context.Background(), "Hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello!", got)

	require.Len(t, model.requests, 1)
	req := model.requests[0]
	assert.Equal(t, llm.ToolChoiceAuto, req.ToolChoice)
	require.Len(t, req.Tools, 2)
	assert.Equal(t, "searchProducts", req.Tools[0].Name)
	assert.Equal(t, "convertCurrencies", req.Tools[1].Name)
	assert.Equal(t, []llm.Message{llm.UserMessage("Hi")}, req.Messages)
}

func TestReply_DirectAnswerFallback(t *testing.T) {
	t.Parallel()
	for _, content := range []string{"", "   \n\t"} {
		model := &scriptedModel{replies: []*llm.Message{{Role: llm.RoleAssistant, Content: content}}}
		got, err := newRelay(model, stubConverter{}).Reply(context.Background(), "???")
		require.NoError(t, err)
		assert.Equal(t, FallbackNoTool, got)
	}
}

func TestReply_ConvertCurrencies(t *testing.T) {
	t.Parallel()
	first := toolCallReply("convertCurrencies", `{"amount":100,"from":"USD","to":"EUR"}`)
	model := &scriptedModel{replies: []*llm.Message{
		first,
		{Role: llm.RoleAssistant, Content: "100 USD = 92.34 EUR"},
	}}
	conv := stubConverter{out: "100 USD = 92.34 EUR"}

	got, err := newRelay(model, conv).Reply(context.Background(), "100 dollars in euros?")
	require.NoError(t, err)
	assert.Equal(t, "100 USD = 92.34 EUR", got)

	require.Len(t, model.requests, 2)
	second := model.requests[1]
	assert.Equal(t, llm.ToolChoiceNone, second.ToolChoice)
	require.Len(t, second.Messages, 4)

	assert.Equal(t, llm.UserMessage("100 dollars in euros?"), second.Messages[0])
	assert.Equal(t, *first, second.Messages[1])

	want, err := json.Marshal(conv.out)
	require.NoError(t, err)
	assert.Equal(t, llm.ToolResultMessage("call_1", string(want)), second.Messages[2])

	assert.Equal(t, llm.RoleSystem, second.Messages[3].Role)
	assert.Equal(t, formatDirective, second.Messages[3].Content)
}

func TestReply_SearchProductsSendsAtMostTwo(t *testing.T) {
	t.Parallel()
	model := &scriptedModel{replies: []*llm.Message{
		toolCallReply("searchProducts", `{"query":"shirt"}`),
		{Role: llm.RoleAssistant, Content: `{"explanation":"two shirts","products":[]}`},
	}}

	_, err := newRelay(model, stubConverter{}).Reply(context.Background(), "shirts")
	require.NoError(t, err)

	var sent []domain.ProductSummary
	require.NoError(t, json.Unmarshal([]byte(model.requests[1].Messages[2].Content), &sent))
	require.Len(t, sent, 2)
	assert.Equal(t, "Red Shirt", sent[0].Title)
	assert.Equal(t, "Blue Shirt", sent[1].Title)
}

func TestReply_UnknownTool(t *testing.T) {
	t.Parallel()
	model := &scriptedModel{replies: []*llm.Message{
		toolCallReply("getWeather", `{"city":"Paris"}`),
		{Role: llm.RoleAssistant, Content: "I can't do that."},
	}}

	got, err := newRelay(model, stubConverter{}).Reply(context.Background(), "weather?")
	require.NoError(t, err)
	assert.Equal(t, "I can't do that.", got)
	assert.Equal(t, `"I'm sorry, this tool is not implemented."`, model.requests[1].Messages[2].Content)
}

func TestReply_OnlyFirstToolCallRuns(t *testing.T) {
	t.Parallel()
	first := &llm.Message{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{
			{ID: "a", Name: "searchProducts", Arguments: `{"query":"red"}`},
			{ID: "b", Name: "convertCurrencies", Arguments: `{"amount":1,"from":"USD","to":"EUR"}`},
		},
	}
	model := &scriptedModel{replies: []*llm.Message{first, {Role: llm.RoleAssistant, Content: "ok"}}}
	conv := stubConverter{err: errors.New("must not be called")}

	got, err := newRelay(model, conv).Reply(context.Background(), "red things")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, "a", model.requests[1].Messages[2].ToolCallID)
}

func TestReply_EmptyFinalAnswer(t *testing.T) {
	t.Parallel()
	model := &scriptedModel{replies: []*llm.Message{
		toolCallReply("searchProducts", `{"query":"shirt"}`),
		{Role: llm.RoleAssistant},
	}}

	got, err := newRelay(model, stubConverter{}).Reply(context.Background(), "shirts")
	require.NoError(t, err)
	assert.Equal(t, FallbackAfterTool, got)
}

func TestReply_Errors(t *testing.T) {
	t.Parallel()
	upstream := errors.Join(shared.ErrUpstream, errors.New("timeout"))

	t.Run("first call fails", func(t *testing.T) {
		t.Parallel()
		model := &scriptedModel{errs: []error{upstream}}
		_, err := newRelay(model, stubConverter{}).Reply(context.Background(), "hi")
		assert.ErrorIs(t, err, shared.ErrUpstream)
	})

	t.Run("second call fails", func(t *testing.T) {
		t.Parallel()
		model := &scriptedModel{
			replies: []*llm.Message{toolCallReply("searchProducts", `{"query":"x"}`)},
			errs:    []error{nil, upstream},
		}
		_, err := newRelay(model, stubConverter{}).Reply(context.Background(), "hi")
		assert.ErrorIs(t, err, shared.ErrUpstream)
	})

	t.Run("malformed arguments", func(t *testing.T) {
		t.Parallel()
		model := &scriptedModel{replies: []*llm.Message{toolCallReply("searchProducts", `{"query":`)}}
		_, err := newRelay(model, stubConverter{}).Reply(context.Background(), "hi")
		assert.ErrorIs(t, err, shared.ErrMalformedToolArguments)
		assert.Len(t, model.requests, 1)
	})

	t.Run("converter fails", func(t *testing.T) {
		t.Parallel()
		model := &scriptedModel{replies: []*llm.Message{toolCallReply("convertCurrencies", `{"amount":1,"from":"usd","to":"xyz"}`)}}
		conv := stubConverter{err: shared.ErrInvalidArgument}
		_, err := newRelay(model, conv).Reply(context.Background(), "hi")
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
		assert.Len(t, model.requests, 1)
	})
}
