package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ashureev/shopchat/internal/chat"
	"github.com/ashureev/shopchat/internal/shared"
	"github.com/ashureev/shopchat/internal/transcript"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

const maxRequestBodySize = 1 << 20

// Replier answers a single chat message.
type Replier interface {
	Reply(ctx context.Context, message string) (string, error)
}

// ChatRequest is the POST /chat body.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the POST /chat success body.
type ChatResponse struct {
	Response string `json:"response"`
}

// ChatHandler serves the chat endpoints.
type ChatHandler struct {
	replier        Replier
	limiter        *RateLimiter
	log            transcript.Logger
	logger         *slog.Logger
	originPatterns []string
}

// ChatOption configures a ChatHandler.
type ChatOption func(*ChatHandler)

// WithRateLimiter limits chat requests per client IP.
func WithRateLimiter(rl *RateLimiter) ChatOption {
	return func(h *ChatHandler) { h.limiter = rl }
}

// WithTranscript records chat traffic.
func WithTranscript(l transcript.Logger) ChatOption {
	return func(h *ChatHandler) { h.log = l }
}

// WithAllowedOrigins sets the origins allowed to open the chat websocket.
func WithAllowedOrigins(origins []string) ChatOption {
	return func(h *ChatHandler) { h.originPatterns = originHosts(origins) }
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(replier Replier, logger *slog.Logger, opts ...ChatOption) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &ChatHandler{
		replier: replier,
		log:     transcript.Nop{},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers the chat routes.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleHello)
	r.Group(func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter.Middleware)
		}
		r.Post("/chat", h.HandleChat)
		r.Get("/ws/chat", h.HandleWebSocket)
	})
}

// HandleHello handles GET /.
func (h *ChatHandler) HandleHello(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Hello World!")
}

// HandleChat handles POST /chat.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	message, status, msg := decodeChatRequest(r.Body)
	if status != 0 {
		Error(w, status, msg)
		return
	}

	reqID := chiMiddleware.GetReqID(r.Context())
	h.logger.Info("Chat request", "request_id", reqID, "message_length", len(message))
	h.recordUser(transcript.ChannelHTTP, reqID, message)

	reply, err := h.replier.Reply(r.Context(), message)
	if err != nil {
		h.logger.Error("Chat request failed", "request_id", reqID, "error", err)
		h.recordError(transcript.ChannelHTTP, reqID, err)
		status := shared.HTTPStatus(err)
		Error(w, status, errorMessage(status))
		return
	}

	h.recordReply(transcript.ChannelHTTP, reqID, reply)
	JSON(w, http.StatusOK, ChatResponse{Response: reply})
}

// decodeChatRequest validates the request body. A non-zero status means the
// request was rejected with the returned message.
func decodeChatRequest(body io.Reader) (string, int, string) {
	var req struct {
		Message *json.RawMessage `json:"message"`
	}
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", http.StatusRequestEntityTooLarge, "request body too large"
		}
		return "", http.StatusBadRequest, "invalid request body"
	}
	if req.Message == nil {
		return "", http.StatusBadRequest, "message is required"
	}

	var message string
	if err := json.Unmarshal(*req.Message, &message); err != nil {
		return "", http.StatusBadRequest, "message must be a string"
	}
	if strings.TrimSpace(message) == "" {
		return "", http.StatusBadRequest, "message must not be empty"
	}
	return message, 0, ""
}

func errorMessage(status int) string {
	if status == http.StatusBadGateway {
		return "upstream service unavailable"
	}
	return "internal server error"
}

func (h *ChatHandler) recordUser(channel, reqID, message string) {
	h.log.Log(transcript.Event{
		RequestID: reqID,
		Channel:   channel,
		EventType: transcript.EventUserMessage,
		Content:   message,
	})
}

func (h *ChatHandler) recordReply(channel, reqID, reply string) {
	meta := map[string]any{"structured": false}
	if bot, ok := chat.ParseBotMessage(reply); ok {
		meta["structured"] = true
		meta["products"] = len(bot.Products)
	}
	h.log.Log(transcript.Event{
		RequestID: reqID,
		Channel:   channel,
		EventType: transcript.EventAssistantMessage,
		Content:   reply,
		Meta:      meta,
	})
}

func (h *ChatHandler) recordError(channel, reqID string, err error) {
	h.log.Log(transcript.Event{
		RequestID: reqID,
		Channel:   channel,
		EventType: transcript.EventError,
		Content:   err.Error(),
	})
}
