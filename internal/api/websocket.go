package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/ashureev/shopchat/internal/chat"
	"github.com/ashureev/shopchat/internal/domain"
	"github.com/ashureev/shopchat/internal/shared"
	"github.com/ashureev/shopchat/internal/transcript"
	"github.com/coder/websocket"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Websocket frame types.
const (
	frameMessage = "message"
	framePing    = "ping"
	frameReply   = "reply"
	framePong    = "pong"
	frameError   = "error"
)

// wsInbound is a client frame.
type wsInbound struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// wsOutbound is a server frame. Content carries the parsed product reply
// when the model answered with one.
type wsOutbound struct {
	Type     string             `json:"type"`
	Response string             `json:"response,omitempty"`
	Content  *domain.BotMessage `json:"content,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// HandleWebSocket handles GET /ws/chat. Every message frame is answered
// independently; the connection carries no conversation state.
func (h *ChatHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	reqID := chiMiddleware.GetReqID(r.Context())
	ip := clientIP(r)

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Warn("Failed to accept WebSocket", "error", err, "ip", ip)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "bye"); closeErr != nil {
			h.logger.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	h.logger.Info("Chat websocket connected", "request_id", reqID, "ip", ip)
	ctx := r.Context()

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.logger.Debug("WebSocket closed by client", "request_id", reqID)
			} else {
				h.logger.Debug("WebSocket read error", "error", err, "request_id", reqID)
			}
			return
		}

		var in wsInbound
		if err := json.Unmarshal(data, &in); err != nil {
			h.send(ctx, ws, wsOutbound{Type: frameError, Error: "invalid frame"})
			continue
		}

		switch in.Type {
		case framePing:
			h.send(ctx, ws, wsOutbound{Type: framePong})
		case frameMessage:
			h.handleFrame(ctx, ws, reqID, ip, in.Message)
		default:
			h.send(ctx, ws, wsOutbound{Type: frameError, Error: "unknown frame type"})
		}
	}
}

func (h *ChatHandler) handleFrame(ctx context.Context, ws *websocket.Conn, reqID, ip, message string) {
	if strings.TrimSpace(message) == "" {
		h.send(ctx, ws, wsOutbound{Type: frameError, Error: "message must not be empty"})
		return
	}
	if h.limiter != nil && !h.limiter.Allow(ip) {
		h.send(ctx, ws, wsOutbound{Type: frameError, Error: "rate limit exceeded"})
		return
	}

	h.recordUser(transcript.ChannelWebSocket, reqID, message)
	reply, err := h.replier.Reply(ctx, message)
	if err != nil {
		h.logger.Error("Chat frame failed", "request_id", reqID, "error", err)
		h.recordError(transcript.ChannelWebSocket, reqID, err)
		h.send(ctx, ws, wsOutbound{Type: frameError, Error: errorMessage(shared.HTTPStatus(err))})
		return
	}
	h.recordReply(transcript.ChannelWebSocket, reqID, reply)

	out := wsOutbound{Type: frameReply, Response: reply}
	if bot, ok := chat.ParseBotMessage(reply); ok {
		out.Content = bot
	}
	h.send(ctx, ws, out)
}

func (h *ChatHandler) send(ctx context.Context, ws *websocket.Conn, v wsOutbound) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Warn("Failed to marshal websocket frame", "error", err)
		return
	}
	if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
		h.logger.Debug("Failed to write websocket frame", "error", err)
	}
}

// originHosts turns configured origins into websocket origin patterns, which
// match on host[:port]. A "*" entry allows any origin.
func originHosts(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if o == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}
