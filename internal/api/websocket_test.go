package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialChat(t *testing.T, h *ChatHandler) (*websocket.Conn, context.Context) {
	t.Helper()
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn, ctx
}

func roundTrip(t *testing.T, ctx context.Context, conn *websocket.Conn, frame string) wsOutbound {
	t.Helper()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(frame)))
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var out wsOutbound
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestWebSocket_Frames(t *testing.T) {
	t.Parallel()
	replier := &fakeReplier{reply: `{"explanation":"Found one","products":[{"title":"Shirt","discount":10}]}`}
	conn, ctx := dialChat(t, NewChatHandler(replier, quietLogger()))

	pong := roundTrip(t, ctx, conn, `{"type":"ping"}`)
	assert.Equal(t, "pong", pong.Type)

	reply := roundTrip(t, ctx, conn, `{"type":"message","message":"shirts"}`)
	assert.Equal(t, "reply", reply.Type)
	assert.Equal(t, replier.reply, reply.Response)
	require.NotNil(t, reply.Content)
	assert.Equal(t, "Found one", reply.Content.Explanation)
	require.Len(t, reply.Content.Products, 1)
	assert.Equal(t, "10", string(reply.Content.Products[0].Discount))

	bad := roundTrip(t, ctx, conn, `not json`)
	assert.Equal(t, "error", bad.Type)

	empty := roundTrip(t, ctx, conn, `{"type":"message","message":" "}`)
	assert.Equal(t, "error", empty.Type)
	assert.Equal(t, "message must not be empty", empty.Error)

	unknown := roundTrip(t, ctx, conn, `{"type":"resize"}`)
	assert.Equal(t, "unknown frame type", unknown.Error)

	assert.Equal(t, []string{"shirts"}, replier.calls())
}

func TestWebSocket_PlainReplyHasNoContent(t *testing.T) {
	t.Parallel()
	conn, ctx := dialChat(t, NewChatHandler(&fakeReplier{reply: "100 USD = 92.34 EUR"}, quietLogger()))

	reply := roundTrip(t, ctx, conn, `{"type":"message","message":"convert"}`)
	assert.Equal(t, "reply", reply.Type)
	assert.Equal(t, "100 USD = 92.34 EUR", reply.Response)
	assert.Nil(t, reply.Content)
}

func TestOriginHosts(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"localhost:3000", "shop.example.com"},
		originHosts([]string{"http://localhost:3000", " https://shop.example.com ", ""}))
	assert.Equal(t, []string{"*"}, originHosts([]string{"http://a", "*"}))
}
