package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haesinais/aisdash/pkg/logger"
)

type recordingHandler struct {
	seen chan Message
}

func (h *recordingHandler) HandleMessage(client *Client, messageType string, data map[string]any) error {
	h.seen <- Message{Type: messageType, Data: data}
	if messageType == "fail" {
		return errors.New("rejected")
	}
	return nil
}

func startServer(t *testing.T) (*Server, *recordingHandler, string, context.CancelFunc) {
	t.Helper()
	s := NewServer(logger.NewNop())
	h := &recordingHandler{seen: make(chan Message, 8)}
	s.SetMessageHandler(h)

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(s.HandleConnection))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return s, h, "ws" + strings.TrimPrefix(srv.URL, "http"), cancel
}

func dial(t *testing.T, url string) *gorillaws.Conn {
	t.Helper()
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *gorillaws.Conn) Message {
	t.Helper()
	var m Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

func TestBroadcastReachesClients(t *testing.T) {
	s, _, url, _ := startServer(t)
	a := dial(t, url)
	b := dial(t, url)
	require.Eventually(t, func() bool { return s.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	s.Broadcast(&Message{Type: MessageTypeViewUpdate, Data: map[string]any{"version": 3}})

	for _, conn := range []*gorillaws.Conn{a, b} {
		m := readMessage(t, conn)
		assert.Equal(t, MessageTypeViewUpdate, m.Type)
		assert.Equal(t, 3.0, m.Data["version"])
	}
}

func TestIncomingMessagesReachHandler(t *testing.T) {
	_, h, url, _ := startServer(t)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(Message{Type: MessageTypeSearch, Data: map[string]any{"term": "440"}}))
	select {
	case m := <-h.seen:
		assert.Equal(t, MessageTypeSearch, m.Type)
		assert.Equal(t, "440", m.Data["term"])
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}

	require.NoError(t, conn.WriteJSON(Message{Type: "fail"}))
	<-h.seen
	m := readMessage(t, conn)
	assert.Equal(t, MessageTypeError, m.Type)
	assert.Equal(t, "rejected", m.Data["message"])

	require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte("{not json")))
	m = readMessage(t, conn)
	assert.Equal(t, MessageTypeError, m.Type)
}

func TestClientDisconnectUnregisters(t *testing.T) {
	s, _, url, _ := startServer(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return s.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestShutdownClosesClients(t *testing.T) {
	s, _, url, cancel := startServer(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, gorillaws.IsCloseError(err, gorillaws.CloseNormalClosure), "got %v", err)

	// Broadcast after shutdown must not block
	done := make(chan struct{})
	go func() {
		for range 32 {
			s.Broadcast(&Message{Type: MessageTypeViewUpdate})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked after shutdown")
	}
}
