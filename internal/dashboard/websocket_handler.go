package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/haesinais/aisdash/internal/websocket"
	"github.com/haesinais/aisdash/pkg/logger"
)

const intentTimeout = 5 * time.Second

// WebSocketHandler applies dashboard intents received over WebSocket and
// streams view snapshots to every connected client
type WebSocketHandler struct {
	home   *Home
	hub    *websocket.Server
	logger *logger.Logger
}

// NewWebSocketHandler creates a new WebSocket message handler
func NewWebSocketHandler(home *Home, hub *websocket.Server, loggerObj *logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		home:   home,
		hub:    hub,
		logger: loggerObj.Named("dashboard-ws-handler"),
	}
}

// ViewMessage wraps a snapshot as a view_update message
func ViewMessage(v ViewState) *websocket.Message {
	return &websocket.Message{
		Type: websocket.MessageTypeViewUpdate,
		Data: map[string]any{"view": v},
	}
}

// HandleMessage handles incoming WebSocket messages
func (h *WebSocketHandler) HandleMessage(client *websocket.Client, messageType string, data map[string]any) error {
	ctx, cancel := context.WithTimeout(context.Background(), intentTimeout)
	defer cancel()

	switch messageType {
	case websocket.MessageTypeViewRequest:
		client.SendMessage(ViewMessage(h.home.View()))
		return nil

	case websocket.MessageTypeSearch:
		term, _ := data["term"].(string)
		_, err := h.home.Search(ctx, term)
		return err

	case websocket.MessageTypeChangePage:
		if direction, ok := data["direction"].(string); ok {
			_, err := h.home.ChangePage(ctx, direction)
			return err
		}
		if page, ok := data["page"].(float64); ok {
			_, err := h.home.GoToPage(ctx, int(page))
			return err
		}
		return fmt.Errorf("change_page needs a direction or a page")

	case websocket.MessageTypeSelect:
		mmsi, err := mmsiFrom(data["mmsi"])
		if err != nil {
			return err
		}
		source, _ := data["source"].(string)
		_, err = h.home.Select(ctx, mmsi, source)
		return err

	default:
		h.logger.Debug("Unhandled message type", logger.String("type", messageType))
		return nil
	}
}

// Stream broadcasts every published snapshot until ctx is cancelled or
// the dashboard stops
func (h *WebSocketHandler) Stream(ctx context.Context) {
	updates, cancel := h.home.Subscribe()
	defer cancel()

	for {
		select {
		case v, ok := <-updates:
			if !ok {
				return
			}
			h.hub.Broadcast(ViewMessage(v))
		case <-ctx.Done():
			return
		}
	}
}

func mmsiFrom(v any) (int64, error) {
	switch m := v.(type) {
	case float64:
		return int64(m), nil
	case string:
		n, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid mmsi %q", m)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("mmsi is required")
	}
}
