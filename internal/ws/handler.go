// Package ws carries room events over WebSocket connections.
//
// Frames in both directions are JSON objects {"event": name, "data": payload}.
// Clients send join_instance {instance_id} or join_admin_instance
// {instance_id, authorization}; everything else they receive is a room event.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/easycomment/easycomment-server/internal/room"
	"github.com/easycomment/easycomment-server/internal/service"
)

const (
	writeDeadline  = 10 * time.Second
	pingInterval   = 30 * time.Second
	pongDeadline   = 70 * time.Second
	maxMessageSize = 16 << 10

	// Transport is the label rooms and metrics use for these clients.
	Transport = "websocket"
)

// Client event names.
const (
	EventJoinInstance      = "join_instance"
	EventJoinAdminInstance = "join_admin_instance"
)

// Joiner performs join requests. *service.LiveService implements it.
type Joiner interface {
	Join(ctx context.Context, req service.JoinRequest) bool
}

// Handler upgrades requests at GET /ws and serves one client per connection.
type Handler struct {
	rooms    *room.Manager
	joiner   Joiner
	clock    clockwork.Clock
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a WebSocket handler. allowedOrigins follows the CORS
// list; "*" or an empty list accepts any origin.
func NewHandler(rooms *room.Manager, joiner Joiner, allowedOrigins []string, clock clockwork.Clock, logger *slog.Logger) *Handler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	h := &Handler{
		rooms:  rooms,
		joiner: joiner,
		clock:  clock,
		logger: logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(allowedOrigins, r.Header.Get("Origin"))
		},
	}
	return h
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" || len(allowed) == 0 {
		return true
	}
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}

// clientFrame is a message received from a client.
type clientFrame struct {
	Event string        `json:"event"`
	Data  json.RawValue `json:"data"`
}

// joinData is the payload of both join events.
type joinData struct {
	InstanceID    string `json:"instance_id"`
	Authorization string `json:"authorization"`
}

// ServeHTTP handles the WebSocket connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error.
		h.logger.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client, err := h.rooms.Connect(Transport)
	if err != nil {
		closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		_ = conn.WriteControl(websocket.CloseMessage, closeMsg, h.clock.Now().Add(writeDeadline))
		_ = conn.Close()
		return
	}

	logger := h.logger.With(slog.String("client_id", client.ID))
	writer := newConnWriter(conn, client, h.clock, logger)
	_ = h.rooms.Send(client.ID, room.Event{Type: room.EventConnected, Data: room.ConnectedPayload{ClientID: client.ID}})

	h.readLoop(r, conn, client, logger)

	h.rooms.Disconnect(client.ID)
	writer.wait()
}

// readLoop dispatches client frames until the connection fails.
func (h *Handler) readLoop(r *http.Request, conn *websocket.Conn, client *room.Client, logger *slog.Logger) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(h.clock.Now().Add(pongDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(h.clock.Now().Add(pongDeadline))
	})

	headerAuth := r.Header.Get("Authorization")

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logger.Info("websocket closed unexpectedly", slog.String("error", err.Error()))
			}
			return
		}
		_ = conn.SetReadDeadline(h.clock.Now().Add(pongDeadline))

		var frame clientFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			_ = h.rooms.Send(client.ID, room.NewErrorEvent("Malformed message"))
			continue
		}

		var role room.Role
		switch frame.Event {
		case EventJoinInstance:
			role = room.RoleViewer
		case EventJoinAdminInstance:
			role = room.RoleAdmin
		default:
			_ = h.rooms.Send(client.ID, room.NewErrorEvent("Unknown event: "+frame.Event))
			continue
		}

		var data joinData
		if len(frame.Data) > 0 {
			if err := json.Unmarshal(frame.Data, &data); err != nil {
				_ = h.rooms.Send(client.ID, room.NewErrorEvent("Malformed message"))
				continue
			}
		}

		authorization := data.Authorization
		if authorization == "" {
			authorization = headerAuth
		}

		h.joiner.Join(r.Context(), service.JoinRequest{
			ClientID:      client.ID,
			InstanceID:    data.InstanceID,
			Role:          role,
			Authorization: authorization,
		})
	}
}
