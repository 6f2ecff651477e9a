// Package sse streams room events to clients that cannot hold a WebSocket,
// such as overlay browser sources behind restrictive proxies.
package sse

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-json-experiment/json"

	"github.com/easycomment/easycomment-server/internal/room"
	"github.com/easycomment/easycomment-server/internal/service"
)

// Transport is the label rooms and metrics use for these clients.
const Transport = "sse"

const writeTimeout = 60 * time.Second

// Joiner performs join requests. *service.LiveService implements it.
type Joiner interface {
	Join(ctx context.Context, req service.JoinRequest) bool
}

// Handler streams one instance room at GET /stream/{id}/ (viewer) or
// GET /admin/stream/{id}/ (admin).
type Handler struct {
	rooms  *room.Manager
	joiner Joiner
	logger *slog.Logger
	role   room.Role
}

// NewHandler creates an SSE handler for rooms of the given role.
func NewHandler(rooms *room.Manager, joiner Joiner, role room.Role, logger *slog.Logger) *Handler {
	return &Handler{
		rooms:  rooms,
		joiner: joiner,
		logger: logger,
		role:   role,
	}
}

// ServeHTTP handles the SSE connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.Context().Err() != nil {
		return
	}

	instanceID := chi.URLParam(r, "id")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		h.logger.Error("failed to flush headers", slog.String("error", err.Error()))
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	if err := rc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		h.logger.Debug("failed to set write deadline", slog.String("error", err.Error()))
	}

	client, err := h.rooms.Connect(Transport)
	if err != nil {
		http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.rooms.Disconnect(client.ID)

	clientLogger := h.logger.With(
		slog.String("client_id", client.ID),
		slog.String("instance_id", instanceID),
		slog.String("role", string(h.role)))

	joined := h.joiner.Join(r.Context(), service.JoinRequest{
		ClientID:      client.ID,
		InstanceID:    instanceID,
		Role:          h.role,
		Authorization: r.Header.Get("Authorization"),
	})
	if !joined {
		// Deliver the queued error event, then end the stream.
		for {
			select {
			case event := <-client.Events:
				if err := h.sendEvent(w, rc, event); err != nil {
					return
				}
			default:
				return
			}
		}
	}

	ctx := r.Context()
	for {
		select {
		case event := <-client.Events:
			if err := h.sendEvent(w, rc, event); err != nil {
				clientLogger.Info("client disconnected during send")
				return
			}
			if event.Type == room.EventInstanceDeleted {
				return
			}

		case <-client.Done:
			clientLogger.Info("client closed by room manager")
			return

		case <-ctx.Done():
			clientLogger.Debug("client context canceled")
			return
		}
	}
}

// sendEvent writes one SSE frame and flushes it.
func (h *Handler) sendEvent(w http.ResponseWriter, rc *http.ResponseController, event room.Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}

	if err := rc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		h.logger.Debug("failed to set write deadline", slog.String("error", err.Error()))
	}
	return nil
}
