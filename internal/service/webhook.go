package service

import (
	"context"
	"log/slog"

	"github.com/easycomment/easycomment-server/internal/keylock"
	"github.com/easycomment/easycomment-server/internal/metrics"
	"github.com/easycomment/easycomment-server/internal/room"
	"github.com/easycomment/easycomment-server/internal/store"
)

// WebhookService relays inbound webhook bodies to an instance's viewers.
type WebhookService struct {
	store   *store.Store
	rooms   Broadcaster
	locks   *keylock.Sharded
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewWebhookService creates a new webhook service.
func NewWebhookService(store *store.Store, rooms Broadcaster, locks *keylock.Sharded, m *metrics.Metrics, logger *slog.Logger) *WebhookService {
	return &WebhookService{
		store:   store,
		rooms:   rooms,
		locks:   locks,
		metrics: m,
		logger:  logger,
	}
}

// Relay emits body unchanged to the viewer room. Nothing is stored.
func (s *WebhookService) Relay(ctx context.Context, instanceID string, body map[string]any) error {
	unlock := s.locks.Lock(instanceID)
	defer unlock()

	if _, err := s.store.GetInstance(ctx, instanceID); err != nil {
		return translate(err, "relay webhook")
	}

	if body == nil {
		body = map[string]any{}
	}

	s.logger.Info("webhook received", "instance_id", instanceID, "keys", len(body))
	s.rooms.Emit(room.NewWebhookReceivedEvent(body), room.Viewer(instanceID))
	s.metrics.WebhookReceived()
	return nil
}
