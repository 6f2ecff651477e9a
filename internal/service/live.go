package service

import (
	"context"
	"log/slog"

	"github.com/easycomment/easycomment-server/internal/auth"
	"github.com/easycomment/easycomment-server/internal/keylock"
	"github.com/easycomment/easycomment-server/internal/metrics"
	"github.com/easycomment/easycomment-server/internal/room"
	"github.com/easycomment/easycomment-server/internal/store"
)

// LiveService handles realtime join requests.
type LiveService struct {
	store   *store.Store
	rooms   Broadcaster
	locks   *keylock.Sharded
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewLiveService creates a new live service.
func NewLiveService(store *store.Store, rooms Broadcaster, locks *keylock.Sharded, m *metrics.Metrics, logger *slog.Logger) *LiveService {
	return &LiveService{
		store:   store,
		rooms:   rooms,
		locks:   locks,
		metrics: m,
		logger:  logger,
	}
}

// JoinRequest asks for a client to enter one of an instance's rooms.
// Authorization is only consulted for admin joins.
type JoinRequest struct {
	ClientID      string
	InstanceID    string
	Authorization string
	Role          room.Role
}

// Join puts the client in the requested room and sends it the snapshot:
// the comment list for its role followed by the current settings.
// Failures are reported to that client alone as an error event; the
// returned bool tells the transport whether the join succeeded.
func (s *LiveService) Join(ctx context.Context, req JoinRequest) bool {
	role := req.Role
	if role != room.RoleAdmin {
		role = room.RoleViewer
	}

	logger := s.logger.With("client_id", req.ClientID, "instance_id", req.InstanceID, "role", string(role))

	unlock := s.locks.Lock(req.InstanceID)
	defer unlock()

	instance, err := s.store.GetInstance(ctx, req.InstanceID)
	if err != nil {
		logger.Warn("join rejected, instance not found")
		s.fail(req.ClientID, role, "not_found", MsgInstanceNotFound)
		return false
	}

	if role == room.RoleAdmin && !auth.Authorize(instance, req.Authorization) {
		logger.Warn("admin join rejected, bad credentials")
		s.fail(req.ClientID, role, "unauthorized", MsgUnauthorized)
		return false
	}

	var (
		snapshot room.Event
		failMsg  = "Failed to join instance"
	)
	if role == room.RoleAdmin {
		failMsg = "Failed to join admin instance"
		all, err := s.store.ListComments(ctx, req.InstanceID)
		if err != nil {
			logger.Error("failed to load admin snapshot", "error", err)
			s.fail(req.ClientID, role, "error", failMsg)
			return false
		}
		snapshot = room.NewInitialCommentsEvent(all, true)
	} else {
		visible, err := s.store.ListVisibleComments(ctx, req.InstanceID)
		if err != nil {
			logger.Error("failed to load snapshot", "error", err)
			s.fail(req.ClientID, role, "error", failMsg)
			return false
		}
		snapshot = room.NewInitialCommentsEvent(visible, false)
	}

	settings, err := s.store.GetSettings(ctx, req.InstanceID)
	if err != nil {
		logger.Error("failed to load settings for snapshot", "error", err)
		s.fail(req.ClientID, role, "error", failMsg)
		return false
	}

	if err := s.rooms.Join(req.ClientID, room.Name(role, req.InstanceID)); err != nil {
		logger.Info("join abandoned, client gone", "error", err)
		s.metrics.Join(string(role), "gone")
		return false
	}
	if err := s.rooms.Send(req.ClientID, snapshot); err != nil {
		return false
	}
	if err := s.rooms.Send(req.ClientID, room.NewSettingsUpdatedEvent(settings)); err != nil {
		return false
	}

	s.metrics.Join(string(role), "ok")
	logger.Info("client joined instance")
	return true
}

func (s *LiveService) fail(clientID string, role room.Role, result, message string) {
	s.metrics.Join(string(role), result)
	// The client may already be gone; nothing else to tell.
	_ = s.rooms.Send(clientID, room.NewErrorEvent(message))
}
