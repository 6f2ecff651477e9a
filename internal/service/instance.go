package service

import (
	"context"
	"log/slog"

	"github.com/easycomment/easycomment-server/internal/auth"
	"github.com/easycomment/easycomment-server/internal/domain"
	domainerrors "github.com/easycomment/easycomment-server/internal/errors"
	"github.com/easycomment/easycomment-server/internal/keylock"
	"github.com/easycomment/easycomment-server/internal/metrics"
	"github.com/easycomment/easycomment-server/internal/room"
	"github.com/easycomment/easycomment-server/internal/store"
)

// InstanceService manages the instance registry and admin access.
type InstanceService struct {
	store   *store.Store
	rooms   Broadcaster
	locks   *keylock.Sharded
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewInstanceService creates a new instance service.
func NewInstanceService(store *store.Store, rooms Broadcaster, locks *keylock.Sharded, m *metrics.Metrics, logger *slog.Logger) *InstanceService {
	return &InstanceService{
		store:   store,
		rooms:   rooms,
		locks:   locks,
		metrics: m,
		logger:  logger,
	}
}

// CreateInstanceRequest is the input of Create.
type CreateInstanceRequest struct {
	WebhookURL    *string
	AdminPassword *string
	Name          string
}

// Create registers a new instance with default settings.
func (s *InstanceService) Create(ctx context.Context, req CreateInstanceRequest) (*domain.Instance, error) {
	instance, err := s.store.CreateInstance(ctx, req.Name, req.WebhookURL, req.AdminPassword)
	if err != nil {
		s.metrics.PersistenceError()
		return nil, translate(err, "create instance")
	}
	s.metrics.InstanceCreated()
	return instance, nil
}

// Get returns one instance.
func (s *InstanceService) Get(ctx context.Context, instanceID string) (*domain.Instance, error) {
	instance, err := s.store.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, translate(err, "get instance")
	}
	return instance, nil
}

// List returns every instance, oldest first.
func (s *InstanceService) List(ctx context.Context) ([]*domain.Instance, error) {
	instances, err := s.store.ListInstances(ctx)
	if err != nil {
		return nil, translate(err, "list instances")
	}
	return instances, nil
}

// Delete removes the instance with its comments and settings, tells both
// rooms, then empties them.
func (s *InstanceService) Delete(ctx context.Context, instanceID string) error {
	unlock := s.locks.Lock(instanceID)
	defer unlock()

	if err := s.store.DeleteInstance(ctx, instanceID); err != nil {
		if !domainerrors.Is(err, store.ErrInstanceNotFound) {
			s.metrics.PersistenceError()
		}
		return translate(err, "delete instance")
	}

	viewers := s.rooms.Members(room.Viewer(instanceID))
	admins := s.rooms.Members(room.Admin(instanceID))

	rooms := room.Both(instanceID)
	s.rooms.Emit(room.NewInstanceDeletedEvent(), rooms...)
	s.rooms.Evict(rooms...)
	s.metrics.InstanceDeleted()

	s.logger.Info("instance deleted, live clients released",
		"instance_id", instanceID,
		"viewers", viewers,
		"admins", admins)
	return nil
}

// Authorize returns the instance when header grants admin access to it.
func (s *InstanceService) Authorize(ctx context.Context, instanceID, header string) (*domain.Instance, error) {
	instance, err := s.Get(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if !auth.Authorize(instance, header) {
		s.logger.Info("admin access denied", "instance_id", instanceID)
		return nil, domainerrors.Unauthorized(MsgUnauthorized)
	}
	return instance, nil
}

// AuthStatus reports whether the instance needs a password and whether
// header supplies it. A wrong password is an Unauthorized error, not a
// false result.
func (s *InstanceService) AuthStatus(ctx context.Context, instanceID, header string) (required bool, err error) {
	instance, err := s.Authorize(ctx, instanceID, header)
	if err != nil {
		return false, err
	}
	return instance.RequiresAuth(), nil
}
