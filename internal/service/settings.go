package service

import (
	"context"
	"log/slog"

	"github.com/easycomment/easycomment-server/internal/domain"
	domainerrors "github.com/easycomment/easycomment-server/internal/errors"
	"github.com/easycomment/easycomment-server/internal/keylock"
	"github.com/easycomment/easycomment-server/internal/metrics"
	"github.com/easycomment/easycomment-server/internal/room"
	"github.com/easycomment/easycomment-server/internal/store"
	"github.com/easycomment/easycomment-server/internal/validation"
)

// SettingsService reads and replaces per-instance display settings.
type SettingsService struct {
	store     *store.Store
	rooms     Broadcaster
	locks     *keylock.Sharded
	validator *validation.Validator
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(store *store.Store, rooms Broadcaster, locks *keylock.Sharded, validator *validation.Validator, m *metrics.Metrics, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		store:     store,
		rooms:     rooms,
		locks:     locks,
		validator: validator,
		metrics:   m,
		logger:    logger,
	}
}

// Get returns the instance's settings.
func (s *SettingsService) Get(ctx context.Context, instanceID string) (*domain.Settings, error) {
	settings, err := s.store.GetSettings(ctx, instanceID)
	if err != nil {
		return nil, translate(err, "get settings")
	}
	return settings, nil
}

// Replace validates and stores the whole settings record, then pushes it to
// viewers and admins.
func (s *SettingsService) Replace(ctx context.Context, instanceID string, settings domain.Settings) (*domain.Settings, error) {
	if err := s.validator.Validate(settings); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(instanceID)
	defer unlock()

	saved, err := s.store.ReplaceSettings(ctx, instanceID, settings)
	if err != nil {
		if !domainerrors.Is(err, store.ErrInstanceNotFound) {
			s.metrics.PersistenceError()
			s.logger.Error("settings write failed", "instance_id", instanceID, "error", err)
		}
		return nil, translate(err, "save settings")
	}

	s.rooms.Emit(room.NewSettingsUpdatedEvent(saved), room.Both(instanceID)...)
	s.metrics.SettingsUpdated()
	return saved, nil
}
