package store

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/easycomment/easycomment-server/internal/domain"
)

// GetSettings returns the instance's display settings. An instance that
// somehow has no record reads as the default bag; an unknown instance is
// ErrInstanceNotFound.
func (s *Store) GetSettings(_ context.Context, instanceID string) (*domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.instances[instanceID]; !ok {
		return nil, ErrInstanceNotFound
	}
	settings, ok := s.settings[instanceID]
	if !ok {
		defaults := domain.DefaultSettings()
		return &defaults, nil
	}
	out := *settings
	return &out, nil
}

// ReplaceSettings overwrites the whole settings record of the instance.
func (s *Store) ReplaceSettings(_ context.Context, instanceID string, settings domain.Settings) (*domain.Settings, error) {
	unlock := s.instanceLocks.Lock(instanceID)
	defer unlock()

	s.mu.RLock()
	_, ok := s.instances[instanceID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrInstanceNotFound
	}

	err := s.update(func(txn *badger.Txn) error {
		return setJSON(txn, settingsKey(instanceID), settings)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	stored := settings
	s.mu.Lock()
	s.settings[instanceID] = &stored
	s.mu.Unlock()

	out := settings
	return &out, nil
}
