package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/easycomment/easycomment-server/internal/domain"
	"github.com/easycomment/easycomment-server/internal/id"
)

const maxIDAttempts = 5

// CreateInstance registers a new instance with an empty comment list and the
// default settings bag. Both records are committed in one transaction.
func (s *Store) CreateInstance(_ context.Context, name string, webhookURL, adminPassword *string) (*domain.Instance, error) {
	instanceID, err := s.freshInstanceID()
	if err != nil {
		return nil, err
	}

	unlock := s.instanceLocks.Lock(instanceID)
	defer unlock()

	instance := &domain.Instance{
		ID:            instanceID,
		Name:          name,
		WebhookURL:    cloneString(webhookURL),
		AdminPassword: cloneString(adminPassword),
		CreatedAt:     s.now(),
		Active:        true,
	}
	settings := domain.DefaultSettings()

	err = s.update(func(txn *badger.Txn) error {
		if err := setJSON(txn, instanceKey(instance.ID), instance); err != nil {
			return err
		}
		return setJSON(txn, settingsKey(instance.ID), settings)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create instance: %w", err)
	}

	s.mu.Lock()
	s.instances[instance.ID] = instance
	s.settings[instance.ID] = &settings
	s.comments[instance.ID] = newCommentLog()
	s.mu.Unlock()

	s.logger.Info("Instance created",
		"instance_id", instance.ID,
		"name", instance.Name,
		"auth_required", instance.RequiresAuth(),
	)

	return cloneInstance(instance), nil
}

// freshInstanceID draws ids until one is unused.
func (s *Store) freshInstanceID() (string, error) {
	for range maxIDAttempts {
		candidate, err := id.NewInstanceID()
		if err != nil {
			return "", fmt.Errorf("failed to generate instance id: %w", err)
		}
		s.mu.RLock()
		_, taken := s.instances[candidate]
		s.mu.RUnlock()
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique instance id after %d attempts", maxIDAttempts)
}

// GetInstance returns a copy of the instance or ErrInstanceNotFound.
func (s *Store) GetInstance(_ context.Context, instanceID string) (*domain.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	instance, ok := s.instances[instanceID]
	if !ok {
		return nil, ErrInstanceNotFound
	}
	return cloneInstance(instance), nil
}

// ListInstances returns every instance ordered by creation time.
func (s *Store) ListInstances(_ context.Context) ([]*domain.Instance, error) {
	s.mu.RLock()
	out := make([]*domain.Instance, 0, len(s.instances))
	for _, instance := range s.instances {
		out = append(out, cloneInstance(instance))
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *domain.Instance) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// DeleteInstance removes the instance together with its comments and settings.
func (s *Store) DeleteInstance(_ context.Context, instanceID string) error {
	unlock := s.instanceLocks.Lock(instanceID)
	defer unlock()

	s.mu.RLock()
	_, ok := s.instances[instanceID]
	s.mu.RUnlock()
	if !ok {
		return ErrInstanceNotFound
	}

	removed, err := s.deleteInstanceRecords(instanceID)
	if err != nil {
		return fmt.Errorf("failed to delete instance: %w", err)
	}

	s.mu.Lock()
	delete(s.instances, instanceID)
	delete(s.settings, instanceID)
	delete(s.comments, instanceID)
	s.mu.Unlock()

	s.logger.Info("Instance deleted", "instance_id", instanceID, "comments_removed", removed)
	return nil
}

func cloneInstance(in *domain.Instance) *domain.Instance {
	out := *in
	out.WebhookURL = cloneString(in.WebhookURL)
	out.AdminPassword = cloneString(in.AdminPassword)
	return &out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
