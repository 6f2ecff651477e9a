package store

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"github.com/easycomment/easycomment-server/internal/domain"
	"github.com/easycomment/easycomment-server/internal/id"
)

// AppendComment adds a comment at the end of the instance's list.
// New comments are approved and visible.
func (s *Store) AppendComment(_ context.Context, instanceID, author, content string) (*domain.Comment, error) {
	unlock := s.instanceLocks.Lock(instanceID)
	defer unlock()

	s.mu.RLock()
	cl, ok := s.comments[instanceID]
	var seq uint64
	if ok {
		seq = cl.nextSeq
	}
	s.mu.RUnlock()
	if !ok {
		return nil, ErrInstanceNotFound
	}

	commentID, err := id.NewCommentID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate comment id: %w", err)
	}

	comment := &domain.Comment{
		ID:         commentID,
		InstanceID: instanceID,
		Author:     author,
		Content:    content,
		Timestamp:  s.now(),
		Approved:   true,
		Hidden:     false,
	}

	err = s.update(func(txn *badger.Txn) error {
		return setJSON(txn, commentKey(instanceID, seq), comment)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to append comment: %w", err)
	}

	s.mu.Lock()
	cl.append(seq, comment)
	s.mu.Unlock()

	out := *comment
	return &out, nil
}

// SetCommentHidden flips the hidden flag of one comment. Setting the flag to
// its current value writes nothing and returns the comment unchanged.
func (s *Store) SetCommentHidden(_ context.Context, instanceID, commentID string, hidden bool) (*domain.Comment, error) {
	unlock := s.instanceLocks.Lock(instanceID)
	defer unlock()

	s.mu.RLock()
	cl, ok := s.comments[instanceID]
	if !ok {
		s.mu.RUnlock()
		return nil, ErrInstanceNotFound
	}
	idx, found := cl.byID[commentID]
	if !found {
		s.mu.RUnlock()
		return nil, ErrCommentNotFound
	}
	updated := *cl.items[idx]
	seq := cl.seqs[idx]
	s.mu.RUnlock()

	if updated.Hidden == hidden {
		return &updated, nil
	}
	updated.Hidden = hidden

	err := s.update(func(txn *badger.Txn) error {
		return setJSON(txn, commentKey(instanceID, seq), &updated)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	stored := updated
	s.mu.Lock()
	cl.items[idx] = &stored
	s.mu.Unlock()

	return &updated, nil
}

// ListComments returns every comment of the instance, hidden ones included,
// in insertion order.
func (s *Store) ListComments(_ context.Context, instanceID string) ([]*domain.Comment, error) {
	return s.listComments(instanceID, func(*domain.Comment) bool { return true })
}

// ListVisibleComments returns the comments that are not hidden, in insertion order.
func (s *Store) ListVisibleComments(_ context.Context, instanceID string) ([]*domain.Comment, error) {
	return s.listComments(instanceID, (*domain.Comment).Visible)
}

func (s *Store) listComments(instanceID string, keep func(*domain.Comment) bool) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cl, ok := s.comments[instanceID]
	if !ok {
		return nil, ErrInstanceNotFound
	}

	return lo.FilterMap(cl.items, func(c *domain.Comment, _ int) (*domain.Comment, bool) {
		if !keep(c) {
			return nil, false
		}
		out := *c
		return &out, true
	}), nil
}
