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
)

// CommentService appends and moderates comments.
type CommentService struct {
	store   *store.Store
	rooms   Broadcaster
	locks   *keylock.Sharded
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewCommentService creates a new comment service.
func NewCommentService(store *store.Store, rooms Broadcaster, locks *keylock.Sharded, m *metrics.Metrics, logger *slog.Logger) *CommentService {
	return &CommentService{
		store:   store,
		rooms:   rooms,
		locks:   locks,
		metrics: m,
		logger:  logger,
	}
}

// Create appends a comment and announces it to viewers and admins.
// A configured webhook URL is logged, never called.
func (s *CommentService) Create(ctx context.Context, instanceID, author, content string) (*domain.Comment, error) {
	unlock := s.locks.Lock(instanceID)
	defer unlock()

	instance, err := s.store.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, translate(err, "create comment")
	}

	comment, err := s.store.AppendComment(ctx, instanceID, author, content)
	if err != nil {
		s.recordFailure(err)
		return nil, translate(err, "create comment")
	}

	s.rooms.Emit(room.NewCommentEvent(comment), room.Both(instanceID)...)
	s.metrics.CommentCreated()

	if instance.HasWebhook() {
		s.logger.Info("webhook notification not sent, outbound delivery is disabled",
			"instance_id", instanceID,
			"comment_id", comment.ID,
			"webhook_url", *instance.WebhookURL,
		)
	}

	return comment, nil
}

// Hide removes a comment from the visible set.
func (s *CommentService) Hide(ctx context.Context, instanceID, commentID string) (*domain.Comment, error) {
	unlock := s.locks.Lock(instanceID)
	defer unlock()

	comment, err := s.store.SetCommentHidden(ctx, instanceID, commentID, true)
	if err != nil {
		s.recordFailure(err)
		return nil, translate(err, "hide comment")
	}

	s.rooms.Emit(room.NewCommentHiddenEvent(commentID), room.Both(instanceID)...)
	s.metrics.CommentModerated("hide")
	return comment, nil
}

// Show returns a hidden comment to the visible set.
func (s *CommentService) Show(ctx context.Context, instanceID, commentID string) (*domain.Comment, error) {
	unlock := s.locks.Lock(instanceID)
	defer unlock()

	comment, err := s.store.SetCommentHidden(ctx, instanceID, commentID, false)
	if err != nil {
		s.recordFailure(err)
		return nil, translate(err, "show comment")
	}

	s.rooms.Emit(room.NewCommentShownEvent(comment), room.Both(instanceID)...)
	s.metrics.CommentModerated("show")
	return comment, nil
}

// ListVisible returns the comments viewers see, in posting order.
func (s *CommentService) ListVisible(ctx context.Context, instanceID string) ([]*domain.Comment, error) {
	comments, err := s.store.ListVisibleComments(ctx, instanceID)
	if err != nil {
		return nil, translate(err, "list comments")
	}
	return comments, nil
}

// ListAll returns every comment including hidden ones, in posting order.
func (s *CommentService) ListAll(ctx context.Context, instanceID string) ([]*domain.Comment, error) {
	comments, err := s.store.ListComments(ctx, instanceID)
	if err != nil {
		return nil, translate(err, "list comments")
	}
	return comments, nil
}

func (s *CommentService) recordFailure(err error) {
	if domainerrors.Is(err, store.ErrInstanceNotFound) || domainerrors.Is(err, store.ErrCommentNotFound) {
		return
	}
	s.metrics.PersistenceError()
	s.logger.Error("comment write failed", "error", err)
}
