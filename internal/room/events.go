// Package room fans instance events out to connected realtime clients.
//
// Every instance has two rooms: the viewer room receives the visible comment
// stream, the admin room additionally sees moderated-out comments. Clients
// join rooms through a transport (WebSocket or SSE) and receive events on a
// buffered channel drained by that transport.
package room

import (
	"time"

	"github.com/easycomment/easycomment-server/internal/domain"
)

// EventType names an event on the wire.
type EventType string

const (
	// EventInitialComments carries the visible comments to a viewer that just joined.
	EventInitialComments EventType = "initial_comments"
	// EventInitialAdminComments carries every comment to an admin that just joined.
	EventInitialAdminComments EventType = "initial_admin_comments"
	// EventNewComment announces an appended comment.
	EventNewComment EventType = "new_comment"
	// EventCommentHidden announces a comment leaving the visible set.
	EventCommentHidden EventType = "comment_hidden"
	// EventCommentShown announces a hidden comment returning to the visible set.
	EventCommentShown EventType = "comment_shown"
	// EventSettingsUpdated carries the full settings record.
	EventSettingsUpdated EventType = "settings_updated"
	// EventInstanceDeleted tells clients the instance is gone.
	EventInstanceDeleted EventType = "instance_deleted"
	// EventWebhookReceived relays an inbound webhook body verbatim.
	EventWebhookReceived EventType = "webhook_received"
	// EventError is sent to a single client whose request failed.
	EventError EventType = "error"
	// EventHeartbeat keeps idle connections open.
	EventHeartbeat EventType = "heartbeat"
	// EventConnected greets a freshly registered client.
	EventConnected EventType = "connected"
)

// Event is one message for clients. It marshals to the realtime frame
// {"event": ..., "data": ...}.
type Event struct {
	Type EventType `json:"event"`
	Data any       `json:"data"`
}

// CommentsPayload is the snapshot sent on join.
type CommentsPayload struct {
	Comments []*domain.Comment `json:"comments"`
}

// CommentHiddenPayload identifies the hidden comment.
type CommentHiddenPayload struct {
	CommentID string `json:"comment_id"`
}

// CommentShownPayload carries the comment that became visible again.
type CommentShownPayload struct {
	Comment   *domain.Comment `json:"comment"`
	CommentID string          `json:"comment_id"`
}

// ErrorPayload describes a failed client request.
type ErrorPayload struct {
	Message string `json:"message"`
}

// HeartbeatPayload is the heartbeat body.
type HeartbeatPayload struct {
	Timestamp time.Time `json:"timestamp"`
}

// ConnectedPayload tells a client its id.
type ConnectedPayload struct {
	ClientID string `json:"client_id"`
}

// NewInitialCommentsEvent builds the join snapshot. Admin snapshots use
// their own event name so overlay clients never mistake them for the
// visible list.
func NewInitialCommentsEvent(comments []*domain.Comment, admin bool) Event {
	if comments == nil {
		comments = []*domain.Comment{}
	}
	eventType := EventInitialComments
	if admin {
		eventType = EventInitialAdminComments
	}
	return Event{Type: eventType, Data: CommentsPayload{Comments: comments}}
}

// NewCommentEvent announces an appended comment.
func NewCommentEvent(c *domain.Comment) Event {
	return Event{Type: EventNewComment, Data: c}
}

// NewCommentHiddenEvent announces a hidden comment.
func NewCommentHiddenEvent(commentID string) Event {
	return Event{Type: EventCommentHidden, Data: CommentHiddenPayload{CommentID: commentID}}
}

// NewCommentShownEvent announces a comment shown again.
func NewCommentShownEvent(c *domain.Comment) Event {
	return Event{Type: EventCommentShown, Data: CommentShownPayload{CommentID: c.ID, Comment: c}}
}

// NewSettingsUpdatedEvent carries the full settings record.
func NewSettingsUpdatedEvent(s *domain.Settings) Event {
	return Event{Type: EventSettingsUpdated, Data: s}
}

// NewInstanceDeletedEvent has an empty object body.
func NewInstanceDeletedEvent() Event {
	return Event{Type: EventInstanceDeleted, Data: struct{}{}}
}

// NewWebhookReceivedEvent relays body as given.
func NewWebhookReceivedEvent(body any) Event {
	return Event{Type: EventWebhookReceived, Data: body}
}

// NewErrorEvent builds a client-scoped error.
func NewErrorEvent(message string) Event {
	return Event{Type: EventError, Data: ErrorPayload{Message: message}}
}

// NewHeartbeatEvent creates a heartbeat stamped at now.
func NewHeartbeatEvent(now time.Time) Event {
	return Event{Type: EventHeartbeat, Data: HeartbeatPayload{Timestamp: now}}
}
