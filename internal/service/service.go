// Package service applies instance, comment and settings mutations and
// broadcasts them to the instance rooms.
//
// Every mutation of one instance runs under that instance's lock:
// validate, commit to the store, emit, release. Joins take the same lock
// while they register membership and queue the snapshot, so a joining
// client sees each change exactly once, either in its snapshot or as an
// event after it.
package service

import (
	"errors"
	"fmt"

	domainerrors "github.com/easycomment/easycomment-server/internal/errors"
	"github.com/easycomment/easycomment-server/internal/room"
	"github.com/easycomment/easycomment-server/internal/store"
)

// Broadcaster delivers room events. *room.Manager implements it.
type Broadcaster interface {
	Emit(event room.Event, rooms ...string) int
	Send(clientID string, event room.Event) error
	Join(clientID, room string) error
	Evict(rooms ...string)
	Members(room string) int
}

// Messages shared by the API and realtime error events.
const (
	MsgInstanceNotFound = "Instance not found"
	MsgCommentNotFound  = "Comment not found"
	MsgUnauthorized     = "Unauthorized"
)

// translate maps store errors onto the domain error taxonomy.
func translate(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrInstanceNotFound):
		return domainerrors.NotFound(MsgInstanceNotFound).WithCause(err)
	case errors.Is(err, store.ErrCommentNotFound):
		return domainerrors.NotFound(MsgCommentNotFound).WithCause(err)
	default:
		return domainerrors.Internal(fmt.Sprintf("failed to %s", action)).WithCause(err)
	}
}
