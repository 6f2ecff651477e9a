package domain

import "time"

// Comment is a single viewer-submitted message.
// Comments are never removed individually, only hidden and shown again.
type Comment struct {
	Timestamp  time.Time `json:"timestamp"`
	ID         string    `json:"id"`
	InstanceID string    `json:"instance_id"`
	Author     string    `json:"author"`
	Content    string    `json:"content"`
	Approved   bool      `json:"approved"`
	Hidden     bool      `json:"hidden"`
}

// Visible reports whether the comment belongs to the viewer-facing set.
func (c *Comment) Visible() bool {
	return !c.Hidden
}
