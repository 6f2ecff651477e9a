// Package id generates the opaque identifiers used for instances and comments.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for each kind of record.
const (
	PrefixInstance = "inst"
	PrefixComment  = "cmt"
)

// Generate creates a prefixed unique ID using NanoID,
// e.g. "inst-V1StGXR8_Z5jdHi6B-myT".
//
// The NanoID alphabet is URL-safe and never contains ':', so IDs can be
// embedded in store keys and route paths as-is.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// NewInstanceID returns a fresh instance ID.
func NewInstanceID() (string, error) {
	return Generate(PrefixInstance)
}

// NewCommentID returns a fresh comment ID.
func NewCommentID() (string, error) {
	return Generate(PrefixComment)
}
