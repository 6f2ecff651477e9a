package store

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Key layout:
//
//	instance:{instanceID}              -> domain.Instance
//	settings:{instanceID}              -> domain.Settings
//	comment:{instanceID}:{seq}         -> domain.Comment
//
// seq is a zero-padded hex counter so badger's sorted iteration yields
// comments in insertion order.
const (
	instancePrefix = "instance:"
	settingsPrefix = "settings:"
	commentPrefix  = "comment:"

	seqWidth = 16
)

// keyPool provides reusable byte slices for building database keys.
var keyPool = sync.Pool{
	New: func() any {
		return make([]byte, 0, 96)
	},
}

// buildKey constructs a database key from prefix and suffix using a pooled buffer.
// Callers MUST call releaseKey when done with the key.
func buildKey(prefix, suffix string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	buf = append(buf, prefix...)
	buf = append(buf, suffix...)
	return buf
}

// releaseKey returns a key buffer to the pool for reuse.
func releaseKey(key []byte) {
	if cap(key) <= 512 {
		keyPool.Put(key[:0])
	}
}

func instanceKey(id string) []byte { return []byte(instancePrefix + id) }

func settingsKey(id string) []byte { return []byte(settingsPrefix + id) }

// commentKey returns the key of one comment. Not pooled: badger keeps the
// slice until the transaction commits.
func commentKey(instanceID string, seq uint64) []byte {
	return fmt.Appendf(nil, "%s%s:%0*x", commentPrefix, instanceID, seqWidth, seq)
}

// commentInstancePrefix returns the prefix shared by every comment of an instance.
func commentInstancePrefix(instanceID string) []byte {
	return buildKey(commentPrefix, instanceID+":")
}

// parseCommentKey splits a comment key into its instance id and sequence.
func parseCommentKey(key []byte) (string, uint64, error) {
	rest, ok := strings.CutPrefix(string(key), commentPrefix)
	if !ok {
		return "", 0, fmt.Errorf("not a comment key: %q", key)
	}
	idx := strings.LastIndexByte(rest, ':')
	if idx <= 0 {
		return "", 0, fmt.Errorf("malformed comment key: %q", key)
	}
	seq, err := strconv.ParseUint(rest[idx+1:], 16, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed comment sequence in %q: %w", key, err)
	}
	return rest[:idx], seq, nil
}
