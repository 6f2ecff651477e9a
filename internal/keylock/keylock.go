// Package keylock provides a fixed set of mutexes selected by key hash, so
// work on one instance serializes without blocking unrelated instances.
package keylock

import (
	"hash/maphash"
	"sync"
)

// DefaultShards is used when New is given a non-positive shard count.
const DefaultShards = 64

// Sharded maps keys onto a fixed pool of mutexes.
// Two keys may share a shard; a key never moves between shards.
type Sharded struct {
	seed   maphash.Seed
	shards []sync.Mutex
}

// New creates a Sharded lock with n shards.
func New(n int) *Sharded {
	if n <= 0 {
		n = DefaultShards
	}
	return &Sharded{
		seed:   maphash.MakeSeed(),
		shards: make([]sync.Mutex, n),
	}
}

// Lock acquires the mutex for key and returns the matching unlock function.
//
//	unlock := locks.Lock(instanceID)
//	defer unlock()
func (s *Sharded) Lock(key string) func() {
	mu := &s.shards[maphash.String(s.seed, key)%uint64(len(s.shards))]
	mu.Lock()
	return mu.Unlock
}
