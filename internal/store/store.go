// Package store holds instances, comments and display settings in memory
// and commits every mutation to BadgerDB before it becomes visible.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-json-experiment/json"
	"github.com/jonboulle/clockwork"

	"github.com/easycomment/easycomment-server/internal/domain"
	"github.com/easycomment/easycomment-server/internal/keylock"
)

// Store wraps a Badger database and the in-memory view loaded from it.
type Store struct {
	db       *badger.DB
	logger   *slog.Logger
	clock    clockwork.Clock
	location *time.Location

	// Serializes mutations of a single instance so the durable order of
	// writes matches the in-memory order.
	instanceLocks *keylock.Sharded

	mu        sync.RWMutex
	closed    bool
	instances map[string]*domain.Instance
	settings  map[string]*domain.Settings
	comments  map[string]*commentLog
}

// commentLog is the ordered comment list of one instance.
type commentLog struct {
	items   []*domain.Comment
	seqs    []uint64
	byID    map[string]int
	nextSeq uint64
}

func newCommentLog() *commentLog {
	return &commentLog{byID: make(map[string]int)}
}

func (l *commentLog) append(seq uint64, c *domain.Comment) {
	l.byID[c.ID] = len(l.items)
	l.items = append(l.items, c)
	l.seqs = append(l.seqs, seq)
	if seq >= l.nextSeq {
		l.nextSeq = seq + 1
	}
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for instance and comment timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// WithLocation sets the time zone timestamps are recorded in.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.location = loc
		}
	}
}

// New opens the Badger database at path and loads its contents.
// An empty path opens an in-memory database.
func New(path string, logger *slog.Logger, opts ...Option) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	badgerOpts := badger.DefaultOptions(path)
	badgerOpts.Logger = nil
	if path == "" {
		badgerOpts = badgerOpts.WithInMemory(true)
	} else {
		badgerOpts.SyncWrites = true
		badgerOpts.CompactL0OnClose = true
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:            db,
		logger:        logger,
		clock:         clockwork.NewRealClock(),
		location:      time.UTC,
		instanceLocks: keylock.New(keylock.DefaultShards),
		instances:     make(map[string]*domain.Instance),
		settings:      make(map[string]*domain.Settings),
		comments:      make(map[string]*commentLog),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("Badger database opened successfully",
		"path", path,
		"in_memory", path == "",
		"instances", len(s.instances),
	)

	return s, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.logger.Info("Closing database connection")
	return s.db.Close()
}

// Ping checks that the database is open and can serve a read transaction.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		it.Rewind()
		return nil
	})
}

// Stats reports the number of instances and comments held.
func (s *Store) Stats() (instances, comments int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cl := range s.comments {
		comments += len(cl.items)
	}
	return len(s.instances), comments
}

// Empty reports whether the store holds no instances.
func (s *Store) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.instances) == 0
}

// now returns the current time in the configured location.
func (s *Store) now() time.Time {
	return s.clock.Now().In(s.location)
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// update runs fn in a read-write transaction and commits it durably.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.db.Update(fn); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

// setJSON encodes value and stages it under key.
func setJSON(txn *badger.Txn, key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return txn.Set(key, data)
}

// deleteInstanceRecords removes the instance, its settings and every key
// under its comment prefix, including records load skipped. Deleting more
// keys than one transaction holds splits the work; the instance key goes
// first so a partial delete still loads without orphans.
func (s *Store) deleteInstanceRecords(instanceID string) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	commentKeys, err := s.commentKeys(instanceID)
	if err != nil {
		return 0, err
	}

	txn := s.db.NewTransaction(true)
	defer func() { txn.Discard() }()

	stage := func(key []byte) error {
		err := txn.Delete(key)
		if errors.Is(err, badger.ErrTxnTooBig) {
			if err := txn.Commit(); err != nil {
				return err
			}
			txn = s.db.NewTransaction(true)
			return txn.Delete(key)
		}
		return err
	}

	if err := stage(instanceKey(instanceID)); err != nil {
		return 0, fmt.Errorf("commit failed: %w", err)
	}
	if err := stage(settingsKey(instanceID)); err != nil {
		return 0, fmt.Errorf("commit failed: %w", err)
	}
	for _, key := range commentKeys {
		if err := stage(key); err != nil {
			return 0, fmt.Errorf("commit failed: %w", err)
		}
	}
	if err := txn.Commit(); err != nil {
		return 0, fmt.Errorf("commit failed: %w", err)
	}
	return len(commentKeys), nil
}

// commentKeys lists every stored key under the instance's comment prefix.
func (s *Store) commentKeys(instanceID string) ([][]byte, error) {
	prefix := commentInstancePrefix(instanceID)
	defer releaseKey(prefix)

	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan comments: %w", err)
	}
	return keys, nil
}
