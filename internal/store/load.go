package store

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-json-experiment/json"

	"github.com/easycomment/easycomment-server/internal/domain"
)

// load reads every record into memory. Records that fail to decode are
// logged and skipped; comments whose instance is gone are dropped and an
// instance without settings gets the default bag.
func (s *Store) load() error {
	type pendingComment struct {
		comment    *domain.Comment
		instanceID string
		seq        uint64
	}

	var (
		pending []pendingComment
		skipped int
	)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)

			val, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read %q: %w", key, err)
			}

			switch {
			case bytes.HasPrefix(key, []byte(instancePrefix)):
				var inst domain.Instance
				if err := json.Unmarshal(val, &inst); err != nil || inst.ID == "" {
					s.logger.Warn("skipping unreadable instance record", "key", string(key), "error", err)
					skipped++
					continue
				}
				s.instances[inst.ID] = &inst

			case bytes.HasPrefix(key, []byte(settingsPrefix)):
				settings := domain.DefaultSettings()
				if err := json.Unmarshal(val, &settings); err != nil {
					s.logger.Warn("skipping unreadable settings record", "key", string(key), "error", err)
					skipped++
					continue
				}
				s.settings[string(key[len(settingsPrefix):])] = &settings

			case bytes.HasPrefix(key, []byte(commentPrefix)):
				instanceID, seq, err := parseCommentKey(key)
				if err != nil {
					s.logger.Warn("skipping comment with malformed key", "key", string(key), "error", err)
					skipped++
					continue
				}
				var c domain.Comment
				if err := json.Unmarshal(val, &c); err != nil || c.ID == "" {
					s.logger.Warn("skipping unreadable comment record", "key", string(key), "error", err)
					skipped++
					continue
				}
				pending = append(pending, pendingComment{comment: &c, instanceID: instanceID, seq: seq})

			default:
				s.logger.Warn("ignoring unknown key", "key", string(key))
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}

	// Badger iterates in key order, but sort anyway so the invariant does
	// not hinge on the hex width of older keys.
	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].instanceID != pending[j].instanceID {
			return pending[i].instanceID < pending[j].instanceID
		}
		return pending[i].seq < pending[j].seq
	})

	for id := range s.instances {
		s.comments[id] = newCommentLog()
	}

	dropped := 0
	for _, p := range pending {
		cl, ok := s.comments[p.instanceID]
		if !ok {
			dropped++
			continue
		}
		p.comment.InstanceID = p.instanceID
		cl.append(p.seq, p.comment)
	}

	for id := range s.settings {
		if _, ok := s.instances[id]; !ok {
			delete(s.settings, id)
			dropped++
		}
	}

	for id := range s.instances {
		if _, ok := s.settings[id]; !ok {
			defaults := domain.DefaultSettings()
			s.settings[id] = &defaults
			s.logger.Warn("instance has no settings record, using defaults", "instance_id", id)
		}
	}

	if skipped > 0 || dropped > 0 {
		s.logger.Warn("database loaded with problems",
			"skipped_records", skipped,
			"orphaned_records", dropped,
		)
	}

	return nil
}
