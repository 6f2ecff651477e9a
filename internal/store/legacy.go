package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-json-experiment/json"

	"github.com/easycomment/easycomment-server/internal/domain"
)

// Legacy file names inside the data directory of the JSON-file deployment.
const (
	legacyInstancesFile = "instances.json"
	legacyCommentsFile  = "comments.json"
	legacySettingsFile  = "settings.json"
)

// LegacyImport summarizes an import of the JSON-file layout.
type LegacyImport struct {
	Instances int
	Comments  int
	Skipped   int
}

// ImportLegacy loads instances.json, comments.json and settings.json from dir
// into an empty store. A missing file counts as empty; a file that fails to
// parse is logged and treated as empty. It is a no-op on a store that
// already holds instances.
func (s *Store) ImportLegacy(ctx context.Context, dir string) (LegacyImport, error) {
	var result LegacyImport

	if !s.Empty() {
		s.logger.Info("Skipping legacy import, database is not empty", "dir", dir)
		return result, nil
	}

	instances := readLegacyFile[map[string]domain.Instance](s.logger, dir, legacyInstancesFile)
	comments := readLegacyFile[map[string][]domain.Comment](s.logger, dir, legacyCommentsFile)
	settings := readLegacyFile[map[string]json.RawValue](s.logger, dir, legacySettingsFile)

	if err := s.checkOpen(); err != nil {
		return result, err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	loaded := make(map[string]*commentLog, len(instances))
	loadedInstances := make(map[string]*domain.Instance, len(instances))
	loadedSettings := make(map[string]*domain.Settings, len(instances))

	for key, inst := range instances {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if inst.ID == "" {
			inst.ID = key
		}

		bag := domain.DefaultSettings()
		if raw, ok := settings[key]; ok {
			if err := json.Unmarshal(raw, &bag); err != nil {
				s.logger.Warn("legacy settings unreadable, using defaults", "instance_id", key, "error", err)
				bag = domain.DefaultSettings()
			}
		}

		if err := setBatchJSON(wb, instanceKey(inst.ID), &inst); err != nil {
			return result, err
		}
		if err := setBatchJSON(wb, settingsKey(inst.ID), bag); err != nil {
			return result, err
		}

		cl := newCommentLog()
		for i := range comments[key] {
			c := comments[key][i]
			if c.ID == "" {
				result.Skipped++
				continue
			}
			c.InstanceID = inst.ID
			seq := cl.nextSeq
			if err := setBatchJSON(wb, commentKey(inst.ID, seq), &c); err != nil {
				return result, err
			}
			cl.append(seq, &c)
		}

		stored := inst
		loadedInstances[inst.ID] = &stored
		loadedSettings[inst.ID] = &bag
		loaded[inst.ID] = cl
		result.Instances++
		result.Comments += len(cl.items)
	}

	for key, list := range comments {
		if _, ok := instances[key]; !ok {
			result.Skipped += len(list)
		}
	}

	if err := wb.Flush(); err != nil {
		return LegacyImport{}, fmt.Errorf("failed to commit legacy import: %w", err)
	}

	s.mu.Lock()
	for instanceID, inst := range loadedInstances {
		s.instances[instanceID] = inst
		s.settings[instanceID] = loadedSettings[instanceID]
		s.comments[instanceID] = loaded[instanceID]
	}
	s.mu.Unlock()

	s.logger.Info("Legacy data imported",
		"dir", dir,
		"instances", result.Instances,
		"comments", result.Comments,
		"skipped", result.Skipped,
	)

	return result, nil
}

// readLegacyFile decodes one legacy file, returning the zero value when the
// file is absent or unreadable.
func readLegacyFile[T any](logger *slog.Logger, dir, name string) T {
	var out T

	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return out
	}
	if err != nil {
		logger.Error("failed to read legacy file", "path", path, "error", err)
		return out
	}
	if err := json.Unmarshal(data, &out); err != nil {
		logger.Error("failed to parse legacy file", "path", path, "error", err)
		var zero T
		return zero
	}
	return out
}

type batchSetter interface {
	Set(key, val []byte) error
}

func setBatchJSON(wb batchSetter, key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return wb.Set(key, data)
}
