package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easycomment/easycomment-server/internal/domain"
)

const legacyInstances = `{
  "abc": {
    "id": "abc",
    "name": "デモ配信",
    "webhook_url": null,
    "admin_password": "pw",
    "created_at": "2024-05-01T12:34:56.123456+09:00",
    "active": true
  }
}`

const legacyComments = `{
  "abc": [
    {"id": "c1", "instance_id": "abc", "author": "a", "content": "hello", "timestamp": "2024-05-01T12:35:00.000001+09:00", "approved": true, "hidden": false},
    {"id": "c2", "instance_id": "abc", "author": "b", "content": "hidden one", "timestamp": "2024-05-01T12:36:00+09:00", "approved": true, "hidden": true}
  ],
  "gone": [
    {"id": "c3", "instance_id": "gone", "author": "x", "content": "orphan", "timestamp": "2024-05-01T12:36:00+09:00", "approved": true, "hidden": false}
  ]
}`

func writeLegacy(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func TestImportLegacy(t *testing.T) {
	s, dbPath, _ := setupTestStore(t)
	ctx := context.Background()

	dir := writeLegacy(t, map[string]string{
		legacyInstancesFile: legacyInstances,
		legacyCommentsFile:  legacyComments,
		legacySettingsFile:  `{"abc": {"font_size": 30, "text_color": "#FF0000"}}`,
	})

	result, err := s.ImportLegacy(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Instances)
	assert.Equal(t, 2, result.Comments)
	assert.Equal(t, 1, result.Skipped)

	reopened := reopen(t, s, dbPath)

	instance, err := reopened.GetInstance(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "デモ配信", instance.Name)
	assert.True(t, instance.RequiresAuth())
	assert.Nil(t, instance.WebhookURL)

	visible, err := reopened.ListVisibleComments(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "c1", visible[0].ID)

	settings, err := reopened.GetSettings(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 30, settings.FontSize)
	assert.Equal(t, "#FF0000", settings.TextColor)
	// Keys absent from the legacy record keep their defaults.
	assert.Equal(t, domain.DefaultSettings().BackgroundColor, settings.BackgroundColor)
}

func TestImportLegacy_BrokenFileLeavesPartEmpty(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	dir := writeLegacy(t, map[string]string{
		legacyInstancesFile: legacyInstances,
		legacyCommentsFile:  `{"abc": [`,
	})

	result, err := s.ImportLegacy(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Instances)
	assert.Zero(t, result.Comments)

	comments, err := s.ListComments(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, comments)

	settings, err := s.GetSettings(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), *settings)
}

func TestImportLegacy_MissingDirIsEmpty(t *testing.T) {
	s, _, _ := setupTestStore(t)

	result, err := s.ImportLegacy(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Zero(t, result.Instances)
	assert.True(t, s.Empty())
}

func TestImportLegacy_SkipsNonEmptyStore(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	_, err := s.CreateInstance(ctx, "existing", nil, nil)
	require.NoError(t, err)

	dir := writeLegacy(t, map[string]string{legacyInstancesFile: legacyInstances})
	result, err := s.ImportLegacy(ctx, dir)
	require.NoError(t, err)
	assert.Zero(t, result.Instances)

	_, err = s.GetInstance(ctx, "abc")
	assert.ErrorIs(t, err, ErrInstanceNotFound)
}
