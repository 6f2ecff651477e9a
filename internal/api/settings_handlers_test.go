package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easycomment/easycomment-server/internal/domain"
)

func TestGetSettings_Defaults(t *testing.T) {
	ts := setupTestServer(t)
	instance := ts.createInstance(t, map[string]any{"name": "Live"})

	resp := ts.api.Get("/settings/" + instance.ID + "/")

	require.Equal(t, http.StatusOK, resp.Code)
	defaults := domain.DefaultSettings()
	assert.Equal(t, toSettingsBody(&defaults), decode[SettingsBody](t, resp.Body.Bytes()))
}

func TestUpdateSettings_FullReplaceWithDefaults(t *testing.T) {
	ts := setupTestServer(t)
	instance := ts.createInstance(t, map[string]any{"name": "Live"})

	resp := ts.api.Put("/settings/"+instance.ID+"/", map[string]any{
		"background_color": "#123456",
		"font_size":        24,
		"auto_scroll":      false,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	got := decode[SettingsBody](t, ts.api.Get("/settings/"+instance.ID+"/").Body.Bytes())
	assert.Equal(t, "#123456", got.BackgroundColor)
	assert.Equal(t, 24, got.FontSize)
	assert.False(t, got.AutoScroll)
	// Omitted fields fall back to defaults rather than keeping old values.
	assert.Equal(t, "#000000", got.TextColor)
	assert.Equal(t, 30, got.BackgroundOpacity)
	assert.True(t, got.ShowTimestamp)

	resp = ts.api.Put("/settings/"+instance.ID+"/", map[string]any{"text_color": "#FFFFFF"})
	require.Equal(t, http.StatusOK, resp.Code)
	got = decode[SettingsBody](t, ts.api.Get("/settings/"+instance.ID+"/").Body.Bytes())
	assert.Equal(t, "#00FF00", got.BackgroundColor)
	assert.Equal(t, 16, got.FontSize)
	assert.True(t, got.AutoScroll)
}

func TestUpdateSettings_KeepsExplicitZeroValues(t *testing.T) {
	ts := setupTestServer(t)
	instance := ts.createInstance(t, map[string]any{"name": "Live"})

	resp := ts.api.Put("/settings/"+instance.ID+"/", map[string]any{
		"auto_scroll":        false,
		"show_timestamp":     false,
		"moderation_enabled": false,
		"max_comments":       0,
		"background_opacity": 0,
		"text_opacity":       0,
		"lag_seconds":        0,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	put := decode[SettingsBody](t, resp.Body.Bytes())
	got := decode[SettingsBody](t, ts.api.Get("/settings/"+instance.ID+"/").Body.Bytes())
	assert.Equal(t, put, got)

	assert.False(t, got.AutoScroll)
	assert.False(t, got.ShowTimestamp)
	assert.False(t, got.ModerationEnabled)
	assert.Equal(t, 0, got.MaxComments)
	assert.Equal(t, 0, got.BackgroundOpacity)
	assert.Equal(t, 0, got.TextOpacity)
	assert.Equal(t, 0, got.LagSeconds)
	// Fields left out still take their defaults.
	assert.Equal(t, "#00FF00", got.BackgroundColor)
	assert.Equal(t, 16, got.FontSize)
}

func TestUpdateSettings_Invalid(t *testing.T) {
	ts := setupTestServer(t)
	instance := ts.createInstance(t, map[string]any{"name": "Live"})

	resp := ts.api.Put("/settings/"+instance.ID+"/", map[string]any{
		"background_color":   "green",
		"background_opacity": 150,
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	body := decode[map[string]any](t, resp.Body.Bytes())
	assert.Equal(t, "VALIDATION", body["code"])
	details, ok := body["details"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "background_color")
	assert.Contains(t, details, "background_opacity")

	got := decode[SettingsBody](t, ts.api.Get("/settings/"+instance.ID+"/").Body.Bytes())
	assert.Equal(t, "#00FF00", got.BackgroundColor)
}

func TestSettings_UnknownInstance(t *testing.T) {
	ts := setupTestServer(t)

	assert.Equal(t, http.StatusNotFound, ts.api.Get("/settings/missing/").Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Put("/settings/missing/", map[string]any{}).Code)
}

func TestAdminSettings(t *testing.T) {
	ts := setupTestServer(t)
	instance := ts.createInstance(t, map[string]any{"name": "Live", "admin_password": "pw"})

	assert.Equal(t, http.StatusUnauthorized, ts.api.Get("/admin/settings/"+instance.ID+"/").Code)

	resp := ts.api.Get("/admin/settings/"+instance.ID+"/", basicHeader("admin", "pw"))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 400, decode[SettingsBody](t, resp.Body.Bytes()).CommentWidth)
}
