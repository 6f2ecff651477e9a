package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/")

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "TSG Comment API", decode[MessageResponse](t, resp.Body.Bytes()).Message)
}

func TestCreateInstance(t *testing.T) {
	ts := setupTestServer(t)

	instance := ts.createInstance(t, map[string]any{
		"name":           "Live",
		"webhook_url":    "https://hooks.example/x",
		"admin_password": "secret",
	})

	assert.NotEmpty(t, instance.ID)
	assert.Equal(t, "Live", instance.Name)
	assert.True(t, instance.Active)
	require.NotNil(t, instance.AdminPassword)
	assert.Equal(t, "secret", *instance.AdminPassword)
	require.NotNil(t, instance.WebhookURL)
	assert.Equal(t, "https://hooks.example/x", *instance.WebhookURL)
}

func TestCreateInstance_MissingName(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/instances/", map[string]any{})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	body := decode[map[string]any](t, resp.Body.Bytes())
	assert.Equal(t, "VALIDATION", body["code"])
}

func TestGetInstance_HidesPassword(t *testing.T) {
	ts := setupTestServer(t)
	created := ts.createInstance(t, map[string]any{"name": "Live", "admin_password": "secret"})

	resp := ts.api.Get("/instances/" + created.ID + "/")

	require.Equal(t, http.StatusOK, resp.Code)
	instance := decode[InstanceResponse](t, resp.Body.Bytes())
	assert.Equal(t, created.ID, instance.ID)
	assert.Nil(t, instance.AdminPassword)
}

func TestGetInstance_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/instances/missing/")

	assert.Equal(t, http.StatusNotFound, resp.Code)
	body := decode[map[string]any](t, resp.Body.Bytes())
	assert.Equal(t, "Instance not found", body["detail"])
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestListInstances(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/instances/")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, "[]", resp.Body.String())

	first := ts.createInstance(t, map[string]any{"name": "One"})
	ts.clock.Advance(1)
	second := ts.createInstance(t, map[string]any{"name": "Two"})

	resp = ts.api.Get("/instances/")
	require.Equal(t, http.StatusOK, resp.Code)
	instances := decode[[]InstanceResponse](t, resp.Body.Bytes())
	require.Len(t, instances, 2)
	assert.Equal(t, first.ID, instances[0].ID)
	assert.Equal(t, second.ID, instances[1].ID)
}

func TestDeleteInstance_RemovesEverything(t *testing.T) {
	ts := setupTestServer(t)
	instance := ts.createInstance(t, map[string]any{"name": "Live"})
	ts.postComment(t, instance.ID, "a", "hello")

	resp := ts.api.Delete("/instances/" + instance.ID + "/")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Instance deleted successfully", decode[MessageResponse](t, resp.Body.Bytes()).Message)

	assert.Equal(t, http.StatusNotFound, ts.api.Get("/instances/"+instance.ID+"/").Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Get("/comments/"+instance.ID+"/").Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Get("/settings/"+instance.ID+"/").Code)

	instances, comments := ts.store.Stats()
	assert.Zero(t, instances)
	assert.Zero(t, comments)
}

func TestDeleteInstance_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	assert.Equal(t, http.StatusNotFound, ts.api.Delete("/instances/missing/").Code)
}
