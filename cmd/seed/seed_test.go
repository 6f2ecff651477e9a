package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeeder_Run(t *testing.T) {
	var (
		mu       sync.Mutex
		instance map[string]any
		comments []createCommentRequest
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/instances/":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&instance))
			_, _ = w.Write([]byte(`{"id":"inst-1","name":"デモ配信"}`))
		case "/comments/":
			var c createCommentRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&c))
			comments = append(comments, c)
			_ = json.NewEncoder(w).Encode(commentResponse{ID: "c", Author: c.Author, Content: c.Content})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var out bytes.Buffer
	s := &Seeder{
		API:        srv.URL,
		Frontend:   "http://localhost:3000",
		Name:       "デモ配信",
		WebhookURL: "https://example.com/webhook",
		Out:        &out,
	}
	require.NoError(t, s.Run())

	assert.Equal(t, "デモ配信", instance["name"])
	assert.Equal(t, "https://example.com/webhook", instance["webhook_url"])
	assert.NotContains(t, instance, "admin_password")

	require.Len(t, comments, len(demoComments))
	for i, c := range comments {
		assert.Equal(t, "inst-1", c.InstanceID)
		assert.Equal(t, demoComments[i].Author, c.Author)
	}

	assert.Contains(t, out.String(), "http://localhost:3000/display/inst-1")
	assert.Contains(t, out.String(), "http://localhost:3000/admin/inst-1")
}

func TestSeeder_Run_InstanceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := &Seeder{API: srv.URL, Out: &bytes.Buffer{}}
	err := s.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create instance")
}
