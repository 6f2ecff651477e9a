package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/easycomment/easycomment-server/internal/keylock"
	"github.com/easycomment/easycomment-server/internal/metrics"
	"github.com/easycomment/easycomment-server/internal/room"
	"github.com/easycomment/easycomment-server/internal/service"
	"github.com/easycomment/easycomment-server/internal/store"
	"github.com/easycomment/easycomment-server/internal/validation"
)

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api   humatest.TestAPI
	clock *clockwork.FakeClock
}

// setupTestServer creates a server over an on-disk store in a temp dir.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return setupTestServerWithOptions(t, Options{})
}

func setupTestServerWithOptions(t *testing.T, opts Options) *testServer {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC))
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	st, err := store.New(t.TempDir(), logger, store.WithClock(clock), store.WithLocation(tokyo))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	rooms := room.NewManager(logger, room.Options{Clock: clock, ClientBuffer: 1024})
	t.Cleanup(func() { _ = rooms.Shutdown(context.Background()) })

	if opts.Metrics == nil {
		opts.Metrics = metrics.New(metrics.NewRegistry())
	}
	opts.Clock = clock
	opts.Location = tokyo

	locks := keylock.New(16)
	services := &Services{
		Instance: service.NewInstanceService(st, rooms, locks, opts.Metrics, logger),
		Comment:  service.NewCommentService(st, rooms, locks, opts.Metrics, logger),
		Settings: service.NewSettingsService(st, rooms, locks, validation.New(), opts.Metrics, logger),
		Webhook:  service.NewWebhookService(st, rooms, locks, opts.Metrics, logger),
		Live:     service.NewLiveService(st, rooms, locks, opts.Metrics, logger),
	}

	s := NewServer(st, services, rooms, opts, logger)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.API()),
		clock:  clock,
	}
}

// createInstance posts a new instance and returns its decoded response.
func (ts *testServer) createInstance(t *testing.T, body map[string]any) InstanceResponse {
	t.Helper()

	resp := ts.api.Post("/instances/", body)
	require.Equal(t, 200, resp.Code, "create instance failed: %s", resp.Body.String())

	var instance InstanceResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &instance))
	return instance
}

// postComment posts a comment and returns its decoded response.
func (ts *testServer) postComment(t *testing.T, instanceID, author, content string) CommentResponse {
	t.Helper()

	resp := ts.api.Post("/comments/", map[string]any{
		"instance_id": instanceID,
		"author":      author,
		"content":     content,
	})
	require.Equal(t, 200, resp.Code, "post comment failed: %s", resp.Body.String())

	var comment CommentResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &comment))
	return comment
}

func basicHeader(user, password string) string {
	return "Authorization: Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password))
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v))
	return v
}
