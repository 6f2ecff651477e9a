package ws

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easycomment/easycomment-server/internal/keylock"
	"github.com/easycomment/easycomment-server/internal/room"
	"github.com/easycomment/easycomment-server/internal/service"
	"github.com/easycomment/easycomment-server/internal/store"
)

type wsEnv struct {
	server    *httptest.Server
	rooms     *room.Manager
	instances *service.InstanceService
	comments  *service.CommentService
}

func setupWS(t *testing.T) *wsEnv {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	s, err := store.New("", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	rooms := room.NewManager(logger, room.Options{})
	locks := keylock.New(8)
	live := service.NewLiveService(s, rooms, locks, nil, logger)

	server := httptest.NewServer(NewHandler(rooms, live, nil, nil, logger))
	t.Cleanup(func() {
		_ = rooms.Shutdown(context.Background())
		server.Close()
	})

	return &wsEnv{
		server:    server,
		rooms:     rooms,
		instances: service.NewInstanceService(s, rooms, locks, nil, logger),
		comments:  service.NewCommentService(s, rooms, locks, nil, logger),
	}
}

func (e *wsEnv) dial(t *testing.T, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	// Greeting.
	frame := readFrame(t, conn)
	require.Equal(t, "connected", frame.Event)
	return conn
}

type serverFrame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) serverFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame serverFrame
	require.NoError(t, json.Unmarshal(msg, &frame))
	return frame
}

func send(t *testing.T, conn *websocket.Conn, event string, data map[string]any) {
	t.Helper()
	msg, err := json.Marshal(map[string]any{"event": event, "data": data})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, msg))
}

func TestJoinInstance_ReceivesSnapshotThenEvents(t *testing.T) {
	env := setupWS(t)
	ctx := context.Background()

	instance, err := env.instances.Create(ctx, service.CreateInstanceRequest{Name: "Live"})
	require.NoError(t, err)
	first, err := env.comments.Create(ctx, instance.ID, "a", "before join")
	require.NoError(t, err)

	conn := env.dial(t, nil)
	send(t, conn, EventJoinInstance, map[string]any{"instance_id": instance.ID})

	snapshot := readFrame(t, conn)
	assert.Equal(t, "initial_comments", snapshot.Event)
	comments, ok := snapshot.Data["comments"].([]any)
	require.True(t, ok)
	require.Len(t, comments, 1)
	assert.Equal(t, first.ID, comments[0].(map[string]any)["id"])

	settings := readFrame(t, conn)
	assert.Equal(t, "settings_updated", settings.Event)
	assert.Equal(t, "#00FF00", settings.Data["background_color"])

	second, err := env.comments.Create(ctx, instance.ID, "b", "after join")
	require.NoError(t, err)

	live := readFrame(t, conn)
	assert.Equal(t, "new_comment", live.Event)
	assert.Equal(t, second.ID, live.Data["id"])
	assert.Equal(t, "after join", live.Data["content"])
}

func TestJoinInstance_NotFound(t *testing.T) {
	env := setupWS(t)

	conn := env.dial(t, nil)
	send(t, conn, EventJoinInstance, map[string]any{"instance_id": "missing"})

	frame := readFrame(t, conn)
	assert.Equal(t, "error", frame.Event)
	assert.Equal(t, "Instance not found", frame.Data["message"])
}

func TestJoinAdmin_UsesUpgradeHeader(t *testing.T) {
	env := setupWS(t)
	pw := "pw"

	instance, err := env.instances.Create(context.Background(), service.CreateInstanceRequest{Name: "Live", AdminPassword: &pw})
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("x:pw")))
	conn := env.dial(t, header)
	send(t, conn, EventJoinAdminInstance, map[string]any{"instance_id": instance.ID})

	assert.Equal(t, "initial_admin_comments", readFrame(t, conn).Event)
	assert.Equal(t, "settings_updated", readFrame(t, conn).Event)
}

func TestJoinAdmin_PayloadAuthorization(t *testing.T) {
	env := setupWS(t)
	pw := "pw"

	instance, err := env.instances.Create(context.Background(), service.CreateInstanceRequest{Name: "Live", AdminPassword: &pw})
	require.NoError(t, err)

	conn := env.dial(t, nil)
	send(t, conn, EventJoinAdminInstance, map[string]any{"instance_id": instance.ID})
	denied := readFrame(t, conn)
	assert.Equal(t, "error", denied.Event)
	assert.Equal(t, "Unauthorized", denied.Data["message"])

	send(t, conn, EventJoinAdminInstance, map[string]any{
		"instance_id":   instance.ID,
		"authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte("pw")),
	})
	assert.Equal(t, "initial_admin_comments", readFrame(t, conn).Event)
}

func TestUnknownEvent(t *testing.T) {
	env := setupWS(t)

	conn := env.dial(t, nil)
	send(t, conn, "dance", nil)

	frame := readFrame(t, conn)
	assert.Equal(t, "error", frame.Event)
	assert.Contains(t, frame.Data["message"], "Unknown event")
}

func TestDisconnect_RemovesClient(t *testing.T) {
	env := setupWS(t)

	conn := env.dial(t, nil)
	require.Equal(t, 1, env.rooms.ClientCount())
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return env.rooms.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"http://localhost:3000"}

	assert.True(t, originAllowed(allowed, "http://localhost:3000"))
	assert.False(t, originAllowed(allowed, "https://evil.example"))
	assert.True(t, originAllowed(allowed, ""))
	assert.True(t, originAllowed(nil, "https://any.example"))
	assert.True(t, originAllowed([]string{"*"}, "https://any.example"))
}
