package room

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easycomment/easycomment-server/internal/domain"
)

type countingRecorder struct {
	mu           sync.Mutex
	connected    int
	disconnected int
	dropped      int
}

func (r *countingRecorder) ClientConnected(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected++
}

func (r *countingRecorder) ClientDisconnected(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disconnected++
}

func (r *countingRecorder) EventDelivered(string, int) {}

func (r *countingRecorder) EventDropped(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped++
}

func newTestManager(t *testing.T, buffer int) *Manager {
	t.Helper()
	m := NewManager(nil, Options{ClientBuffer: buffer})
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
	return m
}

func connect(t *testing.T, m *Manager) *Client {
	t.Helper()
	client, err := m.Connect("test")
	require.NoError(t, err)
	return client
}

func drain(c *Client) []Event {
	var out []Event
	for {
		select {
		case e := <-c.Events:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestEmit_ReachesOnlyRoomMembers(t *testing.T) {
	m := newTestManager(t, 8)

	viewer := connect(t, m)
	admin := connect(t, m)
	other := connect(t, m)

	require.NoError(t, m.Join(viewer.ID, Viewer("a")))
	require.NoError(t, m.Join(admin.ID, Admin("a")))
	require.NoError(t, m.Join(other.ID, Viewer("b")))

	n := m.Emit(NewCommentHiddenEvent("c1"), Both("a")...)
	assert.Equal(t, 2, n)

	assert.Len(t, drain(viewer), 1)
	assert.Len(t, drain(admin), 1)
	assert.Empty(t, drain(other))
}

func TestEmit_DeduplicatesClientsInSeveralRooms(t *testing.T) {
	m := newTestManager(t, 8)

	client := connect(t, m)
	require.NoError(t, m.Join(client.ID, Viewer("a")))
	require.NoError(t, m.Join(client.ID, Admin("a")))

	m.Emit(NewCommentEvent(&domain.Comment{ID: "c1"}), Both("a")...)

	events := drain(client)
	require.Len(t, events, 1)
	assert.Equal(t, EventNewComment, events[0].Type)
}

func TestEmit_NoReplayForLateJoiners(t *testing.T) {
	m := newTestManager(t, 8)

	m.Emit(NewCommentHiddenEvent("c1"), Viewer("a"))

	late := connect(t, m)
	require.NoError(t, m.Join(late.ID, Viewer("a")))
	assert.Empty(t, drain(late))
}

func TestSend_OnlyTargetClient(t *testing.T) {
	m := newTestManager(t, 8)

	a := connect(t, m)
	b := connect(t, m)
	require.NoError(t, m.Join(a.ID, Viewer("x")))
	require.NoError(t, m.Join(b.ID, Viewer("x")))

	require.NoError(t, m.Send(a.ID, NewErrorEvent("Instance not found")))

	events := drain(a)
	require.Len(t, events, 1)
	assert.Equal(t, ErrorPayload{Message: "Instance not found"}, events[0].Data)
	assert.Empty(t, drain(b))

	assert.ErrorIs(t, m.Send("nobody", NewErrorEvent("x")), ErrUnknownClient)
}

func TestSlowClientIsDisconnected(t *testing.T) {
	rec := &countingRecorder{}
	m := NewManager(nil, Options{ClientBuffer: 1, Recorder: rec})

	slow := connect(t, m)
	fast := connect(t, m)
	require.NoError(t, m.Join(slow.ID, Viewer("a")))
	require.NoError(t, m.Join(fast.ID, Viewer("a")))

	m.Emit(NewCommentHiddenEvent("c1"), Viewer("a"))
	drain(fast)
	m.Emit(NewCommentHiddenEvent("c2"), Viewer("a"))

	select {
	case <-slow.Done:
	default:
		t.Fatal("slow client should be disconnected")
	}
	assert.Equal(t, 1, m.ClientCount())
	assert.Equal(t, 1, m.Members(Viewer("a")))
	assert.Equal(t, 1, rec.dropped)
	assert.Equal(t, 1, rec.disconnected)
}

func TestDisconnect_LeavesAllRooms(t *testing.T) {
	m := newTestManager(t, 8)

	client := connect(t, m)
	require.NoError(t, m.Join(client.ID, Viewer("a")))
	require.NoError(t, m.Join(client.ID, Admin("b")))
	assert.Equal(t, 2, m.RoomCount())

	m.Disconnect(client.ID)
	m.Disconnect(client.ID)

	assert.Zero(t, m.ClientCount())
	assert.Zero(t, m.RoomCount())
	assert.Zero(t, m.Emit(NewCommentHiddenEvent("c"), Viewer("a"), Admin("b")))
	assert.ErrorIs(t, m.Join(client.ID, Viewer("a")), ErrUnknownClient)
}

func TestLeave_SingleRoom(t *testing.T) {
	m := newTestManager(t, 8)

	client := connect(t, m)
	require.NoError(t, m.Join(client.ID, Viewer("a")))
	require.NoError(t, m.Join(client.ID, Viewer("b")))

	m.Leave(client.ID, Viewer("a"))

	assert.Zero(t, m.Members(Viewer("a")))
	assert.Equal(t, 1, m.Members(Viewer("b")))
}

func TestEvict_KeepsClientsConnected(t *testing.T) {
	m := newTestManager(t, 8)

	client := connect(t, m)
	require.NoError(t, m.Join(client.ID, Viewer("a")))
	require.NoError(t, m.Join(client.ID, Viewer("b")))

	m.Evict(Both("a")...)

	assert.Equal(t, 1, m.ClientCount())
	assert.Zero(t, m.Members(Viewer("a")))
	assert.Equal(t, 1, m.Members(Viewer("b")))
}

func TestHeartbeat(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := NewManager(nil, Options{Clock: clock, HeartbeatInterval: time.Second, ClientBuffer: 4})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Start(ctx)
		close(done)
	}()

	client := connect(t, m)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)

	select {
	case e := <-client.Events:
		assert.Equal(t, EventHeartbeat, e.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no heartbeat")
	}

	cancel()
	<-done

	select {
	case <-client.Done:
	default:
		t.Fatal("client should be closed when the manager stops")
	}
}

func TestShutdown_RejectsNewClients(t *testing.T) {
	m := NewManager(nil, Options{})
	client := connect(t, m)

	require.NoError(t, m.Shutdown(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))

	<-client.Done
	_, err := m.Connect("test")
	assert.ErrorIs(t, err, ErrShuttingDown)
}

func TestInitialCommentsEvent(t *testing.T) {
	viewer := NewInitialCommentsEvent(nil, false)
	assert.Equal(t, EventInitialComments, viewer.Type)
	assert.NotNil(t, viewer.Data.(CommentsPayload).Comments)

	admin := NewInitialCommentsEvent([]*domain.Comment{{ID: "c"}}, true)
	assert.Equal(t, EventInitialAdminComments, admin.Type)
}

func TestRoomNames(t *testing.T) {
	assert.Equal(t, "viewer:abc", Viewer("abc"))
	assert.Equal(t, "admin:abc", Admin("abc"))

	id, ok := InstanceOf("admin:abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = InstanceOf("nocolon")
	assert.False(t, ok)
}
