package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultClientBuffer      = 256
)

var (
	// ErrShuttingDown is returned by Connect once Shutdown has begun.
	ErrShuttingDown = errors.New("room manager is shutting down")
	// ErrUnknownClient is returned for operations on a client that is not connected.
	ErrUnknownClient = errors.New("unknown client")
)

// Client is one connected realtime consumer.
type Client struct {
	ConnectedAt time.Time
	// Events is drained by the client's transport writer. It is never
	// closed; watch Done to learn that the client was disconnected.
	Events    chan Event
	Done      chan struct{}
	rooms     map[string]struct{}
	ID        string
	Transport string
}

// Recorder receives fan-out statistics. The zero Options use a no-op recorder.
type Recorder interface {
	ClientConnected(transport string)
	ClientDisconnected(transport string)
	EventDelivered(eventType string, clients int)
	EventDropped(eventType string)
}

type noopRecorder struct{}

func (noopRecorder) ClientConnected(string)     {}
func (noopRecorder) ClientDisconnected(string)  {}
func (noopRecorder) EventDelivered(string, int) {}
func (noopRecorder) EventDropped(string)        {}

// Options tunes a Manager.
type Options struct {
	Clock             clockwork.Clock
	Recorder          Recorder
	HeartbeatInterval time.Duration
	ClientBuffer      int
}

// Manager tracks clients and their room memberships and delivers events.
// Delivery is a non-blocking enqueue onto each member's buffer; a client
// whose buffer is full is disconnected rather than silently missing events.
type Manager struct {
	clock             clockwork.Clock
	recorder          Recorder
	logger            *slog.Logger
	clients           map[string]*Client
	rooms             map[string]map[string]*Client
	stop              chan struct{}
	wg                sync.WaitGroup
	heartbeatInterval time.Duration
	clientBuffer      int
	mu                sync.RWMutex

	shutdownMu sync.Mutex
	shutdown   bool
}

// NewManager creates a Manager.
func NewManager(logger *slog.Logger, opts Options) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Recorder == nil {
		opts.Recorder = noopRecorder{}
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if opts.ClientBuffer <= 0 {
		opts.ClientBuffer = DefaultClientBuffer
	}

	return &Manager{
		clock:             opts.Clock,
		recorder:          opts.Recorder,
		logger:            logger,
		clients:           make(map[string]*Client),
		rooms:             make(map[string]map[string]*Client),
		stop:              make(chan struct{}),
		heartbeatInterval: opts.HeartbeatInterval,
		clientBuffer:      opts.ClientBuffer,
	}
}

// Start runs the heartbeat loop until ctx is canceled or Shutdown is called.
// This should be called once at server startup in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	defer m.wg.Done()

	m.logger.Info("room manager starting", slog.Duration("heartbeat_interval", m.heartbeatInterval))

	ticker := m.clock.NewTicker(m.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.Chan():
			m.heartbeat(now)

		case <-m.stop:
			m.logger.Info("room manager stopping")
			return

		case <-ctx.Done():
			m.logger.Info("room manager stopping")
			m.closeAllClients()
			return
		}
	}
}

// Shutdown stops the heartbeat loop and disconnects every client.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.shutdownMu.Lock()
	if m.shutdown {
		m.shutdownMu.Unlock()
		return nil
	}
	m.shutdown = true
	close(m.stop)
	m.shutdownMu.Unlock()

	m.logger.Info("room manager shutdown initiated")

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("room manager shutdown timed out waiting for heartbeat loop")
	}

	m.closeAllClients()
	m.logger.Info("room manager shutdown complete")
	return ctx.Err()
}

// Connect registers a new client that is not yet in any room.
func (m *Manager) Connect(transport string) (*Client, error) {
	m.shutdownMu.Lock()
	closed := m.shutdown
	m.shutdownMu.Unlock()
	if closed {
		return nil, ErrShuttingDown
	}

	client := &Client{
		ID:          uuid.NewString(),
		Transport:   transport,
		Events:      make(chan Event, m.clientBuffer),
		Done:        make(chan struct{}),
		ConnectedAt: m.clock.Now(),
		rooms:       make(map[string]struct{}),
	}

	m.mu.Lock()
	m.clients[client.ID] = client
	total := len(m.clients)
	m.mu.Unlock()

	m.recorder.ClientConnected(transport)
	m.logger.Info("realtime client connected",
		slog.String("client_id", client.ID),
		slog.String("transport", transport),
		slog.Int("total_clients", total))

	return client, nil
}

// Disconnect removes the client from every room and closes its Done channel.
// Disconnecting an unknown client is a no-op.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	client, ok := m.removeLocked(clientID)
	total := len(m.clients)
	m.mu.Unlock()
	if !ok {
		return
	}

	close(client.Done)
	m.recorder.ClientDisconnected(client.Transport)
	m.logger.Info("realtime client disconnected",
		slog.String("client_id", clientID),
		slog.Duration("duration", m.clock.Since(client.ConnectedAt)),
		slog.Int("total_clients", total))
}

func (m *Manager) removeLocked(clientID string) (*Client, bool) {
	client, ok := m.clients[clientID]
	if !ok {
		return nil, false
	}
	delete(m.clients, clientID)
	for name := range client.rooms {
		members := m.rooms[name]
		delete(members, clientID)
		if len(members) == 0 {
			delete(m.rooms, name)
		}
	}
	client.rooms = nil
	return client, true
}

// Join adds the client to a room. Joining a room twice is a no-op.
func (m *Manager) Join(clientID, room string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.clients[clientID]
	if !ok {
		return ErrUnknownClient
	}

	members, ok := m.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		m.rooms[room] = members
	}
	members[clientID] = client
	client.rooms[room] = struct{}{}

	m.logger.Debug("client joined room",
		slog.String("client_id", clientID),
		slog.String("room", room),
		slog.Int("members", len(members)))
	return nil
}

// Leave removes the client from one room.
func (m *Manager) Leave(clientID, room string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if client, ok := m.clients[clientID]; ok {
		delete(client.rooms, room)
	}
	if members, ok := m.rooms[room]; ok {
		delete(members, clientID)
		if len(members) == 0 {
			delete(m.rooms, room)
		}
	}
}

// Evict empties the given rooms. Members stay connected.
func (m *Manager) Evict(rooms ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range rooms {
		members := m.rooms[name]
		for _, client := range members {
			delete(client.rooms, name)
		}
		delete(m.rooms, name)

		if len(members) > 0 {
			instanceID, _ := InstanceOf(name)
			m.logger.Debug("room evicted",
				slog.String("room", name),
				slog.String("instance_id", instanceID),
				slog.Int("members", len(members)))
		}
	}
}

// Send delivers an event to one client only.
func (m *Manager) Send(clientID string, event Event) error {
	m.mu.RLock()
	client, ok := m.clients[clientID]
	var delivered bool
	if ok {
		delivered = m.enqueue(client, event)
	}
	m.mu.RUnlock()

	if !ok {
		return ErrUnknownClient
	}
	if !delivered {
		m.Disconnect(clientID)
	}
	return nil
}

// Emit delivers the event to every current member of the given rooms.
// A client in several of the rooms receives it once. It returns the
// number of clients the event was queued for.
func (m *Manager) Emit(event Event, rooms ...string) int {
	var slow []string
	delivered := 0

	m.mu.RLock()
	seen := make(map[string]struct{})
	for _, name := range rooms {
		for id, client := range m.rooms[name] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if m.enqueue(client, event) {
				delivered++
			} else {
				slow = append(slow, id)
			}
		}
	}
	m.mu.RUnlock()

	m.finishFanout(event, delivered, slow)
	return delivered
}

// heartbeat sends a heartbeat to every connected client.
func (m *Manager) heartbeat(now time.Time) {
	event := NewHeartbeatEvent(now)
	var slow []string
	delivered := 0

	m.mu.RLock()
	for id, client := range m.clients {
		if m.enqueue(client, event) {
			delivered++
		} else {
			slow = append(slow, id)
		}
	}
	m.mu.RUnlock()

	m.finishFanout(event, delivered, slow)
}

// enqueue is a non-blocking send. Callers hold m.mu.
func (m *Manager) enqueue(client *Client, event Event) bool {
	select {
	case client.Events <- event:
		return true
	default:
		m.recorder.EventDropped(string(event.Type))
		m.logger.Warn("client buffer full, disconnecting",
			slog.String("client_id", client.ID),
			slog.String("event_type", string(event.Type)))
		return false
	}
}

func (m *Manager) finishFanout(event Event, delivered int, slow []string) {
	for _, id := range slow {
		m.Disconnect(id)
	}

	m.recorder.EventDelivered(string(event.Type), delivered)
	if event.Type != EventHeartbeat {
		m.logger.Debug("event broadcast",
			slog.String("event_type", string(event.Type)),
			slog.Group("stats",
				slog.Int("delivered", delivered),
				slog.Int("dropped", len(slow))))
	}
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// RoomCount returns the number of rooms with at least one member.
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Members returns the number of clients in a room.
func (m *Manager) Members(room string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[room])
}

// closeAllClients disconnects everyone (used during shutdown).
func (m *Manager) closeAllClients() {
	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[string]*Client)
	m.rooms = make(map[string]map[string]*Client)
	m.mu.Unlock()

	for _, client := range clients {
		close(client.Done)
		m.recorder.ClientDisconnected(client.Transport)
	}

	m.logger.Info("all realtime clients disconnected", slog.Int("count", len(clients)))
}
