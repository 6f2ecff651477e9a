package ws

import (
	"log/slog"
	"sync"

	"github.com/go-json-experiment/json"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/easycomment/easycomment-server/internal/room"
)

// connWriter owns every write to one connection: queued room events and pings.
type connWriter struct {
	conn   *websocket.Conn
	client *room.Client
	clock  clockwork.Clock
	logger *slog.Logger
	wg     sync.WaitGroup
}

func newConnWriter(conn *websocket.Conn, client *room.Client, clock clockwork.Clock, logger *slog.Logger) *connWriter {
	cw := &connWriter{
		conn:   conn,
		client: client,
		clock:  clock,
		logger: logger,
	}
	cw.wg.Add(1)
	go cw.run()
	return cw
}

func (cw *connWriter) run() {
	defer cw.wg.Done()
	defer func() { _ = cw.conn.Close() }()

	ticker := cw.clock.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-cw.client.Events:
			msg, err := json.Marshal(event)
			if err != nil {
				cw.logger.Error("failed to marshal event",
					slog.String("event_type", string(event.Type)),
					slog.String("error", err.Error()))
				continue
			}
			cw.updateWriteDeadline()
			if err := cw.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				cw.logger.Debug("websocket write failed", slog.String("error", err.Error()))
				return
			}

		case <-ticker.Chan():
			cw.updateWriteDeadline()
			if err := cw.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-cw.client.Done:
			closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			cw.updateWriteDeadline()
			_ = cw.conn.WriteMessage(websocket.CloseMessage, closeMsg)
			return
		}
	}
}

func (cw *connWriter) updateWriteDeadline() {
	_ = cw.conn.SetWriteDeadline(cw.clock.Now().Add(writeDeadline))
}

// wait blocks until the writer goroutine has exited.
func (cw *connWriter) wait() {
	cw.wg.Wait()
}
