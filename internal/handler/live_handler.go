package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/locvowork/employee_directory/internal/logger"
	"github.com/locvowork/employee_directory/internal/metrics"
	"github.com/locvowork/employee_directory/internal/ui"
)

// Live message types.
const (
	MsgTypeInput   = "input"
	MsgTypeClear   = "clear"
	MsgTypeRefresh = "refresh"
	MsgTypePage    = "page"
	MsgTypeError   = "error"
)

const (
	writeWait = 10 * time.Second
	// sendBuffer is the number of messages queued per connection.
	sendBuffer = 16
)

// LiveRequest is a message sent by the client.
type LiveRequest struct {
	Type  string `json:"type"`
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
}

// LiveResponse is a message sent to the client.
type LiveResponse struct {
	Type    string   `json:"type"`
	Page    *ui.Page `json:"page,omitempty"`
	Message string   `json:"message,omitempty"`
}

// LiveHandler serves the live listing over websockets: the client sends
// input events and receives a freshly rendered page after each applied
// change, and after every change of the collection.
type LiveHandler struct {
	src      ui.Source
	window   time.Duration
	pageSize int
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*liveClient
}

type liveClient struct {
	session *ui.Session
	conn    *websocket.Conn
}

func NewLiveHandler(src ui.Source, window time.Duration, pageSize int, m *metrics.Metrics) *LiveHandler {
	return &LiveHandler{
		src:      src,
		window:   window,
		pageSize: pageSize,
		metrics:  m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// No authentication, any origin may connect
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*liveClient),
	}
}

// RefreshAll re-renders every connected session. It is registered as a
// change listener of the record store.
func (h *LiveHandler) RefreshAll() {
	h.mu.RLock()
	sessions := make([]*ui.Session, 0, len(h.clients))
	for _, cl := range h.clients {
		sessions = append(sessions, cl.session)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		s.Refresh()
	}
}

// Sessions returns the number of connected sessions.
func (h *LiveHandler) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every connection; used on shutdown. Each read loop then
// ends and unregisters its session.
func (h *LiveHandler) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, cl := range h.clients {
		cl.session.Close()
		_ = cl.conn.Close()
	}
}

func (h *LiveHandler) LiveHandler(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already answered the client
		logger.WarnLog(c.Request().Context(), "Websocket upgrade failed: %v", err)
		return nil
	}
	defer conn.Close()

	out := newOutbox(sendBuffer)
	session := ui.NewSession(h.src, func(p ui.Page) {
		out.push(LiveResponse{Type: MsgTypePage, Page: &p})
	}, ui.WithDebounceWindow(h.window), ui.WithPageSize(h.pageSize))

	ctx := logger.WithLogger(c.Request().Context(), map[string]interface{}{"session_id": session.ID})
	written := make(chan struct{})
	go func() {
		defer close(written)
		writeLoop(ctx, conn, out)
	}()

	h.register(session, conn)
	logger.InfoLog(ctx, "Live session opened")

	session.Refresh()
	for {
		var req LiveRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WarnLog(ctx, "Live session read failed: %v", err)
			}
			break
		}

		switch req.Type {
		case MsgTypeInput:
			if err := session.Input(req.Field, req.Value); err != nil {
				out.push(LiveResponse{Type: MsgTypeError, Message: err.Error()})
			}
		case MsgTypeClear:
			session.ClearFilters()
		case MsgTypeRefresh:
			session.Refresh()
		default:
			out.push(LiveResponse{Type: MsgTypeError, Message: "unknown message type " + req.Type})
		}
	}

	h.unregister(session)
	out.close()
	// Unblocks a write stuck on a client that stopped reading
	_ = conn.Close()
	<-written
	logger.InfoLog(ctx, "Live session closed, %d stale pages dropped", out.droppedCount())
	return nil
}

// writeLoop sends queued messages until the outbox is closed. After a write
// error the connection is closed and the rest of the queue is discarded.
func writeLoop(ctx context.Context, conn *websocket.Conn, out *outbox) {
	failed := false
	for msg := range out.ch {
		if failed {
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			logger.DebugLog(ctx, "Live write failed: %v", err)
			failed = true
			_ = conn.Close()
		}
	}
}

// outbox is the bounded send queue of one connection. push never blocks:
// when the queue is full the oldest message is dropped, pages being full
// snapshots that supersede each other.
type outbox struct {
	mu      sync.Mutex
	ch      chan LiveResponse
	closed  bool
	dropped int
}

func newOutbox(size int) *outbox {
	return &outbox{ch: make(chan LiveResponse, size)}
}

func (o *outbox) push(msg LiveResponse) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	for {
		select {
		case o.ch <- msg:
			return
		default:
		}
		select {
		case <-o.ch:
			o.dropped++
		default:
		}
	}
}

func (o *outbox) droppedCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}

func (o *outbox) close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		close(o.ch)
	}
}

func (h *LiveHandler) register(s *ui.Session, conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[s.ID] = &liveClient{session: s, conn: conn}
	h.mu.Unlock()
	h.metrics.SessionOpened()
}

func (h *LiveHandler) unregister(s *ui.Session) {
	s.Close()
	h.mu.Lock()
	_, ok := h.clients[s.ID]
	delete(h.clients, s.ID)
	h.mu.Unlock()
	if ok {
		h.metrics.SessionClosed()
	}
}
