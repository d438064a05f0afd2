package presence

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var errConnClosed = errors.New("websocket closed")

// wsConn adapts a gorilla connection to Conn. Data frames are only written
// while holding Service.mu; control frames use WriteControl, which gorilla
// allows concurrently with other writers.
type wsConn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration
	closed       atomic.Bool
}

func newWSConn(ws *websocket.Conn, writeTimeout time.Duration) *wsConn {
	return &wsConn{ws: ws, writeTimeout: writeTimeout}
}

func (c *wsConn) Send(data []byte) error {
	if c.closed.Load() {
		return errConnClosed
	}
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Ping() error {
	if c.closed.Load() {
		return errConnClosed
	}
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

func (c *wsConn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(time.Second))
	return c.ws.Close()
}

func (c *wsConn) Open() bool {
	return !c.closed.Load()
}

// NewUpgrader returns the upgrader used for /ws. Any origin is accepted; the
// roster is public.
func NewUpgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// Serve runs one WebSocket connection until it closes. The read loop starts
// before the location lookup so a peer that leaves mid-lookup is noticed.
func (s *Service) Serve(ctx context.Context, ws *websocket.Conn, ip, userAgent string) error {
	conn := newWSConn(ws, s.cfg.WriteTimeout)

	if err := s.Track(conn); err != nil {
		conn.Close()
		return err
	}

	// Drop any deadline left by the HTTP server; liveness is the sweep's job.
	ws.SetReadDeadline(time.Time{})
	ws.SetReadLimit(s.cfg.MaxMessageBytes)
	ws.SetPongHandler(func(string) error {
		s.Heartbeat(conn)
		return nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer s.Disconnect(conn)
		s.readLoop(conn)
	}()

	if _, err := s.Join(ctx, conn, ip, userAgent); err != nil && !errors.Is(err, ErrConnectionClosed) {
		s.Disconnect(conn)
		<-done
		return err
	}

	<-done
	return nil
}

func (s *Service) readLoop(conn *wsConn) {
	for {
		msgType, data, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) && conn.Open() {
				s.log.Debug("read error: %v", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if t, ok := parseInbound(data); ok && t == TypeHeartbeat {
			s.Heartbeat(conn)
		}
	}
}
