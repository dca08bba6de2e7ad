package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

// Socket is an indirection over *websocket.Conn to ease testing.
type Socket interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// Connection implements core.Conn over a websocket. Frames are queued on a
// buffered channel; the write pump owns the socket's write side.
type Connection struct {
	sock Socket
	send chan string

	mu     sync.RWMutex
	closed bool
}

func NewConnection(sock Socket) *Connection {
	return &Connection{sock: sock, send: make(chan string, 32)}
}

func (c *Connection) TrySend(text string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- text:
		return nil
	default:
		return ErrBackpressure
	}
}

func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.sock.Close()
}

// writePump drains the send queue onto the wire and keeps the connection
// alive with pings. Exits when the queue closes or the context ends.
func (c *Connection) writePump(ctx context.Context, pingPeriod, writeTimeout time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case text, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.sock.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
				log.Debug().Err(err).Str("module", "adapters.ws").Msg("write failed")
				return
			}
		case <-ticker.C:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
