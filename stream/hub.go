// Package stream carries sealed command buffers over websocket connections
// as VCB1 binary frames, so a remote process can replay what a producer
// records.
//
// A Hub is an http.Handler. Every client that connects receives each
// buffer passed to Publish, plus the most recent frame on connect:
//
//	hub := stream.NewHub()
//	http.Handle("/vcb", hub)
//	...
//	hub.Publish(buf.Seal())
//
// Dial connects a Subscriber to a hub.
package stream

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vib3/vcb"
	"github.com/vib3/vcb/cmdbuf"
)

var (
	// ErrUnsealed is returned by Publish for a buffer that is still recording.
	ErrUnsealed = errors.New("stream: buffer is not sealed")

	// ErrClosed is returned by Publish after Close.
	ErrClosed = errors.New("stream: hub closed")
)

// Default hub settings.
const (
	DefaultSendBuffer   = 16
	DefaultWriteTimeout = 5 * time.Second
)

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithSendBuffer sets how many frames may queue per client before the
// client is dropped as too slow.
func WithSendBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithWriteTimeout bounds each websocket write.
func WithWriteTimeout(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// WithCheckOrigin replaces the upgrader origin check. The default accepts
// same-origin requests only.
func WithCheckOrigin(fn func(*http.Request) bool) HubOption {
	return func(h *Hub) { h.upgrader.CheckOrigin = fn }
}

// Hub broadcasts frames to connected websocket clients.
type Hub struct {
	upgrader     websocket.Upgrader
	sendBuffer   int
	writeTimeout time.Duration

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
	closed  bool
	sent    uint64
	dropped uint64
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// NewHub creates a hub with no clients.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		sendBuffer:   DefaultSendBuffer,
		writeTimeout: DefaultWriteTimeout,
		clients:      make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP upgrades the request and serves the connection until the
// client goes away or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		vcb.Logger().Debug("stream: upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, h.sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	n := len(h.clients)
	h.mu.Unlock()
	vcb.Logger().Info("stream: client connected", "remote", r.RemoteAddr, "clients", n)

	go h.writeLoop(c)

	// Clients only listen; reading drives pings, pongs and close frames.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	vcb.Logger().Info("stream: client disconnected", "remote", r.RemoteAddr)
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for frame := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			vcb.Logger().Warn("stream: write failed", "remote", c.conn.RemoteAddr().String(), "err", err)
			h.remove(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(h.writeTimeout))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// Publish encodes buf as a VCB1 frame and queues it for every client. It
// returns the number of clients the frame was queued for. Clients whose
// queue is full are disconnected.
func (h *Hub) Publish(buf *cmdbuf.Buffer) (int, error) {
	if buf == nil || !buf.Sealed() {
		return 0, ErrUnsealed
	}
	frame, err := buf.ToBinary()
	if err != nil {
		return 0, fmt.Errorf("stream: encode: %w", err)
	}
	return h.PublishFrame(frame)
}

// PublishFrame broadcasts an already encoded VCB1 frame. The frame must
// not be modified afterwards.
func (h *Hub) PublishFrame(frame []byte) (int, error) {
	if _, err := cmdbuf.ParseHeader(frame); err != nil {
		return 0, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, ErrClosed
	}
	h.last = frame
	queued := 0
	for c := range h.clients {
		select {
		case c.send <- frame:
			queued++
		default:
			vcb.Logger().Warn("stream: dropping slow client", "remote", c.conn.RemoteAddr().String())
			delete(h.clients, c)
			c.close()
			h.dropped++
		}
	}
	h.sent++
	return queued, nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HubStats counts published frames and dropped clients.
type HubStats struct {
	Clients   int
	Published uint64
	Dropped   uint64
}

// Stats returns a snapshot of the hub counters.
func (h *Hub) Stats() HubStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return HubStats{Clients: len(h.clients), Published: h.sent, Dropped: h.dropped}
}

// Close disconnects every client. Later connections are refused.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
	return nil
}
