package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vib3/vcb"
	"github.com/vib3/vcb/cmdbuf"
)

// HandshakeTimeout bounds the websocket handshake in Dial.
const HandshakeTimeout = 10 * time.Second

// Subscriber receives frames from a Hub.
type Subscriber struct {
	conn *websocket.Conn
	opts []cmdbuf.Option
}

// Dial connects to the hub at url (ws:// or wss://). opts are applied to
// every decoded buffer.
func Dial(ctx context.Context, url string, opts ...cmdbuf.Option) (*Subscriber, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("stream: dial %s: %w", url, err)
	}
	return &Subscriber{conn: conn, opts: opts}, nil
}

// NextFrame blocks until the next binary frame arrives and returns it
// undecoded. Text messages are ignored.
func (s *Subscriber) NextFrame() ([]byte, error) {
	for {
		typ, data, err := s.conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("stream: read: %w", err)
		}
		if typ == websocket.BinaryMessage {
			return data, nil
		}
		vcb.Logger().Debug("stream: ignoring non-binary message", "type", typ)
	}
}

// Next blocks until the next frame arrives and decodes it. The returned
// buffer is sealed if the producer sealed it.
func (s *Subscriber) Next() (*cmdbuf.Buffer, error) {
	frame, err := s.NextFrame()
	if err != nil {
		return nil, err
	}
	buf, err := cmdbuf.FromBinary(frame, s.opts...)
	if err != nil {
		return nil, fmt.Errorf("stream: decode frame: %w", err)
	}
	return buf, nil
}

// Close sends a close frame and closes the connection.
func (s *Subscriber) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return s.conn.Close()
}
