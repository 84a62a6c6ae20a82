package local

import (
	"context"
	"encoding/json"
	"net"
	"sync"

	"nhooyr.io/websocket"

	"carcassonne/internal/protocol"
)

// Conn is one bidirectional envelope stream, independent of transport.
type Conn interface {
	ReadEnvelope(ctx context.Context) (protocol.Envelope, error)
	WriteEnvelope(ctx context.Context, env protocol.Envelope) error
	Close() error
	RemoteAddr() string
}

// tcpConn frames envelopes with the length-prefixed codec on a raw socket.
type tcpConn struct {
	c  net.Conn
	mu sync.Mutex // serializes writers
}

func newTCPConn(c net.Conn) *tcpConn {
	return &tcpConn{c: c}
}

func (t *tcpConn) ReadEnvelope(ctx context.Context) (protocol.Envelope, error) {
	return protocol.ReadFrame(t.c)
}

func (t *tcpConn) WriteEnvelope(ctx context.Context, env protocol.Envelope) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return protocol.WriteFrame(t.c, env)
}

func (t *tcpConn) Close() error {
	return t.c.Close()
}

func (t *tcpConn) RemoteAddr() string {
	return t.c.RemoteAddr().String()
}

// wsConn carries one JSON envelope per websocket text message. The websocket
// layer does its own framing, so the length-prefixed codec is not used here.
type wsConn struct {
	c      *websocket.Conn
	remote string
}

func newWSConn(c *websocket.Conn, remote string) *wsConn {
	return &wsConn{c: c, remote: remote}
}

func (w *wsConn) ReadEnvelope(ctx context.Context) (protocol.Envelope, error) {
	_, data, err := w.c.Read(ctx)
	if err != nil {
		return protocol.Envelope{}, err
	}
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return protocol.Envelope{}, err
	}
	return env, nil
}

func (w *wsConn) WriteEnvelope(ctx context.Context, env protocol.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return w.c.Write(ctx, websocket.MessageText, data)
}

func (w *wsConn) Close() error {
	return w.c.Close(websocket.StatusNormalClosure, "")
}

func (w *wsConn) RemoteAddr() string {
	return w.remote
}
