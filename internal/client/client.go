package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"nhooyr.io/websocket"

	"carcassonne/internal/protocol"
)

// Transport is one envelope stream to the host.
type Transport interface {
	Read(ctx context.Context) (protocol.Envelope, error)
	Write(ctx context.Context, env protocol.Envelope) error
	Close() error
}

type tcpTransport struct {
	c  net.Conn
	mu sync.Mutex
}

func (t *tcpTransport) Read(ctx context.Context) (protocol.Envelope, error) {
	return protocol.ReadFrame(t.c)
}

func (t *tcpTransport) Write(ctx context.Context, env protocol.Envelope) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return protocol.WriteFrame(t.c, env)
}

func (t *tcpTransport) Close() error { return t.c.Close() }

type wsTransport struct {
	c *websocket.Conn
}

func (t *wsTransport) Read(ctx context.Context) (protocol.Envelope, error) {
	_, data, err := t.c.Read(ctx)
	if err != nil {
		return protocol.Envelope{}, err
	}
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return protocol.Envelope{}, err
	}
	return env, nil
}

func (t *wsTransport) Write(ctx context.Context, env protocol.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return t.c.Write(ctx, websocket.MessageText, data)
}

func (t *wsTransport) Close() error {
	return t.c.Close(websocket.StatusNormalClosure, "")
}

// DialTCP connects to a raw-socket host.
func DialTCP(ctx context.Context, addr string) (Transport, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &tcpTransport{c: c}, nil
}

// DialWS connects to a websocket host. addr is host:port; the handshake
// goes to the root path.
func DialWS(ctx context.Context, addr string) (Transport, error) {
	c, _, err := websocket.Dial(ctx, fmt.Sprintf("ws://%s/", addr), nil)
	if err != nil {
		return nil, err
	}
	c.SetReadLimit(protocol.MaxFrameSize)
	return &wsTransport{c: c}, nil
}

// Client drives one seat at a hosted game.
type Client struct {
	Replica

	t        Transport
	UserID   string
	Username string
	Slot     int
	Token    string
}

func New(t Transport, username, userID string) *Client {
	return &Client{t: t, Username: username, UserID: userID, Slot: -1}
}

// Join requests a seat. token resumes a previous seat after a drop.
func (c *Client) Join(ctx context.Context, token string) error {
	env, err := protocol.NewEnvelope(protocol.OpJoin, protocol.JoinPayload{
		Username: c.Username,
		UserID:   c.UserID,
		Token:    token,
	})
	if err != nil {
		return err
	}
	if err := c.t.Write(ctx, env); err != nil {
		return err
	}
	for {
		reply, err := c.t.Read(ctx)
		if err != nil {
			return err
		}
		switch reply.Op {
		case protocol.OpJoinAccepted:
			var accepted protocol.JoinAcceptedPayload
			if err := json.Unmarshal(reply.Data, &accepted); err != nil {
				return err
			}
			c.Slot = accepted.Slot
			c.Token = accepted.Token
			if len(accepted.Snapshot) > 0 {
				if err := c.ApplySnapshot(accepted.Seq, accepted.Snapshot); err != nil {
					return err
				}
			} else {
				c.Seq = accepted.Seq
			}
			return nil
		case protocol.OpJoinRejected:
			var rejected protocol.JoinRejectedPayload
			if err := json.Unmarshal(reply.Data, &rejected); err != nil {
				return err
			}
			return fmt.Errorf("join rejected: %s", rejected.Reason)
		default:
			// Broadcasts can race the join reply; skip them.
		}
	}
}

// Run reads host messages until the connection drops or ctx is canceled.
// Pings are answered and state messages are folded into the replica before
// onMessage sees them; onMessage may be nil.
func (c *Client) Run(ctx context.Context, onMessage func(protocol.Envelope)) error {
	for {
		env, err := c.t.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		switch env.Op {
		case protocol.OpPing:
			var ping protocol.PingPayload
			if err := json.Unmarshal(env.Data, &ping); err == nil {
				pong, err := protocol.NewEnvelope(protocol.OpPong, protocol.PongPayload{Nonce: ping.Nonce})
				if err == nil {
					if err := c.t.Write(ctx, pong); err != nil {
						return err
					}
				}
			}
			continue
		case protocol.OpStateDelta:
			var delta protocol.DeltaPayload
			if err := json.Unmarshal(env.Data, &delta); err != nil {
				return err
			}
			if err := c.ApplyDelta(delta); err != nil {
				if !errors.Is(err, ErrOutOfSync) {
					return err
				}
				if err := c.RequestSnapshot(ctx); err != nil {
					return err
				}
			}
		case protocol.OpStateSnapshot:
			var snap protocol.SnapshotPayload
			if err := json.Unmarshal(env.Data, &snap); err != nil {
				return err
			}
			if err := c.ApplySnapshot(snap.Seq, snap.Snapshot); err != nil {
				return err
			}
		}
		if onMessage != nil {
			onMessage(env)
		}
	}
}

func (c *Client) send(ctx context.Context, op int64, payload any) error {
	env, err := protocol.NewEnvelope(op, payload)
	if err != nil {
		return err
	}
	return c.t.Write(ctx, env)
}

func (c *Client) StartGame(ctx context.Context) error {
	return c.send(ctx, protocol.OpStartGame, nil)
}

func (c *Client) PlaceTile(ctx context.Context, x, y, rotation int) error {
	return c.send(ctx, protocol.OpActionPlaceTile, protocol.PlaceTilePayload{X: x, Y: y, Rotation: rotation})
}

func (c *Client) PlaceMeeple(ctx context.Context, x, y, segment int) error {
	return c.send(ctx, protocol.OpActionPlaceMeeple, protocol.PlaceMeeplePayload{X: x, Y: y, Segment: segment})
}

func (c *Client) SkipMeeple(ctx context.Context) error {
	return c.send(ctx, protocol.OpActionSkip, nil)
}

func (c *Client) Undo(ctx context.Context) error {
	return c.send(ctx, protocol.OpActionUndo, nil)
}

func (c *Client) RequestSnapshot(ctx context.Context) error {
	return c.send(ctx, protocol.OpSnapshotRequest, nil)
}

func (c *Client) Leave(ctx context.Context) error {
	if err := c.send(ctx, protocol.OpLeave, nil); err != nil {
		return err
	}
	return c.t.Close()
}

func (c *Client) Close() error { return c.t.Close() }
