package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"carcassonne/internal/protocol"
)

// fakeTransport serves a scripted read sequence and records writes. Reads
// past the script end the connection.
type fakeTransport struct {
	reads  []protocol.Envelope
	writes []protocol.Envelope
	pos    int
	closed bool
}

func (f *fakeTransport) Read(ctx context.Context) (protocol.Envelope, error) {
	if f.pos >= len(f.reads) {
		return protocol.Envelope{}, io.EOF
	}
	env := f.reads[f.pos]
	f.pos++
	return env, nil
}

func (f *fakeTransport) Write(ctx context.Context, env protocol.Envelope) error {
	f.writes = append(f.writes, env)
	return nil
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

func envOf(t *testing.T, op int64, payload any) protocol.Envelope {
	t.Helper()
	env, err := protocol.NewEnvelope(op, payload)
	if err != nil {
		t.Fatal(err)
	}
	return env
}

func writesOf(f *fakeTransport, op int64) []protocol.Envelope {
	var out []protocol.Envelope
	for _, env := range f.writes {
		if env.Op == op {
			out = append(out, env)
		}
	}
	return out
}

func TestClientJoinAppliesSnapshot(t *testing.T) {
	h := newHost(t)
	_, snapshot := h.snapshot(t)
	ft := &fakeTransport{reads: []protocol.Envelope{
		// A broadcast can race the join reply.
		envOf(t, protocol.OpPlayerConn, protocol.PlayerConnPayload{Slot: 0, Status: protocol.StatusJoined}),
		envOf(t, protocol.OpJoinAccepted, protocol.JoinAcceptedPayload{
			Slot: 1, Token: "resume-me", Seq: h.seq, Snapshot: snapshot,
		}),
	}}

	c := New(ft, "bo", "user-2")
	if err := c.Join(context.Background(), ""); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if c.Slot != 1 || c.Token != "resume-me" || c.Seq != h.seq {
		t.Fatalf("client = slot %d token %q seq %d", c.Slot, c.Token, c.Seq)
	}
	if c.Game == nil || c.Game.Board.Len() != h.game.Board.Len() {
		t.Fatal("snapshot not applied")
	}

	joins := writesOf(ft, protocol.OpJoin)
	if len(joins) != 1 {
		t.Fatalf("join writes = %d", len(joins))
	}
	var req protocol.JoinPayload
	if err := json.Unmarshal(joins[0].Data, &req); err != nil {
		t.Fatal(err)
	}
	if req.Username != "bo" || req.UserID != "user-2" || req.Token != "" {
		t.Errorf("join payload = %+v", req)
	}
}

func TestClientJoinLobby(t *testing.T) {
	ft := &fakeTransport{reads: []protocol.Envelope{
		envOf(t, protocol.OpJoinAccepted, protocol.JoinAcceptedPayload{Slot: 0, Token: "tok", Seq: 0}),
	}}
	c := New(ft, "ana", "user-1")
	if err := c.Join(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	if c.Slot != 0 || c.Game != nil || c.Seq != 0 {
		t.Fatalf("client = slot %d game %v seq %d", c.Slot, c.Game, c.Seq)
	}
}

func TestClientJoinRejected(t *testing.T) {
	ft := &fakeTransport{reads: []protocol.Envelope{
		envOf(t, protocol.OpJoinRejected, protocol.JoinRejectedPayload{Reason: protocol.ReasonGameFull}),
	}}
	c := New(ft, "ana", "user-1")
	if err := c.Join(context.Background(), ""); err == nil {
		t.Fatal("rejected join returned nil")
	}
	if c.Slot != -1 {
		t.Errorf("slot = %d, want unseated", c.Slot)
	}
}

func TestClientRunAnswersPings(t *testing.T) {
	ft := &fakeTransport{reads: []protocol.Envelope{
		envOf(t, protocol.OpPing, protocol.PingPayload{Nonce: 42}),
	}}
	c := New(ft, "ana", "user-1")

	var seen []int64
	err := c.Run(context.Background(), func(env protocol.Envelope) {
		seen = append(seen, env.Op)
	})
	if !errors.Is(err, io.EOF) {
		t.Fatalf("Run = %v, want EOF at script end", err)
	}

	pongs := writesOf(ft, protocol.OpPong)
	if len(pongs) != 1 {
		t.Fatalf("pongs = %d, want 1", len(pongs))
	}
	var pong protocol.PongPayload
	if err := json.Unmarshal(pongs[0].Data, &pong); err != nil {
		t.Fatal(err)
	}
	if pong.Nonce != 42 {
		t.Errorf("nonce = %d", pong.Nonce)
	}
	for _, op := range seen {
		if op == protocol.OpPing {
			t.Error("ping leaked to the message callback")
		}
	}
}

func TestClientRunFoldsDeltas(t *testing.T) {
	h := newHost(t)
	seq, snapshot := h.snapshot(t)
	delta := h.placeAnywhere(t)

	ft := &fakeTransport{reads: []protocol.Envelope{
		envOf(t, protocol.OpStateDelta, delta),
	}}
	c := New(ft, "ana", "user-1")
	if err := c.ApplySnapshot(seq, snapshot); err != nil {
		t.Fatal(err)
	}

	var deltaSeen bool
	err := c.Run(context.Background(), func(env protocol.Envelope) {
		if env.Op == protocol.OpStateDelta {
			deltaSeen = true
		}
	})
	if !errors.Is(err, io.EOF) {
		t.Fatalf("Run = %v", err)
	}
	if !deltaSeen {
		t.Error("delta not forwarded to the callback")
	}
	sameState(t, &c.Replica, h)
}

func TestClientRunResyncsAfterGap(t *testing.T) {
	h := newHost(t)
	seq, snapshot := h.snapshot(t)
	h.placeAnywhere(t) // lost on the wire
	missed := h.skip(t)
	freshSeq, fresh := h.snapshot(t)

	ft := &fakeTransport{reads: []protocol.Envelope{
		envOf(t, protocol.OpStateDelta, missed),
		envOf(t, protocol.OpStateSnapshot, protocol.SnapshotPayload{Seq: freshSeq, Snapshot: fresh}),
	}}
	c := New(ft, "ana", "user-1")
	if err := c.ApplySnapshot(seq, snapshot); err != nil {
		t.Fatal(err)
	}

	if err := c.Run(context.Background(), nil); !errors.Is(err, io.EOF) {
		t.Fatalf("Run = %v", err)
	}
	if len(writesOf(ft, protocol.OpSnapshotRequest)) != 1 {
		t.Fatal("no snapshot request after the gap")
	}
	if c.Seq != freshSeq {
		t.Errorf("seq = %d, want %d", c.Seq, freshSeq)
	}
	sameState(t, &c.Replica, h)
}

func TestClientLeaveClosesTransport(t *testing.T) {
	ft := &fakeTransport{}
	c := New(ft, "ana", "user-1")
	if err := c.Leave(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !ft.closed {
		t.Error("transport left open")
	}
	if len(writesOf(ft, protocol.OpLeave)) != 1 {
		t.Error("no leave message sent")
	}
}
