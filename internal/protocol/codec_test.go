package protocol

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"reflect"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	env, err := NewEnvelope(OpActionPlaceTile, PlaceTilePayload{X: 2, Y: -1, Rotation: 3})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteFrame(&buf, env); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if got.Op != env.Op || !bytes.Equal(got.Data, env.Data) {
		t.Errorf("got %+v, want %+v", got, env)
	}

	var payload PlaceTilePayload
	if err := json.Unmarshal(got.Data, &payload); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(payload, PlaceTilePayload{X: 2, Y: -1, Rotation: 3}) {
		t.Errorf("payload = %+v", payload)
	}
}

func TestFrameSequence(t *testing.T) {
	var buf bytes.Buffer
	for op := OpJoin; op <= OpStartGame; op++ {
		if err := WriteFrame(&buf, Envelope{Op: op}); err != nil {
			t.Fatal(err)
		}
	}
	for op := OpJoin; op <= OpStartGame; op++ {
		env, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("op %d: %v", op, err)
		}
		if env.Op != op {
			t.Errorf("op = %d, want %d", env.Op, op)
		}
	}
	if _, err := ReadFrame(&buf); err == nil {
		t.Error("read past the last frame succeeded")
	}
}

func TestReadFrameRejectsOversize(t *testing.T) {
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], MaxFrameSize+1)
	if _, err := ReadFrame(bytes.NewReader(prefix[:])); err == nil {
		t.Fatal("oversize frame accepted")
	}
}

func TestReadFrameRejectsMalformedBody(t *testing.T) {
	body := []byte("{not json")
	var buf bytes.Buffer
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(body)))
	buf.Write(prefix[:])
	buf.Write(body)
	if _, err := ReadFrame(&buf); err == nil {
		t.Fatal("malformed body accepted")
	}
}

func TestReadFrameTruncatedBody(t *testing.T) {
	var buf bytes.Buffer
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], 100)
	buf.Write(prefix[:])
	buf.WriteString(`{"op":1}`)
	if _, err := ReadFrame(&buf); err == nil {
		t.Fatal("truncated body accepted")
	}
}
