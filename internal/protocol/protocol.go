// Package protocol defines the transport-agnostic wire contract: opcodes,
// JSON payload shapes, and a length-prefixed codec for raw byte streams.
// The Nakama port carries payloads on native match data opcodes; the local
// port frames full envelopes.
package protocol

import "encoding/json"

// Client -> host opcodes.
const (
	OpJoin int64 = iota + 1
	OpActionPlaceTile
	OpActionPlaceMeeple
	OpActionSkip
	OpActionUndo
	OpPong
	OpLeave
	OpSnapshotRequest
	OpStartGame
)

// Host -> client opcodes.
const (
	OpJoinAccepted int64 = iota + 101
	OpJoinRejected
	OpStateSnapshot
	OpStateDelta
	OpActionRejected
	OpPing
	OpPlayerConn
	OpGameEnded
)

// Envelope is one framed message on a raw stream.
type Envelope struct {
	Op   int64           `json:"op"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload into an envelope for the given opcode.
func NewEnvelope(op int64, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Op: op}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Op: op, Data: data}, nil
}

// JoinPayload requests a seat. Token is set when resuming a dropped seat.
type JoinPayload struct {
	Username string `json:"username"`
	UserID   string `json:"user_id"`
	Token    string `json:"token,omitempty"`
}

// Join rejection reasons.
const (
	ReasonGameFull       = "game_full"
	ReasonAlreadyStarted = "already_started"
	ReasonBadToken       = "bad_token"
)

type JoinAcceptedPayload struct {
	Slot     int             `json:"slot"`
	Token    string          `json:"token"`
	Seq      uint64          `json:"seq"`
	Snapshot json.RawMessage `json:"snapshot,omitempty"`
}

type JoinRejectedPayload struct {
	Reason string `json:"reason"`
}

type PlaceTilePayload struct {
	X        int `json:"x"`
	Y        int `json:"y"`
	Rotation int `json:"rotation"`
}

type PlaceMeeplePayload struct {
	X       int `json:"x"`
	Y       int `json:"y"`
	Segment int `json:"segment"`
}

// ActionRejectedPayload is sent to the originator only.
type ActionRejectedPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Rejection codes, aligned with the app/domain error taxonomy.
const (
	CodeInvalidPlacement   = "invalid_placement"
	CodeOccupiedGroup      = "occupied_group"
	CodeNoMeeples          = "no_meeples_available"
	CodeInvalidSegment     = "invalid_segment"
	CodeIllegalAction      = "illegal_action"
	CodeNotYourTurn        = "not_your_turn"
	CodeGameFull           = "game_full"
	CodeAlreadyStarted     = "already_started"
	CodeUnknownDebugConfig = "unknown_debug_config"
	CodeInternal           = "internal"
)

// EventEnvelope is one app event inside a delta.
type EventEnvelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// DeltaPayload carries the ordered events of one state mutation. Seq
// increases by one per delta; clients apply strictly in order.
type DeltaPayload struct {
	Seq    uint64          `json:"seq"`
	Events []EventEnvelope `json:"events"`
}

// SnapshotPayload carries the full serialized game state.
type SnapshotPayload struct {
	Seq      uint64          `json:"seq"`
	Snapshot json.RawMessage `json:"snapshot"`
}

type PingPayload struct {
	Nonce int64 `json:"nonce"`
}

type PongPayload struct {
	Nonce int64 `json:"nonce"`
}

// PlayerConnPayload announces a connection status change for a seat.
type PlayerConnPayload struct {
	Slot          int    `json:"slot"`
	Name          string `json:"name"`
	Status        string `json:"status"`
	LatencyMillis int64  `json:"latency_millis,omitempty"`
}

// Player connection statuses.
const (
	StatusJoined       = "joined"
	StatusLeft         = "left"
	StatusDisconnected = "disconnected"
	StatusReconnected  = "reconnected"
	StatusForfeited    = "forfeited"
)
