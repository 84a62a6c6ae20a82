// Package local hosts a game directly over websocket or TCP, without a
// Nakama cluster. A single hub goroutine owns the game; readers feed it
// envelopes over a channel and every connection gets a dedicated writer, so
// domain state is never touched concurrently.
package local

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"carcassonne/internal/app"
	"carcassonne/internal/autoplay"
	"carcassonne/internal/config"
	"carcassonne/internal/domain"
	"carcassonne/internal/ports"
	"carcassonne/internal/protocol"
	"carcassonne/internal/save"
)

const outboundBuffer = 32

// session is one connected client. userID is empty until the join handshake
// completes.
type session struct {
	id     string
	userID string
	conn   Conn
	out    chan protocol.Envelope
}

type inbound struct {
	sess *session
	env  protocol.Envelope
}

// connHealth tracks the heartbeat state of one seated user.
type connHealth struct {
	LastPingTick  int64
	PingNonce     int64
	AwaitingPong  bool
	MissedPongs   int
	LatencyMillis int64
	Disconnected  bool
	DroppedAtTick int64
	Forfeited     bool
}

// Hub owns the authoritative game for one host process.
type Hub struct {
	cfg    *config.Config
	log    *slog.Logger
	svc    *app.Service
	tokens *app.SessionService
	store  ports.SnapshotStore
	gameID string
	rules  domain.Rules
	seed   int64

	game   *domain.Game
	seq    uint64
	tick   int64
	seats  []string // user id per seat, "" means open
	names  []string
	slots  []int // player slot per seat once a game runs, -1 when absent
	owner  int
	byUser map[string]*session
	health map[string]*connHealth
	agents map[int]*autoplay.Agent

	register   chan *session
	unregister chan *session
	inbound    chan inbound
}

// NewHub builds a hub for a fresh game. resumed may carry a game loaded from
// a save file; its open seats are reclaimed by username on join.
func NewHub(cfg *config.Config, log *slog.Logger, store ports.SnapshotStore, resumed *domain.Game) *Hub {
	seats := cfg.Server.Players
	if resumed != nil {
		seats = len(resumed.Players)
	}
	seed := cfg.Server.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	h := &Hub{
		cfg:        cfg,
		log:        log,
		svc:        app.NewService(),
		tokens:     app.NewSessionService(cfg.Server.TokenSecret, cfg.Server.TokenIssuer, app.DefaultReconnectTokenTTL),
		store:      store,
		gameID:     uuid.NewString(),
		rules:      cfg.Rules.ToRules(),
		seed:       seed,
		game:       resumed,
		seats:      make([]string, seats),
		names:      make([]string, seats),
		owner:      -1,
		byUser:     make(map[string]*session),
		health:     make(map[string]*connHealth),
		agents:     make(map[int]*autoplay.Agent),
		register:   make(chan *session),
		unregister: make(chan *session),
		inbound:    make(chan inbound, 64),
	}
	if resumed != nil {
		h.slots = identitySlots(seats)
		for i, p := range resumed.Players {
			h.names[i] = p.Name
		}
	}
	return h
}

func identitySlots(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// GameID identifies this hosted game in tokens and saves.
func (h *Hub) GameID() string { return h.gameID }

// Attach hands a freshly accepted connection to the hub and pumps it until
// it drops. Runs on the acceptor's goroutine per connection.
func (h *Hub) Attach(ctx context.Context, conn Conn) {
	s := &session{
		id:   uuid.NewString(),
		conn: conn,
		out:  make(chan protocol.Envelope, outboundBuffer),
	}
	go s.writeLoop(ctx, h.log)
	select {
	case h.register <- s:
	case <-ctx.Done():
		// The hub never saw this session, so its writer is ours to stop.
		close(s.out)
		conn.Close()
		return
	}
read:
	for {
		env, err := conn.ReadEnvelope(ctx)
		if err != nil {
			break
		}
		select {
		case h.inbound <- inbound{sess: s, env: env}:
		case <-ctx.Done():
			break read
		}
	}
	select {
	case h.unregister <- s:
	case <-ctx.Done():
		close(s.out)
		conn.Close()
	}
}

func (s *session) writeLoop(ctx context.Context, log *slog.Logger) {
	for env := range s.out {
		if err := s.conn.WriteEnvelope(ctx, env); err != nil {
			log.Debug("write failed", "remote", s.conn.RemoteAddr(), "err", err)
			return
		}
	}
}

func (s *session) send(env protocol.Envelope) {
	select {
	case s.out <- env:
	default:
		// Slow consumer; the heartbeat will catch the dead connection.
	}
}

// Run drives the hub until ctx is canceled, then saves and closes.
func (h *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return nil
		case s := <-h.register:
			h.log.Debug("connection attached", "remote", s.conn.RemoteAddr())
		case s := <-h.unregister:
			h.dropSession(s)
		case in := <-h.inbound:
			h.handle(in.sess, in.env)
		case <-ticker.C:
			h.tick++
			h.processHeartbeats()
			h.processGrace()
			h.processAgents()
		}
	}
}

func (h *Hub) handle(s *session, env protocol.Envelope) {
	if s.userID == "" && env.Op != protocol.OpJoin {
		h.sendError(s, protocol.CodeIllegalAction, "join first")
		return
	}
	switch env.Op {
	case protocol.OpJoin:
		h.handleJoin(s, env.Data)
	case protocol.OpStartGame:
		h.handleStartGame(s)
	case protocol.OpActionPlaceTile:
		var req protocol.PlaceTilePayload
		if err := json.Unmarshal(env.Data, &req); err != nil {
			h.sendError(s, protocol.CodeInternal, "malformed place_tile payload")
			return
		}
		h.handleAction(s, func(slot int) ([]app.Event, error) {
			return h.svc.PlaceTile(h.game, slot, domain.GridPos{X: req.X, Y: req.Y}, req.Rotation)
		})
	case protocol.OpActionPlaceMeeple:
		var req protocol.PlaceMeeplePayload
		if err := json.Unmarshal(env.Data, &req); err != nil {
			h.sendError(s, protocol.CodeInternal, "malformed place_meeple payload")
			return
		}
		h.handleAction(s, func(slot int) ([]app.Event, error) {
			seg := domain.SegmentID{Pos: domain.GridPos{X: req.X, Y: req.Y}, Index: req.Segment}
			return h.svc.PlaceMeeple(h.game, slot, seg)
		})
	case protocol.OpActionSkip:
		h.handleAction(s, func(slot int) ([]app.Event, error) {
			return h.svc.SkipMeeple(h.game, slot)
		})
	case protocol.OpActionUndo:
		h.handleAction(s, func(slot int) ([]app.Event, error) {
			return h.svc.Undo(h.game, slot)
		})
	case protocol.OpPong:
		h.handlePong(s, env.Data)
	case protocol.OpSnapshotRequest:
		h.handleSnapshotRequest(s)
	case protocol.OpLeave:
		s.conn.Close()
	default:
		h.log.Warn("unknown opcode", "op", env.Op, "remote", s.conn.RemoteAddr())
	}
}

// handleJoin seats a new user, resumes a token holder, or reclaims a saved
// seat by username. Rejections close the connection.
func (h *Hub) handleJoin(s *session, data json.RawMessage) {
	var req protocol.JoinPayload
	if err := json.Unmarshal(data, &req); err != nil || req.UserID == "" {
		h.reject(s, protocol.ReasonBadToken)
		return
	}
	if s.userID != "" {
		h.sendError(s, protocol.CodeIllegalAction, "already joined")
		return
	}

	seat := -1
	reconnected := false
	switch {
	case h.seatOf(req.UserID) >= 0:
		// Same user on a fresh connection keeps their seat.
		seat = h.seatOf(req.UserID)
		reconnected = true
	case req.Token != "":
		held, err := h.tokens.ValidateReconnectToken(req.Token, req.UserID, h.gameID)
		if err != nil || held >= len(h.seats) {
			h.reject(s, protocol.ReasonBadToken)
			return
		}
		// A seat freed by the forfeit policy can be taken back by its
		// token holder as long as the name still matches.
		if h.seats[held] != req.UserID && !(h.seats[held] == "" && h.names[held] == req.Username) {
			h.reject(s, protocol.ReasonBadToken)
			return
		}
		seat = held
		reconnected = true
	case h.game == nil:
		for i, userID := range h.seats {
			if userID == "" {
				seat = i
				break
			}
		}
		if seat < 0 {
			h.reject(s, protocol.ReasonGameFull)
			return
		}
		h.names[seat] = req.Username
	default:
		// Mid-game: seats vacated by a save, by the forfeit policy or by a
		// lobby leave are reclaimed by username.
		for i, userID := range h.seats {
			if userID == "" && h.names[i] == req.Username {
				seat = i
				reconnected = true
				break
			}
		}
		if seat < 0 {
			h.reject(s, protocol.ReasonAlreadyStarted)
			return
		}
	}

	if old, ok := h.byUser[req.UserID]; ok && old != s {
		old.conn.Close()
	}
	s.userID = req.UserID
	h.seats[seat] = req.UserID
	h.byUser[req.UserID] = s

	hc := h.health[req.UserID]
	if hc == nil {
		hc = &connHealth{}
		h.health[req.UserID] = hc
	}
	hc.Disconnected = false
	hc.MissedPongs = 0
	hc.AwaitingPong = false
	hc.LastPingTick = h.tick
	if reconnected {
		delete(h.agents, h.slotOf(seat))
		hc.Forfeited = false
	}
	if h.owner < 0 || h.seats[h.owner] == "" {
		h.owner = seat
	}

	token, err := h.tokens.IssueReconnectToken(req.UserID, h.gameID, seat)
	if err != nil {
		h.log.Warn("could not issue reconnect token", "user", req.UserID, "err", err)
	}
	accepted := protocol.JoinAcceptedPayload{Slot: h.playerSlot(seat), Token: token, Seq: h.seq}
	if h.game != nil {
		if snapshot, err := save.Marshal(h.game); err != nil {
			h.log.Error("failed to serialize snapshot", "err", err)
		} else {
			accepted.Snapshot = snapshot
		}
	}
	h.sendTo(s, protocol.OpJoinAccepted, accepted)

	status := protocol.StatusJoined
	if reconnected {
		status = protocol.StatusReconnected
	}
	h.broadcast(protocol.OpPlayerConn, protocol.PlayerConnPayload{
		Slot: h.playerSlot(seat), Name: h.names[seat], Status: status, LatencyMillis: hc.LatencyMillis,
	})
	h.log.Info("player seated", "seat", seat, "name", h.names[seat], "status", status)
}

func (h *Hub) handleStartGame(s *session) {
	seat := h.seatOf(s.userID)
	if h.game != nil {
		h.sendError(s, protocol.CodeAlreadyStarted, "game already started")
		return
	}
	if seat != h.owner {
		h.sendError(s, protocol.CodeIllegalAction, "only the owner can start the game")
		return
	}
	// Seats left open before the start compact away, so the game's player
	// slots are not the lobby seat numbers. The mapping is kept per seat.
	occupied := 0
	names := make([]string, 0, len(h.seats))
	slots := make([]int, len(h.seats))
	for i, userID := range h.seats {
		if userID == "" {
			slots[i] = -1
			continue
		}
		occupied++
		slots[i] = len(names)
		names = append(names, h.names[i])
	}
	if occupied < app.MinPlayersToStartGame {
		h.sendError(s, protocol.CodeIllegalAction, "not enough players")
		return
	}

	var (
		game   *domain.Game
		events []app.Event
		err    error
	)
	if h.cfg.Server.DebugConfig != "" {
		game, events, err = h.svc.LoadDebugGame(h.cfg.Server.DebugConfig)
	} else {
		game, events, err = h.svc.StartGame(names, h.rules, h.seed)
	}
	if err != nil {
		h.log.Error("failed to start game", "err", err)
		h.sendError(s, protocol.CodeFor(err), err.Error())
		return
	}
	h.game = game
	if h.cfg.Server.DebugConfig != "" {
		// Debug games carry their own roster; seats map straight through.
		h.slots = identitySlots(len(h.seats))
	} else {
		h.slots = slots
	}
	h.broadcastDelta(events)
	h.log.Info("game started", "players", occupied, "seed", h.seed)
}

func (h *Hub) handleAction(s *session, action func(slot int) ([]app.Event, error)) {
	if h.game == nil {
		h.sendError(s, protocol.CodeIllegalAction, "game not started")
		return
	}
	seat := h.seatOf(s.userID)
	events, err := action(h.slotOf(seat))
	if err != nil {
		h.sendError(s, protocol.CodeFor(err), err.Error())
		return
	}
	h.broadcastDelta(events)
	if h.game.Phase == domain.PhaseEnded {
		h.finishGame()
	}
}

func (h *Hub) handlePong(s *session, data json.RawMessage) {
	var pong protocol.PongPayload
	if err := json.Unmarshal(data, &pong); err != nil {
		return
	}
	hc, ok := h.health[s.userID]
	if !ok {
		return
	}
	if hc.AwaitingPong && pong.Nonce == hc.PingNonce {
		hc.AwaitingPong = false
		hc.MissedPongs = 0
		hc.LatencyMillis = time.Now().UnixMilli() - pong.Nonce
	}
}

func (h *Hub) handleSnapshotRequest(s *session) {
	if h.game == nil {
		h.sendError(s, protocol.CodeIllegalAction, "game not started")
		return
	}
	snapshot, err := save.Marshal(h.game)
	if err != nil {
		h.log.Error("failed to serialize snapshot", "err", err)
		return
	}
	h.sendTo(s, protocol.OpStateSnapshot, protocol.SnapshotPayload{Seq: h.seq, Snapshot: snapshot})
}

// dropSession frees a lobby seat immediately; mid-game the seat enters the
// disconnect grace period instead.
func (h *Hub) dropSession(s *session) {
	close(s.out)
	s.conn.Close()
	if s.userID == "" {
		return
	}
	if h.byUser[s.userID] != s {
		return // superseded by a reconnect
	}
	delete(h.byUser, s.userID)
	seat := h.seatOf(s.userID)
	if seat < 0 {
		return
	}
	if h.game == nil {
		h.seats[seat] = ""
		name := h.names[seat]
		h.names[seat] = ""
		delete(h.health, s.userID)
		if h.owner == seat {
			h.owner = firstOccupiedSeat(h.seats)
		}
		h.broadcast(protocol.OpPlayerConn, protocol.PlayerConnPayload{
			Slot: seat, Name: name, Status: protocol.StatusLeft,
		})
		return
	}
	if hc := h.health[s.userID]; hc != nil && !hc.Disconnected {
		hc.Disconnected = true
		hc.DroppedAtTick = h.tick
		h.broadcast(protocol.OpPlayerConn, protocol.PlayerConnPayload{
			Slot: h.playerSlot(seat), Name: h.names[seat], Status: protocol.StatusDisconnected,
			LatencyMillis: hc.LatencyMillis,
		})
	}
}

func (h *Hub) processHeartbeats() {
	interval := int64(h.cfg.Server.PingIntervalSec)
	for seat, userID := range h.seats {
		if userID == "" {
			continue
		}
		hc := h.health[userID]
		if hc == nil || hc.Disconnected {
			continue
		}
		if h.tick-hc.LastPingTick < interval {
			continue
		}
		if hc.AwaitingPong {
			hc.MissedPongs++
			if hc.MissedPongs >= h.cfg.Server.MaxMissedPongs {
				hc.Disconnected = true
				hc.DroppedAtTick = h.tick
				h.log.Info("seat unresponsive", "seat", seat, "missed", hc.MissedPongs)
				h.broadcast(protocol.OpPlayerConn, protocol.PlayerConnPayload{
					Slot: h.playerSlot(seat), Name: h.names[seat], Status: protocol.StatusDisconnected,
					LatencyMillis: hc.LatencyMillis,
				})
				continue
			}
		}
		hc.PingNonce = time.Now().UnixMilli()
		hc.AwaitingPong = true
		hc.LastPingTick = h.tick
		if s, ok := h.byUser[userID]; ok {
			env, err := protocol.NewEnvelope(protocol.OpPing, protocol.PingPayload{Nonce: hc.PingNonce})
			if err == nil {
				s.send(env)
			}
		}
	}
}

func (h *Hub) processGrace() {
	if h.game == nil {
		return
	}
	grace := int64(h.cfg.Server.GracePeriodSec)
	for seat, userID := range h.seats {
		if userID == "" {
			continue
		}
		hc := h.health[userID]
		if hc == nil || !hc.Disconnected || hc.Forfeited {
			continue
		}
		if h.tick-hc.DroppedAtTick < grace {
			continue
		}
		hc.Forfeited = true
		slot := h.slotOf(seat)
		latency := hc.LatencyMillis
		// The agent keeps the game moving under either policy; the domain
		// has no turn skipping, so an unmanned slot would wedge everyone.
		h.agents[slot] = autoplay.NewAgent(h.seed + int64(seat))
		if h.cfg.Server.ForfeitPolicy == config.ForfeitRemove {
			returned := h.game.ForfeitPlayer(domain.PlayerID(slot))
			// The seat itself is freed; the name stays so the player can
			// reclaim it, which also relieves the agent.
			h.seats[seat] = ""
			delete(h.health, userID)
			if old, ok := h.byUser[userID]; ok {
				old.conn.Close()
				delete(h.byUser, userID)
			}
			h.log.Info("seat removed after grace", "seat", seat, "meeples_returned", returned)
		} else {
			h.log.Info("seat handed to autoplay", "seat", seat)
		}
		h.broadcast(protocol.OpPlayerConn, protocol.PlayerConnPayload{
			Slot: h.playerSlot(seat), Name: h.names[seat], Status: protocol.StatusForfeited,
			LatencyMillis: latency,
		})
	}
}

func (h *Hub) processAgents() {
	if h.game == nil || h.game.Phase == domain.PhaseEnded {
		return
	}
	slot := int(h.game.Current)
	agent, ok := h.agents[slot]
	if !ok {
		return
	}
	move, err := agent.Decide(h.game)
	if err != nil {
		return
	}
	var events []app.Event
	if move.Placement != nil {
		events, err = h.svc.PlaceTile(h.game, slot, move.Placement.Pos, move.Placement.Rotation)
	} else if move.Skip {
		events, err = h.svc.SkipMeeple(h.game, slot)
	}
	if err != nil {
		h.log.Error("autoplay step failed", "slot", slot, "err", err)
		return
	}
	h.broadcastDelta(events)
	if h.game.Phase == domain.PhaseEnded {
		h.finishGame()
	}
}

func (h *Hub) broadcastDelta(events []app.Event) {
	if len(events) == 0 {
		return
	}
	h.seq++
	delta := protocol.DeltaPayload{Seq: h.seq, Events: make([]protocol.EventEnvelope, 0, len(events))}
	for _, ev := range events {
		data, err := json.Marshal(ev.Payload)
		if err != nil {
			h.log.Error("failed to marshal event payload", "kind", ev.Kind, "err", err)
			continue
		}
		delta.Events = append(delta.Events, protocol.EventEnvelope{Kind: string(ev.Kind), Data: data})
	}
	h.broadcast(protocol.OpStateDelta, delta)
}

func (h *Hub) finishGame() {
	h.agents = make(map[int]*autoplay.Agent)
	final := make([]app.FinalScore, len(h.game.Players))
	for i, p := range h.game.Players {
		final[i] = app.FinalScore{Slot: i, Name: p.Name, Score: p.Score}
	}
	h.broadcast(protocol.OpGameEnded, app.GameEndedPayload{Scores: final})
	h.log.Info("game ended")
}

func (h *Hub) broadcast(op int64, payload any) {
	env, err := protocol.NewEnvelope(op, payload)
	if err != nil {
		h.log.Error("failed to marshal broadcast", "op", op, "err", err)
		return
	}
	for _, s := range h.byUser {
		s.send(env)
	}
}

func (h *Hub) sendTo(s *session, op int64, payload any) {
	env, err := protocol.NewEnvelope(op, payload)
	if err != nil {
		h.log.Error("failed to marshal message", "op", op, "err", err)
		return
	}
	s.send(env)
}

func (h *Hub) sendError(s *session, code, message string) {
	h.sendTo(s, protocol.OpActionRejected, protocol.ActionRejectedPayload{Code: code, Message: message})
}

func (h *Hub) reject(s *session, reason string) {
	h.sendTo(s, protocol.OpJoinRejected, protocol.JoinRejectedPayload{Reason: reason})
	s.conn.Close()
}

func (h *Hub) seatOf(userID string) int {
	for i, u := range h.seats {
		if u != "" && u == userID {
			return i
		}
	}
	return -1
}

// slotOf maps a lobby seat to the player slot the game was built with.
// Seats empty at start map to -1; without a slot table it is the identity.
func (h *Hub) slotOf(seat int) int {
	if h.slots == nil || seat < 0 || seat >= len(h.slots) {
		return seat
	}
	return h.slots[seat]
}

// playerSlot is the slot announced on the wire: the game slot once a game
// runs, the lobby seat before.
func (h *Hub) playerSlot(seat int) int {
	if slot := h.slotOf(seat); slot >= 0 {
		return slot
	}
	return seat
}

func firstOccupiedSeat(seats []string) int {
	for i, userID := range seats {
		if userID != "" {
			return i
		}
	}
	return -1
}

// shutdown persists a live game and drops every connection.
func (h *Hub) shutdown() {
	if h.game != nil && h.store != nil {
		if data, err := save.Marshal(h.game); err != nil {
			h.log.Error("failed to serialize final snapshot", "err", err)
		} else if err := h.store.Save(context.Background(), h.gameID, data); err != nil {
			h.log.Error("failed to persist final snapshot", "err", err)
		} else {
			h.log.Info("game saved", "game_id", h.gameID)
		}
	}
	for _, s := range h.byUser {
		s.conn.Close()
	}
}
