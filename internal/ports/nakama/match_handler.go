package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"carcassonne/internal/app"
	"carcassonne/internal/autoplay"
	"carcassonne/internal/config"
	"carcassonne/internal/domain"
	"carcassonne/internal/ports"
	"carcassonne/internal/protocol"
	"carcassonne/internal/save"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchLabel is the queryable match listing entry.
type MatchLabel struct {
	Game  string `json:"game"`
	Open  int    `json:"open"`
	Phase string `json:"phase"`
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

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Seats     []string                    `json:"seats"` // user ID per seat, "" means open
	Names     []string                    `json:"names"`
	Slots     []int                       `json:"slots"` // player slot per seat once a game runs, -1 when absent
	OwnerSeat int                         `json:"owner_seat"`
	Tick      int64                       `json:"tick"`
	Seq       uint64                      `json:"seq"`
	Presences map[string]runtime.Presence `json:"-"`
	Health    map[string]*connHealth      `json:"-"`
	App       *app.Service                `json:"-"`
	Sessions  *app.SessionService         `json:"-"`
	Store     ports.SnapshotStore         `json:"-"`
	Game      *domain.Game                `json:"-"`
	Agents    map[int]*autoplay.Agent     `json:"-"`

	Rules             domain.Rules `json:"rules"`
	Seed              int64        `json:"seed"`
	PingIntervalTicks int64        `json:"ping_interval_ticks"`
	MaxMissedPongs    int          `json:"max_missed_pongs"`
	GraceTicks        int64        `json:"grace_ticks"`
	ForfeitPolicy     string       `json:"forfeit_policy"`
	DebugConfig       string       `json:"debug_config"`
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	return len(ms.Seats) - ms.GetOpenSeatsCount()
}

func (ms *MatchState) seatOf(userID string) int {
	for i, seat := range ms.Seats {
		if seat != "" && seat == userID {
			return i
		}
	}
	return -1
}

// slotOf maps a lobby seat to the player slot the game was built with.
// Seats empty at start map to -1; without a slot table it is the identity.
func (ms *MatchState) slotOf(seat int) int {
	if ms.Slots == nil || seat < 0 || seat >= len(ms.Slots) {
		return seat
	}
	return ms.Slots[seat]
}

// playerSlot is the slot announced on the wire: the game slot once a game
// runs, the lobby seat before.
func (ms *MatchState) playerSlot(seat int) int {
	if slot := ms.slotOf(seat); slot >= 0 {
		return slot
	}
	return seat
}

// reclaimSeat finds a vacated seat still carrying the given username, so its
// former holder can take it back mid-game.
func (ms *MatchState) reclaimSeat(username string) int {
	for i, userID := range ms.Seats {
		if userID == "" && ms.Names[i] != "" && ms.Names[i] == username {
			return i
		}
	}
	return -1
}

func firstOccupiedSeat(seats []string) int {
	for i, userID := range seats {
		if userID != "" {
			return i
		}
	}
	return -1
}

func newMatchHandler() *matchHandler {
	return &matchHandler{}
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	cfg := config.Default()
	state := &MatchState{
		Presences:         make(map[string]runtime.Presence),
		Health:            make(map[string]*connHealth),
		Agents:            make(map[int]*autoplay.Agent),
		App:               app.NewService(),
		Store:             NewSnapshotStoreAdapter(nk),
		OwnerSeat:         -1,
		Rules:             domain.DefaultRules(),
		Seed:              time.Now().UnixNano(),
		PingIntervalTicks: int64(cfg.Server.PingIntervalSec),
		MaxMissedPongs:    cfg.Server.MaxMissedPongs,
		GraceTicks:        int64(cfg.Server.GracePeriodSec),
		ForfeitPolicy:     cfg.Server.ForfeitPolicy,
	}

	players := cfg.Server.Players
	secret := ""
	issuer := cfg.Server.TokenIssuer
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if val, ok := env[envPlayers]; ok {
		if i, err := strconv.Atoi(val); err == nil && i >= domain.MinPlayers && i <= domain.MaxPlayers {
			players = i
		}
	}
	if val, ok := env[envPingInterval]; ok {
		if i, err := strconv.Atoi(val); err == nil && i > 0 {
			state.PingIntervalTicks = int64(i)
		}
	}
	if val, ok := env[envMaxMissedPongs]; ok {
		if i, err := strconv.Atoi(val); err == nil && i > 0 {
			state.MaxMissedPongs = i
		}
	}
	if val, ok := env[envGracePeriod]; ok {
		if i, err := strconv.Atoi(val); err == nil && i >= 0 {
			state.GraceTicks = int64(i)
		}
	}
	if val, ok := env[envForfeitPolicy]; ok {
		state.ForfeitPolicy = val
	}
	if val, ok := env[envTokenSecret]; ok {
		secret = val
	}
	if val, ok := env[envTokenIssuer]; ok {
		issuer = val
	}
	if val, ok := env[envSeed]; ok {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			state.Seed = i
		}
	}
	if val, ok := env[envDebugConfig]; ok {
		state.DebugConfig = val
	}

	state.Seats = make([]string, players)
	state.Names = make([]string, players)
	state.Sessions = app.NewSessionService(secret, issuer, app.DefaultReconnectTokenTTL)

	labelBytes, err := json.Marshal(&MatchLabel{Game: "carcassonne", Open: players, Phase: "lobby"})
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1 // heartbeat and grace bookkeeping run on seconds
	return state, tickRate, string(labelBytes)
}

// MatchJoinAttempt admits returning seat holders and token bearers even
// mid-game; fresh joins are rejected once the game started or seats ran out.
func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	if matchState.seatOf(presence.GetUserId()) >= 0 {
		return state, true, ""
	}
	if token := metadata["reconnect_token"]; token != "" {
		matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
		if _, err := matchState.Sessions.ValidateReconnectToken(token, presence.GetUserId(), matchID); err == nil {
			return state, true, ""
		}
		return state, false, protocol.ReasonBadToken
	}
	if matchState.Game != nil {
		// A vacated seat still carrying this username can be taken back.
		if matchState.reclaimSeat(presence.GetUsername()) >= 0 {
			return state, true, ""
		}
		return state, false, protocol.ReasonAlreadyStarted
	}
	if matchState.GetOpenSeatsCount() <= 0 {
		return state, false, protocol.ReasonGameFull
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}
	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		seat := matchState.seatOf(userID)
		reconnected := seat >= 0
		if !reconnected && matchState.Game != nil {
			// Mid-game admissions are returning players; their seat was
			// vacated by the forfeit policy and is reclaimed by username.
			if i := matchState.reclaimSeat(p.GetUsername()); i >= 0 {
				matchState.Seats[i] = userID
				seat = i
				reconnected = true
			}
		}
		if !reconnected && matchState.Game == nil {
			for i, seatUserID := range matchState.Seats {
				if seatUserID == "" {
					matchState.Seats[i] = userID
					matchState.Names[i] = p.GetUsername()
					seat = i
					break
				}
			}
		}
		if seat < 0 {
			logger.Warn("MatchJoin: User %s joined but no seat was available.", userID)
			continue
		}

		health := matchState.Health[userID]
		if health == nil {
			health = &connHealth{}
			matchState.Health[userID] = health
		}
		health.Disconnected = false
		health.MissedPongs = 0
		health.AwaitingPong = false
		health.LastPingTick = tick
		if reconnected {
			delete(matchState.Agents, matchState.slotOf(seat))
			health.Forfeited = false
		}

		token, err := matchState.Sessions.IssueReconnectToken(userID, matchID, seat)
		if err != nil {
			logger.Warn("MatchJoin: Could not issue reconnect token for %s: %v", userID, err)
		}
		accepted := protocol.JoinAcceptedPayload{Slot: matchState.playerSlot(seat), Token: token, Seq: matchState.Seq}
		if matchState.Game != nil {
			snapshot, err := save.Marshal(matchState.Game)
			if err != nil {
				logger.Error("MatchJoin: Failed to serialize snapshot: %v", err)
			} else {
				accepted.Snapshot = snapshot
			}
		}
		mh.sendTo(matchState, dispatcher, logger, userID, protocol.OpJoinAccepted, accepted)

		status := protocol.StatusJoined
		if reconnected {
			status = protocol.StatusReconnected
		}
		mh.broadcast(dispatcher, logger, protocol.OpPlayerConn, protocol.PlayerConnPayload{
			Slot:          matchState.playerSlot(seat),
			Name:          matchState.Names[seat],
			Status:        status,
			LatencyMillis: health.LatencyMillis,
		})
	}

	if matchState.OwnerSeat < 0 || matchState.Seats[matchState.OwnerSeat] == "" {
		matchState.OwnerSeat = firstOccupiedSeat(matchState.Seats)
	}
	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave marks seats disconnected. Mid-game the seat and meeples are
// retained for the grace period; in the lobby the seat frees immediately.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)
		seat := matchState.seatOf(userID)
		if seat < 0 {
			continue
		}
		if matchState.Game == nil {
			matchState.Seats[seat] = ""
			matchState.Names[seat] = ""
			delete(matchState.Health, userID)
			mh.broadcast(dispatcher, logger, protocol.OpPlayerConn, protocol.PlayerConnPayload{
				Slot: seat, Name: p.GetUsername(), Status: protocol.StatusLeft,
			})
			continue
		}
		if health := matchState.Health[userID]; health != nil && !health.Disconnected {
			health.Disconnected = true
			health.DroppedAtTick = tick
			mh.broadcast(dispatcher, logger, protocol.OpPlayerConn, protocol.PlayerConnPayload{
				Slot: matchState.playerSlot(seat), Name: matchState.Names[seat],
				Status: protocol.StatusDisconnected, LatencyMillis: health.LatencyMillis,
			})
		}
	}

	if matchState.OwnerSeat >= 0 && matchState.Seats[matchState.OwnerSeat] == "" {
		matchState.OwnerSeat = firstOccupiedSeat(matchState.Seats)
	}
	if matchState.Game == nil && matchState.GetOccupiedSeatCount() == 0 {
		logger.Info("MatchLeave: Terminating empty lobby.")
		return nil
	}
	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case protocol.OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case protocol.OpActionPlaceTile:
			mh.handlePlaceTile(matchState, dispatcher, logger, msg)
		case protocol.OpActionPlaceMeeple:
			mh.handlePlaceMeeple(matchState, dispatcher, logger, msg)
		case protocol.OpActionSkip:
			mh.handleAction(matchState, dispatcher, logger, msg, func(slot int) ([]app.Event, error) {
				return matchState.App.SkipMeeple(matchState.Game, slot)
			})
		case protocol.OpActionUndo:
			mh.handleAction(matchState, dispatcher, logger, msg, func(slot int) ([]app.Event, error) {
				return matchState.App.Undo(matchState.Game, slot)
			})
		case protocol.OpPong:
			mh.handlePong(matchState, logger, msg)
		case protocol.OpSnapshotRequest:
			mh.handleSnapshotRequest(matchState, dispatcher, logger, msg.GetUserId())
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	mh.processHeartbeats(matchState, dispatcher, logger)
	mh.processGrace(matchState, dispatcher, logger)
	mh.processAgents(matchState, dispatcher, logger)

	return matchState
}

// handleStartGame starts the game for the seated players. Owner-only.
func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderSeat := state.seatOf(msg.GetUserId())
	if state.Game != nil {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), protocol.CodeAlreadyStarted, "game already started")
		return
	}
	if senderSeat != state.OwnerSeat {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), protocol.CodeIllegalAction, "only the owner can start the game")
		return
	}
	occupied := state.GetOccupiedSeatCount()
	if occupied < app.MinPlayersToStartGame {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), protocol.CodeIllegalAction, "not enough players")
		return
	}

	// Seats left open before the start compact away, so the game's player
	// slots are not the lobby seat numbers. The mapping is kept per seat.
	names := make([]string, 0, occupied)
	slots := make([]int, len(state.Seats))
	for i, userID := range state.Seats {
		if userID == "" {
			slots[i] = -1
			continue
		}
		slots[i] = len(names)
		names = append(names, state.Names[i])
	}

	var (
		game   *domain.Game
		events []app.Event
		err    error
	)
	if state.DebugConfig != "" {
		game, events, err = state.App.LoadDebugGame(state.DebugConfig)
	} else {
		game, events, err = state.App.StartGame(names, state.Rules, state.Seed)
	}
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), protocol.CodeFor(err), err.Error())
		return
	}
	state.Game = game
	if state.DebugConfig != "" {
		// Debug games carry their own roster; seats map straight through.
		for i := range slots {
			slots[i] = i
		}
	}
	state.Slots = slots
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastDelta(state, dispatcher, logger, events)
	logger.Info("StartGame: Game started with %d players.", occupied)
}

func (mh *matchHandler) handlePlaceTile(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	var req protocol.PlaceTilePayload
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), protocol.CodeInternal, "malformed place_tile payload")
		return
	}
	mh.handleAction(state, dispatcher, logger, msg, func(slot int) ([]app.Event, error) {
		return state.App.PlaceTile(state.Game, slot, domain.GridPos{X: req.X, Y: req.Y}, req.Rotation)
	})
}

func (mh *matchHandler) handlePlaceMeeple(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	var req protocol.PlaceMeeplePayload
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), protocol.CodeInternal, "malformed place_meeple payload")
		return
	}
	mh.handleAction(state, dispatcher, logger, msg, func(slot int) ([]app.Event, error) {
		seg := domain.SegmentID{Pos: domain.GridPos{X: req.X, Y: req.Y}, Index: req.Segment}
		return state.App.PlaceMeeple(state.Game, slot, seg)
	})
}

// handleAction resolves the sender's seat, applies the action, and either
// broadcasts the resulting delta or reports the rejection to the sender only.
func (mh *matchHandler) handleAction(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData, action func(slot int) ([]app.Event, error)) {
	if state.Game == nil {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), protocol.CodeIllegalAction, "game not started")
		return
	}
	senderSeat := state.seatOf(msg.GetUserId())
	events, err := action(state.slotOf(senderSeat))
	if err != nil {
		logger.Warn("handleAction: User %s (seat %d) rejected: %v", msg.GetUserId(), senderSeat, err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), protocol.CodeFor(err), err.Error())
		return
	}
	mh.broadcastDelta(state, dispatcher, logger, events)
	if state.Game.Phase == domain.PhaseEnded {
		mh.finishGame(state, dispatcher, logger)
	}
}

func (mh *matchHandler) handlePong(state *MatchState, logger runtime.Logger, msg runtime.MatchData) {
	var pong protocol.PongPayload
	if err := json.Unmarshal(msg.GetData(), &pong); err != nil {
		logger.Warn("handlePong: malformed pong from %s", msg.GetUserId())
		return
	}
	health, ok := state.Health[msg.GetUserId()]
	if !ok {
		return
	}
	if health.AwaitingPong && pong.Nonce == health.PingNonce {
		health.AwaitingPong = false
		health.MissedPongs = 0
		health.LatencyMillis = time.Now().UnixMilli() - pong.Nonce
	}
}

func (mh *matchHandler) handleSnapshotRequest(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	if state.Game == nil {
		mh.sendError(state, dispatcher, logger, userID, protocol.CodeIllegalAction, "game not started")
		return
	}
	snapshot, err := save.Marshal(state.Game)
	if err != nil {
		logger.Error("handleSnapshotRequest: %v", err)
		return
	}
	mh.sendTo(state, dispatcher, logger, userID, protocol.OpStateSnapshot, protocol.SnapshotPayload{
		Seq:      state.Seq,
		Snapshot: snapshot,
	})
}

// processHeartbeats pings each connected seat on the configured interval and
// marks a seat disconnected after the configured number of unanswered pings.
func (mh *matchHandler) processHeartbeats(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	for seat, userID := range state.Seats {
		if userID == "" {
			continue
		}
		health := state.Health[userID]
		if health == nil || health.Disconnected {
			continue
		}
		if state.Tick-health.LastPingTick < state.PingIntervalTicks {
			continue
		}
		if health.AwaitingPong {
			health.MissedPongs++
			if health.MissedPongs >= state.MaxMissedPongs {
				health.Disconnected = true
				health.DroppedAtTick = state.Tick
				logger.Info("Heartbeat: Seat %d (%s) missed %d pongs, marked disconnected.", seat, userID, health.MissedPongs)
				mh.broadcast(dispatcher, logger, protocol.OpPlayerConn, protocol.PlayerConnPayload{
					Slot: state.playerSlot(seat), Name: state.Names[seat],
					Status: protocol.StatusDisconnected, LatencyMillis: health.LatencyMillis,
				})
				continue
			}
		}
		health.PingNonce = time.Now().UnixMilli()
		health.AwaitingPong = true
		health.LastPingTick = state.Tick
		mh.sendTo(state, dispatcher, logger, userID, protocol.OpPing, protocol.PingPayload{Nonce: health.PingNonce})
	}
}

// processGrace applies the forfeit policy to seats whose grace period ran out.
func (mh *matchHandler) processGrace(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Game == nil {
		return
	}
	for seat, userID := range state.Seats {
		if userID == "" {
			continue
		}
		health := state.Health[userID]
		if health == nil || !health.Disconnected || health.Forfeited {
			continue
		}
		if state.Tick-health.DroppedAtTick < state.GraceTicks {
			continue
		}
		health.Forfeited = true
		slot := state.slotOf(seat)
		latency := health.LatencyMillis
		// The agent keeps the game moving under either policy; the domain
		// has no turn skipping, so an unmanned slot would wedge everyone.
		state.Agents[slot] = autoplay.NewAgent(state.Seed + int64(seat))
		if state.ForfeitPolicy == config.ForfeitRemove {
			returned := state.Game.ForfeitPlayer(domain.PlayerID(slot))
			// The seat itself is freed; the name stays so the player can
			// reclaim it, which also relieves the agent.
			state.Seats[seat] = ""
			delete(state.Health, userID)
			if p, ok := state.Presences[userID]; ok {
				if err := dispatcher.MatchKick([]runtime.Presence{p}); err != nil {
					logger.Warn("Grace: Failed to kick %s: %v", userID, err)
				}
				delete(state.Presences, userID)
			}
			logger.Info("Grace: Seat %d (%s) removed, %d meeples returned.", seat, userID, returned)
			mh.updateLabel(state, dispatcher, logger)
		} else {
			logger.Info("Grace: Seat %d (%s) handed to autoplay.", seat, userID)
		}
		mh.broadcast(dispatcher, logger, protocol.OpPlayerConn, protocol.PlayerConnPayload{
			Slot: state.playerSlot(seat), Name: state.Names[seat],
			Status: protocol.StatusForfeited, LatencyMillis: latency,
		})
	}
}

// processAgents lets the autoplay agent take one step per tick for any
// forfeited seat whose turn it is.
func (mh *matchHandler) processAgents(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Game == nil || state.Game.Phase == domain.PhaseEnded {
		return
	}
	slot := int(state.Game.Current)
	agent, ok := state.Agents[slot]
	if !ok {
		return
	}
	move, err := agent.Decide(state.Game)
	if err != nil {
		return
	}
	var events []app.Event
	if move.Placement != nil {
		events, err = state.App.PlaceTile(state.Game, slot, move.Placement.Pos, move.Placement.Rotation)
	} else if move.Skip {
		events, err = state.App.SkipMeeple(state.Game, slot)
	}
	if err != nil {
		logger.Error("processAgents: Slot %d autoplay failed: %v", slot, err)
		return
	}
	mh.broadcastDelta(state, dispatcher, logger, events)
	if state.Game.Phase == domain.PhaseEnded {
		mh.finishGame(state, dispatcher, logger)
	}
}

// broadcastDelta wraps the ordered events of one mutation in a single
// sequenced delta. All service events are public.
func (mh *matchHandler) broadcastDelta(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	if len(events) == 0 {
		return
	}
	state.Seq++
	delta := protocol.DeltaPayload{Seq: state.Seq, Events: make([]protocol.EventEnvelope, 0, len(events))}
	for _, ev := range events {
		data, err := json.Marshal(ev.Payload)
		if err != nil {
			logger.Error("broadcastDelta: Failed to marshal %s payload: %v", ev.Kind, err)
			continue
		}
		delta.Events = append(delta.Events, protocol.EventEnvelope{Kind: string(ev.Kind), Data: data})
	}
	mh.broadcast(dispatcher, logger, protocol.OpStateDelta, delta)
}

func (mh *matchHandler) finishGame(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	state.Agents = make(map[int]*autoplay.Agent)
	mh.updateLabel(state, dispatcher, logger)
}

func (mh *matchHandler) broadcast(dispatcher runtime.MatchDispatcher, logger runtime.Logger, opCode int64, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("broadcast: Failed to marshal payload for opcode %d: %v", opCode, err)
		return
	}
	dispatcher.BroadcastMessage(opCode, data, nil, nil, true)
}

// sendTo targets a single connected user.
func (mh *matchHandler) sendTo(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, opCode int64, payload any) {
	presence, ok := state.Presences[userID]
	if !ok {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("sendTo: Failed to marshal payload for opcode %d: %v", opCode, err)
		return
	}
	dispatcher.BroadcastMessage(opCode, data, []runtime.Presence{presence}, nil, true)
}

// sendError reports a rejection to the originator only.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID, code, message string) {
	mh.sendTo(state, dispatcher, logger, userID, protocol.OpActionRejected, protocol.ActionRejectedPayload{
		Code:    code,
		Message: message,
	})
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	phase := "lobby"
	if state.Game != nil {
		phase = string(state.Game.Phase)
	}
	labelBytes, err := json.Marshal(&MatchLabel{
		Game:  "carcassonne",
		Open:  state.GetOpenSeatsCount(),
		Phase: phase,
	})
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(labelBytes)); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

// MatchTerminate writes a final snapshot so an in-progress game survives a
// host shutdown.
func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	if matchState.Game != nil && matchState.Store != nil {
		matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
		data, err := save.Marshal(matchState.Game)
		if err != nil {
			logger.Error("MatchTerminate: Failed to serialize final snapshot: %v", err)
		} else if err := matchState.Store.Save(ctx, matchID, data); err != nil {
			logger.Error("MatchTerminate: Failed to persist final snapshot: %v", err)
		}
	}
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
