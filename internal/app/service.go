package app

import (
	"errors"
	"fmt"

	"carcassonne/internal/domain"
)

var (
	ErrNotYourTurn    = errors.New("not your turn")
	ErrGameFull       = errors.New("game is full")
	ErrAlreadyStarted = errors.New("game already started")
	ErrNotStarted     = errors.New("game not started")
)

// Service applies player actions to a game and returns the ordered events
// the transport must broadcast. It holds no state of its own; the match
// loop owns the game and serializes access.
type Service struct{}

func NewService() *Service { return &Service{} }

// StartGame creates a standard game and draws the first tile.
func (s *Service) StartGame(names []string, rules domain.Rules, seed int64) (*domain.Game, []Event, error) {
	g, err := domain.NewGame(names, rules, seed)
	if err != nil {
		return nil, nil, err
	}
	return s.started(g)
}

// LoadDebugGame builds the named scripted game and draws its first tile.
func (s *Service) LoadDebugGame(name string) (*domain.Game, []Event, error) {
	g, err := domain.NewDebugGame(name)
	if err != nil {
		return nil, nil, err
	}
	return s.started(g)
}

func (s *Service) started(g *domain.Game) (*domain.Game, []Event, error) {
	events := []Event{{Kind: EventGameStarted, Payload: GameStartedPayload{
		Players:     playerInfos(g),
		CurrentSlot: int(g.Current),
	}}}
	drawn, err := s.draw(g)
	if err != nil {
		return nil, nil, err
	}
	return g, append(events, drawn...), nil
}

// PlaceTile handles a place-tile action from the given seat.
func (s *Service) PlaceTile(g *domain.Game, slot int, pos domain.GridPos, rotation int) ([]Event, error) {
	if err := requireTurn(g, slot); err != nil {
		return nil, err
	}
	name, _, _ := g.DrawnTile()
	effect, err := g.PlaceDrawnTile(pos, rotation)
	if err != nil {
		return nil, err
	}
	return []Event{{Kind: EventTilePlaced, Payload: TilePlacedPayload{
		Slot:     slot,
		Tile:     name,
		X:        pos.X,
		Y:        pos.Y,
		Rotation: rotation,
		Closed:   effect.Closed,
	}}}, nil
}

// PlaceMeeple handles a place-meeple action, then resolves scoring, turn
// advance and the next draw.
func (s *Service) PlaceMeeple(g *domain.Game, slot int, seg domain.SegmentID) ([]Event, error) {
	if err := requireTurn(g, slot); err != nil {
		return nil, err
	}
	results, err := g.PlaceMeepleAction(seg)
	if err != nil {
		return nil, err
	}
	events := []Event{{Kind: EventMeeplePlaced, Payload: MeeplePlacedPayload{
		Slot:        slot,
		X:           seg.Pos.X,
		Y:           seg.Pos.Y,
		Segment:     seg.Index,
		MeeplesLeft: g.Players[slot].Meeples,
	}}}
	return s.afterTurn(g, events, results)
}

// SkipMeeple declines the meeple, then resolves scoring, turn advance and
// the next draw.
func (s *Service) SkipMeeple(g *domain.Game, slot int) ([]Event, error) {
	if err := requireTurn(g, slot); err != nil {
		return nil, err
	}
	results, err := g.SkipMeepleAction()
	if err != nil {
		return nil, err
	}
	events := []Event{{Kind: EventMeepleSkipped, Payload: MeepleSkippedPayload{Slot: slot}}}
	return s.afterTurn(g, events, results)
}

// Undo reverses the pending placement and returns the seat to tile placement.
func (s *Service) Undo(g *domain.Game, slot int) ([]Event, error) {
	if err := requireTurn(g, slot); err != nil {
		return nil, err
	}
	last, ok := g.Board.LastPlaced()
	if !ok {
		return nil, domain.ErrNothingToUndo
	}
	pos := last.Pos
	if err := g.UndoAction(); err != nil {
		return nil, err
	}
	return []Event{{Kind: EventPlacementUndone, Payload: PlacementUndonePayload{
		Slot: slot,
		X:    pos.X,
		Y:    pos.Y,
	}}}, nil
}

func (s *Service) afterTurn(g *domain.Game, events []Event, results []domain.ScoreResult) ([]Event, error) {
	if len(results) > 0 {
		events = append(events, Event{Kind: EventGroupsScored, Payload: GroupsScoredPayload{
			Scores: groupScores(results),
		}})
	}
	if g.Phase == domain.PhaseEnded {
		return append(events, s.endEvents(g)...), nil
	}
	events = append(events, Event{Kind: EventTurnAdvanced, Payload: TurnAdvancedPayload{
		NextSlot:  int(g.Current),
		Phase:     g.Phase,
		TilesLeft: g.Deck.Len(),
	}})
	drawn, err := s.draw(g)
	if err != nil {
		return nil, err
	}
	return append(events, drawn...), nil
}

// draw pulls the next tile for the current seat. Deck exhaustion ends the
// game and emits the final scoring events instead.
func (s *Service) draw(g *domain.Game) ([]Event, error) {
	name, err := g.DrawTile()
	if errors.Is(err, domain.ErrDeckExhausted) {
		return s.endEvents(g), nil
	}
	if err != nil {
		return nil, err
	}
	return []Event{{Kind: EventTileDrawn, Payload: TileDrawnPayload{
		Slot:      int(g.Current),
		Tile:      name,
		Remaining: g.Deck.Len(),
		Discarded: len(g.Deck.Discarded),
	}}}, nil
}

func (s *Service) endEvents(g *domain.Game) []Event {
	var events []Event
	if results := g.ScoreEndOfGame(); len(results) > 0 {
		events = append(events, Event{Kind: EventGroupsScored, Payload: GroupsScoredPayload{
			Scores:    groupScores(results),
			AtGameEnd: true,
		}})
	}
	final := make([]FinalScore, len(g.Players))
	for i, p := range g.Players {
		final[i] = FinalScore{Slot: i, Name: p.Name, Score: p.Score}
	}
	return append(events, Event{Kind: EventGameEnded, Payload: GameEndedPayload{Scores: final}})
}

func requireTurn(g *domain.Game, slot int) error {
	if g == nil {
		return ErrNotStarted
	}
	if slot < 0 || slot >= len(g.Players) {
		return fmt.Errorf("%w: seat %d", ErrNotYourTurn, slot)
	}
	if int(g.Current) != slot {
		return fmt.Errorf("%w: seat %d, current seat %d", ErrNotYourTurn, slot, g.Current)
	}
	return nil
}

func playerInfos(g *domain.Game) []PlayerInfo {
	out := make([]PlayerInfo, len(g.Players))
	for i, p := range g.Players {
		out[i] = PlayerInfo{Slot: i, Name: p.Name, Color: p.Color, Score: p.Score, Meeples: p.Meeples}
	}
	return out
}
