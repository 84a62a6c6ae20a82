package app

import "carcassonne/internal/domain"

// EventKind identifies emitted domain events for transport dispatch.
type EventKind string

const (
	EventGameStarted     EventKind = "game_started"
	EventTileDrawn       EventKind = "tile_drawn"
	EventTilePlaced      EventKind = "tile_placed"
	EventMeeplePlaced    EventKind = "meeple_placed"
	EventMeepleSkipped   EventKind = "meeple_skipped"
	EventGroupsScored    EventKind = "groups_scored"
	EventTurnAdvanced    EventKind = "turn_advanced"
	EventPlacementUndone EventKind = "placement_undone"
	EventGameEnded       EventKind = "game_ended"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

// PlayerInfo is the public view of a seat.
type PlayerInfo struct {
	Slot    int          `json:"slot"`
	Name    string       `json:"name"`
	Color   domain.Color `json:"color"`
	Score   int          `json:"score"`
	Meeples int          `json:"meeples"`
}

type GameStartedPayload struct {
	Players     []PlayerInfo `json:"players"`
	CurrentSlot int          `json:"current_slot"`
}

type TileDrawnPayload struct {
	Slot      int    `json:"slot"`
	Tile      string `json:"tile"`
	Remaining int    `json:"remaining"`
	Discarded int    `json:"discarded"`
}

type TilePlacedPayload struct {
	Slot     int              `json:"slot"`
	Tile     string           `json:"tile"`
	X        int              `json:"x"`
	Y        int              `json:"y"`
	Rotation int              `json:"rotation"`
	Closed   []domain.GroupID `json:"closed,omitempty"`
}

type MeeplePlacedPayload struct {
	Slot        int `json:"slot"`
	X           int `json:"x"`
	Y           int `json:"y"`
	Segment     int `json:"segment"`
	MeeplesLeft int `json:"meeples_left"`
}

type MeepleSkippedPayload struct {
	Slot int `json:"slot"`
}

// GroupScore is one scored group, flattened for the wire.
type GroupScore struct {
	Group   domain.GroupID `json:"group"`
	Kind    string         `json:"kind"`
	Points  int            `json:"points"`
	Winners []int          `json:"winners"`
}

type GroupsScoredPayload struct {
	Scores    []GroupScore `json:"scores"`
	AtGameEnd bool         `json:"at_game_end"`
}

type TurnAdvancedPayload struct {
	NextSlot  int          `json:"next_slot"`
	Phase     domain.Phase `json:"phase"`
	TilesLeft int          `json:"tiles_left"`
}

type PlacementUndonePayload struct {
	Slot int `json:"slot"`
	X    int `json:"x"`
	Y    int `json:"y"`
}

type FinalScore struct {
	Slot  int    `json:"slot"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type GameEndedPayload struct {
	Scores []FinalScore `json:"scores"`
}

func groupScores(results []domain.ScoreResult) []GroupScore {
	out := make([]GroupScore, 0, len(results))
	for _, r := range results {
		winners := make([]int, 0, len(r.Winners))
		for _, w := range r.Winners {
			winners = append(winners, int(w))
		}
		out = append(out, GroupScore{
			Group:   r.Group,
			Kind:    r.Kind.String(),
			Points:  r.Points,
			Winners: winners,
		})
	}
	return out
}
