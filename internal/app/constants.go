package app

import "time"

// MinPlayersToStartGame defines the minimum number of occupied seats required to start a game.
// Keep this centralized so tests or local runs can adjust the rule without touching multiple call sites.
const MinPlayersToStartGame = 2

// DefaultReconnectTokenTTL bounds how long a dropped player can resume a
// seat with their token.
const DefaultReconnectTokenTTL = 24 * time.Hour
