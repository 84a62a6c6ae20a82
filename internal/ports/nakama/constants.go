package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"

	// RpcDebugConfigs is the Nakama RPC id clients call to enumerate scripted debug games.
	RpcDebugConfigs = "debug_configs"

	// MatchNameCarcassonne is the authoritative match handler name registered with Nakama.
	MatchNameCarcassonne = "carcassonne_match"

	// SaveCollection is the storage collection final snapshots are written to.
	SaveCollection = "carcassonne_saves"
)

// Environment variable keys read in MatchInit.
const (
	envPlayers        = "carcassonne_players"
	envPingInterval   = "carcassonne_ping_interval_sec"
	envMaxMissedPongs = "carcassonne_max_missed_pongs"
	envGracePeriod    = "carcassonne_grace_period_sec"
	envForfeitPolicy  = "carcassonne_forfeit_policy"
	envTokenSecret    = "carcassonne_token_secret"
	envTokenIssuer    = "carcassonne_token_issuer"
	envSeed           = "carcassonne_seed"
	envDebugConfig    = "carcassonne_debug_config"
)
