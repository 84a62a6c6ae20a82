// Package config loads the host configuration: server settings, heartbeat
// tuning, and the scoring rule values. Files are YAML; environment
// variables overlay file values so containerized deploys can tune a host
// without editing files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"

	"carcassonne/internal/domain"
)

// ServerConfig holds transport and session settings for a host.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	Transport       string `yaml:"transport"` // "ws" or "tcp"
	Players         int    `yaml:"players"`
	Seed            int64  `yaml:"seed"`
	PingIntervalSec int    `yaml:"ping_interval_sec"`
	MaxMissedPongs  int    `yaml:"max_missed_pongs"`
	GracePeriodSec  int    `yaml:"grace_period_sec"`
	ForfeitPolicy   string `yaml:"forfeit_policy"` // "autoplay" or "remove"
	SaveDir         string `yaml:"save_dir"`
	TokenSecret     string `yaml:"token_secret"`
	TokenIssuer     string `yaml:"token_issuer"`
	DebugConfig     string `yaml:"debug_config"`
}

// RulesConfig mirrors domain.Rules with file tags, keeping the domain
// package free of serialization concerns.
type RulesConfig struct {
	RoadPerTile    int  `yaml:"road_per_tile"`
	InnDoubles     bool `yaml:"inn_doubles"`
	CityPerTile    int  `yaml:"city_per_tile"`
	ShieldBonus    int  `yaml:"shield_bonus"`
	CloisterBase   int  `yaml:"cloister_base"`
	FieldPerCity   int  `yaml:"field_per_city"`
	AllowContested bool `yaml:"allow_contested"`
}

type Config struct {
	Server ServerConfig `yaml:"server"`
	Rules  RulesConfig  `yaml:"rules"`
}

// Forfeit policies.
const (
	ForfeitAutoplay = "autoplay"
	ForfeitRemove   = "remove"
)

// Default returns the stock configuration: 5 second pings, 3 missed pongs,
// 60 second grace, base-game scoring.
func Default() *Config {
	r := domain.DefaultRules()
	return &Config{
		Server: ServerConfig{
			Addr:            ":7350",
			Transport:       "ws",
			Players:         2,
			PingIntervalSec: 5,
			MaxMissedPongs:  3,
			GracePeriodSec:  60,
			ForfeitPolicy:   ForfeitAutoplay,
			SaveDir:         "saves",
			TokenIssuer:     "carcassonne-host",
		},
		Rules: RulesConfig{
			RoadPerTile:    r.RoadPerTile,
			InnDoubles:     r.InnDoubles,
			CityPerTile:    r.CityPerTile,
			ShieldBonus:    r.ShieldBonus,
			CloisterBase:   r.CloisterBase,
			FieldPerCity:   r.FieldPerCity,
			AllowContested: r.AllowContested,
		},
	}
}

// ToRules converts file values to the domain ruleset.
func (r RulesConfig) ToRules() domain.Rules {
	return domain.Rules{
		RoadPerTile:    r.RoadPerTile,
		InnDoubles:     r.InnDoubles,
		CityPerTile:    r.CityPerTile,
		ShieldBonus:    r.ShieldBonus,
		CloisterBase:   r.CloisterBase,
		FieldPerCity:   r.FieldPerCity,
		AllowContested: r.AllowContested,
	}
}

var (
	cfg      *Config
	loadOnce sync.Once
	loadErr  error
)

// Load reads the configuration once for the process. An empty path yields
// defaults; either way the environment overlay applies.
func Load(path string) (*Config, error) {
	loadOnce.Do(func() {
		cfg, loadErr = Read(path)
	})
	return cfg, loadErr
}

// Read parses a configuration without the process-wide cache. Tests and
// multi-host tools use this directly.
func Read(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CARCASSONNE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("CARCASSONNE_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
	if v := os.Getenv("CARCASSONNE_PLAYERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.Players = n
		}
	}
	if v := os.Getenv("CARCASSONNE_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Server.Seed = n
		}
	}
	if v := os.Getenv("CARCASSONNE_PING_INTERVAL_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.PingIntervalSec = n
		}
	}
	if v := os.Getenv("CARCASSONNE_MAX_MISSED_PONGS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.MaxMissedPongs = n
		}
	}
	if v := os.Getenv("CARCASSONNE_GRACE_PERIOD_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.GracePeriodSec = n
		}
	}
	if v := os.Getenv("CARCASSONNE_FORFEIT_POLICY"); v != "" {
		c.Server.ForfeitPolicy = v
	}
	if v := os.Getenv("CARCASSONNE_SAVE_DIR"); v != "" {
		c.Server.SaveDir = v
	}
	if v := os.Getenv("CARCASSONNE_TOKEN_SECRET"); v != "" {
		c.Server.TokenSecret = v
	}
	if v := os.Getenv("CARCASSONNE_TOKEN_ISSUER"); v != "" {
		c.Server.TokenIssuer = v
	}
	if v := os.Getenv("CARCASSONNE_DEBUG_CONFIG"); v != "" {
		c.Server.DebugConfig = v
	}
}

// Validate rejects settings the host cannot run with.
func (c *Config) Validate() error {
	if c.Server.Players < domain.MinPlayers || c.Server.Players > domain.MaxPlayers {
		return fmt.Errorf("players %d out of range %d..%d", c.Server.Players, domain.MinPlayers, domain.MaxPlayers)
	}
	if c.Server.Transport != "ws" && c.Server.Transport != "tcp" {
		return fmt.Errorf("unknown transport %q", c.Server.Transport)
	}
	if c.Server.PingIntervalSec <= 0 {
		return fmt.Errorf("ping interval must be positive")
	}
	if c.Server.MaxMissedPongs <= 0 {
		return fmt.Errorf("max missed pongs must be positive")
	}
	if c.Server.GracePeriodSec < 0 {
		return fmt.Errorf("grace period must not be negative")
	}
	if c.Server.ForfeitPolicy != ForfeitAutoplay && c.Server.ForfeitPolicy != ForfeitRemove {
		return fmt.Errorf("unknown forfeit policy %q", c.Server.ForfeitPolicy)
	}
	return nil
}
