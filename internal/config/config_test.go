package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"carcassonne/internal/domain"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestReadEmptyPathYieldsDefaults(t *testing.T) {
	c, err := Read("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != ":7350" || c.Server.Transport != "ws" {
		t.Errorf("server = %+v", c.Server)
	}
	if got := c.Rules.ToRules(); !reflect.DeepEqual(got, domain.DefaultRules()) {
		t.Errorf("rules = %+v", got)
	}
}

func TestReadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host.yaml")
	body := `
server:
  addr: ":9000"
  transport: tcp
  players: 4
  forfeit_policy: remove
  save_dir: /tmp/carc
rules:
  inn_doubles: true
  shield_bonus: 3
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != ":9000" || c.Server.Transport != "tcp" || c.Server.Players != 4 {
		t.Errorf("server = %+v", c.Server)
	}
	if c.Server.ForfeitPolicy != ForfeitRemove || c.Server.SaveDir != "/tmp/carc" {
		t.Errorf("server = %+v", c.Server)
	}
	// Untouched keys keep their defaults.
	if c.Server.PingIntervalSec != 5 {
		t.Errorf("ping interval = %d", c.Server.PingIntervalSec)
	}
	if !c.Rules.InnDoubles || c.Rules.ShieldBonus != 3 {
		t.Errorf("rules = %+v", c.Rules)
	}
	if c.Rules.CityPerTile != domain.DefaultRules().CityPerTile {
		t.Errorf("city per tile = %d", c.Rules.CityPerTile)
	}
}

func TestEnvOverlayWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":9000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CARCASSONNE_ADDR", ":9999")
	t.Setenv("CARCASSONNE_PLAYERS", "5")
	t.Setenv("CARCASSONNE_TOKEN_SECRET", "hush")
	t.Setenv("CARCASSONNE_SEED", "1234")

	c, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != ":9999" {
		t.Errorf("addr = %q", c.Server.Addr)
	}
	if c.Server.Players != 5 || c.Server.Seed != 1234 || c.Server.TokenSecret != "hush" {
		t.Errorf("server = %+v", c.Server)
	}
}

func TestReadRejectsMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"TooFewPlayers", func(c *Config) { c.Server.Players = 1 }},
		{"TooManyPlayers", func(c *Config) { c.Server.Players = domain.MaxPlayers + 1 }},
		{"BadTransport", func(c *Config) { c.Server.Transport = "carrier_pigeon" }},
		{"ZeroPingInterval", func(c *Config) { c.Server.PingIntervalSec = 0 }},
		{"ZeroMissedPongs", func(c *Config) { c.Server.MaxMissedPongs = 0 }},
		{"NegativeGrace", func(c *Config) { c.Server.GracePeriodSec = -1 }},
		{"BadForfeitPolicy", func(c *Config) { c.Server.ForfeitPolicy = "sulk" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(c)
			if err := c.Validate(); err == nil {
				t.Fatal("invalid config accepted")
			}
		})
	}
}
