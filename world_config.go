package server

import "short-order/server/internal/game"

// Config is the top-level simulation configuration. Zero values are
// normalized to sane defaults so a blank Config runs.
type Config struct {
	// CustomersEnabled selects the customer-driven loop over the standalone
	// order loop.
	CustomersEnabled bool `json:"customersEnabled"`
	// Seed fixes the simulation RNG for reproducible runs. Zero seeds from
	// the clock.
	Seed int64 `json:"seed"`
	// TickRate is simulation steps per second.
	TickRate int `json:"tickRate"`
	// LevelFile overrides the embedded level set.
	LevelFile string `json:"levelFile"`
	// DataDir is where session state persists. Empty means in-memory only.
	DataDir string `json:"dataDir"`

	Coordinator game.CoordinatorConfig `json:"coordinator"`
}

func DefaultConfig() Config {
	return Config{
		CustomersEnabled: true,
		TickRate:         30,
		Coordinator:      game.DefaultCoordinatorConfig(),
	}
}

func (c Config) normalized() Config {
	if c.TickRate <= 0 {
		c.TickRate = 30
	}
	if c.Coordinator == (game.CoordinatorConfig{}) {
		c.Coordinator = game.DefaultCoordinatorConfig()
	}
	return c
}
