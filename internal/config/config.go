// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable of the reading core. Defaults match the
// reference corpus: one cache entry per section plus one per bundle.
type Config struct {
	// DBPath locates the on-device SQLite database.
	DBPath string `env:"KITAB_DB" envDefault:"kitab.db"`

	// APIBase is the remote content API's base URL.
	APIBase string `env:"KITAB_API_BASE" envDefault:"http://localhost:8080"`

	// NetTimeout bounds network attempts of the network-first tier.
	NetTimeout time.Duration `env:"KITAB_NET_TIMEOUT" envDefault:"5s"`

	// PolicyPath optionally overrides the embedded cache tier policy
	// with a CUE file on disk.
	PolicyPath string `env:"KITAB_POLICY" envDefault:""`

	// Sections and Bundles size the reference corpus for precaching.
	Sections int `env:"KITAB_SECTIONS" envDefault:"114"`
	Bundles  int `env:"KITAB_BUNDLES" envDefault:"30"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.NetTimeout <= 0 {
		return Config{}, fmt.Errorf("KITAB_NET_TIMEOUT must be positive, got %s", cfg.NetTimeout)
	}
	return cfg, nil
}
