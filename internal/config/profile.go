package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/chaitanya176/aco-last-mile/internal/optimization/aco"
)

// profileFile is the on-disk layout of a solver profile. Only keys present in
// the file override the base configuration.
type profileFile struct {
	Alpha    float64 `toml:"alpha"`
	Beta     float64 `toml:"beta"`
	Rho      float64 `toml:"rho"`
	Q        float64 `toml:"q"`
	Elite    float64 `toml:"elite"`
	T0       float64 `toml:"t0"`
	Limit    int     `toml:"limit"`
	AntCount int     `toml:"ant_count"`
	Seed     int64   `toml:"seed"`
	Start    int     `toml:"start"`
	Workers  int     `toml:"workers"`
}

// LoadProfile applies the TOML solver profile at path on top of base.
func LoadProfile(path string, base aco.Config) (aco.Config, error) {
	var raw profileFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return aco.Config{}, fmt.Errorf("load solver profile: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return aco.Config{}, fmt.Errorf("load solver profile: unknown keys %v", undecoded)
	}

	cfg := base
	if meta.IsDefined("alpha") {
		cfg.Alpha = raw.Alpha
	}
	if meta.IsDefined("beta") {
		cfg.Beta = raw.Beta
	}
	if meta.IsDefined("rho") {
		cfg.Rho = raw.Rho
	}
	if meta.IsDefined("q") {
		cfg.Q = raw.Q
	}
	if meta.IsDefined("elite") {
		cfg.Elite = raw.Elite
	}
	if meta.IsDefined("t0") {
		cfg.T0 = raw.T0
	}
	if meta.IsDefined("limit") {
		cfg.Limit = raw.Limit
	}
	if meta.IsDefined("ant_count") {
		cfg.AntCount = raw.AntCount
	}
	if meta.IsDefined("seed") {
		cfg.Seed = raw.Seed
	}
	if meta.IsDefined("start") {
		cfg.Start = raw.Start
	}
	if meta.IsDefined("workers") {
		cfg.Workers = raw.Workers
	}

	return cfg, nil
}
