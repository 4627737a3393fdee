package config

import (
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/chaitanya176/aco-last-mile/internal/logging"
	"github.com/chaitanya176/aco-last-mile/internal/optimization/aco"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Solver struct {
		Alpha    float64 `env:"ACO_ALPHA" envDefault:"1"`
		Beta     float64 `env:"ACO_BETA" envDefault:"3"`
		Rho      float64 `env:"ACO_RHO" envDefault:"0.4"`
		Q        float64 `env:"ACO_Q" envDefault:"1"`
		Elite    float64 `env:"ACO_ELITE" envDefault:"0.5"`
		T0       float64 `env:"ACO_T0" envDefault:"0.01"`
		Limit    int     `env:"ACO_LIMIT" envDefault:"100"`
		AntCount int     `env:"ACO_ANT_COUNT" envDefault:"10"`
		Seed     int64   `env:"ACO_SEED" envDefault:"0"`
		Start    int     `env:"ACO_START" envDefault:"-1"`
	}
	Optimization struct {
		WorkerCount int `env:"OPT_WORKER_COUNT" envDefault:"4"`
		MaxJobs     int `env:"OPT_MAX_JOBS" envDefault:"8"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Set default logging level based on environment
	if cfg.Logging.Level == "" {
		if cfg.Environment == "development" {
			cfg.Logging.Level = "debug"
		} else {
			cfg.Logging.Level = "info"
		}
	}

	if cfg.Optimization.WorkerCount < 1 {
		cfg.Optimization.WorkerCount = 1
	}

	return cfg, nil
}

// LoggingConfig returns the logger settings.
func (c *Config) LoggingConfig() *logging.Config {
	return &logging.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Output: c.Logging.Output,
	}
}

// SolverConfig returns the default solver settings. It is not validated here;
// aco.NewSolver does that.
func (c *Config) SolverConfig() aco.Config {
	return aco.Config{
		Alpha:    c.Solver.Alpha,
		Beta:     c.Solver.Beta,
		Rho:      c.Solver.Rho,
		Q:        c.Solver.Q,
		Elite:    c.Solver.Elite,
		T0:       c.Solver.T0,
		Limit:    c.Solver.Limit,
		AntCount: c.Solver.AntCount,
		Seed:     c.Solver.Seed,
		Workers:  c.Optimization.WorkerCount,
		Start:    c.Solver.Start,
	}
}
