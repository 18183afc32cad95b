// Package config loads gridcount settings from the environment and command
// line flags. Environment values become flag defaults, so flags win.
package config

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/born-ml/gridcount/internal/count"
	"github.com/born-ml/gridcount/internal/grid"
	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// Config holds the settings shared by the CLI commands.
type Config struct {
	Rows    int     `env:"GRIDCOUNT_ROWS" envDefault:"1000"`
	Cols    int     `env:"GRIDCOUNT_COLS" envDefault:"1000"`
	FillMin float64 `env:"GRIDCOUNT_FILL_MIN" envDefault:"0"`
	FillMax float64 `env:"GRIDCOUNT_FILL_MAX" envDefault:"1"`

	BlockSize int `env:"GRIDCOUNT_BLOCK_SIZE" envDefault:"50"`
	Workers   int `env:"GRIDCOUNT_WORKERS" envDefault:"0"` // 0 picks parallel.DefaultWorkers.

	Threshold float64 `env:"GRIDCOUNT_THRESHOLD" envDefault:"0.5"`
	Trials    int     `env:"GRIDCOUNT_TRIALS" envDefault:"10"`
	Seed      *uint64 `env:"GRIDCOUNT_SEED"` // nil draws a fresh seed per grid.

	LogLevel string `env:"GRIDCOUNT_LOG_LEVEL" envDefault:"info"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load returns the environment configuration with defaults applied.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// BindFlags registers a flag for every field, defaulting to the current value.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.Rows, "rows", c.Rows, "grid rows")
	fs.IntVar(&c.Cols, "cols", c.Cols, "grid columns")
	fs.Float64Var(&c.FillMin, "min", c.FillMin, "lower bound of random fill (inclusive)")
	fs.Float64Var(&c.FillMax, "max", c.FillMax, "upper bound of random fill (exclusive)")
	fs.IntVar(&c.BlockSize, "block", c.BlockSize, "block edge length")
	fs.IntVar(&c.Workers, "workers", c.Workers, "worker goroutines (0 = CPUs-1)")
	fs.Float64Var(&c.Threshold, "threshold", c.Threshold, "count values greater than this")
	fs.IntVar(&c.Trials, "trials", c.Trials, "benchmark trials per mode")
	fs.Var(&seedValue{p: &c.Seed}, "seed", "random fill seed, any uint64 including 0 (unset = fresh seed)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "trace, debug, info, warn or error")
}

// seedValue is an optional uint64 flag. It stays nil until set.
type seedValue struct {
	p **uint64
}

func (v *seedValue) String() string {
	if v.p == nil || *v.p == nil {
		return ""
	}
	return strconv.FormatUint(**v.p, 10)
}

func (v *seedValue) Set(s string) error {
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return err
	}
	*v.p = &n
	return nil
}

func (v *seedValue) Type() string {
	return "uint64"
}

// ParseConfigFromArgs loads the environment into cfg, binds flags on fs and
// parses args.
func ParseConfigFromArgs(cfg *Config, fs *pflag.FlagSet, args []string) error {
	if cfg == nil || fs == nil {
		return fmt.Errorf("%w: config and flag set are required", grid.ErrInvalidInput)
	}
	if err := ParseEnv(cfg); err != nil {
		return err
	}
	cfg.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return cfg.Validate()
}

// Validate checks the configuration before any grid is built.
func (c Config) Validate() error {
	if err := (grid.Shape{Rows: c.Rows, Cols: c.Cols}).Validate(); err != nil {
		return err
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("%w: block size %d (must be > 0)", grid.ErrInvalidInput, c.BlockSize)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d (must be >= 0)", grid.ErrInvalidInput, c.Workers)
	}
	if c.Trials <= 0 {
		return fmt.Errorf("%w: trials %d (must be > 0)", grid.ErrInvalidInput, c.Trials)
	}
	if c.FillMax <= c.FillMin {
		return fmt.Errorf("%w: fill range [%v, %v) is empty", grid.ErrInvalidInput, c.FillMin, c.FillMax)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// CountOptions converts the block and worker settings to count options.
func (c Config) CountOptions() []count.Option {
	opts := []count.Option{count.WithBlockSize(c.BlockSize)}
	if c.Workers > 0 {
		opts = append(opts, count.WithWorkers(c.Workers))
	}
	return opts
}

// RandomOptions converts the fill settings to grid options.
func (c Config) RandomOptions() []grid.RandomOption {
	opts := []grid.RandomOption{grid.WithRange(c.FillMin, c.FillMax)}
	if c.Seed != nil {
		opts = append(opts, grid.WithSeed(*c.Seed))
	}
	return opts
}

// Level parses LogLevel.
func (c Config) Level() (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(c.LogLevel))
	if err != nil {
		return 0, fmt.Errorf("%w: log level %q", grid.ErrInvalidInput, c.LogLevel)
	}
	return lvl, nil
}

// Logger returns a text logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) (*logrus.Logger, error) {
	lvl, err := c.Level()
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger, nil
}
