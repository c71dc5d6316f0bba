// Package config loads the server configuration: YAML file first, then
// environment overrides, then validation.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/xtding233/dicestats/internal/app"
	"github.com/xtding233/dicestats/internal/dice"
	"github.com/xtding233/dicestats/internal/preset"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverYAML     = "yaml"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Server holds all configuration for the dice statistics server.
type Server struct {
	// Network
	HTTPAddr string `yaml:"http_addr" env:"HTTP_ADDR"`
	GRPCAddr string `yaml:"grpc_addr" env:"GRPC_ADDR"` // empty disables gRPC

	LogLevel      string        `yaml:"log_level" env:"LOG_LEVEL"`
	WatchInterval time.Duration `yaml:"watch_interval" env:"WATCH_INTERVAL"` // yaml store only; 0 disables

	Store    StoreConfig    `yaml:"store" envPrefix:"STORE_"`
	Defaults DefaultsConfig `yaml:"defaults" envPrefix:"DEFAULT_"`
	Limits   LimitsConfig   `yaml:"limits" envPrefix:"LIMIT_"`
}

// StoreConfig selects where presets live.
type StoreConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"`
	Path   string `yaml:"path" env:"PATH"` // yaml file or sqlite database
	DSN    string `yaml:"dsn" env:"DSN"`   // postgres
	Key    string `yaml:"key" env:"KEY"`
}

// DefaultsConfig is the configuration a new session starts with.
type DefaultsConfig struct {
	Modifier      string `yaml:"modifier" env:"MODIFIER"`
	RollCount     int    `yaml:"roll_count" env:"ROLL_COUNT"`
	DiceCount     int    `yaml:"dice_count" env:"DICE_COUNT"`
	SidesPerDie   int    `yaml:"sides_per_die" env:"SIDES_PER_DIE"`
	HistogramView string `yaml:"histogram_view" env:"HISTOGRAM_VIEW"`
}

// LimitsConfig caps what clients may request. 0 means unbounded.
type LimitsConfig struct {
	MaxRollCount int `yaml:"max_roll_count" env:"MAX_ROLL_COUNT"`
	MaxDiceCount int `yaml:"max_dice_count" env:"MAX_DICE_COUNT"`
	MaxSides     int `yaml:"max_sides" env:"MAX_SIDES"`
	MaxDraws     int `yaml:"max_draws" env:"MAX_DRAWS"`   // roll_count * dice_count per roll request
	MaxDomain    int `yaml:"max_domain" env:"MAX_DOMAIN"` // histogram values per roll request
}

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DICESTATS_"

// DefaultServer returns the Server config with sensible defaults.
func DefaultServer() Server {
	d := app.DefaultDefaults()
	return Server{
		HTTPAddr:      ":8080",
		GRPCAddr:      ":9090",
		LogLevel:      "info",
		WatchInterval: 2 * time.Second,
		Store: StoreConfig{
			Driver: DriverYAML,
			Path:   "data/presets.yaml",
			Key:    preset.DefaultKey,
		},
		Defaults: DefaultsConfig{
			Modifier:      string(d.Config.Modifier),
			RollCount:     int(d.Config.RollCount),
			DiceCount:     int(d.Config.DiceCount),
			SidesPerDie:   int(d.Config.SidesPerDie),
			HistogramView: string(d.View),
		},
		Limits: LimitsConfig{
			MaxRollCount: 1_000_000,
			MaxDiceCount: 1_000,
			MaxSides:     10_000,
			MaxDraws:     10_000_000,
			MaxDomain:    10_000,
		},
	}
}

// Load reads path (a missing file means defaults), applies DICESTATS_*
// environment overrides and validates the result.
func Load(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks semantic constraints and reports all violations at once.
func Validate(cfg Server) error {
	var errs []string

	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		errs = append(errs, "http_addr is required")
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		errs = append(errs, fmt.Sprintf("log_level %q is not a slog level", cfg.LogLevel))
	}
	if cfg.WatchInterval < 0 {
		errs = append(errs, "watch_interval must be >= 0")
	}

	switch cfg.Store.Driver {
	case DriverMemory:
	case DriverYAML, DriverSQLite:
		if strings.TrimSpace(cfg.Store.Path) == "" {
			errs = append(errs, fmt.Sprintf("store.path is required for driver=%s", cfg.Store.Driver))
		}
	case DriverPostgres:
		if strings.TrimSpace(cfg.Store.DSN) == "" {
			errs = append(errs, "store.dsn is required for driver=postgres")
		}
	default:
		errs = append(errs, "store.driver must be one of: memory, yaml, sqlite, postgres")
	}
	if strings.TrimSpace(cfg.Store.Key) == "" {
		errs = append(errs, "store.key is required")
	}

	if _, err := dice.ParseModifier(cfg.Defaults.Modifier); err != nil {
		errs = append(errs, "defaults.modifier must be one of: none, chooseHighest, chooseLowest")
	}
	if _, err := preset.ParseView(cfg.Defaults.HistogramView); err != nil {
		errs = append(errs, "defaults.histogram_view must be one of: horizontal, vertical")
	}
	if cfg.Defaults.RollCount < 0 {
		errs = append(errs, "defaults.roll_count must be >= 0")
	}
	if cfg.Defaults.DiceCount < 1 {
		errs = append(errs, "defaults.dice_count must be >= 1")
	}
	if cfg.Defaults.SidesPerDie < 1 {
		errs = append(errs, "defaults.sides_per_die must be >= 1")
	}

	l := cfg.Limits
	if l.MaxRollCount < 0 || l.MaxDiceCount < 0 || l.MaxSides < 0 || l.MaxDraws < 0 || l.MaxDomain < 0 {
		errs = append(errs, "limits must be >= 0 (0 means unbounded)")
	}
	over := func(name string, v, max int) {
		if max > 0 && v > max {
			errs = append(errs, fmt.Sprintf("defaults.%s exceeds limit %d", name, max))
		}
	}
	over("roll_count", cfg.Defaults.RollCount, cfg.Limits.MaxRollCount)
	over("dice_count", cfg.Defaults.DiceCount, cfg.Limits.MaxDiceCount)
	over("sides_per_die", cfg.Defaults.SidesPerDie, cfg.Limits.MaxSides)
	if _, err := dice.ParseModifier(cfg.Defaults.Modifier); err == nil {
		if err := cfg.SessionLimits().CheckRoll(cfg.SessionDefaults().Config); err != nil {
			errs = append(errs, fmt.Sprintf("defaults: %v", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Level returns the configured slog level, info when unparsable.
func (c Server) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// SessionDefaults converts the validated defaults for app.NewSession.
func (c Server) SessionDefaults() app.Defaults {
	return app.Defaults{
		Config: dice.Config{
			Modifier:    dice.Modifier(c.Defaults.Modifier),
			RollCount:   dice.Count(c.Defaults.RollCount),
			DiceCount:   dice.Count(c.Defaults.DiceCount),
			SidesPerDie: dice.Count(c.Defaults.SidesPerDie),
		},
		View: preset.HistogramView(c.Defaults.HistogramView),
	}
}

// SessionLimits converts the limits for app.NewSession.
func (c Server) SessionLimits() app.Limits {
	return app.Limits{
		MaxRollCount: c.Limits.MaxRollCount,
		MaxDiceCount: c.Limits.MaxDiceCount,
		MaxSides:     c.Limits.MaxSides,
		MaxDraws:     c.Limits.MaxDraws,
		MaxDomain:    c.Limits.MaxDomain,
	}
}
