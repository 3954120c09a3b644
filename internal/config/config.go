package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Leaderboard backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is the YAML configuration of the game and its leaderboard backend.
type Config struct {
	Player struct {
		Name string `yaml:"name"`
	} `yaml:"player"`
	Quiz struct {
		TimeLimit    string `yaml:"timeLimit"`
		TickInterval string `yaml:"tickInterval"`
		BankPath     string `yaml:"bankPath"`
	} `yaml:"quiz"`
	Leaderboard struct {
		Backend string `yaml:"backend"`
		Key     string `yaml:"key"`
		Size    int    `yaml:"size"`
		Path    string `yaml:"path"`
	} `yaml:"leaderboard"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Player.Name = "Player"
	cfg.Quiz.TimeLimit = "30s"
	cfg.Quiz.TickInterval = "1s"
	cfg.Leaderboard.Backend = BackendFile
	cfg.Leaderboard.Key = "quizLeaderboard"
	cfg.Leaderboard.Size = 10
	return cfg
}

// Load reads YAML config from path on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks values that cannot be defaulted sensibly.
func (c Config) Validate() error {
	switch c.Leaderboard.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis backend selected but redis.addr is empty")
		}
	default:
		return fmt.Errorf("unknown leaderboard backend %q", c.Leaderboard.Backend)
	}
	if c.Leaderboard.Size < 0 {
		return fmt.Errorf("leaderboard size must not be negative")
	}
	return nil
}

// TimeLimitSeconds returns the per-question time limit in whole seconds.
func (c Config) TimeLimitSeconds() int {
	d := Duration(c.Quiz.TimeLimit, 30*time.Second)
	if secs := int(d / time.Second); secs > 0 {
		return secs
	}
	return 30
}

// TickInterval returns how often the question timer ticks.
func (c Config) TickInterval() time.Duration {
	return Duration(c.Quiz.TickInterval, time.Second)
}

// DataPath returns where file and SQLite backends keep their data.
func (c Config) DataPath() string {
	if c.Leaderboard.Path != "" {
		return c.Leaderboard.Path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	base := filepath.Join(dir, "echo-quiz")
	if c.Leaderboard.Backend == BackendSQLite {
		return filepath.Join(base, "leaderboard.db")
	}
	return base
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return fallback
}
