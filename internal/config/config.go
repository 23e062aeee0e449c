package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/molsim/internal/dynamo"
	"github.com/san-kum/molsim/internal/physics"
)

const (
	DefaultWidth   = 800.0
	DefaultHeight  = 600.0
	DefaultFPS     = 60
	DefaultTicks   = 600
	DefaultHistory = 600
	DefaultAddr    = ":8080"
	DefaultDataDir = "runs"
	DefaultTheme   = "default"
	DefaultLevel   = "info"
)

type Config struct {
	Physics  dynamo.Params  `yaml:"physics"`
	Viewport ViewportConfig `yaml:"viewport"`
	FPS      int            `yaml:"fps"`
	Ticks    int            `yaml:"ticks"`
	Seed     int64          `yaml:"seed"`
	Preset   string         `yaml:"preset"`
	Scripts  string         `yaml:"scripts"`
	Theme    string         `yaml:"theme"`
	DataDir  string         `yaml:"data_dir"`
	Session  string         `yaml:"session"`
	History  int            `yaml:"history"`
	LogLevel string         `yaml:"log_level"`
	LogFile  string         `yaml:"log_file"`
	Server   ServerConfig   `yaml:"server"`
}

type ViewportConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// AllowedOrigins lists the Origin headers accepted on upgrade. Empty
	// accepts only the server's own host; "*" accepts any.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func DefaultConfig() *Config {
	return &Config{
		Physics:  dynamo.DefaultParams(),
		Viewport: ViewportConfig{Width: DefaultWidth, Height: DefaultHeight},
		FPS:      DefaultFPS,
		Ticks:    DefaultTicks,
		Seed:     1,
		Theme:    DefaultTheme,
		DataDir:  DefaultDataDir,
		Session:  filepath.Join(DefaultDataDir, "session.json"),
		History:  DefaultHistory,
		LogLevel: DefaultLevel,
		Server:   ServerConfig{Addr: DefaultAddr},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.Physics.Validate(); err != nil {
		return err
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("%w: viewport must be positive, got %gx%g", dynamo.ErrInvalidParams, c.Viewport.Width, c.Viewport.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive, got %d", dynamo.ErrInvalidParams, c.FPS)
	}
	if c.History < 1 {
		return fmt.Errorf("%w: history must be at least 1, got %d", dynamo.ErrInvalidParams, c.History)
	}
	return nil
}

func (c *Config) Bounds() physics.Bounds {
	return physics.Bounds{Width: c.Viewport.Width, Height: c.Viewport.Height}
}
