package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Game    GameConfig    `toml:"game"`
	Loop    LoopConfig    `toml:"loop"`
	Logging LoggingConfig `toml:"logging"`
	Debug   DebugConfig   `toml:"debug"`
}

type GameConfig struct {
	Name      string `toml:"name"`
	Resources string `toml:"resources"` // directory holding game.config, scenes/, actor_templates/, component_types/
}

type LoopConfig struct {
	FrameRate     time.Duration `toml:"frame_rate"`      // interval between frames
	MaxFrames     int           `toml:"max_frames"`      // 0 = run until quit
	FireOnDestroy bool          `toml:"fire_on_destroy"` // run OnDestroy when an actor is destroyed
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type DebugConfig struct {
	Profile string `toml:"profile"` // "", "cpu" or "mem"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Loop.FrameRate <= 0 {
		return fmt.Errorf("loop.frame_rate must be positive, got %s", c.Loop.FrameRate)
	}
	if c.Loop.MaxFrames < 0 {
		return fmt.Errorf("loop.max_frames must not be negative, got %d", c.Loop.MaxFrames)
	}
	switch c.Debug.Profile {
	case "", "cpu", "mem":
	default:
		return fmt.Errorf("debug.profile must be cpu or mem, got %q", c.Debug.Profile)
	}
	return nil
}

// Defaults returns the configuration used for any key the file omits.
func Defaults() *Config {
	return &Config{
		Game: GameConfig{
			Name:      "engine2d",
			Resources: "resources",
		},
		Loop: LoopConfig{
			FrameRate: time.Second / 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
