package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sugarlabs/Bridge/game"
	"github.com/sugarlabs/Bridge/physics"
	"github.com/sugarlabs/Bridge/session"
	"github.com/sugarlabs/Bridge/tools"
)

// Environment overrides.
const (
	EnvConfig   = "BRIDGE_CONFIG"
	EnvAddr     = "BRIDGE_ADDR"
	EnvSession  = "BRIDGE_SESSION"
	EnvLogLevel = "BRIDGE_LOG_LEVEL"
)

var ErrInvalid = errors.New("invalid config")

// InitConfig loads a .env file from the working directory if there is one.
func InitConfig(files ...string) error {
	if err := godotenv.Load(files...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("no .env file")
			return nil
		}
		return fmt.Errorf("load environment: %w", err)
	}
	log.Debug("loaded environment variables")
	return nil
}

func GetEnvVariable(v string) (string, error) {
	if v == "" {
		return "", fmt.Errorf("input param empty")
	}
	b := os.Getenv(v)
	if b == "" {
		return "", fmt.Errorf("failed to get variable for %s", v)
	}
	return b, nil
}

type Screen struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Config struct {
	TickHz         int     `yaml:"tick_hz"`
	BroadcastEvery int     `yaml:"broadcast_every"`
	Screen         Screen  `yaml:"screen"`
	PixelsPerMeter float64 `yaml:"pixels_per_meter"`
	Gravity        float64 `yaml:"gravity"`
	Iterations     int     `yaml:"iterations"`
	MouseMaxForce  float64 `yaml:"mouse_max_force"`
	MotorMaxForce  float64 `yaml:"motor_max_force"`

	Balance game.Balance   `yaml:"balance"`
	Train   game.TrainSpec `yaml:"train"`
	Tools   tools.Settings `yaml:"tools"`

	SessionFile string `yaml:"session_file"`
	SessionDir  string `yaml:"session_dir"`
	Addr        string `yaml:"addr"`
	LogLevel    string `yaml:"log_level"`
}

// Default returns the stock game values.
func Default() Config {
	p := physics.DefaultSettings()
	return Config{
		TickHz:         p.TickHz,
		BroadcastEvery: 2,
		Screen:         Screen{Width: p.Width, Height: p.Height},
		PixelsPerMeter: p.PixelsPerMeter,
		Gravity:        p.Gravity,
		Iterations:     p.Iterations,
		MouseMaxForce:  p.MouseMaxForce,
		MotorMaxForce:  p.MotorMaxForce,
		Balance:        game.DefaultBalance(),
		Train:          game.DefaultTrain(),
		Tools:          tools.DefaultSettings(),
		Addr:           ":8080",
		LogLevel:       "info",
	}
}

// Load reads a YAML file over the defaults. Keys left out keep their default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv loads .env, then the YAML file at path (or the one named by
// BRIDGE_CONFIG when path is empty), then applies the remaining environment
// overrides and validates.
func FromEnv(path string) (Config, error) {
	if err := InitConfig(); err != nil {
		return Config{}, err
	}
	if path == "" {
		path, _ = GetEnvVariable(EnvConfig)
	}
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return cfg, err
		}
	}
	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}

// ApplyEnv overrides addr, session file and log level from the environment.
func (c *Config) ApplyEnv() {
	if v, err := GetEnvVariable(EnvAddr); err == nil {
		c.Addr = v
	}
	if v, err := GetEnvVariable(EnvSession); err == nil {
		c.SessionFile = v
	}
	if v, err := GetEnvVariable(EnvLogLevel); err == nil {
		c.LogLevel = v
	}
}

func (c Config) Validate() error {
	var problems []string
	if c.TickHz <= 0 {
		problems = append(problems, "tick_hz must be positive")
	}
	if c.BroadcastEvery <= 0 {
		problems = append(problems, "broadcast_every must be positive")
	}
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		problems = append(problems, "screen size must be positive")
	}
	if c.PixelsPerMeter <= 0 {
		problems = append(problems, "pixels_per_meter must be positive")
	}
	if c.Tools.GirderMinLength <= 0 || c.Tools.GirderMinLength > c.Tools.GirderMaxLength {
		problems = append(problems, "girder lengths must satisfy 0 < min <= max")
	}
	if c.Tools.GirderThickness <= 0 {
		problems = append(problems, "girder_thickness must be positive")
	}
	if c.Balance.StressThreshold <= 0 {
		problems = append(problems, "stress_threshold must be positive")
	}
	if c.Train.Cars < 0 {
		problems = append(problems, "train cars cannot be negative")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("log_level %q", c.LogLevel))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Level is the parsed log level, info when unparseable.
func (c Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

func (c Config) Physics() physics.Settings {
	return physics.Settings{
		Width:          c.Screen.Width,
		Height:         c.Screen.Height,
		PixelsPerMeter: c.PixelsPerMeter,
		Gravity:        c.Gravity,
		Iterations:     c.Iterations,
		TickHz:         c.TickHz,
		MouseMaxForce:  c.MouseMaxForce,
		MotorMaxForce:  c.MotorMaxForce,
	}
}

// SessionOptions builds the options every new session starts from.
func (c Config) SessionOptions() session.Options {
	return session.Options{
		Physics:        c.Physics(),
		Balance:        c.Balance,
		Train:          c.Train,
		Tools:          c.Tools,
		BroadcastEvery: c.BroadcastEvery,
	}
}
