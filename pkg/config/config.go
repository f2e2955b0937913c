// Package config loads the armorsight configuration from TOML.
//
//	[occlusion]
//	max_angle = 89.5
//	min_length = 1e-6
//	max_retries = 3
//	scale = 1e7
//
//	[viewer]
//	view = "front"
//	concurrency = 4
//
//	[log]
//	level = "warn"
//
// Missing keys keep their defaults. Unknown keys are an error.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/chazu/armorsight/pkg/occlude"
	"github.com/chazu/armorsight/pkg/polybool"
	"github.com/chazu/armorsight/pkg/viewer"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid value")

// Config is the full configuration.
type Config struct {
	Occlusion Occlusion `toml:"occlusion"`
	Viewer    Viewer    `toml:"viewer"`
	Log       Log       `toml:"log"`
}

// Occlusion holds the occluder thresholds.
type Occlusion struct {
	MaxAngle   float64 `toml:"max_angle"`
	MinLength  float64 `toml:"min_length"`
	MaxRetries int     `toml:"max_retries"`
	Scale      float64 `toml:"scale"`
}

// Viewer holds the viewer settings. Concurrency 0 means one worker per
// CPU.
type Viewer struct {
	View        string `toml:"view"`
	Concurrency int    `toml:"concurrency"`
}

// Log holds the logging settings.
type Log struct {
	Level string `toml:"level"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Occlusion: Occlusion{
			MaxAngle:   occlude.MaxAngle,
			MinLength:  occlude.MinLength,
			MaxRetries: occlude.MaxRetries,
			Scale:      polybool.DefaultScale,
		},
		Viewer: Viewer{View: viewer.Front.String()},
		Log:    Log{Level: "warn"},
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	c, err := Decode(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// Decode parses TOML on top of the defaults and validates the result.
func Decode(data []byte) (Config, error) {
	c := Default()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("config: unknown keys:\n%s", strict.String())
		}
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks every value and reports all problems at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, key string, val any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s = %v", ErrInvalid, key, val))
		}
	}
	o := c.Occlusion
	check(o.MaxAngle > 0 && o.MaxAngle < 90, "occlusion.max_angle", o.MaxAngle)
	check(o.MinLength > 0, "occlusion.min_length", o.MinLength)
	check(o.MaxRetries >= 1, "occlusion.max_retries", o.MaxRetries)
	check(o.Scale > 0, "occlusion.scale", o.Scale)
	check(c.Viewer.Concurrency >= 0, "viewer.concurrency", c.Viewer.Concurrency)
	if _, err := viewer.ParseView(c.Viewer.View); err != nil {
		check(false, "viewer.view", c.Viewer.View)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		check(false, "log.level", c.Log.Level)
	}
	return errors.Join(errs...)
}

// OcclusionOptions returns occluder options for the configured
// thresholds, logging to logger.
func (c Config) OcclusionOptions(logger *slog.Logger) occlude.Options {
	return occlude.Options{
		MaxAngle:   c.Occlusion.MaxAngle,
		MinLength:  c.Occlusion.MinLength,
		MaxRetries: c.Occlusion.MaxRetries,
		Logger:     logger,
		Primitive:  polybool.New(c.Occlusion.Scale),
	}
}

// View returns the configured view.
func (c Config) View() (viewer.View, error) {
	return viewer.ParseView(c.Viewer.View)
}

// ParseLevel parses debug, info, warn or error, ignoring case.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: log level %q: %w", s, err)
	}
	return l, nil
}

// LevelFromFlags returns the log level selected by the very verbose,
// verbose and quiet flags, the first one set winning. With none set it
// returns slog.LevelWarn.
func LevelFromFlags(vv, v, q bool) slog.Level {
	switch {
	case vv:
		return slog.LevelDebug
	case v:
		return slog.LevelInfo
	case q:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
