package config

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/undocore/internal/config/loader"
	"github.com/dshills/undocore/internal/logging"
	"github.com/dshills/undocore/internal/undo"
)

// Config holds every undocore setting.
type Config struct {
	Logging LoggingConfig `toml:"logging"`
	Undo    UndoConfig    `toml:"undo"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `toml:"level"`
}

// UndoConfig configures how actions are classified.
type UndoConfig struct {
	// InitTypes reset all history.
	InitTypes []string `toml:"init_types"`
	// PurgeOn clear all history before the action is applied.
	PurgeOn []string `toml:"purge_on"`
	// Undoable are recorded as undoable even when not marked.
	Undoable []string `toml:"undoable"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Undo: UndoConfig{
			InitTypes: []string{string(undo.TypeInit), string(undo.TypeReduxInit)},
			PurgeOn:   []string{"LOCATION_CHANGE", "USER_SET_USER"},
			Undoable:  []string{},
		},
	}
}

// defaultLayer returns Default as a configuration layer.
func defaultLayer() map[string]any {
	d := Default()
	return map[string]any{
		"logging": map[string]any{
			"level": d.Logging.Level,
		},
		"undo": map[string]any{
			"init_types": d.Undo.InitTypes,
			"purge_on":   d.Undo.PurgeOn,
			"undoable":   d.Undo.Undoable,
		},
	}
}

// listSettings are settings that accept a single string as a one-item list.
var listSettings = []string{"init_types", "purge_on", "undoable"}

// Load reads the TOML file at path, which may be empty or missing, and
// the UNDOCORE_ environment on top of the defaults.
func Load(path string) (*Config, error) {
	return LoadFrom(loader.NewTOMLLoader(path), loader.NewEnvLoader(loader.DefaultEnvPrefix))
}

// LoadFrom merges the given layers on top of the defaults and validates
// the result.
func LoadFrom(loaders ...loader.Loader) (*Config, error) {
	merged, err := loader.Layers(defaultLayer(), loaders...)
	if err != nil {
		return nil, err
	}

	if section, ok := merged["undo"].(map[string]any); ok {
		for _, key := range listSettings {
			if s, ok := section[key].(string); ok {
				section[key] = []string{s}
			}
		}
	}

	cfg, err := decode(merged)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode converts a merged layer into a Config. Unknown settings are
// rejected.
func decode(merged map[string]any) (*Config, error) {
	data, err := toml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cfg := &Config{}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: unknown setting: %s", ErrInvalidConfig, strings.TrimSpace(strict.String()))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := logging.ParseLevel(c.Logging.Level); !ok {
		errs = append(errs, fmt.Errorf("%w: logging.level %q (want debug, info, warn or error)", ErrInvalidConfig, c.Logging.Level))
	}

	lists := []struct {
		name  string
		types []string
	}{
		{"undo.init_types", c.Undo.InitTypes},
		{"undo.purge_on", c.Undo.PurgeOn},
		{"undo.undoable", c.Undo.Undoable},
	}
	for _, l := range lists {
		for _, t := range l.types {
			switch {
			case t == "":
				errs = append(errs, fmt.Errorf("%w: %s contains an empty type", ErrInvalidConfig, l.name))
			case undo.Type(t).IsControl():
				errs = append(errs, fmt.Errorf("%w: %s contains control type %q", ErrInvalidConfig, l.name, t))
			}
		}
	}

	return errors.Join(errs...)
}

// LogLevel returns the configured log level, or info if it is invalid.
func (c *Config) LogLevel() logging.Level {
	level, ok := logging.ParseLevel(c.Logging.Level)
	if !ok {
		return logging.LevelInfo
	}
	return level
}

// EnhancerConfig builds the enhancer configuration from the undo section.
func (c *Config) EnhancerConfig() undo.EnhancerConfig {
	cfg := undo.EnhancerConfig{
		InitTypes: make([]undo.Type, 0, len(c.Undo.InitTypes)),
	}
	for _, t := range c.Undo.InitTypes {
		cfg.InitTypes = append(cfg.InitTypes, undo.Type(t))
	}
	if len(c.Undo.PurgeOn) > 0 {
		cfg.PurgeOn = typeIn(c.Undo.PurgeOn)
	}
	if len(c.Undo.Undoable) > 0 {
		cfg.Filter = typeIn(c.Undo.Undoable)
	}
	return cfg
}

// typeIn returns a predicate matching actions of the given types.
func typeIn(types []string) undo.Predicate {
	set := mapset.NewThreadUnsafeSet[undo.Type]()
	for _, t := range types {
		set.Add(undo.Type(t))
	}
	return func(a undo.Action, _, _ any) bool {
		return set.Contains(a.Type)
	}
}
