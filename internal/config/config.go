// Package config provides Viper-based configuration loading for the table host.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/tilescript/internal/game/table"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// ScriptingConfig holds skill script settings.
type ScriptingConfig struct {
	// InstructionLimit is the Lua opcode budget for one script load or hook
	// dispatch.
	InstructionLimit int `mapstructure:"instruction_limit"`
	// SkillsDir is the directory of YAML skill definitions.
	SkillsDir string `mapstructure:"skills_dir"`
}

// MatchConfig holds the settings of one simulated hand.
type MatchConfig struct {
	// Seed seeds the table's randomness. Zero selects the crypto source.
	Seed uint64 `mapstructure:"seed"`
	// Turns is the number of draw/discard turns played.
	Turns int `mapstructure:"turns"`
	// MaxDealRetries bounds the re-deal search; the deal after the last retry
	// is accepted unconditionally.
	MaxDealRetries int `mapstructure:"max_deal_retries"`
	// Seats names the skill ID seated at each position. An empty ID seats a
	// skill without behavior.
	Seats []string `mapstructure:"seats"`
}

// Seeded reports whether the match is replay-deterministic.
func (m MatchConfig) Seeded() bool {
	return m.Seed != 0
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Match     MatchConfig     `mapstructure:"match"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateScripting(c.Scripting); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateMatch(c.Match); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateScripting(s ScriptingConfig) error {
	var errs []string
	if s.InstructionLimit < 1 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 1, got %d", s.InstructionLimit))
	}
	if s.SkillsDir == "" {
		errs = append(errs, "scripting.skills_dir must not be empty")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateMatch(m MatchConfig) error {
	var errs []string
	if m.Turns < 0 {
		errs = append(errs, fmt.Sprintf("match.turns must be >= 0, got %d", m.Turns))
	}
	if m.MaxDealRetries < 0 {
		errs = append(errs, fmt.Sprintf("match.max_deal_retries must be >= 0, got %d", m.MaxDealRetries))
	}
	if len(m.Seats) != table.Seats {
		errs = append(errs, fmt.Sprintf("match.seats must list exactly %d skill IDs, got %d", table.Seats, len(m.Seats)))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with TILESCRIPT_ prefix
	v.SetEnvPrefix("TILESCRIPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default configuration.
//
// Postcondition: LoadFromViper(Defaults()) succeeds.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scripting.instruction_limit", 100_000)
	v.SetDefault("scripting.skills_dir", "content/skills")

	v.SetDefault("match.seed", 0)
	v.SetDefault("match.turns", 16)
	v.SetDefault("match.max_deal_retries", 2000)
	v.SetDefault("match.seats", []string{"", "", "", ""})
}
