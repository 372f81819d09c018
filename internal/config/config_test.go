package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Scripting: ScriptingConfig{
			InstructionLimit: 100_000,
			SkillsDir:        "content/skills",
		},
		Match: MatchConfig{
			Seed:           7,
			Turns:          16,
			MaxDealRetries: 2000,
			Seats:          []string{"toki", "", "", ""},
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := LoadFromViper(Defaults())
	require.NoError(t, err)
	assert.Equal(t, 100_000, cfg.Scripting.InstructionLimit)
	assert.Len(t, cfg.Match.Seats, 4)
	assert.False(t, cfg.Match.Seeded())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
logging:
  level: debug
  format: console
scripting:
  instruction_limit: 5000
  skills_dir: /srv/skills
match:
  seed: 42
  turns: 8
  max_deal_retries: 10
  seats: [toki, "", kuro, ""]
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5000, cfg.Scripting.InstructionLimit)
	assert.Equal(t, "/srv/skills", cfg.Scripting.SkillsDir)
	assert.Equal(t, uint64(42), cfg.Match.Seed)
	assert.True(t, cfg.Match.Seeded())
	assert.Equal(t, 8, cfg.Match.Turns)
	assert.Equal(t, []string{"toki", "", "kuro", ""}, cfg.Match.Seats)
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 16, cfg.Match.Turns)
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0644))
	t.Setenv("TILESCRIPT_SCRIPTING_INSTRUCTION_LIMIT", "777")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 777, cfg.Scripting.InstructionLimit)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestValidateLoggingLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		assert.NoError(t, cfg.Validate(), "level %q should be valid", level)
	}
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingFormat(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		cfg := validConfig()
		cfg.Logging.Format = format
		assert.NoError(t, cfg.Validate(), "format %q should be valid", format)
	}
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidateInstructionLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Scripting.InstructionLimit = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateSkillsDirEmpty(t *testing.T) {
	cfg := validConfig()
	cfg.Scripting.SkillsDir = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateSeatCount(t *testing.T) {
	cfg := validConfig()
	cfg.Match.Seats = []string{"a", "b", "c"}
	assert.Error(t, cfg.Validate())
}

func TestValidateCollectsAllViolations(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	cfg.Match.Turns = -1
	cfg.Scripting.SkillsDir = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
	assert.Contains(t, err.Error(), "match.turns")
	assert.Contains(t, err.Error(), "scripting.skills_dir")
}

// Property-based tests

func TestPropertyNonNegativeTurnsValid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		turns := rapid.IntRange(0, 10_000).Draw(t, "turns")
		retries := rapid.IntRange(0, 10_000).Draw(t, "retries")
		cfg := validConfig()
		cfg.Match.Turns = turns
		cfg.Match.MaxDealRetries = retries
		if err := cfg.Validate(); err != nil {
			t.Fatalf("valid turns=%d retries=%d rejected: %v", turns, retries, err)
		}
	})
}

func TestPropertyNonPositiveInstructionLimitInvalid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(-1000, 0).Draw(t, "limit")
		cfg := validConfig()
		cfg.Scripting.InstructionLimit = limit
		if err := cfg.Validate(); err == nil {
			t.Fatalf("invalid instruction limit %d accepted", limit)
		}
	})
}
