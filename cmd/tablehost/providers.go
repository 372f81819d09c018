package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tilescript/internal/config"
	"github.com/cory-johannsen/tilescript/internal/game/dice"
	"github.com/cory-johannsen/tilescript/internal/game/skill"
	"github.com/cory-johannsen/tilescript/internal/game/table"
)

// SkillsDir is the directory of skill definition YAML files.
type SkillsDir string

func provideMatchConfig(cfg config.Config) config.MatchConfig {
	return cfg.Match
}

// provideSource returns a replayable source for a seeded match and the
// crypto source otherwise.
func provideSource(cfg config.MatchConfig) dice.Source {
	if cfg.Seeded() {
		return dice.NewSeededSource(cfg.Seed)
	}
	return dice.NewCryptoSource()
}

func provideRoller(src dice.Source, logger *zap.Logger) *dice.Roller {
	return dice.NewLoggedRoller(src, logger)
}

func provideRegistry(dir SkillsDir, logger *zap.Logger) (*skill.Registry, error) {
	reg, err := skill.LoadDirectory(string(dir))
	if err != nil {
		return nil, fmt.Errorf("loading skills: %w", err)
	}
	logger.Info("skills loaded",
		zap.String("dir", string(dir)),
		zap.Int("count", len(reg.All())),
	)
	return reg, nil
}

// provideSkills seats the configured skills. The cleanup closes every
// seated skill's interpreter.
func provideSkills(reg *skill.Registry, cfg config.Config, logger *zap.Logger) ([table.Seats]skill.Skill, func(), error) {
	skills, err := reg.Seat(cfg.Match.Seats, cfg.Scripting.InstructionLimit, logger)
	if err != nil {
		return skills, nil, fmt.Errorf("seating skills: %w", err)
	}
	cleanup := func() {
		for _, s := range skills {
			s.Close()
		}
	}
	return skills, cleanup, nil
}
