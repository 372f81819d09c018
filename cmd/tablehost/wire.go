//go:build wireinject

package main

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tilescript/internal/config"
	"github.com/cory-johannsen/tilescript/internal/game/match"
)

func initializeMatch(cfg config.Config, dir SkillsDir, logger *zap.Logger) (*match.Match, func(), error) {
	wire.Build(
		provideMatchConfig,
		provideSource,
		provideRoller,
		provideRegistry,
		provideSkills,
		match.New,
	)
	return nil, nil, nil
}
