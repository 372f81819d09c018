// Package main runs one hand at a four-seat table with the configured
// scripted skills and prints every pop-up they raise.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tilescript/internal/config"
	"github.com/cory-johannsen/tilescript/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/tablehost.yaml", "path to configuration file")
	skillsDir := flag.String("skills", "", "path to skill YAML files directory (overrides scripting.skills_dir)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *skillsDir != "" {
		cfg.Scripting.SkillsDir = *skillsDir
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	m, cleanup, err := initializeMatch(cfg, SkillsDir(cfg.Scripting.SkillsDir), logger)
	if err != nil {
		logger.Fatal("building match", zap.Error(err))
	}
	defer cleanup()

	res := m.Run()
	for _, p := range res.PopUps {
		fmt.Fprintf(os.Stdout, "[seat %s] %s", p.Seat, p.Text)
	}
	logger.Info("table closed",
		zap.Stringer("dealer", res.Dealer),
		zap.Int("turns", res.Turns),
		zap.Duration("elapsed", time.Since(start)),
	)
}
