package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storycanvas/internal/config"
	"storycanvas/internal/logger"
	"storycanvas/internal/repository/postgres"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Apply or roll back the PostgreSQL schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding, OutputPath: cfg.LogOutput})
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			log = log.Named("Migrate")
			log.Info("Running migrations", zap.String("direction", args[0]))
			switch args[0] {
			case "up":
				return postgres.MigrateUp(cfg.GetDSN(), log)
			case "down":
				return postgres.MigrateDown(cfg.GetDSN(), log)
			default:
				return fmt.Errorf("unknown direction %q", args[0])
			}
		},
	}
}
