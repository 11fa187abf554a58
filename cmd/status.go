package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-tailor/internal/logger"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-task execution modes of the most recent run",
	Run: func(_ *cobra.Command, _ []string) {
		status()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// status serves the diagnostics view: for each task of the latest recorded
// submission, whether the backend or the fallback produced its output.
func status() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config.Audit == nil || config.Audit.Driver == "" || config.Audit.Driver == "memory" {
		logger.Fatal("no durable audit store configured",
			zap.String("hint", "set audit.driver to file or postgres in the config file"),
		)
	}

	store, closeStore, err := newAuditStore(ctx, config.Audit)
	if err != nil {
		logger.Fatal("building the audit store", zap.Error(err))
	}
	defer closeStore()

	modes, err := store.LatestModes(ctx)
	if err != nil {
		logger.Fatal("reading task modes", zap.Error(err))
	}

	if len(modes) == 0 {
		logger.Info("no recorded runs yet")
		return
	}

	pretty, _ := json.MarshalIndent(modes, "", "  ")
	fmt.Println(string(pretty))
}
