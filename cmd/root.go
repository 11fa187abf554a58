package cmd

import (
	"errors"
	"log"

	"github.com/spigell/resume-tailor/internal/scheduler"
	"github.com/spigell/resume-tailor/internal/scoring"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "resume-tailor"
)

type Config struct {
	Profile   string            `mapstructure:"profile"`
	Scheduler *scheduler.Config `mapstructure:"scheduler"`
	Scoring   *scoring.Weights  `mapstructure:"scoring"`
	Audit     *AuditConfig      `mapstructure:"audit"`
	Backend   *BackendConfig    `mapstructure:"backend"`
}

type AuditConfig struct {
	// Driver selects the store: memory (default), file or postgres.
	Driver      string `mapstructure:"driver"`
	File        string `mapstructure:"file"`
	PostgresDSN string `mapstructure:"postgres-dsn"`
}

type BackendConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-tailor tailors a candidate profile to a specific job posting and scores the match",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("audit.postgres-dsn", "AUDIT_POSTGRES_DSN"); err != nil {
		log.Fatalf("binding AUDIT_POSTGRES_DSN environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-tailor.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for the run and status commands.
	if runCmd.CalledAs() == "" && statusCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// A missing default config is fine: flags and env can carry a run.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}

	return config, nil
}
