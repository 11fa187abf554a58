package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spigell/resume-tailor/internal/audit"
	"github.com/spigell/resume-tailor/internal/backend/gemini"
	"github.com/spigell/resume-tailor/internal/engine"
	"github.com/spigell/resume-tailor/internal/logger"
	"github.com/spigell/resume-tailor/internal/profile"
	"github.com/spigell/resume-tailor/internal/scheduler"
	"github.com/spigell/resume-tailor/internal/scoring"
	"github.com/spigell/resume-tailor/internal/secrets"
	"github.com/spigell/resume-tailor/internal/task"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptScoreBreakdown = "Show score breakdown"
	PromptTailoringNotes = "Show tailoring notes"
	PromptTaskModes      = "Show task execution modes"
	PromptDumpResume     = "Dump resume to file"
	PromptExit           = "Exit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Done. What next?",
	Items: []string{PromptScoreBreakdown, PromptTailoringNotes, PromptTaskModes, PromptDumpResume, PromptExit},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Tailor the configured profile to a job posting and score the match",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("role-file", "r", "", "json file with the target role (company, title, description)")
	runCmd.Flags().StringP("profile", "p", "", "json file with the candidate profile snapshot")
	runCmd.Flags().StringP("out", "o", "", "write the tailored resume markdown to this file")
	runCmd.Flags().BoolP("auto-approve", "y", false, "skip the interactive menu after the run")

	viper.BindPFlag("profile", runCmd.Flags().Lookup("profile"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the resume-tailor", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	snap, err := loadProfile(config)
	if err != nil {
		logger.Fatal("loading the profile snapshot",
			zap.Error(err),
			zap.String("hint", "set the 'profile' key in the config file or pass --profile"),
		)
	}

	role, err := loadRole(cmd.Flag("role-file").Value.String())
	if err != nil {
		logger.Fatal("loading the role context", zap.Error(err))
	}

	logger.Info("tailoring",
		zap.String("company", role.Company),
		zap.String("title", role.Title),
	)

	store, closeStore, err := newAuditStore(ctx, config.Audit)
	if err != nil {
		logger.Fatal("building the audit store", zap.Error(err))
	}
	defer closeStore()

	provider, err := newBackendProvider(ctx, config.Backend, logger)
	if err != nil {
		logger.Warn("running without a generative backend, all tasks use their fallbacks", zap.Error(err))
	}

	schedCfg := scheduler.Config{}
	if config.Scheduler != nil {
		schedCfg = *config.Scheduler
	}

	sched, err := scheduler.New(task.DefaultSpecs(provider), schedCfg, logger)
	if err != nil {
		logger.Fatal("building the task graph", zap.Error(err))
	}

	weights := scoring.DefaultWeights()
	if config.Scoring != nil {
		weights = *config.Scoring
	}

	eng, err := engine.New(sched, scoring.New(weights), store, logger)
	if err != nil {
		logger.Fatal("building the engine", zap.Error(err))
	}

	outcome, err := eng.Run(ctx, snap, role)
	if err != nil {
		logger.Fatal("tailoring failed", zap.Error(err))
	}

	logger.Info("match score",
		zap.Int("overall", outcome.Score.Overall),
		zap.Strings("missing_keywords", outcome.Score.MissingKeywords),
	)

	if out := cmd.Flag("out").Value.String(); out != "" {
		if err := os.WriteFile(out, []byte(outcome.Resume.Markdown), 0o644); err != nil {
			logger.Fatal("writing the resume file", zap.Error(err))
		}
		logger.Info("resume written", zap.String("filename", out))
	}

	if cmd.Flag("auto-approve").Value.String() == "true" {
		fmt.Println(outcome.Resume.Markdown)
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, outcome, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, outcome *engine.Outcome, logger *zap.Logger) error {
	switch action {
	case PromptScoreBreakdown:
		pretty, _ := json.MarshalIndent(outcome.Score, "", "  ")
		fmt.Println(string(pretty))
		return nil
	case PromptTailoringNotes:
		for _, note := range outcome.Resume.TailoringNotes {
			fmt.Println("-", note)
		}
		for _, name := range outcome.Resume.DefaultedFields {
			fmt.Printf("- %s used a structural default\n", name)
		}
		return nil
	case PromptTaskModes:
		pretty, _ := json.MarshalIndent(outcome.TaskModes, "", "  ")
		fmt.Println(string(pretty))
		return nil
	case PromptDumpResume:
		filename, err := dumpResume(outcome)
		if err != nil {
			return fmt.Errorf("dump resume to file: %w", err)
		}
		logger.Info("dumping resume to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func dumpResume(outcome *engine.Outcome) (string, error) {
	f, err := os.CreateTemp("", "resume-*.md")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.WriteString(outcome.Resume.Markdown); err != nil {
		return "", err
	}
	return f.Name(), nil
}

func loadProfile(config *Config) (*profile.Snapshot, error) {
	path := strings.TrimSpace(viper.GetString("profile"))
	if path == "" && config != nil {
		path = strings.TrimSpace(config.Profile)
	}
	if path == "" {
		return nil, errors.New("profile snapshot file is not configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile %q: %w", path, err)
	}

	var snap profile.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing profile %q: %w", path, err)
	}
	return &snap, nil
}

func loadRole(path string) (*profile.RoleContext, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("role file is required, pass --role-file")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading role %q: %w", path, err)
	}

	var role profile.RoleContext
	if err := json.Unmarshal(data, &role); err != nil {
		return nil, fmt.Errorf("parsing role %q: %w", path, err)
	}
	if strings.TrimSpace(role.Description) == "" {
		return nil, fmt.Errorf("role %q has no description", path)
	}
	return &role, nil
}

// newAuditStore builds the configured store. The returned closer is always
// safe to call.
func newAuditStore(ctx context.Context, cfg *AuditConfig) (audit.Store, func(), error) {
	noop := func() {}

	if cfg == nil {
		return audit.NewMemoryStore(), noop, nil
	}

	switch strings.TrimSpace(strings.ToLower(cfg.Driver)) {
	case "", "memory":
		return audit.NewMemoryStore(), noop, nil
	case "file":
		if cfg.File == "" {
			return nil, noop, errors.New("audit.file is required for the file driver")
		}
		store, err := audit.NewFileStore(cfg.File)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case "postgres":
		dsn, err := secrets.Load(secrets.Source{
			Name:  "audit postgres dsn",
			Value: cfg.PostgresDSN,
			Env:   "AUDIT_POSTGRES_DSN",
		})
		if err != nil {
			return nil, noop, err
		}
		store, err := audit.NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, noop, err
		}
		return store, func() { store.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unsupported audit driver: %s", cfg.Driver)
	}
}

// newBackendProvider builds the generative backend when enabled. Any error
// here is recoverable: the caller proceeds with a nil provider and every task
// runs its deterministic fallback.
func newBackendProvider(ctx context.Context, cfg *BackendConfig, log *zap.Logger) (task.BackendProvider, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("backend is not enabled")
	}

	providerName := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if providerName != "" && providerName != "gemini" {
		return nil, fmt.Errorf("unsupported backend provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		cfg.Gemini = &GeminiConfig{}
	}

	apiKeyFile := strings.TrimSpace(cfg.Gemini.APIKeyFile)
	if apiKeyFile == "" {
		apiKeyFile = strings.TrimSpace(viper.GetString("api-key-file"))
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: apiKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set backend.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model)
	if err != nil {
		return nil, err
	}

	invokerLogger := logger.WithBackendModel(log, generator.Model())

	return gemini.NewInvoker(generator, invokerLogger, cfg.Gemini.MaxLogLength), nil
}
