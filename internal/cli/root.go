// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/datacopilot-tui/internal/api"
	"github.com/jeranaias/datacopilot-tui/internal/config"
	"github.com/jeranaias/datacopilot-tui/internal/controller"
	"github.com/jeranaias/datacopilot-tui/internal/journal"
	"github.com/jeranaias/datacopilot-tui/internal/logging"
)

// Version information, set by main from build flags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// env is the state one invocation shares between its commands. Fields set
// before Execute (logger, prompt) are kept; tests use that to inject fakes.
type env struct {
	// Global flags
	configPath string
	server     string
	logLevel   string
	verbose    bool
	noJournal  bool

	cfg     *config.Config
	logger  *zap.Logger
	prompt  Prompter
	journal *journal.Journal
	client  *api.Client

	ownsLogger bool
}

// Execute runs the command tree against os.Args. SIGINT and SIGTERM cancel
// the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api.Version = Version
	e := &env{}
	defer e.close()
	return newRootCommand(e).ExecuteContext(ctx)
}

// NewRootCommand builds a fresh command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&env{})
}

func newRootCommand(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "datacopilot",
		Short: "Terminal client for the DataCoPilot research assistant",
		Long: `DataCoPilot is an AI research assistant for data questions.

Run without a subcommand to open the full-screen interface. Line-mode
commands (chat, ask, history, ...) work over pipes and in scripts.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			e.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, e)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.StringVarP(&e.configPath, "config", "c", "", "config file (default ~/.datacopilot/config.toml)")
	flags.StringVarP(&e.server, "server", "s", "", "research service URL (overrides server.base_url)")
	flags.StringVar(&e.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVarP(&e.verbose, "verbose", "v", false, "debug logging")
	flags.BoolVar(&e.noJournal, "no-journal", false, "do not record calls in the request journal")

	root.AddCommand(
		newTUICommand(e),
		newChatCommand(e),
		newLoginCommand(e),
		newSignupCommand(e),
		newHistoryCommand(e),
		newAskCommand(e),
		newDeleteCommand(e),
		newExportCommand(e),
		newConfigCommand(e),
		newJournalCommand(e),
		newServeDevCommand(e),
		newVersionCommand(),
	)
	return root
}

// =============================================================================
// SETUP AND TEARDOWN
// =============================================================================

// setup loads configuration, applies flag overrides and builds the logger.
func (e *env) setup() error {
	if e.cfg == nil {
		cfg, err := e.loadConfig()
		if err != nil {
			return err
		}
		e.cfg = cfg
	}

	if e.server != "" {
		e.cfg.Server.BaseURL = e.server
	}
	if e.logLevel != "" {
		e.cfg.Log.Level = e.logLevel
	}
	e.cfg.SetDefaults()
	if err := e.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if e.logger == nil {
		opts := logging.FromConfig(e.cfg)
		opts.Verbose = e.verbose
		e.logger = logging.NewOrNop(opts)
		e.ownsLogger = true
	}
	if e.prompt == nil {
		e.prompt = surveyPrompter{}
	}

	e.logger.Debug("Configuration loaded",
		zap.String("server", e.cfg.Server.BaseURL),
		zap.String("model", e.cfg.Chat.Model))
	return nil
}

func (e *env) loadConfig() (*config.Config, error) {
	if e.configPath == "" {
		return config.Load()
	}
	if _, err := os.Stat(e.configPath); os.IsNotExist(err) {
		cfg := config.Default()
		cfg.ApplyEnvOverrides()
		return cfg, nil
	}
	return config.LoadFromPath(e.configPath)
}

// configFile returns the file config commands read and write: --config,
// else whichever default file exists, preferring TOML.
func (e *env) configFile() (string, error) {
	if e.configPath != "" {
		return e.configPath, nil
	}
	tomlPath, err := config.ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	if jsonPath, err := config.ConfigPathJSON(); err == nil {
		if _, err := os.Stat(jsonPath); err == nil {
			return jsonPath, nil
		}
	}
	return tomlPath, nil
}

// close releases the journal and flushes the logger. Cobra skips post-run
// hooks when a command fails, so Execute calls it too.
func (e *env) close() {
	if e.journal != nil {
		if err := e.journal.Close(); err != nil {
			e.logger.Warn("Failed to close journal", zap.Error(err))
		}
		e.journal = nil
	}
	e.client = nil
	if e.ownsLogger && e.logger != nil {
		_ = e.logger.Sync()
	}
}

// =============================================================================
// BACKEND AND CONTROLLER
// =============================================================================

// backend returns the service client, opening the request journal on first
// use. A journal that cannot be opened is logged and skipped.
func (e *env) backend() *api.Client {
	if e.client != nil {
		return e.client
	}

	client := api.NewClient(e.cfg.Server.BaseURL).WithLogger(e.logger.Named("api"))
	if e.cfg.Server.TimeoutSecs > 0 {
		client = client.WithTimeout(time.Duration(e.cfg.Server.TimeoutSecs) * time.Second)
	}

	if e.cfg.Journal.Enabled && !e.noJournal {
		j, err := journal.Open(e.cfg.JournalPath(), e.logger.Named("journal"))
		if err != nil {
			e.logger.Warn("Request journal unavailable", zap.Error(err))
		} else {
			e.journal = j
			client = client.WithRecorder(j)
		}
	}

	e.client = client
	return client
}

// newController builds a line-mode controller: no splash, the configured
// model, and the given alert and confirmation handlers.
func (e *env) newController(n controller.Notifier, cf controller.Confirmer) *controller.Controller {
	ctrl := controller.New(e.backend()).
		WithLogger(e.logger.Named("controller")).
		WithModel(e.cfg.Chat.Model).
		WithSplashDuration(0).
		WithNotifier(n)
	if cf != nil {
		ctrl = ctrl.WithConfirmer(cf)
	}
	ctrl.Start()
	return ctrl
}

// =============================================================================
// VERSION
// =============================================================================

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, TitleStyle.Render("DataCoPilot "+Version))
			fmt.Fprintln(out, RenderKeyValue("Commit", GitCommit))
			fmt.Fprintln(out, RenderKeyValue("Built", BuildDate))
			return nil
		},
	}
}
