package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/fpprobe/internal/browser"
	"github.com/nao1215/fpprobe/internal/config"
	"github.com/nao1215/fpprobe/internal/history"
	"github.com/nao1215/fpprobe/internal/log"
	"github.com/nao1215/fpprobe/internal/pipeline"
	"github.com/nao1215/fpprobe/internal/report"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the fingerprint probe",
		Long: `Run performs the probe iterations one after another. Each iteration:
- launches a fresh headless Chrome with a fixed desktop user agent
- loads the fingerprinting page and waits until the network is idle
- saves screenshot_<i>.png and webpage_<i>.pdf
- sends the verification request from inside the page
- writes trustScore, lies, bot and fingerprint to output_<i>.json

A failing iteration is logged and the next one still runs. The command
exits with status 0 unless the configuration is invalid or the log file
cannot be opened.

Examples:
  # Run with defaults (files are written to the current directory)
  fpprobe run

  # Use a custom configuration file
  fpprobe run -c myconfig.yaml

  # Also write a Markdown summary of the run
  fpprobe run --report run.md

  # Do not record the run in the history database
  fpprobe run --no-history`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .fpprobe in current or home directory, then XDG config.yaml)")
	cmd.Flags().Bool("no-history", false,
		"Do not record this run in the history database")
	cmd.Flags().StringP("report", "r", "",
		"Write a Markdown summary of the run to the specified file")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logFile, err := log.OpenFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()

	logger := log.New(logFile, cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	reportPath, err := cmd.Flags().GetString("report")
	if err != nil {
		return err
	}

	launcher := browser.NewChromeLauncher(cfg, browser.WithLogger(logger))
	return runProbe(context.Background(), cfg, launcher, logger, cmd.OutOrStdout(), reportPath)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from defaults, the configuration file and
// cobra command flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly named file must exist; the default locations are optional.
	if found := config.FindConfigFile(configPath); found != "" {
		file, err := config.LoadConfigFile(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
		if err := file.Apply(cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", found, err)
		}
		cfg.ConfigFilePath = found
	} else if configPath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configPath)
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	if noHistory {
		cfg.SaveHistory = false
	}

	return cfg, nil
}

// runProbe executes all iterations and prints the run summary to out.
// Iteration failures are reported in the summary, not as an error.
func runProbe(ctx context.Context, cfg *config.Config, launcher browser.Launcher, logger *slog.Logger, out io.Writer, reportPath string) error {
	opts := []pipeline.RunnerOption{pipeline.WithRunnerLogger(logger)}

	if store := openHistory(cfg, logger); store != nil {
		defer store.Close()
		opts = append(opts, pipeline.WithRecorder(store))
	}

	runner := pipeline.NewRunner(cfg, launcher, opts...)
	runner.Run(ctx)

	writers := []report.Writer{report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))}
	if reportPath != "" {
		f, err := createReportFile(reportPath)
		if err != nil {
			logger.Warn("failed to create run report", "path", reportPath, "error", err)
		} else {
			defer f.Close()
			writers = append(writers, report.NewMarkdownWriter(f))
		}
	}

	if _, err := report.NewMultiWriter(writers...).Write(runner.Summary()); err != nil {
		logger.Warn("failed to write run summary", "error", err)
	}
	return nil
}

// openHistory opens the history store if enabled. Failures disable history
// for this run and are only logged.
func openHistory(cfg *config.Config, logger *slog.Logger) *history.Store {
	if !cfg.SaveHistory {
		return nil
	}
	store, err := history.Open(cfg.DBDir, history.DefaultOptions())
	if err != nil {
		logger.Warn("history disabled for this run", "dir", cfg.DBDir, "error", err)
		return nil
	}
	logger.Debug("history database opened", "path", store.Path())
	return store
}

// createReportFile creates or truncates path, creating parent directories.
func createReportFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-provided report path
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	return f, nil
}
