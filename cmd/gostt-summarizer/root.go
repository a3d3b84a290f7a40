package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/chaz8081/gostt-summarizer/internal/config"
)

var version = "dev"

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	envFile    string
	debug      bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}
	var runOpts runFlags

	cmd := &cobra.Command{
		Use:   "gostt-summarizer",
		Short: "Transcribe and summarize meetings locally",
		Long: `gostt-summarizer turns meeting recordings, audio files and transcripts
into short summaries. Speech is transcribed locally with whisper.cpp and
summarized by a chat model (Ollama by default).

Without a subcommand it starts the interactive flow (same as "run").`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd.Context(), a, runOpts)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config file (default: ~/.config/gostt-summarizer/config.yaml)")
	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file with secrets such as GEMINI_API_KEY")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	addRunFlags(cmd, &runOpts)

	cmd.AddCommand(newRunCommand(a))
	cmd.AddCommand(newServeCommand(a))
	cmd.AddCommand(newWatchCommand(a))
	cmd.AddCommand(newModelsCommand(a))
	cmd.AddCommand(newConfigCommand(a))

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}

// setup loads .env and the config file and configures logging.
func (a *app) setup(stderr io.Writer) error {
	if err := config.LoadEnv(a.envFile); err != nil {
		return err
	}

	cfg, err := loadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	a.cfg = cfg

	level := config.ParseLogLevel(cfg.LogLevel)
	if a.debug {
		level = slog.LevelDebug
	}
	a.logger = newLogger(stderr, cfg.LogFormat, level)
	slog.SetDefault(a.logger)
	return nil
}

func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		return cfg, nil
	}

	return config.Default(), nil
}
