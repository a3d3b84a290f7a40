package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Summarize  SummarizeConfig  `yaml:"summarize"`
	Audio      AudioConfig      `yaml:"audio"`
	FFmpeg     FFmpegConfig     `yaml:"ffmpeg"`
	Storage    StorageConfig    `yaml:"storage"`
	Server     ServerConfig     `yaml:"server"`
	Watch      WatchConfig      `yaml:"watch"`
	Deliver    DeliverConfig    `yaml:"deliver"`
	LogLevel   string           `yaml:"log_level"`
	LogFormat  string           `yaml:"log_format"` // "text" or "json"
}

// TranscribeConfig holds speech-to-text settings.
type TranscribeConfig struct {
	Backend   string `yaml:"backend"` // "whisper"
	ModelPath string `yaml:"model_path"`
	Language  string `yaml:"language"` // "auto" or an ISO code
	Threads   uint   `yaml:"threads"`  // 0 lets whisper.cpp decide
}

// SummarizeConfig holds chat model settings.
type SummarizeConfig struct {
	Backend   string `yaml:"backend"` // "ollama" or "gemini"
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	Prompt    string `yaml:"prompt"` // must contain exactly one %s
	APIKeyEnv string `yaml:"api_key_env"`
}

// AudioConfig holds audio capture settings.
type AudioConfig struct {
	SampleRate    uint32   `yaml:"sample_rate"`
	Channels      uint32   `yaml:"channels"`
	RecordingsDir string   `yaml:"recordings_dir"`
	StopKeys      []string `yaml:"stop_keys"` // empty disables the stop hotkey
}

// FFmpegConfig locates the ffmpeg binary.
type FFmpegConfig struct {
	Path string `yaml:"path"`
}

// StorageConfig holds on-disk locations for uploads and summary records.
type StorageConfig struct {
	UploadDir         string `yaml:"upload_dir"`
	SummaryDir        string `yaml:"summary_dir"`
	IncludeTranscript bool   `yaml:"include_transcript"`
	Docx              bool   `yaml:"docx"`
}

// ServerConfig holds HTTP service settings.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	BodyLimitMB int    `yaml:"body_limit_mb"`
}

// WatchConfig holds inbox watcher settings.
type WatchConfig struct {
	Dir string `yaml:"dir"`
}

// DeliverConfig controls where a finished summary is handed off.
type DeliverConfig struct {
	Method string `yaml:"method"` // "none", "clipboard", "type" or "paste"
}

const appName = "gostt-summarizer"

// DefaultPrompt is the instruction template wrapped around every transcript.
const DefaultPrompt = "Summarize this text:\n\n%s"

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultModelsDir returns the directory models are downloaded into.
func DefaultModelsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "models"
	}
	return filepath.Join(home, ".local", "share", appName, "models")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Transcribe: TranscribeConfig{
			Backend:   "whisper",
			ModelPath: filepath.Join(DefaultModelsDir(), "ggml-base.bin"),
			Language:  "auto",
		},
		Summarize: SummarizeConfig{
			Backend:   "ollama",
			Model:     "tinyllama",
			BaseURL:   "http://localhost:11434/v1",
			Prompt:    DefaultPrompt,
			APIKeyEnv: "GEMINI_API_KEY",
		},
		Audio: AudioConfig{
			SampleRate:    16000,
			Channels:      1,
			RecordingsDir: "recordings",
		},
		FFmpeg: FFmpegConfig{
			Path: "ffmpeg",
		},
		Storage: StorageConfig{
			UploadDir:  "uploads",
			SummaryDir: "summaries",
		},
		Server: ServerConfig{
			Addr:        "127.0.0.1:5000",
			BodyLimitMB: 200,
		},
		Watch: WatchConfig{
			Dir: "inbox",
		},
		Deliver: DeliverConfig{
			Method: "none",
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in paths is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Transcribe.ModelPath = expandTilde(cfg.Transcribe.ModelPath)
	cfg.Audio.RecordingsDir = expandTilde(cfg.Audio.RecordingsDir)
	cfg.Storage.UploadDir = expandTilde(cfg.Storage.UploadDir)
	cfg.Storage.SummaryDir = expandTilde(cfg.Storage.SummaryDir)
	cfg.Watch.Dir = expandTilde(cfg.Watch.Dir)

	return cfg, nil
}

// LoadEnv loads KEY=value pairs from the given .env files into the process
// environment. Files that do not exist are skipped; variables already set
// in the environment win.
func LoadEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if fi, err := os.Stat(p); err != nil || fi.IsDir() {
			continue
		}
		existing = append(existing, p)
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("loading env files: %w", err)
	}
	return nil
}

// APIKey returns the summarizer API key from the configured env variable.
func (c *Config) APIKey() string {
	if c.Summarize.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Summarize.APIKeyEnv)
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	switch c.Transcribe.Backend {
	case "whisper":
		if c.Transcribe.ModelPath == "" {
			return fmt.Errorf("transcribe.model_path must not be empty")
		}
	default:
		return fmt.Errorf("transcribe.backend must be \"whisper\", got %q", c.Transcribe.Backend)
	}

	switch c.Summarize.Backend {
	case "ollama":
		if c.Summarize.BaseURL == "" {
			return fmt.Errorf("summarize.base_url must not be empty for ollama backend")
		}
	case "gemini":
	default:
		return fmt.Errorf("summarize.backend must be \"ollama\" or \"gemini\", got %q", c.Summarize.Backend)
	}

	if c.Summarize.Model == "" {
		return fmt.Errorf("summarize.model must not be empty")
	}

	if err := checkPrompt(c.Summarize.Prompt); err != nil {
		return fmt.Errorf("summarize.prompt: %w", err)
	}

	if c.Audio.SampleRate == 0 {
		return fmt.Errorf("audio.sample_rate must be > 0")
	}

	if c.Audio.Channels == 0 {
		return fmt.Errorf("audio.channels must be > 0")
	}

	if c.FFmpeg.Path == "" {
		return fmt.Errorf("ffmpeg.path must not be empty")
	}

	if c.Storage.UploadDir == "" || c.Storage.SummaryDir == "" {
		return fmt.Errorf("storage.upload_dir and storage.summary_dir must not be empty")
	}

	if c.Server.BodyLimitMB <= 0 {
		return fmt.Errorf("server.body_limit_mb must be > 0")
	}

	switch c.Deliver.Method {
	case "none", "clipboard", "type", "paste":
	default:
		return fmt.Errorf("deliver.method must be none, clipboard, type or paste, got %q", c.Deliver.Method)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}

	return nil
}

// ParseLogLevel maps a config log level to a slog level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WriteDefault writes the default config to DefaultConfigPath if no file
// exists there yet. It returns the written path, or "" when the file was
// already present.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}

	content := "# " + appName + " configuration\n# See README for all options.\n\n" + string(data)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// checkPrompt requires exactly one %s placeholder in a prompt template.
// A literal percent sign must be written as %%.
func checkPrompt(tmpl string) error {
	placeholders := 0
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '%' {
			continue
		}
		if i+1 == len(tmpl) {
			return fmt.Errorf("trailing %% (write %%%% for a literal percent sign)")
		}
		i++
		switch tmpl[i] {
		case '%':
		case 's':
			placeholders++
		default:
			return fmt.Errorf("unsupported verb %%%c at offset %d (write %%%% for a literal percent sign)", tmpl[i], i-1)
		}
	}
	if placeholders != 1 {
		return fmt.Errorf("must contain exactly one %%s placeholder, found %d", placeholders)
	}
	return nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
