package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	General       GeneralConfig       `toml:"general"`
	YouTube       YouTubeConfig       `toml:"youtube"`
	LLM           LLMConfig           `toml:"llm"`
	Notifications NotificationsConfig `toml:"notifications"`
	Watch         []WatchEntry        `toml:"watch"`
}

// GeneralConfig holds general settings
type GeneralConfig struct {
	DataDir        string `toml:"data_dir"`
	DatabasePath   string `toml:"database_path"`
	MaxConcurrency int    `toml:"max_concurrency"`
	LogLevel       string `toml:"log_level"`
}

// YouTubeConfig holds yt-dlp invocation settings
type YouTubeConfig struct {
	CookiesBrowser string `toml:"cookies_browser"` // chrome, firefox, safari
	POToken        string `toml:"po_token"`        // proof-of-origin token, e.g. web.subs+<token>
	SleepRequests  string `toml:"sleep_requests"`  // seconds between HTTP requests within one run
	SleepSubtitles string `toml:"sleep_subtitles"` // seconds between subtitle downloads
}

// LLMConfig holds summarization endpoint settings
type LLMConfig struct {
	Endpoint           string `toml:"endpoint"`
	Model              string `toml:"model"`
	APIKeyEnv          string `toml:"api_key_env"`
	MaxTranscriptChars int    `toml:"max_transcript_chars"`
}

// NotificationsConfig holds job-completion notification settings
type NotificationsConfig struct {
	Desktop      bool   `toml:"desktop"`
	SlackWebhook string `toml:"slack_webhook"`
}

// WatchEntry describes one cron-scheduled channel refresh
type WatchEntry struct {
	Name       string `toml:"name"`
	ChannelURL string `toml:"channel_url"`
	Cron       string `toml:"cron"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".yt-scribe")
	return &Config{
		General: GeneralConfig{
			DataDir:        dataDir,
			DatabasePath:   filepath.Join(dataDir, "yt-scribe.db"),
			MaxConcurrency: 3,
			LogLevel:       "info",
		},
		YouTube: YouTubeConfig{
			SleepRequests:  "1",
			SleepSubtitles: "3",
		},
		LLM: LLMConfig{
			Endpoint:           "http://localhost:11434/v1",
			Model:              "mistral",
			APIKeyEnv:          "OPENAI_API_KEY",
			MaxTranscriptChars: 24000,
		},
		Notifications: NotificationsConfig{
			Desktop: false,
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.General.DataDir = ExpandPath(cfg.General.DataDir)
	cfg.General.DatabasePath = ExpandPath(cfg.General.DatabasePath)

	return cfg, nil
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "yt-scribe", "config.toml")
}
