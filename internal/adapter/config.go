package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	appName   = "hearlearn"
	envPrefix = "HEARLEARN"

	// DefaultServerURL is the hosted conversion service
	DefaultServerURL = "https://back-and-learn-project.fly.dev"

	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Player   PlayerConfig   `mapstructure:"player"`
	Speech   SpeechConfig   `mapstructure:"speech"`
	Library  LibraryConfig  `mapstructure:"library"`
	UI       UIConfig       `mapstructure:"ui"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds conversion service configuration
type ServerConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"` // per HTTP request
}

// PlaybackConfig tunes the page controller
type PlaybackConfig struct {
	Mode         string        `mapstructure:"mode"` // "text" or "audio"
	BatchSize    int           `mapstructure:"batch_size"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	AutoAdvance  bool          `mapstructure:"auto_advance"`
	DefaultRate  float64       `mapstructure:"default_rate"`
}

// PlayerConfig holds audio player configuration
type PlayerConfig struct {
	Command  string   `mapstructure:"command"` // empty picks the first known player in PATH
	Args     []string `mapstructure:"args"`
	RateFlag string   `mapstructure:"rate_flag"` // e.g., "--speed=" or "--rate="
}

// SpeechConfig holds text-to-speech configuration
type SpeechConfig struct {
	Command        string `mapstructure:"command"`
	Voice          string `mapstructure:"voice"`
	WordsPerMinute int    `mapstructure:"words_per_minute"`
}

// LibraryConfig holds local library configuration
type LibraryConfig struct {
	DataDir        string `mapstructure:"data_dir"`
	VerifyOnImport bool   `mapstructure:"verify_on_import"` // fetch page 1 after upload
	CachePages     bool   `mapstructure:"cache_pages"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	Theme string `mapstructure:"theme"` // "light" or "dark"
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:     DefaultServerURL,
			Timeout: 60 * time.Second,
		},
		Playback: PlaybackConfig{
			Mode:         "text",
			BatchSize:    3,
			FetchTimeout: 60 * time.Second,
			AutoAdvance:  true,
			DefaultRate:  1.0,
		},
		Player: PlayerConfig{
			Args: []string{},
		},
		Speech: SpeechConfig{
			WordsPerMinute: 175,
		},
		Library: LibraryConfig{
			DataDir:        defaultDataPath(),
			VerifyOnImport: true,
			CachePages:     true,
		},
		UI: UIConfig{
			Theme: ThemeLight,
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), appName+".log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName)
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appName)
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName)
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", appName)
	}
}

// setDefaults registers every key so environment overrides apply even when
// the config file does not mention it
func setDefaults(cfg *Config) {
	viper.SetDefault("server.url", cfg.Server.URL)
	viper.SetDefault("server.timeout", cfg.Server.Timeout)

	viper.SetDefault("playback.mode", cfg.Playback.Mode)
	viper.SetDefault("playback.batch_size", cfg.Playback.BatchSize)
	viper.SetDefault("playback.fetch_timeout", cfg.Playback.FetchTimeout)
	viper.SetDefault("playback.auto_advance", cfg.Playback.AutoAdvance)
	viper.SetDefault("playback.default_rate", cfg.Playback.DefaultRate)

	viper.SetDefault("player.command", cfg.Player.Command)
	viper.SetDefault("player.args", cfg.Player.Args)
	viper.SetDefault("player.rate_flag", cfg.Player.RateFlag)

	viper.SetDefault("speech.command", cfg.Speech.Command)
	viper.SetDefault("speech.voice", cfg.Speech.Voice)
	viper.SetDefault("speech.words_per_minute", cfg.Speech.WordsPerMinute)

	viper.SetDefault("library.data_dir", cfg.Library.DataDir)
	viper.SetDefault("library.verify_on_import", cfg.Library.VerifyOnImport)
	viper.SetDefault("library.cache_pages", cfg.Library.CachePages)

	viper.SetDefault("ui.theme", cfg.UI.Theme)

	viper.SetDefault("logging.file", cfg.Logging.File)
	viper.SetDefault("logging.level", cfg.Logging.Level)
}

// LoadConfig loads configuration from file and environment. An empty
// configFile searches the default locations.
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	setDefaults(cfg)

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(defaultConfigPath())
		viper.AddConfigPath(".")
	}

	// Environment variable overrides, e.g. HEARLEARN_SERVER_URL
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(configFile != "" && errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.Library.DataDir = ExpandHome(cfg.Library.DataDir)
	if cfg.UI.Theme != ThemeDark {
		cfg.UI.Theme = ThemeLight
	}
	return cfg, nil
}

// configFilePath is the file written by SaveConfig
func configFilePath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return filepath.Join(defaultConfigPath(), "config.yaml")
}

func writeConfig() error {
	path := configFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	viper.Set("server.url", cfg.Server.URL)
	viper.Set("server.timeout", cfg.Server.Timeout.String())

	viper.Set("playback.mode", cfg.Playback.Mode)
	viper.Set("playback.batch_size", cfg.Playback.BatchSize)
	viper.Set("playback.fetch_timeout", cfg.Playback.FetchTimeout.String())
	viper.Set("playback.auto_advance", cfg.Playback.AutoAdvance)
	viper.Set("playback.default_rate", cfg.Playback.DefaultRate)

	viper.Set("player.command", cfg.Player.Command)
	viper.Set("player.args", cfg.Player.Args)
	viper.Set("player.rate_flag", cfg.Player.RateFlag)

	viper.Set("speech.command", cfg.Speech.Command)
	viper.Set("speech.voice", cfg.Speech.Voice)
	viper.Set("speech.words_per_minute", cfg.Speech.WordsPerMinute)

	viper.Set("library.data_dir", cfg.Library.DataDir)
	viper.Set("library.verify_on_import", cfg.Library.VerifyOnImport)
	viper.Set("library.cache_pages", cfg.Library.CachePages)

	viper.Set("ui.theme", cfg.UI.Theme)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	return writeConfig()
}

// SaveTheme updates just the theme in the configuration
func SaveTheme(theme string) error {
	viper.Set("ui.theme", theme)
	return writeConfig()
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
