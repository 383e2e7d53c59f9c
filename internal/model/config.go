package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// RemoteConfig holds settings for the managed database and identity services.
type RemoteConfig struct {
	// ProjectID is the Google Cloud project hosting the Firestore database.
	ProjectID string `mapstructure:"project_id" yaml:"project_id"`

	// APIKey is the web API key used for anonymous Identity Toolkit sign-in.
	APIKey string `mapstructure:"api_key" yaml:"api_key"`

	// Collection is the Firestore collection holding user documents.
	Collection string `mapstructure:"collection" yaml:"collection"`

	// CredentialsFile optionally points at a service account JSON file.
	// When empty, application default credentials are used.
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`

	// EmulatorHost, when set, routes Firestore traffic to a local emulator.
	EmulatorHost string `mapstructure:"emulator_host" yaml:"emulator_host"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	// DarkMode is the theme used before any cached or remote value loads.
	DarkMode bool `mapstructure:"dark_mode" yaml:"dark_mode"`
}

// LogConfig holds logging settings. The TUI owns the terminal, so logs
// always go to a file.
type LogConfig struct {
	File  string `mapstructure:"file" yaml:"file"`
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Remote  RemoteConfig  `mapstructure:"remote" yaml:"remote"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// DefaultConfigDir returns the directory for configuration and local state,
// located at ~/.config/todosync.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "todosync")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Remote: RemoteConfig{
			Collection: "users",
		},
		Display: DisplayConfig{
			DarkMode: true,
		},
		Log: LogConfig{
			File:  filepath.Join(DefaultConfigDir(), "todosync.log"),
			Level: "info",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("remote.collection", "users")
	v.SetDefault("display.dark_mode", true)
	v.SetDefault("log.file", filepath.Join(DefaultConfigDir(), "todosync.log"))
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("remote", cfg.Remote)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
