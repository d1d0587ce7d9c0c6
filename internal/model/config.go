package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// RemoteConfig points at the work-item tracking service.
type RemoteConfig struct {
	// BaseURL is the root URL of the collection
	// (e.g. https://tracker.corp.example.com/DefaultCollection).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Project is the team project all queries are scoped to.
	Project string `mapstructure:"project" yaml:"project"`

	// Account optionally overrides whose activities are loaded;
	// empty means the signed-in user's own.
	Account string `mapstructure:"account" yaml:"account"`
}

// ServerConfig holds the relay server settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`

	// AssetsDir is the directory of static UI assets to serve;
	// empty disables static serving.
	AssetsDir string `mapstructure:"assets_dir" yaml:"assets_dir"`
}

// ListsConfig holds the fixed choice lists offered by the edit form.
type ListsConfig struct {
	Tags          []string `mapstructure:"tags" yaml:"tags"`
	Areas         []string `mapstructure:"areas" yaml:"areas"`
	ActivityTypes []string `mapstructure:"activity_types" yaml:"activity_types"`
}

// TimingConfig groups the tunable delays.
type TimingConfig struct {
	// AuthGraceSec is how long the initial lists load may hang
	// before it is treated as an expired session.
	AuthGraceSec int `mapstructure:"auth_grace_sec" yaml:"auth_grace_sec"`

	// SearchDebounceMs is the quiet period after a keystroke before
	// a server-side parent search fires.
	SearchDebounceMs int `mapstructure:"search_debounce_ms" yaml:"search_debounce_ms"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Remote RemoteConfig `mapstructure:"remote" yaml:"remote"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Lists  ListsConfig  `mapstructure:"lists" yaml:"lists"`
	Timing TimingConfig `mapstructure:"timing" yaml:"timing"`
}

// DefaultConfigPath returns the default path for the configuration
// file, located at ~/.config/timeline/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "timeline", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{Addr: ":4000"},
		Lists: ListsConfig{
			Tags:          []string{"#Tech_Azure"},
			Areas:         []string{`CSEng\DWR\Reactive`},
			ActivityTypes: []string{"Technical qualifying and envisioning"},
		},
		Timing: TimingConfig{
			AuthGraceSec:     3,
			SearchDebounceMs: 200,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using
// Viper. If the file does not exist, it returns a default
// configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("server.addr", ":4000")
	v.SetDefault("timing.auth_grace_sec", 3)
	v.SetDefault("timing.search_debounce_ms", 200)

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
	v.Set("server", cfg.Server)
	v.Set("lists", cfg.Lists)
	v.Set("timing", cfg.Timing)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
