package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "CUTOUT"

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Output  OutputConfig  `mapstructure:"output"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds removal service configuration
type ServerConfig struct {
	URL      string        `mapstructure:"url"`       // Service origin, e.g. http://localhost:8000
	BasePath string        `mapstructure:"base_path"` // Path prefix for all endpoints, e.g. /api
	Timeout  time.Duration `mapstructure:"timeout"`   // Whole-request timeout (upload + processing)
}

// OutputConfig controls where downloaded results are written
type OutputConfig struct {
	Dir       string `mapstructure:"dir"`
	Overwrite bool   `mapstructure:"overwrite"` // false = add " (1)" style suffixes like a browser
}

// UIConfig holds UI configuration
type UIConfig struct {
	ShowPreview bool `mapstructure:"show_preview"`
	ShowHidden  bool `mapstructure:"show_hidden"` // List dotfiles in the file browser
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
			URL:      "http://localhost:8000",
			BasePath: "/api",
			Timeout:  5 * time.Minute,
		},
		Output: OutputConfig{
			Dir:       ".",
			Overwrite: false,
		},
		UI: UIConfig{
			ShowPreview: true,
			ShowHidden:  false,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "cutout", "cutout.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "cutout", "cutout.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "cutout")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "cutout")
	}
}

// LoadConfig loads configuration from .env, the config file and environment
func LoadConfig() (*Config, error) {
	// A missing .env is fine
	_ = godotenv.Load()

	return loadConfig(viper.GetViper(), defaultConfigPath(), ".")
}

// loadConfig reads config into a fresh Config using the given viper instance
func loadConfig(v *viper.Viper, searchPaths ...string) (*Config, error) {
	cfg := DefaultConfig()
	setDefaults(v, cfg)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	// Environment variable overrides: CUTOUT_SERVER_URL, CUTOUT_OUTPUT_DIR, ...
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.url", cfg.Server.URL)
	v.SetDefault("server.base_path", cfg.Server.BasePath)
	v.SetDefault("server.timeout", cfg.Server.Timeout)
	v.SetDefault("output.dir", cfg.Output.Dir)
	v.SetDefault("output.overwrite", cfg.Output.Overwrite)
	v.SetDefault("ui.show_preview", cfg.UI.ShowPreview)
	v.SetDefault("ui.show_hidden", cfg.UI.ShowHidden)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	return saveConfig(viper.GetViper(), cfg, defaultConfigPath())
}

func saveConfig(v *viper.Viper, cfg *Config, configPath string) error {
	// Ensure config directory exists
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	v.Set("server.url", cfg.Server.URL)
	v.Set("server.base_path", cfg.Server.BasePath)
	v.Set("server.timeout", cfg.Server.Timeout.String())

	v.Set("output.dir", cfg.Output.Dir)
	v.Set("output.overwrite", cfg.Output.Overwrite)

	v.Set("ui.show_preview", cfg.UI.ShowPreview)
	v.Set("ui.show_hidden", cfg.UI.ShowHidden)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the server URL is set and parses as http(s)
func (c *Config) IsConfigured() bool {
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// BaseURL returns the service origin joined with the base path, without a trailing slash
func (c *Config) BaseURL() string {
	base := strings.TrimRight(c.Server.URL, "/")
	path := strings.Trim(c.Server.BasePath, "/")
	if path == "" {
		return base
	}
	return base + "/" + path
}

// Endpoint returns the full URL for an endpoint path such as "/remove-background"
func (c *Config) Endpoint(path string) string {
	return c.BaseURL() + "/" + strings.TrimLeft(path, "/")
}

// ExpandPath expands a leading ~ to the user's home directory
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}
