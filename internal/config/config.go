package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultProductID is the storefront identifier of the full-version unlock
const DefaultProductID = "com.existflow.binge.unlock"

// Config holds user preferences
type Config struct {
	DatabasePath  string `yaml:"database_path" json:"database_path"`   // SQLite file for projects and items
	ConfirmDelete bool   `yaml:"confirm_delete" json:"confirm_delete"` // Require confirmation for delete
	SortOrder     string `yaml:"sort_order" json:"sort_order"`         // optimized, title or created
	AutoSync      bool   `yaml:"auto_sync" json:"auto_sync"`           // Sync in the background while the TUI runs
	ProductID     string `yaml:"product_id" json:"product_id"`         // Unlock product identifier

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging
}

// Dir returns the application directory: $BINGE_HOME or ~/.binge
func Dir() (string, error) {
	if dir := os.Getenv("BINGE_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".binge"), nil
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	dir, _ := Dir()
	dbPath, logPath := "", ""
	if dir != "" {
		dbPath = filepath.Join(dir, "binge.db")
		logPath = filepath.Join(dir, "logs", "binge.log")
	}

	return &Config{
		DatabasePath:  getEnv("BINGE_DB", dbPath),
		ConfirmDelete: true,
		SortOrder:     getEnv("BINGE_SORT", "optimized"),
		AutoSync:      getEnv("BINGE_AUTO_SYNC", "true") == "true",
		ProductID:     DefaultProductID,
		LogLevel:      getEnv("BINGE_LOG_LEVEL", "INFO"),
		LogFile:       getEnv("BINGE_LOG_FILE", logPath),
		LogConsole:    getEnv("BINGE_LOG_CONSOLE", "false") == "true",
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Path returns the location of config.yaml
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads config from config.yaml, falling back to defaults if it does not exist
func Load() (*Config, error) {
	configPath, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save writes config to config.yaml
func (c *Config) Save() error {
	configPath, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
