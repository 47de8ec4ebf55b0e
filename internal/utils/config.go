package utils

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	LogLevel     string `yaml:"log_level" mapstructure:"log_level"`
	LogFormat    string `yaml:"log_format" mapstructure:"log_format"`
	OutputFormat string `yaml:"output_format" mapstructure:"output_format"`

	// Header check configuration
	Checks ChecksConfig `yaml:"checks" mapstructure:"checks"`
}

// ChecksConfig controls which header checks run and how
type ChecksConfig struct {
	Skip     []string `yaml:"skip" mapstructure:"skip"`
	FailFast bool     `yaml:"fail_fast" mapstructure:"fail_fast"`
}

var (
	validLogLevels     = []string{"debug", "info", "warn", "error"}
	validLogFormats    = []string{"text", "json"}
	validOutputFormats = []string{"text", "json", "table"}
)

// ConfigManager handles configuration loading and management
type ConfigManager struct {
	config *Config
	viper  *viper.Viper
	logger *Logger
}

// NewConfigManager creates a new configuration manager
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		config: &Config{},
		viper:  viper.New(),
		logger: NewLogger(LoggerConfig{Level: LogLevelWarn, Output: os.Stderr}),
	}
}

// LoadConfig loads configuration from file and ELFHDR_* environment variables.
// Overrides (typically command line flags) win over both.
func (c *ConfigManager) LoadConfig(configFile string, overrides map[string]interface{}) error {
	c.setDefaults()
	c.configureEnv()

	if configFile != "" {
		c.viper.SetConfigFile(configFile)
		if err := c.viper.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("failed to read config file: %w", err)
			}
			c.logger.WithComponent("config").Warnf("Config file not found: %s", configFile)
		} else {
			c.logger.WithComponent("config").Infof("Loaded config from: %s", c.viper.ConfigFileUsed())
		}
	} else {
		c.viper.SetConfigName("config")
		c.viper.AddConfigPath(".")
		c.viper.AddConfigPath("$HOME/.elfhdr")
		c.viper.AddConfigPath("/etc/elfhdr")

		if err := c.viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("failed to read config file: %w", err)
			}
			c.logger.WithComponent("config").Debug("No config file found, using defaults and environment variables")
		} else {
			c.logger.WithComponent("config").Infof("Loaded config from: %s", c.viper.ConfigFileUsed())
		}
	}

	for key, value := range overrides {
		c.SetConfigValue(key, value)
	}

	if err := c.viper.Unmarshal(c.config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := c.validateConfig(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.logger.WithComponent("config").Debug("Configuration loaded successfully")
	return nil
}

func (c *ConfigManager) configureEnv() {
	c.viper.SetConfigType("yaml")
	c.viper.SetEnvPrefix("ELFHDR")
	c.viper.AutomaticEnv()
	c.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

// setDefaults sets default configuration values
func (c *ConfigManager) setDefaults() {
	c.viper.SetDefault("log_level", "info")
	c.viper.SetDefault("log_format", "text")
	c.viper.SetDefault("output_format", "text")

	c.viper.SetDefault("checks.skip", []string{})
	c.viper.SetDefault("checks.fail_fast", false)
}

// validateConfig validates the loaded configuration
func (c *ConfigManager) validateConfig() error {
	if c.config.LogLevel != "" && !contains(validLogLevels, strings.ToLower(c.config.LogLevel)) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.config.LogLevel, validLogLevels)
	}

	if c.config.LogFormat != "" && !contains(validLogFormats, strings.ToLower(c.config.LogFormat)) {
		return fmt.Errorf("invalid log format: %s (valid: %v)", c.config.LogFormat, validLogFormats)
	}

	if c.config.OutputFormat != "" && !contains(validOutputFormats, strings.ToLower(c.config.OutputFormat)) {
		return fmt.Errorf("invalid output format: %s (valid: %v)", c.config.OutputFormat, validOutputFormats)
	}

	return nil
}

// GetConfig returns the loaded configuration
func (c *ConfigManager) GetConfig() *Config {
	return c.config
}

// SaveConfig saves the current configuration to a file
func (c *ConfigManager) SaveConfig(filename string) error {
	return c.viper.WriteConfigAs(filename)
}

// SetLogger sets the logger for the config manager
func (c *ConfigManager) SetLogger(logger *Logger) {
	c.logger = logger
}

// GetConfigValue gets a configuration value by key
func (c *ConfigManager) GetConfigValue(key string) interface{} {
	return c.viper.Get(key)
}

// SetConfigValue sets a configuration value by key
func (c *ConfigManager) SetConfigValue(key string, value interface{}) {
	c.viper.Set(key, value)
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
