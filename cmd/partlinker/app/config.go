package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dbx-solutions/partlinker/pkg/constants"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// Part-DB connection
	APIURL    string
	APIToken  string
	AfterDate string

	// Generation paths
	TemplatesFile string
	OutputDir     string

	// Logging configuration. LogLevel holds the explicit --log-level flag
	// only; LogLevelEnv holds LOG_LEVEL from the environment. They are kept
	// apart so the -v/-q shortcuts can rank between them.
	LogLevel    string
	LogLevelEnv string
	LogFormat   string
	LogOutput   string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.partlinker.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	// Set up Viper for environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// Bind Part-DB credentials explicitly so they survive .env loading
	bindAPIKeys()

	// Try to read config file if it exists
	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		// Search for config in standard locations
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".partlinker")
		}
	}

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()

	// Build config from viper
	config := &Config{
		// Global flags (may be overridden by cobra flags later)
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),

		// Config file
		ConfigFile: viper.ConfigFileUsed(),

		// Part-DB connection
		APIURL:    viper.GetString("PARTDB_API_URL"),
		APIToken:  viper.GetString("PARTDB_API_TOKEN"),
		AfterDate: viper.GetString("PARTDB_AFTER_DATE"),

		// Generation paths
		TemplatesFile: viper.GetString("templates_file"),
		OutputDir:     viper.GetString("output_dir"),

		// Logging configuration (LogLevel stays empty until the
		// --log-level flag sets it)
		LogLevelEnv: getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat:   getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput:   getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	// Set defaults
	if config.TemplatesFile == "" {
		config.TemplatesFile = constants.DefaultTemplateFile
	}
	if config.OutputDir == "" {
		config.OutputDir = constants.DefaultOutputDir
	}
	if config.AfterDate == "" {
		config.AfterDate = constants.DefaultAfterDate
	}

	return config, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
func loadEnvFiles() {
	// .env.local overrides .env
	envFiles := []string{
		".env",
		".env.local",
	}

	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}

// bindAPIKeys explicitly binds the Part-DB environment variables to Viper.
func bindAPIKeys() {
	apiKeys := []string{
		"PARTDB_API_URL",
		"PARTDB_API_TOKEN",
		"PARTDB_AFTER_DATE",
	}

	for _, key := range apiKeys {
		_ = viper.BindEnv(key)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
