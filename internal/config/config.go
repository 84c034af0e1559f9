package config

import (
	"os"
	"runtime"
	"strconv"
	"time"

	"gopress/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Simulation SimulationConfig
	Tally      TallyConfig
	Paths      PathConfig
	LogLevel   string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string
	GinMode         string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings. An empty URL keeps
// tally runs in memory.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
}

// SimulationConfig holds ensemble generation settings
type SimulationConfig struct {
	Samples     int
	MaxAttempts int
	Seed        uint64
	Workers     int
	Limitation  bool
}

// TallyConfig holds outcome tally settings
type TallyConfig struct {
	Epsilon   float64
	Workers   int
	ChunkSize int
}

// PathConfig holds file system paths
type PathConfig struct {
	ModelFile    string
	EnsembleFile string
	ExportDir    string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:     *loadServerConfig(),
		Database:   *loadDatabaseConfig(),
		Simulation: *loadSimulationConfig(),
		Tally:      *loadTallyConfig(),
		Paths:      *loadPathConfig(),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            getEnvOrDefault("PORT", "8080"),
		GinMode:         getEnvOrDefault("GIN_MODE", "release"),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL:          getEnvOrDefault("DATABASE_URL", ""),
		MaxOpenConns: getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
	}
}

func loadSimulationConfig() *SimulationConfig {
	return &SimulationConfig{
		Samples:     getEnvIntOrDefault("SIM_SAMPLES", 1000),
		MaxAttempts: getEnvIntOrDefault("SIM_MAX_ATTEMPTS", 0),
		Seed:        uint64(getEnvIntOrDefault("SIM_SEED", 42)),
		Workers:     getEnvIntOrDefault("SIM_WORKERS", runtime.NumCPU()),
		Limitation:  getEnvBoolOrDefault("SIM_ENFORCE_LIMITATION", true),
	}
}

func loadTallyConfig() *TallyConfig {
	return &TallyConfig{
		Epsilon:   getEnvFloatOrDefault("TALLY_EPSILON", 1e-5),
		Workers:   getEnvIntOrDefault("TALLY_WORKERS", runtime.NumCPU()),
		ChunkSize: getEnvIntOrDefault("TALLY_CHUNK_SIZE", 256),
	}
}

func loadPathConfig() *PathConfig {
	return &PathConfig{
		ModelFile:    getEnvOrDefault("MODEL_FILE", ""),
		EnsembleFile: getEnvOrDefault("ENSEMBLE_FILE", ""),
		ExportDir:    getEnvOrDefault("EXPORT_DIR", "./exports"),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Simulation.Samples <= 0 {
		return errors.ConfigInvalid("SIM_SAMPLES must be positive")
	}
	if config.Simulation.Workers <= 0 || config.Tally.Workers <= 0 {
		return errors.ConfigInvalid("worker counts must be positive")
	}
	if config.Tally.Epsilon < 0 {
		return errors.ConfigInvalid("TALLY_EPSILON must be non-negative")
	}
	if config.Tally.ChunkSize <= 0 {
		return errors.ConfigInvalid("TALLY_CHUNK_SIZE must be positive")
	}
	return nil
}

// RequireModelSource checks that either an ensemble or a model to simulate
// is configured. The web server needs one, the CLI takes them as flags.
func (c *Config) RequireModelSource() error {
	if c.Paths.EnsembleFile == "" && c.Paths.ModelFile == "" {
		return errors.ConfigInvalid("one of ENSEMBLE_FILE or MODEL_FILE is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
