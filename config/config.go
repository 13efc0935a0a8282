package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	DataDir       string // directory holding the beat index and logs
	SnapshotPath  string // path of the persisted beat index (JSON)
	Port          int
	CORSOrigins   []string
	LogLevel      string
	LogFile       string // empty disables file logging
	BatchSize     int    // files per extraction batch during a scan
	WatchFolders  bool   // rescan automatically when library folders change
	WatchDebounce time.Duration
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// DefaultDataDir returns the per-user data directory for the index and logs.
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".beatvault")
	}
	return filepath.Join(homeDir, ".beatvault")
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load does not override variables that are already set.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	dataDir := getEnv("BEATVAULT_DATA_DIR", DefaultDataDir())

	corsOrigins := getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173,http://localhost:5174")

	return &Config{
		DataDir:       dataDir,
		SnapshotPath:  filepath.Join(dataDir, "beat-index.json"),
		Port:          getEnvInt("SERVER_PORT", 8080),
		CORSOrigins:   strings.Split(corsOrigins, ","),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		BatchSize:     getEnvInt("SCAN_BATCH_SIZE", 50),
		WatchFolders:  getEnvBool("WATCH_FOLDERS", false),
		WatchDebounce: time.Duration(getEnvInt("WATCH_DEBOUNCE_MS", 2000)) * time.Millisecond,
	}
}
