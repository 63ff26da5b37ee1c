// Package config provides configuration for the offline service
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the offline service
type Config struct {
	Store   StoreConfig
	Remote  RemoteConfig
	Sync    SyncConfig
	Server  ServerConfig
	Logging LoggingConfig
	Cache   CacheConfig
}

// StoreConfig holds local database settings
type StoreConfig struct {
	Path string
}

// RemoteConfig holds remote backend settings
type RemoteConfig struct {
	BaseURL string
	APIKey  string
}

// SyncConfig holds synchronization settings
type SyncConfig struct {
	UserID                    string
	Interval                  time.Duration
	ConnectivityCheckInterval time.Duration
}

// ServerConfig holds control surface settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CacheConfig holds response cache settings
type CacheConfig struct {
	MaxAge time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// Local store configuration
	storePath := os.Getenv("STORE_PATH")
	if storePath == "" {
		return nil, fmt.Errorf("STORE_PATH is required")
	}
	cfg.Store.Path = storePath

	// Remote backend configuration
	remoteBaseURL := os.Getenv("REMOTE_BASE_URL")
	if remoteBaseURL == "" {
		return nil, fmt.Errorf("REMOTE_BASE_URL is required")
	}
	cfg.Remote.BaseURL = remoteBaseURL

	cfg.Remote.APIKey = os.Getenv("REMOTE_API_KEY") // optional

	// Sync configuration
	userID := os.Getenv("USER_ID")
	if userID == "" {
		return nil, fmt.Errorf("USER_ID is required")
	}
	cfg.Sync.UserID = userID

	syncIntervalStr := os.Getenv("SYNC_INTERVAL")
	if syncIntervalStr == "" {
		syncIntervalStr = "30s" // default
	}
	syncInterval, err := time.ParseDuration(syncIntervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}
	cfg.Sync.Interval = syncInterval

	checkIntervalStr := os.Getenv("CONNECTIVITY_CHECK_INTERVAL")
	if checkIntervalStr == "" {
		checkIntervalStr = "10s" // default
	}
	checkInterval, err := time.ParseDuration(checkIntervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CONNECTIVITY_CHECK_INTERVAL: %w", err)
	}
	cfg.Sync.ConnectivityCheckInterval = checkInterval

	// Control surface configuration
	serverPortStr := os.Getenv("SERVER_PORT")
	if serverPortStr == "" {
		serverPortStr = "8090" // default port
	}
	serverPort, err := strconv.Atoi(serverPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	cfg.Server.Port = serverPort

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	// Response cache configuration
	cacheMaxAgeStr := os.Getenv("CACHE_MAX_AGE")
	if cacheMaxAgeStr == "" {
		cacheMaxAgeStr = "168h" // 7 days
	}
	cacheMaxAge, err := time.ParseDuration(cacheMaxAgeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_MAX_AGE: %w", err)
	}
	cfg.Cache.MaxAge = cacheMaxAge

	return cfg, nil
}
