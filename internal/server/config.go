// config.go - Environment-driven configuration with fail-fast
// validation at startup.
package server

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultMaxUploadBytes = 4 << 30 // 4 GiB

// Config holds everything the binary needs from the environment.
type Config struct {
	Addr              string
	ContentDir        string
	DatabasePath      string
	MaxUploadBytes    int64
	SessionTTL        time.Duration
	BootstrapUser     string
	BootstrapPassword string
	Version           string
}

// LoadConfig reads an optional .env file, then the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	maxBytes, err := getEnvInt64("FILEHOST_MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	if err != nil {
		return nil, err
	}
	ttl, err := getEnvDuration("FILEHOST_SESSION_TTL", 12*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Addr:              getEnv("FILEHOST_ADDR", ":8080"),
		ContentDir:        getEnv("FILEHOST_CONTENT_DIR", "files"),
		DatabasePath:      getEnv("FILEHOST_DB_PATH", "files.db"),
		MaxUploadBytes:    maxBytes,
		SessionTTL:        ttl,
		BootstrapUser:     getEnv("FILEHOST_ADMIN_USER", "admin"),
		BootstrapPassword: os.Getenv("FILEHOST_ADMIN_PASSWORD"),
		Version:           getEnv("FILEHOST_VERSION", "dev"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate collects every configuration problem so the operator sees
// them all at once instead of one per restart.
func (c *Config) Validate() error {
	var problems []string
	if c.Addr == "" {
		problems = append(problems, "FILEHOST_ADDR must not be empty")
	}
	if c.ContentDir == "" {
		problems = append(problems, "FILEHOST_CONTENT_DIR must not be empty")
	}
	if c.DatabasePath == "" {
		problems = append(problems, "FILEHOST_DB_PATH must not be empty")
	}
	if c.MaxUploadBytes <= 0 {
		problems = append(problems, "FILEHOST_MAX_UPLOAD_BYTES must be positive")
	}
	if c.SessionTTL <= 0 {
		problems = append(problems, "FILEHOST_SESSION_TTL must be positive")
	}
	if c.BootstrapUser == "" {
		problems = append(problems, "FILEHOST_ADMIN_USER must not be empty")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt64(key string, def int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
