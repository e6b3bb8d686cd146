package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries everything the workspace needs to talk to the catalog
// service. Values come from the environment; a .env file in the working
// directory is loaded first when present.
type Config struct {
	BaseURL string // catalog service base URL, no trailing slash
	Token   string // bearer token, may be empty for open deployments

	LoadWorkers int // concurrent per-SKU fetches during the initial load
	RunWorkers  int // concurrent items in bulk runs (enrichment, creation)

	LogLevel string // zerolog level name, default "warn"
	LogFile  string // log destination, default "skubatch.log"
}

// Load reads configuration from .env (if any) and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		BaseURL:     strings.TrimRight(strings.TrimSpace(os.Getenv("SKUB_API_URL")), "/"),
		Token:       strings.TrimSpace(os.Getenv("SKUB_API_TOKEN")),
		LoadWorkers: envInt("SKUB_LOAD_WORKERS", 8),
		RunWorkers:  envInt("SKUB_RUN_WORKERS", 4),
		LogLevel:    strings.TrimSpace(os.Getenv("SKUB_LOG_LEVEL")),
		LogFile:     strings.TrimSpace(os.Getenv("SKUB_LOG_FILE")),
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
	if cfg.LogFile == "" {
		cfg.LogFile = "skubatch.log"
	}
	if cfg.BaseURL == "" {
		return cfg, errors.New("SKUB_API_URL is not set")
	}
	return cfg, nil
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
