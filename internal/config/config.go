package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr       string
	LogLevel       string
	RequestTimeout time.Duration
	Gemini         GeminiConfig
	Dialogue       DialogueConfig
	Jobs           JobsConfig
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type DialogueConfig struct {
	FAQPath       string
	StoreType     string
	StoragePath   string
	MaxHistory    int
	ContextMaxAge time.Duration
}

type JobsConfig struct {
	DBDir string
}

func Load() (Config, error) {
	var cfg Config

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	reqTimeout, err := parseDuration(getEnv("HTTP_CLIENT_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_CLIENT_TIMEOUT: %w", err)
	}
	cfg.RequestTimeout = reqTimeout

	cfg.Gemini = GeminiConfig{
		APIKey: getEnv("GEMINI_API_KEY", ""),
		Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
	}

	maxHistory, err := parseIntDefault(getEnv("MAX_HISTORY", ""), 10)
	if err != nil {
		return Config{}, fmt.Errorf("parse MAX_HISTORY: %w", err)
	}

	maxAge, err := parseDuration(getEnv("CONTEXT_MAX_AGE", "720h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CONTEXT_MAX_AGE: %w", err)
	}

	cfg.Dialogue = DialogueConfig{
		FAQPath:       getEnv("FAQ_PATH", "data/chatbot_faq.json"),
		StoreType:     getEnv("CONTEXT_STORE_TYPE", "file"),
		StoragePath:   getEnv("CONTEXT_STORAGE_PATH", "data/context_memory.json"),
		MaxHistory:    maxHistory,
		ContextMaxAge: maxAge,
	}

	cfg.Jobs = JobsConfig{
		DBDir: getEnv("JOBS_DB_DIR", "data"),
	}

	return cfg, nil
}

func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, fmt.Errorf("duration is empty")
	}
	return time.ParseDuration(value)
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

// parseIntDefault parses an optional integer with a default value.
func parseIntDefault(value string, def int) (int, error) {
	if value == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}
