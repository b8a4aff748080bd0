// Package config loads the orchestrator's configuration from the process
// environment. There is no config file and no UI; every setting below has
// exactly one source of truth, per spec.md §6.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds every environment-sourced setting the orchestrator needs.
type Config struct {
	StartURL                string
	AllowedDomains          []string
	ConfirmationKeywords    []string
	Headless                bool
	ViewportWidth           int
	ViewportHeight          int
	LLMAPIKey               string
	LLMBaseURL              string
	LLMModel                string
	VisibilityModel         string
	Port                    int
	DBPath                  string
	ArtifactsDir            string
}

var (
	loaded     *Config
	loadOnce   sync.Once
	loadErr    error
)

// Load reads the environment once per process and caches the result.
// Subsequent calls return the same *Config.
func Load() (*Config, error) {
	loadOnce.Do(func() {
		loaded, loadErr = loadFromEnv()
	})
	return loaded, loadErr
}

func loadFromEnv() (*Config, error) {
	cfg := &Config{
		StartURL:             getEnv("PILOT_START_URL", "about:blank"),
		AllowedDomains:       splitCSV(os.Getenv("PILOT_ALLOWED_DOMAINS")),
		ConfirmationKeywords: splitCSV(getEnv("PILOT_CONFIRMATION_KEYWORDS", defaultConfirmationKeywords)),
		Headless:             getEnvBool("PILOT_HEADLESS", true),
		ViewportWidth:        getEnvInt("PILOT_VIEWPORT_WIDTH", 1280),
		ViewportHeight:       getEnvInt("PILOT_VIEWPORT_HEIGHT", 720),
		LLMAPIKey:            os.Getenv("PILOT_LLM_API_KEY"),
		LLMBaseURL:           os.Getenv("PILOT_LLM_BASE_URL"),
		LLMModel:             getEnv("PILOT_LLM_MODEL", "gpt-4o"),
		VisibilityModel:      getEnv("PILOT_VISIBILITY_MODEL", "gpt-4o-mini"),
		Port:                 getEnvInt("PILOT_PORT", 8080),
		DBPath:               getEnv("PILOT_DB_PATH", "pilot.db"),
		ArtifactsDir:         getEnv("PILOT_ARTIFACTS_DIR", "artifacts"),
	}

	if cfg.LLMAPIKey == "" {
		return nil, fmt.Errorf("PILOT_LLM_API_KEY is required")
	}

	return cfg, nil
}

// defaultConfirmationKeywords flags labels the guardrail gate treats as
// requiring explicit human approval before the action executes.
const defaultConfirmationKeywords = "submit,enroll,pay,send,delete,remove"

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
