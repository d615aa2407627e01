package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = os.Getenv("LLM_BASE_URL")
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = os.Getenv("LLM_MODEL")
	}
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	}

	if cfg.RegistryPath == "" {
		cfg.RegistryPath = os.Getenv("TARGET_REGISTRY")
	}
	if len(cfg.Targets) == 0 {
		cfg.Targets = splitList(os.Getenv("TARGETS"))
	}
	if len(cfg.Regions) == 0 {
		cfg.Regions = splitList(os.Getenv("REGIONS"))
	}

	if cfg.Concurrency == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("CONCURRENCY"))); err == nil && n > 0 {
			cfg.Concurrency = n
		}
	}

	if cfg.OutDir == "" {
		cfg.OutDir = os.Getenv("OUT_DIR")
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = os.Getenv("CACHE_DIR")
	}

	// Optional durations
	if cfg.CacheMaxAge == 0 {
		if s := os.Getenv("CACHE_MAX_AGE"); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.CacheMaxAge = d
			}
		}
	}
	if cfg.RunTimeout == 0 {
		if s := os.Getenv("RUN_TIMEOUT"); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.RunTimeout = d
			}
		}
	}

	// Booleans
	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			if s == "1" || s == "true" || s == "yes" || s == "on" {
				*dst = true
			}
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
