package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema. Nested
// sections map naturally to flags/env.
type FileConfig struct {
	Targets  []string `yaml:"targets" json:"targets"`
	Regions  []string `yaml:"regions" json:"regions"`
	Registry string   `yaml:"registry" json:"registry"`

	LLM struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"llm" json:"llm"`

	Concurrency int           `yaml:"concurrency" json:"concurrency"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent   string        `yaml:"userAgent" json:"userAgent"`

	Out struct {
		Dir string `yaml:"dir" json:"dir"`
		PDF string `yaml:"pdf" json:"pdf"`
	} `yaml:"out" json:"out"`

	Cache struct {
		Dir    string        `yaml:"dir" json:"dir"`
		MaxAge time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear  bool          `yaml:"clear" json:"clear"`
	} `yaml:"cache" json:"cache"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields
// that are currently unset/zero in cfg. Flags should already have been
// parsed; this lets file config supply defaults while preserving explicit
// flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	const (
		outDirDefault   = "results"
		cacheDirDefault = ".gopricing-cache"
	)

	if len(cfg.Targets) == 0 && len(fc.Targets) > 0 {
		cfg.Targets = append([]string{}, fc.Targets...)
	}
	if len(cfg.Regions) == 0 && len(fc.Regions) > 0 {
		cfg.Regions = append([]string{}, fc.Regions...)
	}
	if cfg.RegistryPath == "" && fc.Registry != "" {
		cfg.RegistryPath = fc.Registry
	}

	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}

	if cfg.Concurrency == 0 && fc.Concurrency > 0 {
		cfg.Concurrency = fc.Concurrency
	}
	if cfg.RunTimeout == 0 && fc.Timeout > 0 {
		cfg.RunTimeout = fc.Timeout
	}
	if cfg.UserAgent == "" && fc.UserAgent != "" {
		cfg.UserAgent = fc.UserAgent
	}

	if (cfg.OutDir == "" || cfg.OutDir == outDirDefault) && fc.Out.Dir != "" {
		cfg.OutDir = fc.Out.Dir
	}
	if cfg.PDFPath == "" && fc.Out.PDF != "" {
		cfg.PDFPath = fc.Out.PDF
	}

	if (cfg.CacheDir == "" || cfg.CacheDir == cacheDirDefault) && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.LLMModel) == "" {
		return errors.New("config: llm.model is required (or set LLM_MODEL)")
	}
	if strings.TrimSpace(cfg.OutDir) == "" {
		return errors.New("config: output directory is required")
	}
	if cfg.Concurrency < 0 {
		return errors.New("config: negative concurrency is not allowed")
	}
	return nil
}
