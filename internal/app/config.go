package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Selection
	Targets      []string
	Regions      []string
	RegistryPath string

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Orchestration
	Concurrency int
	RunTimeout  time.Duration

	// Acquisition
	UserAgent string

	// Output
	OutDir  string
	PDFPath string

	// Behavior
	CacheDir    string
	CacheMaxAge time.Duration
	CacheClear  bool
	Verbose     bool
}
