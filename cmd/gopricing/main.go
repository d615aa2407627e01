package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gopricing/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		targets      string
		regions      string
		registryPath string
		llmBaseURL   string
		llmModel     string
		llmKey       string
		concurrency  int
		runTimeout   time.Duration
		userAgent    string
		outDir       string
		pdfPath      string
		cacheDir     string
		cacheMaxAge  time.Duration
		cacheClear   bool
		verbose      bool
		configPath   string
	)

	flag.StringVar(&targets, "targets", os.Getenv("TARGETS"), "Comma-separated target IDs to run; empty or 'all' runs all active targets")
	flag.StringVar(&regions, "regions", os.Getenv("REGIONS"), "Comma-separated ISO region codes; empty or 'all' runs every region the targets support")
	flag.StringVar(&registryPath, "registry", os.Getenv("TARGET_REGISTRY"), "Path to target registry YAML (empty uses the built-in registry)")
	flag.StringVar(&llmBaseURL, "llm.base", os.Getenv("LLM_BASE_URL"), "OpenAI-compatible base URL")
	flag.StringVar(&llmModel, "llm.model", os.Getenv("LLM_MODEL"), "Model name")
	flag.StringVar(&llmKey, "llm.key", os.Getenv("LLM_API_KEY"), "API key for OpenAI-compatible server")
	flag.IntVar(&concurrency, "concurrency", 1, "Number of work items processed in parallel")
	flag.DurationVar(&runTimeout, "timeout", 0, "Wall-clock bound for the whole run (e.g. 30m); 0 disables")
	flag.StringVar(&userAgent, "ua", "gopricing/1.0 (+https://github.com/hyperifyio/gopricing)", "User-Agent for page acquisition")
	flag.StringVar(&outDir, "out.dir", "results", "Directory for result records and the run index")
	flag.StringVar(&pdfPath, "out.pdf", "", "Optional path to write a PDF run summary")
	flag.StringVar(&cacheDir, "cache.dir", ".gopricing-cache", "Cache directory for extraction responses")
	flag.DurationVar(&cacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	flag.BoolVar(&cacheClear, "cache.clear", false, "Clear cache directory before run")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "Optional YAML/JSON config file")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Config{
		Targets:      splitList(targets),
		Regions:      splitList(regions),
		RegistryPath: registryPath,
		LLMBaseURL:   llmBaseURL,
		LLMModel:     llmModel,
		LLMAPIKey:    llmKey,
		Concurrency:  concurrency,
		RunTimeout:   runTimeout,
		UserAgent:    userAgent,
		OutDir:       outDir,
		PDFPath:      pdfPath,
		CacheDir:     cacheDir,
		CacheMaxAge:  cacheMaxAge,
		CacheClear:   cacheClear,
		Verbose:      verbose,
	}

	if strings.TrimSpace(configPath) != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("config", configPath).Msg("load config file")
			os.Exit(2)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvToConfig(&cfg)

	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		// Exit code policy: 2 when there was nothing to run or nothing
		// succeeded, so schedulers can tell an empty/broken run from a
		// partial one.
		if errors.Is(err, app.ErrNoWorkItems) || errors.Is(err, app.ErrAllItemsFailed) {
			os.Exit(2)
		}
		os.Exit(1)
	}
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

func run(cfg app.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}
