package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/gopricing/internal/batch"
	"github.com/hyperifyio/gopricing/internal/cache"
	"github.com/hyperifyio/gopricing/internal/cascade"
	"github.com/hyperifyio/gopricing/internal/extractor"
	"github.com/hyperifyio/gopricing/internal/llm"
	"github.com/hyperifyio/gopricing/internal/registry"
	"github.com/hyperifyio/gopricing/internal/report"
	"github.com/hyperifyio/gopricing/internal/snapshot"
	"github.com/hyperifyio/gopricing/internal/store"
)

type App struct {
	cfg      Config
	client   llm.Client
	acquirer snapshot.Acquirer
}

// ErrNoWorkItems is returned when target/region selection expands to an
// empty work matrix. Per the exit code policy, this condition should result
// in a non-zero process exit.
var ErrNoWorkItems = fmt.Errorf("no work items to run")

// ErrAllItemsFailed is returned when a run completes without a single
// successful extraction.
var ErrAllItemsFailed = fmt.Errorf("all work items failed")

func New(ctx context.Context, cfg Config) (*App, error) {
	// Build OpenAI-compatible config
	transportCfg := openai.DefaultConfig(cfg.LLMAPIKey)
	if cfg.LLMBaseURL != "" {
		transportCfg.BaseURL = cfg.LLMBaseURL
	}
	transportCfg.HTTPClient = newHighThroughputHTTPClient()
	provider := &llm.OpenAIProvider{Inner: openai.NewClientWithConfig(transportCfg)}

	a := &App{
		cfg:    cfg,
		client: &llm.RetryClient{Inner: provider, MaxAttempts: 3},
		acquirer: &snapshot.HTTPAcquirer{
			HTTPClient:        newHighThroughputHTTPClient(),
			UserAgent:         cfg.UserAgent,
			MaxAttempts:       2,
			PerRequestTimeout: 15 * time.Second,
			RedirectMaxHops:   5,
		},
	}

	// Apply cache invalidation controls
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			_ = cache.ClearDir(cfg.CacheDir)
		}
		if cfg.CacheMaxAge > 0 {
			// Purge by age; ignore errors to avoid failing startup
			_, _ = cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge)
		}
	}

	// Quick connectivity check to the extraction service by listing models.
	// Preflight is best-effort: warn and continue so the run can still apply
	// its exit code policy on real failures.
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := provider.ListModels(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
	} else {
		if len(models.Models) > 0 {
			log.Info().Int("count", len(models.Models)).Msg("LLM models available")
		} else {
			log.Warn().Msg("LLM returned zero models")
		}
	}

	return a, nil
}

func (a *App) Close() {
	// nothing yet
}

func (a *App) Run(ctx context.Context) error {
	// 1) Load the registry and expand the work matrix
	targets, err := registry.Load(a.cfg.RegistryPath)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}
	targets = registry.Filter(targets, a.cfg.Targets)
	regions := a.cfg.Regions
	if registry.SelectsAll(regions) {
		regions = registry.AllRegions(targets)
	}
	items := registry.Expand(targets, regions)
	if len(items) == 0 {
		log.Warn().Msg("selection expanded to zero work items")
		return ErrNoWorkItems
	}
	log.Info().Int("items", len(items)).Int("targets", len(targets)).
		Strs("regions", regions).Msg("starting batch")

	// 2) Assemble the extraction pipeline
	x := &extractor.Extractor{
		Client:  a.client,
		Model:   a.cfg.LLMModel,
		Timeout: 60 * time.Second,
	}
	if a.cfg.CacheDir != "" {
		x.Cache = &cache.ResponseCache{Dir: a.cfg.CacheDir}
	}
	runner := &batch.Runner{
		Acquirer: a.acquirer,
		Cascade:  cascade.New(x),
		Workers:  a.cfg.Concurrency,
	}

	// 3) Run, under the optional wall-clock bound
	if a.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.RunTimeout)
		defer cancel()
	}
	started := time.Now()
	res := runner.Run(ctx, items)

	// 4) Persist records and the run index
	st, err := store.Open(a.cfg.OutDir)
	if err != nil {
		return fmt.Errorf("open results store: %w", err)
	}
	paths, err := st.SaveBatch(context.Background(), started, res)
	closeErr := st.Close()
	if err != nil {
		return fmt.Errorf("persist results: %w", err)
	}
	if closeErr != nil {
		log.Warn().Err(closeErr).Msg("close results store")
	}
	log.Info().Int("records", len(paths)).Str("dir", a.cfg.OutDir).Msg("wrote result records")

	// 5) Report
	if err := report.WriteSummary(os.Stdout, res); err != nil {
		log.Warn().Err(err).Msg("write summary")
	}
	if a.cfg.PDFPath != "" {
		if err := report.WritePDF(a.cfg.PDFPath, started, res); err != nil {
			log.Warn().Err(err).Msg("write pdf summary")
		} else {
			log.Info().Str("pdf", a.cfg.PDFPath).Msg("wrote pdf summary")
		}
	}

	if res.ByStatus[batch.StatusSuccess] == 0 {
		return ErrAllItemsFailed
	}
	return nil
}
