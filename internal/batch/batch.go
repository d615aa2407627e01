package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gopricing/internal/cascade"
	"github.com/hyperifyio/gopricing/internal/pricing"
	"github.com/hyperifyio/gopricing/internal/registry"
	"github.com/hyperifyio/gopricing/internal/snapshot"
)

// Status of one work item's execution.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

// ItemResult is the persisted record shape for one work item. Every
// requested (target, region) pair that was attempted yields exactly one of
// these, even on total failure.
type ItemResult struct {
	Target         string              `json:"target"`
	Region         string              `json:"region"`
	URL            string              `json:"url"`
	Status         Status              `json:"status"`
	Tier           string              `json:"tier"`
	Confidence     pricing.Confidence  `json:"confidence"`
	PlanCount      int                 `json:"plan_count"`
	Error          string              `json:"error,omitempty"`
	Extraction     *pricing.Extraction `json:"extraction"`
	ElapsedSeconds float64             `json:"elapsed_seconds"`
}

// Result aggregates all work-item outcomes of one batch run. Write-once,
// read for reporting.
type Result struct {
	Items        []ItemResult
	ByStatus     map[Status]int
	ByTier       map[string]int
	ByConfidence map[pricing.Confidence]int
	Elapsed      time.Duration
}

// Extractor is the cascade entry point the runner drives per item. An
// interface so tests can count invocations with a stub.
type Extractor interface {
	Extract(ctx context.Context, item registry.WorkItem, snap *snapshot.Snapshot) cascade.Result
}

// Runner drains a queue of independent work items under a concurrency
// budget. Workers share nothing but the result channel; a failure in one
// item never crosses the item boundary.
type Runner struct {
	Acquirer snapshot.Acquirer
	Cascade  Extractor
	// Workers is the pool size. Values below 1 run sequentially.
	Workers int
}

// Run executes all work items and aggregates their results. Completion order
// is not request order; the orchestrator makes no assumption about either.
func (r *Runner) Run(ctx context.Context, items []registry.WorkItem) Result {
	start := time.Now()
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	jobs := make(chan registry.WorkItem)
	results := make(chan ItemResult)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				results <- r.runOne(ctx, item)
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, item := range items {
			jobs <- item
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	out := Result{
		ByStatus:     map[Status]int{},
		ByTier:       map[string]int{},
		ByConfidence: map[pricing.Confidence]int{},
	}
	for res := range results {
		out.Items = append(out.Items, res)
	}
	for _, res := range out.Items {
		out.ByStatus[res.Status]++
		if res.Status == StatusSuccess {
			out.ByTier[res.Tier]++
			out.ByConfidence[res.Confidence]++
		}
	}
	out.Elapsed = time.Since(start)
	return out
}

// runOne executes a single work item with full isolation: panics and errors
// are converted into an error-status record for that item alone.
func (r *Runner) runOne(ctx context.Context, item registry.WorkItem) (res ItemResult) {
	start := time.Now()
	res = ItemResult{
		Target:     item.TargetID,
		Region:     item.Region,
		URL:        item.URL,
		Status:     StatusError,
		Tier:       cascade.TierNone,
		Confidence: pricing.Low,
	}
	defer func() {
		if rec := recover(); rec != nil {
			res.Status = StatusError
			res.Error = fmt.Sprintf("panic: %v", rec)
			log.Error().Str("target", item.TargetID).Str("region", item.Region).
				Interface("panic", rec).Msg("work item panicked")
		}
		res.ElapsedSeconds = time.Since(start).Seconds()
		log.Info().Str("target", item.TargetID).Str("region", item.Region).
			Str("status", string(res.Status)).Str("tier", res.Tier).
			Str("confidence", string(res.Confidence)).Int("plans", res.PlanCount).
			Float64("elapsed_s", res.ElapsedSeconds).Msg("work item done")
	}()

	if err := ctx.Err(); err != nil {
		res.Status = StatusCancelled
		res.Error = "batch cancelled before start"
		return res
	}

	log.Debug().Str("target", item.TargetID).Str("region", item.Region).Str("url", item.URL).Msg("acquiring page")
	snap, err := r.Acquirer.Acquire(ctx, item)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			res.Status = StatusCancelled
		}
		res.Error = fmt.Sprintf("acquisition failed: %v", err)
		log.Warn().Err(err).Str("target", item.TargetID).Str("region", item.Region).Msg("acquisition failed")
		return res
	}

	result := r.Cascade.Extract(ctx, item, snap)
	if ctx.Err() != nil {
		res.Status = StatusCancelled
		res.Error = "batch cancelled during extraction"
		return res
	}

	ext := result.Extraction
	res.Status = StatusSuccess
	res.Tier = result.Tier
	res.Confidence = ext.Confidence
	res.PlanCount = len(ext.Plans)
	res.Extraction = &ext
	return res
}
