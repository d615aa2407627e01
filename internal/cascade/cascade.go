package cascade

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gopricing/internal/extractor"
	"github.com/hyperifyio/gopricing/internal/pricing"
	"github.com/hyperifyio/gopricing/internal/reduce"
	"github.com/hyperifyio/gopricing/internal/registry"
	"github.com/hyperifyio/gopricing/internal/snapshot"
)

// Tier identifiers, ordered by increasing cost.
const (
	TierStructured = "tier_1" // structured data embedded in the page (JSON-LD)
	TierReduced    = "tier_2" // reduced markup through the extraction service
	TierOCR        = "tier_3" // OCR text (pluggable, absent by default)
	TierImage      = "tier_4" // rendered screenshot through the vision path
	TierNone       = "none"
)

// Tier is one extraction strategy. Run returns attempted=false when the
// tier's required input is absent; a skip is a no-op, not a failure.
type Tier interface {
	Name() string
	Run(ctx context.Context, item registry.WorkItem, snap *snapshot.Snapshot) (result pricing.Extraction, attempted bool)
}

// Result is the outcome of one cascade run, tagged with the tier that
// produced it.
type Result struct {
	Tier       string
	Extraction pricing.Extraction
}

// Cascade orders extraction tiers by cost and applies the quality gate after
// each. The final (image) tier is exempt from the gate: there is no cheaper
// fallback beyond it, so whatever it returns is accepted.
type Cascade struct {
	gated      []Tier
	lastResort Tier
}

// Option customizes cascade construction.
type Option func(*Cascade)

// WithOCR plugs an OCR text tier between the reduced-markup and image tiers.
func WithOCR(t Tier) Option {
	return func(c *Cascade) {
		c.gated = append(c.gated, t)
	}
}

// New builds the default cascade around an extraction client: structured
// data, reduced markup, optional OCR, then the vision last resort.
func New(x *extractor.Extractor, opts ...Option) *Cascade {
	c := &Cascade{
		gated:      []Tier{structuredTier{}, reducedTier{x: x}},
		lastResort: imageTier{x: x},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Extract runs the cascade for one work item and returns the first result
// that passes the quality gate, the image tier's result as a last resort, or
// the last attempted tier's raw result when everything fell through. A
// low-confidence-but-non-empty result is never silently discarded.
func (c *Cascade) Extract(ctx context.Context, item registry.WorkItem, snap *snapshot.Snapshot) Result {
	var last *Result
	for _, tier := range c.gated {
		if ctx.Err() != nil {
			break
		}
		ext, attempted := tier.Run(ctx, item, snap)
		if !attempted {
			log.Debug().Str("target", item.TargetID).Str("region", item.Region).Str("tier", tier.Name()).Msg("tier skipped")
			continue
		}
		if pricing.GatePass(ext) {
			log.Info().Str("target", item.TargetID).Str("region", item.Region).Str("tier", tier.Name()).
				Str("confidence", string(ext.Confidence)).Int("plans", len(ext.Plans)).Msg("tier resolved")
			return Result{Tier: tier.Name(), Extraction: ext}
		}
		log.Debug().Str("target", item.TargetID).Str("region", item.Region).Str("tier", tier.Name()).
			Str("confidence", string(ext.Confidence)).Int("plans", len(ext.Plans)).Msg("quality gate failed, falling through")
		last = &Result{Tier: tier.Name(), Extraction: ext}
	}

	if c.lastResort != nil && ctx.Err() == nil {
		if ext, attempted := c.lastResort.Run(ctx, item, snap); attempted {
			log.Info().Str("target", item.TargetID).Str("region", item.Region).Str("tier", c.lastResort.Name()).
				Str("confidence", string(ext.Confidence)).Int("plans", len(ext.Plans)).Msg("last-resort tier resolved")
			return Result{Tier: c.lastResort.Name(), Extraction: ext}
		}
	}

	if last != nil {
		return *last
	}
	return Result{Tier: TierNone, Extraction: pricing.Empty("all extraction tiers exhausted without result")}
}

// structuredTier parses schema.org JSON-LD product/offer data embedded in
// the raw markup. Free: no service call, no reduction.
type structuredTier struct{}

func (structuredTier) Name() string { return TierStructured }

func (structuredTier) Run(_ context.Context, _ registry.WorkItem, snap *snapshot.Snapshot) (pricing.Extraction, bool) {
	if snap == nil || strings.TrimSpace(snap.HTML) == "" {
		return pricing.Extraction{}, false
	}
	ext, ok := fromJSONLD(snap.HTML)
	if !ok {
		return pricing.Extraction{}, false
	}
	return ext, true
}

// reducedTier reduces the markup and hands it to the extraction service.
type reducedTier struct {
	x *extractor.Extractor
}

func (reducedTier) Name() string { return TierReduced }

func (t reducedTier) Run(ctx context.Context, item registry.WorkItem, snap *snapshot.Snapshot) (pricing.Extraction, bool) {
	if snap == nil || strings.TrimSpace(snap.HTML) == "" {
		return pricing.Extraction{}, false
	}
	reduced := reduce.Reduce(snap.HTML)
	if strings.TrimSpace(reduced) == "" {
		return pricing.Extraction{}, false
	}
	return t.x.ExtractText(ctx, reduced, item.DisplayName, item.Region), true
}

// imageTier sends the rendered screenshot through the vision path.
type imageTier struct {
	x *extractor.Extractor
}

func (imageTier) Name() string { return TierImage }

func (t imageTier) Run(ctx context.Context, item registry.WorkItem, snap *snapshot.Snapshot) (pricing.Extraction, bool) {
	if snap == nil || len(snap.Screenshot) == 0 {
		return pricing.Extraction{}, false
	}
	return t.x.ExtractImage(ctx, snap.Screenshot, item.DisplayName, item.Region), true
}
