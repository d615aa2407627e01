package extractor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/gopricing/internal/cache"
	"github.com/hyperifyio/gopricing/internal/llm"
	"github.com/hyperifyio/gopricing/internal/pricing"
)

// InputKind selects how content is presented to the extraction service.
type InputKind string

const (
	// KindText is reduced markup or OCR text.
	KindText InputKind = "text"
	// KindImage is a rendered PNG screenshot.
	KindImage InputKind = "image"
)

const systemMessage = "You are a pricing data extraction assistant. Extract ALL subscription/pricing " +
	"plans shown on this page, including free tiers and enterprise/contact-sales tiers. " +
	"Be precise with prices: include exact amounts as displayed. If a price uses a comma " +
	"as decimal separator (European format like €9,99), convert to dot notation (9.99). " +
	"For Japanese yen and other zero-decimal currencies use integer values. " +
	"Respond with strict JSON only, no narration, matching this schema: " +
	"{\"currency_code\": ISO-4217 string, \"currency_symbol\": string, " +
	"\"plans\": [{\"plan_name\": string, \"monthly_price\": number|null, \"annual_price\": number|null, " +
	"\"annual_monthly_equivalent\": number|null, \"billing_periods_available\": [\"monthly\"|\"annual\"|\"weekly\"|\"quarterly\"], " +
	"\"is_free_tier\": bool, \"is_contact_sales\": bool, \"target_audience\": \"individual\"|\"family\"|\"student\"|\"team\"|\"enterprise\", " +
	"\"key_features\": string[<=10], \"notes\": string|null}], " +
	"\"extraction_confidence\": \"high\"|\"medium\"|\"low\", \"extraction_notes\": string|null}. " +
	"If you cannot determine a field with confidence, set extraction_confidence to \"low\" " +
	"and explain in extraction_notes rather than guessing."

// Extractor invokes an OpenAI-compatible structured-extraction service and
// validates its response into a typed result. It never returns an error to
// the caller: every failure degrades to a low-confidence extraction carrying
// an explanatory note, so the cascade can treat the client as total.
type Extractor struct {
	Client llm.Client
	Model  string
	// Cache, when set, stores responses for text inputs keyed by model and
	// prompt digest.
	Cache *cache.ResponseCache
	// Timeout bounds each service call. Zero means no extra bound beyond ctx.
	Timeout time.Duration
}

// ExtractText sends reduced markup (or OCR text) and returns the validated
// extraction.
func (x *Extractor) ExtractText(ctx context.Context, content, target, region string) pricing.Extraction {
	user := buildTextPrompt(content, target, region)

	if x.Cache != nil {
		key := cache.KeyFrom(x.Model, systemMessage+"\n\n"+user)
		if raw, ok, _ := x.Cache.Get(ctx, key); ok {
			var e pricing.Extraction
			if err := json.Unmarshal(raw, &e); err == nil {
				return e
			}
		}
	}

	req := openai.ChatCompletionRequest{
		Model: x.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0,
		N:           1,
	}
	result := x.call(ctx, req, target, region)

	if x.Cache != nil && result.Confidence != pricing.Low {
		if b, err := json.Marshal(result); err == nil {
			_ = x.Cache.Save(ctx, cache.KeyFrom(x.Model, systemMessage+"\n\n"+user), b)
		}
	}
	return result
}

// ExtractImage sends a rendered PNG screenshot through the vision input
// path. Images over the service's dimension cap are downscaled first.
func (x *Extractor) ExtractImage(ctx context.Context, png []byte, target, region string) pricing.Extraction {
	scaled, err := fitToDimensionCap(png)
	if err != nil {
		return pricing.Empty(fmt.Sprintf("screenshot unusable: %v", err))
	}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(scaled)

	req := openai.ChatCompletionRequest{
		Model: x.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
					{Type: openai.ChatMessagePartTypeText, Text: buildImagePrompt(target, region)},
				},
			},
		},
		Temperature: 0,
		N:           1,
	}
	return x.call(ctx, req, target, region)
}

func (x *Extractor) call(ctx context.Context, req openai.ChatCompletionRequest, target, region string) pricing.Extraction {
	if x.Client == nil || strings.TrimSpace(x.Model) == "" {
		return pricing.Empty("extraction service not configured")
	}
	if x.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.Timeout)
		defer cancel()
	}
	resp, err := x.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return pricing.Empty("extraction cancelled")
		}
		log.Warn().Err(err).Str("target", target).Str("region", region).Msg("extraction service call failed")
		return pricing.Empty(fmt.Sprintf("extraction service error: %v", err))
	}
	if len(resp.Choices) == 0 {
		return pricing.Empty("extraction service returned no choices")
	}
	return parseResponse(resp.Choices[0].Message.Content)
}

// parseResponse validates the raw payload against the extraction schema and
// decodes it. Schema-invalid payloads go through salvage instead of being
// discarded: a single malformed field must not throw away correctly
// extracted plans.
func parseResponse(raw string) pricing.Extraction {
	payload := stripFences(raw)

	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return salvage(payload, fmt.Sprintf("response is not valid JSON: %v", err))
	}
	if err := validateResponse(v); err != nil {
		return salvage(payload, fmt.Sprintf("response failed schema validation: %v", err))
	}
	var e pricing.Extraction
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return salvage(payload, fmt.Sprintf("response decode failed: %v", err))
	}
	return pricing.Normalize(e)
}

// stripFences removes a Markdown code fence some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func buildTextPrompt(content, target, region string) string {
	var sb strings.Builder
	sb.WriteString("Extract all subscription pricing plans from this ")
	sb.WriteString(target)
	sb.WriteString(" pricing page (")
	sb.WriteString(strings.ToUpper(region))
	sb.WriteString("). Source: reduced markup\n\n")
	sb.WriteString(content)
	return sb.String()
}

func buildImagePrompt(target, region string) string {
	return fmt.Sprintf("Extract all subscription pricing plans from this %s pricing page (%s). Include free tiers and enterprise/contact-sales tiers.", target, strings.ToUpper(region))
}
