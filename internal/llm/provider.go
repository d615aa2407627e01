package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the minimal interface the extraction core needs to call a chat
// model. It mirrors the CreateChatCompletion method so any OpenAI-compatible
// or local backend can be adapted, and so tests can stub the service.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ModelLister is an optional capability for listing available models.
// Callers detect it with a type assertion.
type ModelLister interface {
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// OpenAIProvider adapts *openai.Client to the Client/ModelLister interfaces.
type OpenAIProvider struct {
	Inner *openai.Client
}

func (p *OpenAIProvider) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return p.Inner.CreateChatCompletion(ctx, request)
}

func (p *OpenAIProvider) ListModels(ctx context.Context) (openai.ModelsList, error) {
	return p.Inner.ListModels(ctx)
}

// RetryClient decorates a Client with one bounded retry policy applied at
// the collaborator-call boundary, so cascade and orchestrator logic stay
// retry-agnostic. Only transient failures (rate limits, 5xx, timeouts) are
// retried; cancellation is honored immediately.
type RetryClient struct {
	Inner Client
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// Backoff is the base delay; attempt n sleeps n*Backoff.
	Backoff time.Duration
}

func (r *RetryClient) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := r.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		resp, err := r.Inner.CreateChatCompletion(ctx, request)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isTransient(err) || i == attempts-1 {
			return openai.ChatCompletionResponse{}, err
		}
		select {
		case <-ctx.Done():
			return openai.ChatCompletionResponse{}, ctx.Err()
		case <-time.After(time.Duration(i+1) * backoff):
		}
	}
	return openai.ChatCompletionResponse{}, lastErr
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	// Connection-level faults surface as transport errors.
	msg := err.Error()
	return strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset") || strings.Contains(msg, "EOF")
}
