package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type flakyClient struct {
	calls int
	fails int
	err   error
}

func (f *flakyClient) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	if f.calls <= f.fails {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "ok"}}},
	}, nil
}

func TestRetryClient_RetriesTransient(t *testing.T) {
	inner := &flakyClient{fails: 2, err: &openai.APIError{HTTPStatusCode: 429}}
	c := &RetryClient{Inner: inner, MaxAttempts: 3, Backoff: time.Millisecond}
	resp, err := c.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{})
	if err != nil {
		t.Fatalf("expected success after retries: %v", err)
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", inner.calls)
	}
	if resp.Choices[0].Message.Content != "ok" {
		t.Fatalf("unexpected response")
	}
}

func TestRetryClient_DoesNotRetryPermanent(t *testing.T) {
	inner := &flakyClient{fails: 10, err: &openai.APIError{HTTPStatusCode: 400}}
	c := &RetryClient{Inner: inner, MaxAttempts: 3, Backoff: time.Millisecond}
	if _, err := c.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{}); err == nil {
		t.Fatalf("expected error")
	}
	if inner.calls != 1 {
		t.Fatalf("permanent error should not retry, got %d attempts", inner.calls)
	}
}

func TestRetryClient_StopsOnCancel(t *testing.T) {
	inner := &flakyClient{fails: 10, err: errors.New("connection refused")}
	c := &RetryClient{Inner: inner, MaxAttempts: 5, Backoff: 50 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.CreateChatCompletion(ctx, openai.ChatCompletionRequest{}); err == nil {
		t.Fatalf("expected cancellation error")
	}
	if inner.calls > 1 {
		t.Fatalf("cancelled context should stop retries, got %d attempts", inner.calls)
	}
}
