package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperifyio/gopricing/internal/registry"
)

// Snapshot is the raw material handed to extraction: rendered markup plus an
// optional screenshot. It is owned by exactly one work item's execution and
// discarded after the cascade finishes.
type Snapshot struct {
	HTML       string
	Screenshot []byte
	CapturedAt time.Time
}

// Acquirer produces a page snapshot for a work item. How navigation, cookie
// dismissal, or geo routing happen behind this contract is the collaborator's
// business; the core only depends on the contract.
type Acquirer interface {
	Acquire(ctx context.Context, item registry.WorkItem) (*Snapshot, error)
}

// HTTPAcquirer is the default collaborator: a plain GET of the resolved URL.
// It yields no screenshot, so the cascade's image tier is skipped for items
// acquired this way. Transient failures (5xx, timeouts) are retried under a
// bounded policy.
type HTTPAcquirer struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	// RedirectMaxHops caps redirect following. Zero means default (5).
	RedirectMaxHops int
}

func (a *HTTPAcquirer) Acquire(ctx context.Context, item registry.WorkItem) (*Snapshot, error) {
	attempts := a.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		body, err := a.tryOnce(ctx, item.URL)
		if err == nil {
			return &Snapshot{HTML: string(body), CapturedAt: time.Now()}, nil
		}
		lastErr = err
		if !isTransient(err) || i == attempts-1 {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		}
	}
	return nil, lastErr
}

func (a *HTTPAcquirer) tryOnce(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if req.URL == nil || !isHTTPScheme(req.URL) {
		return nil, fmt.Errorf("unsupported URL scheme: %q", target)
	}
	if a.UserAgent != "" {
		req.Header.Set("User-Agent", a.UserAgent)
	}

	client := a.httpClient()
	if a.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(req.Context(), a.PerRequestTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 && resp.StatusCode <= 599 {
		return nil, fmt.Errorf("server error: %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !isHTMLContentType(ct) {
		return nil, fmt.Errorf("unsupported content type: %s", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func (a *HTTPAcquirer) httpClient() *http.Client {
	if a.HTTPClient != nil {
		base := *a.HTTPClient
		base.CheckRedirect = a.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: a.PerRequestTimeout, CheckRedirect: a.checkRedirectFunc()}
}

func (a *HTTPAcquirer) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	maxHops := a.RedirectMaxHops
	if maxHops <= 0 {
		maxHops = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxHops {
			return errors.New("too many redirects")
		}
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(err.Error(), "server error:")
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	s := strings.ToLower(u.Scheme)
	return s == "http" || s == "https"
}

func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}
