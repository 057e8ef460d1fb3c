package agency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

const (
	defaultComplianceTimeout = 2 * time.Second
	defaultComplianceRPS     = 20
	maxComplianceAttempts    = 3
	maxErrorBody             = 4096
)

var errComplianceStatus = errors.New("compliance provider returned an unexpected status")

// HTTPCompliance fetches compliance scores from the regulatory scoring service:
// GET {base}/agencies/{agencyID}/compliance returning {"score": 0.87}.
// Transient failures (429, 5xx, network) are retried with backoff; the caller's
// circuit breaker decides what to do when retries are exhausted.
type HTTPCompliance struct {
	base    string
	hc      *http.Client
	limiter *rate.Limiter
}

type ComplianceOption func(*HTTPCompliance)

// WithHTTPClient replaces the default client, e.g. with an httptest server's.
func WithHTTPClient(hc *http.Client) ComplianceOption {
	return func(c *HTTPCompliance) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps int) ComplianceOption {
	return func(c *HTTPCompliance) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}

func NewHTTPCompliance(base string, timeout time.Duration, opts ...ComplianceOption) (*HTTPCompliance, error) {
	if base == "" {
		return nil, errors.New("compliance base URL is required")
	}
	if timeout <= 0 {
		timeout = defaultComplianceTimeout
	}
	c := &HTTPCompliance{
		base:    strings.TrimRight(base, "/"),
		hc:      &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(defaultComplianceRPS), defaultComplianceRPS),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type complianceResponse struct {
	Score *float64 `json:"score"`
}

func (c *HTTPCompliance) Compliance(ctx context.Context, agencyID id.AgencyID) (float64, error) {
	url := fmt.Sprintf("%s/agencies/%s/compliance", c.base, agencyID)

	var lastErr error
	for attempt := 0; attempt < maxComplianceAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, err
		}
		score, retryAfter, err := c.fetch(ctx, url)
		if err == nil {
			return score, nil
		}
		if retryAfter < 0 {
			return 0, err
		}
		lastErr = err
		if attempt == maxComplianceAttempts-1 {
			break
		}
		if retryAfter == 0 {
			retryAfter = backoff(attempt)
		}
		if !sleepCtx(ctx, retryAfter) {
			return 0, ctx.Err()
		}
	}
	return 0, fmt.Errorf("compliance lookup for %s: %w", agencyID, lastErr)
}

// fetch performs one request. A negative retry delay marks the error as
// permanent; zero means retry with the default backoff.
func (c *HTTPCompliance) fetch(ctx context.Context, url string) (float64, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, -1, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, -1, ctx.Err()
		}
		return 0, 0, fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var body complianceResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body); err != nil {
			return 0, -1, fmt.Errorf("decode compliance response: %w", err)
		}
		if body.Score == nil {
			return 0, -1, errors.New("compliance response missing score")
		}
		return *body.Score, 0, nil
	case resp.StatusCode == http.StatusNotFound:
		return 0, -1, sentinel.ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return 0, retryAfter(resp), fmt.Errorf("%w: status %d", sentinel.ErrUnavailable, resp.StatusCode)
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return 0, -1, fmt.Errorf("%w %d: %s", errComplianceStatus, resp.StatusCode, strings.TrimSpace(string(b)))
	}
}

func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func backoff(attempt int) time.Duration {
	return time.Duration(100*(1<<attempt)) * time.Millisecond
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// StaticCompliance serves fixed scores; agencies without an entry get Default.
// Used when no compliance service is configured and in tests.
type StaticCompliance struct {
	mu      sync.RWMutex
	scores  map[id.AgencyID]float64
	Default float64
}

func NewStaticCompliance(defaultScore float64) *StaticCompliance {
	return &StaticCompliance{scores: make(map[id.AgencyID]float64), Default: defaultScore}
}

func (s *StaticCompliance) Set(agencyID id.AgencyID, score float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[agencyID] = score
}

func (s *StaticCompliance) Compliance(_ context.Context, agencyID id.AgencyID) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.scores[agencyID]; ok {
		return v, nil
	}
	return s.Default, nil
}
