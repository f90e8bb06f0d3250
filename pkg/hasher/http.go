package hasher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// HTTPService posts descriptors to a remote generator hash endpoint.
//
// The endpoint receives the descriptor as JSON and answers either with
// {"hash": "..."} or with the hash as plain text.
type HTTPService struct {
	endpoint   string
	client     *http.Client
	userAgent  string
	maxRetries uint64
	baseDelay  time.Duration
	breaker    *circuit.Breaker
}

// HTTPOption configures an HTTPService.
type HTTPOption func(*HTTPService)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPService) {
		s.client = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(s *HTTPService) {
		s.userAgent = ua
	}
}

// WithMaxRetries sets the maximum retry attempts after the first request.
func WithMaxRetries(n uint64) HTTPOption {
	return func(s *HTTPService) {
		s.maxRetries = n
	}
}

// WithBaseDelay sets the initial backoff interval.
func WithBaseDelay(d time.Duration) HTTPOption {
	return func(s *HTTPService) {
		s.baseDelay = d
	}
}

// WithTripThreshold opens the circuit after n consecutive failures.
func WithTripThreshold(n int64) HTTPOption {
	return func(s *HTTPService) {
		s.breaker = newBreaker(n)
	}
}

func newBreaker(threshold int64) *circuit.Breaker {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 10 * time.Second
	expBackoff.MaxInterval = 2 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	return circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(threshold),
	})
}

// NewHTTPService creates a service for endpoint.
func NewHTTPService(endpoint string, opts ...HTTPOption) *HTTPService {
	s := &HTTPService{
		endpoint:   endpoint,
		client:     &http.Client{Timeout: 10 * time.Second},
		userAgent:  "jspm-packages/1.0",
		maxRetries: 2,
		baseDelay:  200 * time.Millisecond,
		breaker:    newBreaker(5),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tripped reports whether the circuit breaker is open.
func (s *HTTPService) Tripped() bool {
	return s.breaker.Tripped()
}

// Hash posts d and returns the hash from the response.
func (s *HTTPService) Hash(ctx context.Context, d Descriptor) (string, error) {
	if !s.breaker.Ready() {
		return "", &HashServiceError{Service: s.endpoint, Err: fmt.Errorf("circuit breaker open: %w", ErrServiceUnavailable)}
	}
	if d.SelectedDeps == nil {
		d.SelectedDeps = [][2]any{}
	}
	body, err := json.Marshal(d)
	if err != nil {
		return "", &HashServiceError{Service: s.endpoint, Err: err}
	}

	var hash string
	err = s.breaker.Call(func() error {
		policy := retryPolicy(ctx, s.baseDelay, s.maxRetries)

		return backoff.Retry(func() error {
			h, err := s.post(ctx, body)
			if err != nil {
				return err
			}
			hash = h
			return nil
		}, policy)
	}, 0)
	if err != nil {
		return "", &HashServiceError{Service: s.endpoint, Err: err}
	}
	return hash, nil
}

func (s *HTTPService) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/plain")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", backoff.Permanent(ctx.Err())
		}
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	default:
		return "", backoff.Permanent(fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var out struct {
			Hash string `json:"hash"`
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return "", backoff.Permanent(fmt.Errorf("decoding response: %w", err))
		}
		if out.Hash == "" {
			return "", backoff.Permanent(fmt.Errorf("response has no hash"))
		}
		return out.Hash, nil
	}

	hash := strings.TrimSpace(string(data))
	if hash == "" {
		return "", backoff.Permanent(fmt.Errorf("empty response"))
	}
	return hash, nil
}

// maxRetryElapsed bounds the total time spent retrying one request.
const maxRetryElapsed = 30 * time.Second

// retryPolicy allows maxRetries retries after the first attempt. Zero
// means a single attempt: backoff.WithMaxRetries treats 0 as unlimited.
func retryPolicy(ctx context.Context, base time.Duration, maxRetries uint64) backoff.BackOff {
	if maxRetries == 0 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = base
	exp.MaxElapsedTime = maxRetryElapsed
	exp.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(exp, maxRetries), ctx)
}
