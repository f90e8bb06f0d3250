// Package npm provides a registry client for npmjs.com compatible
// registries.
package npm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenk/backoff"
	"github.com/hashicorp/golang-lru/v2/expirable"
	circuit "github.com/rubyist/circuitbreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultURL is the public registry.
	DefaultURL = "https://registry.npmjs.org"

	tracerName  = "github.com/jspm/jspm-packages/internal/npm"
	maxBodySize = 64 << 20
)

// Client fetches package documents from a registry.
type Client struct {
	baseURL    string
	searchURL  string
	client     *http.Client
	userAgent  string
	maxRetries uint64
	baseDelay  time.Duration
	threshold  int64
	cache      *expirable.LRU[string, []byte]
	tracer     trace.Tracer
	logger     *slog.Logger

	breakers map[string]*circuit.Breaker
	mu       sync.RWMutex

	stop context.CancelFunc
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the registry URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithSearchURL sets the search endpoint. Defaults to
// {baseURL}/-/v1/search.
func WithSearchURL(u string) Option {
	return func(c *Client) {
		c.searchURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxRetries sets the maximum retry attempts after the first request.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n < 0 {
			n = 0
		}
		c.maxRetries = uint64(n)
	}
}

// WithBaseDelay sets the initial backoff interval.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = d
	}
}

// WithTripThreshold opens a host's circuit after n consecutive failures.
func WithTripThreshold(n int64) Option {
	return func(c *Client) {
		c.threshold = n
	}
}

// WithCache caches successful responses for ttl. A size of zero disables
// the cache.
func WithCache(size int, ttl time.Duration) Option {
	return func(c *Client) {
		if size <= 0 {
			c.cache = nil
			return
		}
		c.cache = expirable.NewLRU[string, []byte](size, nil, ttl)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client. Call Close to stop the DNS refresher.
func NewClient(opts ...Option) *Client {
	ctx, stop := context.WithCancel(context.Background())
	c := &Client{
		baseURL: DefaultURL,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: newTransport(ctx, 5*time.Minute),
		},
		userAgent:  "jspm-packages/1.0",
		maxRetries: 3,
		baseDelay:  250 * time.Millisecond,
		threshold:  5,
		cache:      expirable.NewLRU[string, []byte](512, nil, 5*time.Minute),
		tracer:     otel.Tracer(tracerName),
		logger:     slog.Default(),
		breakers:   make(map[string]*circuit.Breaker),
		stop:       stop,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.searchURL == "" {
		c.searchURL = c.baseURL + "/-/v1/search"
	}
	return c
}

// Close releases background resources.
func (c *Client) Close() {
	c.stop()
}

// Packument fetches the full document for name.
func (c *Client) Packument(ctx context.Context, name string) (*Packument, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	ctx, span := c.tracer.Start(ctx, "npm.Packument", trace.WithAttributes(attribute.String("npm.package", name)))
	defer span.End()

	var p Packument
	if err := c.getJSON(ctx, c.baseURL+"/"+escapeName(name), &p); err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.IsNotFound() {
			err = &NotFoundError{Name: name}
		}
		recordError(span, err)
		return nil, err
	}
	if p.Name == "" {
		p.Name = name
	}
	span.SetAttributes(attribute.Int("npm.versions", len(p.Versions)))
	return &p, nil
}

// Manifest fetches the manifest for name at a version, dist-tag or
// partial version.
func (c *Client) Manifest(ctx context.Context, name, versionOrTag string) (*Manifest, error) {
	p, err := c.Packument(ctx, name)
	if err != nil {
		return nil, err
	}
	return p.Manifest(versionOrTag)
}

// ResolveVersion resolves versionOrTag to a published version of name.
func (c *Client) ResolveVersion(ctx context.Context, name, versionOrTag string) (string, error) {
	p, err := c.Packument(ctx, name)
	if err != nil {
		return "", err
	}
	return p.ResolveVersion(versionOrTag)
}

// Tripped reports whether the circuit for the registry host is open.
func (c *Client) Tripped() bool {
	return c.breaker(hostOf(c.baseURL)).Tripped()
}

func (c *Client) breaker(host string) *circuit.Breaker {
	c.mu.RLock()
	b, ok := c.breakers[host]
	c.mu.RUnlock()
	if ok {
		return b
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.breakers[host]; ok {
		return b
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	b = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(c.threshold),
	})
	c.breakers[host] = b
	return b
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

// getJSON fetches rawURL through the cache, circuit breaker and retry
// policy and decodes the body into v.
func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	if c.cache != nil {
		if body, ok := c.cache.Get(rawURL); ok {
			trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("npm.cache_hit", true))
			return json.Unmarshal(body, v)
		}
	}

	host := hostOf(rawURL)
	b := c.breaker(host)
	if !b.Ready() {
		return fmt.Errorf("circuit breaker open for %s: %w", host, ErrUpstreamDown)
	}

	var body []byte
	var clientErr error
	err := b.Call(func() error {
		policy := retryPolicy(ctx, c.baseDelay, c.maxRetries)

		err := backoff.Retry(func() error {
			data, err := c.get(ctx, rawURL)
			if err != nil {
				return err
			}
			body = data
			return nil
		}, policy)

		// Client errors say nothing about the registry's health.
		var httpErr *HTTPError
		if errors.As(err, &httpErr) || errors.Is(err, context.Canceled) {
			clientErr = err
			return nil
		}
		return err
	}, 0)
	if err == nil {
		err = clientErr
	}
	if err != nil {
		c.logger.Debug("registry request failed", "url", rawURL, "error", err)
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding %s: %w", rawURL, err)
	}
	if c.cache != nil {
		c.cache.Add(rawURL, body)
	}
	return nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamDown, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, fmt.Errorf("%w: reading body: %v", ErrUpstreamDown, err)
		}
		return data, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: retry after %s", ErrRateLimited, retryAfter(resp))

	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamDown, resp.StatusCode)

	default:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, backoff.Permanent(&HTTPError{
			StatusCode: resp.StatusCode,
			URL:        rawURL,
			Body:       string(data),
		})
	}
}

func retryAfter(resp *http.Response) time.Duration {
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func recordError(span trace.Span, err error) {
	if errors.Is(err, ErrNotFound) {
		span.SetAttributes(attribute.Bool("npm.not_found", true))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
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
