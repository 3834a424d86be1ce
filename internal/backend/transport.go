package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultInitialDelay is the first backoff delay after a 429 response.
	DefaultInitialDelay = 400 * time.Millisecond
	// DefaultMaxRetries bounds the retries after the first attempt.
	DefaultMaxRetries = 5
	// DefaultRequestTimeout applies when no timeout is configured.
	DefaultRequestTimeout = 10 * time.Second

	maxResponseBytes = 16 << 20
)

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, body)
}

// TransportConfig configures a Transport. Zero values select the defaults.
type TransportConfig struct {
	Timeout      time.Duration
	InitialDelay time.Duration
	MaxRetries   int
	// RatePerSecond paces outgoing requests; 0 disables pacing.
	RatePerSecond float64
	HTTPClient    *http.Client
	// Timer overrides the backoff timer (tests).
	Timer  backoff.Timer
	Logger *zap.SugaredLogger
}

// Transport is the HTTP layer shared by the HTTP adapters. Rate-limited
// (429) responses and connection failures are retried with exponential
// backoff; every other failure is returned immediately. This is the only
// place requests are retried transparently.
type Transport struct {
	client       *http.Client
	initialDelay time.Duration
	maxRetries   int
	limiter      *rate.Limiter
	timer        backoff.Timer
	log          *zap.SugaredLogger
}

// NewTransport builds a Transport from cfg.
func NewTransport(cfg TransportConfig) *Transport {
	t := &Transport{
		client:       cfg.HTTPClient,
		initialDelay: cfg.InitialDelay,
		maxRetries:   cfg.MaxRetries,
		timer:        cfg.Timer,
		log:          cfg.Logger,
	}
	if t.client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultRequestTimeout
		}
		t.client = &http.Client{Timeout: timeout}
	}
	if t.initialDelay <= 0 {
		t.initialDelay = DefaultInitialDelay
	}
	if t.maxRetries <= 0 {
		t.maxRetries = DefaultMaxRetries
	}
	if cfg.RatePerSecond > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	if t.log == nil {
		t.log = zap.NewNop().Sugar()
	}
	return t
}

func (t *Transport) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = t.initialDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = time.Hour
	exp.MaxElapsedTime = 0
	return backoff.WithMaxRetries(backoff.WithContext(exp, ctx), uint64(t.maxRetries))
}

// Do executes the request produced by newReq and returns the response body.
// newReq is called once per attempt so request bodies can be replayed.
func (t *Transport) Do(ctx context.Context, newReq func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	var (
		body      []byte
		attempts  int
		retryable bool
	)

	op := func() error {
		attempts++
		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				retryable = false
				return backoff.Permanent(err)
			}
		}
		req, err := newReq(ctx)
		if err != nil {
			retryable = false
			return backoff.Permanent(err)
		}
		resp, err := t.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				retryable = false
				return backoff.Permanent(ctx.Err())
			}
			retryable = true
			return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			retryable = true
			return fmt.Errorf("reading response: %w", err)
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			retryable = true
			return &HTTPError{StatusCode: resp.StatusCode, Body: string(data)}
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			retryable = false
			return backoff.Permanent(&HTTPError{StatusCode: resp.StatusCode, Body: string(data)})
		}
		body = data
		return nil
	}

	notify := func(err error, delay time.Duration) {
		t.log.Debugw("Retrying request", "attempt", attempts, "delay", delay, "err", err)
	}

	err := backoff.RetryNotifyWithTimer(op, t.newBackOff(ctx), notify, t.timer)
	if err == nil {
		return body, nil
	}
	if retryable && ctx.Err() == nil {
		return nil, fmt.Errorf("%w after %d attempts: %w", ErrTransportExhausted, attempts, err)
	}
	return nil, err
}

// GetJSON performs a GET and decodes the JSON response into out.
func (t *Transport) GetJSON(ctx context.Context, url string, header http.Header, out any) error {
	data, err := t.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		copyHeader(req.Header, header)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	return decodeJSON(data, out)
}

// PostJSON sends in as JSON and decodes the JSON response into out (if non-nil).
func (t *Transport) PostJSON(ctx context.Context, url string, header http.Header, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	data, err := t.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		copyHeader(req.Header, header)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decodeJSON(data, out)
}

func decodeJSON(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

func copyHeader(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

// IsNotFound reports whether err is an HTTP 404.
func IsNotFound(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == http.StatusNotFound
}
