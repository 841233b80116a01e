// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httpclient builds the [http.Client] used to talk to remote APIs.
package httpclient

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/z5labs/minecraft/logging"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type circuitOptions struct {
	maxRequests uint32
	interval    time.Duration
	timeout     time.Duration
	tripCount   uint32
	statusCodes []int
}

func withCircuitOption(f func(*circuitOptions)) Option {
	return func(o *options) {
		if o.co == nil {
			o.co = &circuitOptions{tripCount: 5}
		}
		f(o.co)
	}
}

// HalfOpenRequests is the number of requests let through while the circuit is half open.
func HalfOpenRequests(n uint32) Option {
	return withCircuitOption(func(co *circuitOptions) {
		co.maxRequests = n
	})
}

// OpenStateTimeout is how long the circuit stays open before becoming half open.
func OpenStateTimeout(d time.Duration) Option {
	return withCircuitOption(func(co *circuitOptions) {
		co.timeout = d
	})
}

// CountResetInterval is how often failure counts are cleared while the circuit is closed.
func CountResetInterval(d time.Duration) Option {
	return withCircuitOption(func(co *circuitOptions) {
		co.interval = d
	})
}

// TripAfter opens the circuit after n consecutive failures.
func TripAfter(n uint32) Option {
	return withCircuitOption(func(co *circuitOptions) {
		co.tripCount = n
	})
}

// TripOnStatusCode counts responses with the given status codes as failures.
//
// Default: 429, 500, 502, 503, 504
func TripOnStatusCode(codes ...int) Option {
	return withCircuitOption(func(co *circuitOptions) {
		co.statusCodes = append(co.statusCodes, codes...)
	})
}

type retryOptions struct {
	maxRetries int
	waitMin    time.Duration
	waitMax    time.Duration
}

// Retry retries failed requests up to maxRetries times with exponential backoff.
func Retry(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(o *options) {
		o.ro = &retryOptions{
			maxRetries: maxRetries,
			waitMin:    waitMin,
			waitMax:    waitMax,
		}
	}
}

type options struct {
	timeout time.Duration
	rt      http.RoundTripper

	name      string
	log       *slog.Logger
	userAgent string
	token     string

	co *circuitOptions
	ro *retryOptions
}

// Option configures the [http.Client] returned by [New].
type Option func(*options)

// Name identifies the client in logs and the circuit breaker.
func Name(s string) Option {
	return func(o *options) {
		o.name = s
	}
}

// RoundTripper overrides [http.DefaultTransport].
func RoundTripper(rt http.RoundTripper) Option {
	return func(o *options) {
		o.rt = rt
	}
}

// Timeout provides a global timeout value for the http.Client.
func Timeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// Logger sets the logger for request and circuit state logs.
func Logger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// UserAgent sets the User-Agent header of every request.
func UserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// BearerToken authenticates every request with the given token.
// An empty token leaves requests unauthenticated.
func BearerToken(token string) Option {
	return func(o *options) {
		o.token = token
	}
}

// New returns an [http.Client] instrumented with OpenTelemetry.
func New(opts ...Option) *http.Client {
	o := &options{
		rt:  http.DefaultTransport,
		log: logging.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}

	logger := o.log
	if o.name != "" {
		logger = logger.With(slog.String("http_client", o.name))
	}

	var rt http.RoundTripper = otelhttp.NewTransport(o.rt)
	if o.userAgent != "" || o.token != "" {
		rt = &headerRoundTripper{
			base:      rt,
			userAgent: o.userAgent,
			token:     o.token,
		}
	}
	rt = &logRoundTripper{
		base: rt,
		log:  logger,
	}

	if o.co != nil {
		rt = newCircuitRoundTripper(rt, o.name, o.co, logger)
	}

	client := &http.Client{
		Timeout:   o.timeout,
		Transport: rt,
	}
	if o.ro == nil {
		return client
	}

	ro := o.ro
	rc := retryablehttp.Client{
		HTTPClient:   client,
		RetryWaitMin: ro.waitMin,
		RetryWaitMax: ro.waitMax,
		RetryMax:     ro.maxRetries,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}
	return rc.StandardClient()
}

type headerRoundTripper struct {
	base      http.RoundTripper
	userAgent string
	token     string
}

func (rt *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	if rt.userAgent != "" {
		r.Header.Set("User-Agent", rt.userAgent)
	}
	if rt.token != "" {
		r.Header.Set("Authorization", "Bearer "+rt.token)
	}
	return rt.base.RoundTrip(r)
}

type logRoundTripper struct {
	base http.RoundTripper
	log  *slog.Logger
}

func (rt *logRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	start := time.Now()
	rt.log.DebugContext(
		ctx,
		"request sent",
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
	)
	resp, err := rt.base.RoundTrip(req)
	if err != nil {
		rt.log.WarnContext(
			ctx,
			"request failed",
			slog.String("url", req.URL.String()),
			slog.Any("error", err),
		)
		return nil, err
	}
	rt.log.DebugContext(
		ctx,
		"response received",
		slog.String("url", req.URL.String()),
		slog.Int("status_code", resp.StatusCode),
		slog.Duration("latency", time.Since(start)),
	)
	return resp, nil
}

// CircuitOpenError is returned while the circuit breaker rejects requests.
type CircuitOpenError struct {
	Name  string
	Cause error
}

// Error implements the [error] interface.
func (e CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit %q is rejecting requests: %s", e.Name, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e CircuitOpenError) Unwrap() error {
	return e.Cause
}

var errStatusCode = errors.New("status code counted as failure")

type circuitRoundTripper struct {
	name  string
	base  http.RoundTripper
	cb    *gobreaker.CircuitBreaker
	codes map[int]struct{}
}

func newCircuitRoundTripper(base http.RoundTripper, name string, co *circuitOptions, logger *slog.Logger) *circuitRoundTripper {
	statusCodes := co.statusCodes
	if len(statusCodes) == 0 {
		statusCodes = []int{
			http.StatusTooManyRequests,     // 429
			http.StatusInternalServerError, // 500
			http.StatusBadGateway,          // 502
			http.StatusServiceUnavailable,  // 503
			http.StatusGatewayTimeout,      // 504
		}
	}

	codes := make(map[int]struct{}, len(statusCodes))
	for _, code := range statusCodes {
		codes[code] = struct{}{}
	}

	return &circuitRoundTripper{
		name:  name,
		base:  base,
		codes: codes,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: co.maxRequests,
			Interval:    co.interval,
			Timeout:     co.timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= co.tripCount
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				switch to {
				case gobreaker.StateOpen:
					logger.Error("circuit has been opened")
				case gobreaker.StateHalfOpen:
					logger.Warn(
						"circuit is now half open and letting some requests through",
						slog.Any("max_requests_allowed_through", co.maxRequests),
					)
				case gobreaker.StateClosed:
					logger.Info("circuit has been closed")
				}
			},
		}),
	}
}

func (rt *circuitRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	v, err := rt.cb.Execute(func() (any, error) {
		resp, err := rt.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if _, ok := rt.codes[resp.StatusCode]; ok {
			return resp, errStatusCode
		}
		return resp, nil
	})
	if errors.Is(err, errStatusCode) {
		return v.(*http.Response), nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, CircuitOpenError{Name: rt.name, Cause: err}
	}
	if err != nil {
		return nil, err
	}
	return v.(*http.Response), nil
}
