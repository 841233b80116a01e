// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package modrinth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/z5labs/minecraft/internal/httpclient"
	"github.com/z5labs/minecraft/internal/try"
	"github.com/z5labs/minecraft/logging"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// ProdBaseURL is the production Modrinth API.
	ProdBaseURL = "https://api.modrinth.com"

	// StagingBaseURL is the staging Modrinth API.
	StagingBaseURL = "https://staging-api.modrinth.com"
)

const instrumentationName = "github.com/z5labs/minecraft/modrinth"

// DefaultUserAgent returns the User-Agent Modrinth asks API consumers to send.
func DefaultUserAgent(version string) string {
	return fmt.Sprintf("z5labs/minecraft/%s (developer@z5labs.dev)", version)
}

type options struct {
	baseURL    string
	token      string
	userAgent  string
	log        *slog.Logger
	rt         http.RoundTripper
	timeout    time.Duration
	maxRetries int
	tp         trace.TracerProvider
	mp         metric.MeterProvider
}

// Option configures a [Client].
type Option func(*options)

// BaseURL overrides [ProdBaseURL].
func BaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = u
	}
}

// Token authenticates requests with a Modrinth personal access token.
func Token(token string) Option {
	return func(o *options) {
		o.token = token
	}
}

// UserAgent overrides the User-Agent sent with every request.
func UserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// Logger sets the logger used by the [Client].
func Logger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// RoundTripper overrides the underlying transport.
func RoundTripper(rt http.RoundTripper) Option {
	return func(o *options) {
		o.rt = rt
	}
}

// Timeout bounds every request, including downloads.
func Timeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// MaxRetries sets how often failed requests are retried. Zero disables retries.
func MaxRetries(n int) Option {
	return func(o *options) {
		o.maxRetries = n
	}
}

// TracerProvider overrides the global [trace.TracerProvider].
func TracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tp = tp
	}
}

// MeterProvider overrides the global [metric.MeterProvider].
func MeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.mp = mp
	}
}

// Client talks to the Modrinth API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	log     *slog.Logger

	tracer          trace.Tracer
	downloads       metric.Int64Counter
	downloadedBytes metric.Int64Counter
}

// New returns a [Client] configured by the given options.
func New(opts ...Option) (*Client, error) {
	o := &options{
		baseURL:    ProdBaseURL,
		userAgent:  DefaultUserAgent("dev"),
		log:        logging.Discard(),
		rt:         http.DefaultTransport,
		timeout:    5 * time.Minute,
		maxRetries: 3,
		tp:         otel.GetTracerProvider(),
		mp:         otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(o)
	}

	baseURL, err := url.Parse(o.baseURL)
	if err != nil {
		return nil, BaseURLError{URL: o.baseURL, Cause: err}
	}
	if !baseURL.IsAbs() {
		return nil, BaseURLError{URL: o.baseURL, Cause: errors.New("must be absolute")}
	}

	meter := o.mp.Meter(instrumentationName)
	downloads, err := meter.Int64Counter(
		"modrinth.downloads",
		metric.WithDescription("Number of artifacts downloaded from Modrinth."),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, err
	}
	downloadedBytes, err := meter.Int64Counter(
		"modrinth.download.size",
		metric.WithDescription("Number of bytes downloaded from Modrinth."),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	httpOpts := []httpclient.Option{
		httpclient.Name("modrinth"),
		httpclient.RoundTripper(o.rt),
		httpclient.Timeout(o.timeout),
		httpclient.Logger(o.log),
		httpclient.UserAgent(o.userAgent),
		httpclient.BearerToken(o.token),
		httpclient.TripAfter(5),
		httpclient.OpenStateTimeout(30 * time.Second),
		httpclient.HalfOpenRequests(1),
	}
	if o.maxRetries > 0 {
		httpOpts = append(httpOpts, httpclient.Retry(o.maxRetries, 250*time.Millisecond, 5*time.Second))
	}

	c := &Client{
		baseURL:         baseURL,
		http:            httpclient.New(httpOpts...),
		log:             o.log,
		tracer:          o.tp.Tracer(instrumentationName),
		downloads:       downloads,
		downloadedBytes: downloadedBytes,
	}
	return c, nil
}

// Project returns the project with the given id or slug.
func (c *Client) Project(ctx context.Context, idOrSlug string) (p Project, err error) {
	ctx, span := c.tracer.Start(ctx, "Client.Project", trace.WithAttributes(
		attribute.String("modrinth.project", idOrSlug),
	))
	defer endSpan(span, &err)

	err = c.getJSON(ctx, c.baseURL.JoinPath("v2", "project", idOrSlug), &p)
	return p, err
}

// Version returns a single version of a project. The version may be
// given by id or version number.
func (c *Client) Version(ctx context.Context, project, version string) (v Version, err error) {
	ctx, span := c.tracer.Start(ctx, "Client.Version", trace.WithAttributes(
		attribute.String("modrinth.project", project),
		attribute.String("modrinth.version", version),
	))
	defer endSpan(span, &err)

	err = c.getJSON(ctx, c.baseURL.JoinPath("v2", "project", project, "version", version), &v)
	return v, err
}

// Versions lists the versions of a project published for the given
// loader and Minecraft version.
func (c *Client) Versions(ctx context.Context, project, loader, minecraftVersion string) (vs []Version, err error) {
	ctx, span := c.tracer.Start(ctx, "Client.Versions", trace.WithAttributes(
		attribute.String("modrinth.project", project),
		attribute.String("modrinth.loader", loader),
		attribute.String("minecraft.version", minecraftVersion),
	))
	defer endSpan(span, &err)

	u := c.baseURL.JoinPath("v2", "project", project, "version")
	q := url.Values{}
	q.Set("loaders", fmt.Sprintf("[%q]", loader))
	q.Set("game_versions", fmt.Sprintf("[%q]", minecraftVersion))
	u.RawQuery = q.Encode()

	var all []Version
	err = c.getJSON(ctx, u, &all)
	if err != nil {
		return nil, err
	}

	// the endpoint sometimes ignores the loaders filter
	vs = make([]Version, 0, len(all))
	for _, v := range all {
		if v.SupportsLoader(loader) {
			vs = append(vs, v)
		}
	}
	span.SetAttributes(attribute.Int("modrinth.versions", len(vs)))
	return vs, nil
}

func (c *Client) getJSON(ctx context.Context, u *url.URL, v any) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer try.Close(&err, resp.Body)

	err = json.NewDecoder(resp.Body).Decode(v)
	if err != nil {
		return DecodeError{URL: u.String(), Cause: err}
	}
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return nil, StatusError{
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(b)),
	}
}

func endSpan(span trace.Span, err *error) {
	if *err != nil {
		span.RecordError(*err)
		span.SetStatus(codes.Error, (*err).Error())
	}
	span.End()
}
