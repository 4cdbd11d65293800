// Package scrapers contains the HTTP client shared by every source adapter
// and the helpers to turn fetched pages into ledger records. The adapters
// themselves live in the sub packages, one per vendor or aggregator site.
package scrapers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"versionhistory/internal/assert"
	"versionhistory/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_get      = "client.get"
	report_client_document = "client.document"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

var ErrStatus = errors.New("unexpected http status")

type Options struct {
	Timeout   time.Duration
	UserAgent string
	// RequestsPerSecond limits the requests of the whole client, zero or less
	// means no limit.
	RequestsPerSecond float64
	// Output receives a dump of every request and response when set.
	Output telemetry.MessageOutput
}

func DefaultOptions() Options {
	return Options{
		Timeout:           30 * time.Second,
		UserAgent:         DefaultUserAgent,
		RequestsPerSecond: 4,
	}
}

type Client struct {
	http      *resty.Client
	userAgent string
	timeout   time.Duration
	tel       telemetry.API
}

func NewClient(tel telemetry.API, opts Options) *Client {
	assert.NotNil(tel, "telemetry")

	defaults := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaults.UserAgent
	}

	httpClient := resty.New()
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	httpClient.SetHeader("user-agent", opts.UserAgent)
	httpClient.SetTimeout(opts.Timeout)

	limit := rate.Inf
	burst := 1
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		// burst >= rps just means that no requests will be dropped
		burst = max(1, int(opts.RequestsPerSecond))
	}
	rateLimiter := rate.NewLimiter(limit, burst)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel, opts.Output)

	return &Client{
		http:      httpClient,
		userAgent: opts.UserAgent,
		timeout:   opts.Timeout,
		tel:       tel,
	}
}

// Transport is the round tripper of the underlying client, it lets other
// HTTP stacks share the same transport.
func (c *Client) Transport() http.RoundTripper {
	return c.http.GetClient().Transport
}

// Telemetry is the client's telemetry scoped to a source name.
func (c *Client) Telemetry(source string) telemetry.API {
	return telemetry.NewScopedAPI(source, c.tel)
}

func (c *Client) UserAgent() string {
	return c.userAgent
}

func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Get returns the body of url, any non 2xx status is an error.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		c.tel.ReportWarning(report_client_get, fmt.Errorf("fetch: %w", err), url)
		return nil, err
	}
	if res.IsError() {
		err = fmt.Errorf("%w: GET %s: %s", ErrStatus, url, res.Status())
		c.tel.ReportWarning(report_client_get, err)
		return nil, err
	}
	return res.Body(), nil
}

// Document fetches and parses an html page.
func (c *Client) Document(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		c.tel.ReportWarning(report_client_document, fmt.Errorf("parse: %w", err), url)
		return nil, err
	}
	return doc, nil
}
