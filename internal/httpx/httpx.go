package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"marketgateway/internal/market"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultAttempts     = 3
	defaultRetryWaitMin = 1 * time.Second
	defaultRetryWaitMax = 10 * time.Second
)

// RoundTripper matches http.RoundTripper; declared here so tests can
// generate a mock transport.
//
//go:generate mockgen -package=httpx_test -destination=mock_round_tripper_test.go -source=httpx.go RoundTripper
type RoundTripper interface {
	RoundTrip(*http.Request) (*http.Response, error)
}

// Config configures one upstream client. Zero values fall back to the
// defaults above; Transport is overridable for tests.
type Config struct {
	BaseURL      string
	Token        string
	UserAgent    string
	Timeout      time.Duration
	Attempts     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Transport    http.RoundTripper
}

// Client wraps resty with the gateway's upstream conventions: bounded
// timeout, bounded retry with exponential backoff on transport
// failures only, and outcome classification into market error codes.
type Client struct {
	rest  *resty.Client
	token string
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = defaultAttempts
	}
	if cfg.RetryWaitMin <= 0 {
		cfg.RetryWaitMin = defaultRetryWaitMin
	}
	if cfg.RetryWaitMax <= 0 {
		cfg.RetryWaitMax = defaultRetryWaitMax
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "market-gateway/1.0"
	}
	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
			MaxIdleConns:          200,
			MaxIdleConnsPerHost:   100,
			MaxConnsPerHost:       100,
			ForceAttemptHTTP2:     true,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   3 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ResponseHeaderTimeout: 5 * time.Second,
		}
	}

	rest := resty.NewWithClient(&http.Client{Timeout: cfg.Timeout, Transport: transport})
	rest.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	rest.SetHeader("User-Agent", cfg.UserAgent)
	rest.SetRetryCount(cfg.Attempts - 1)
	rest.SetRetryWaitTime(cfg.RetryWaitMin)
	rest.SetRetryMaxWaitTime(cfg.RetryWaitMax)
	// Retry transport-level failures only; HTTP 4xx/5xx surface at once.
	rest.AddRetryCondition(func(resp *resty.Response, err error) bool {
		return err != nil
	})
	rest.SetLogger(discardLogger{})

	return &Client{rest: rest, token: cfg.Token}
}

// GetJSON issues one GET against endpoint and classifies the outcome.
// The auth token, when configured, is injected as a query parameter and
// must never appear in logs.
func (c *Client) GetJSON(ctx context.Context, endpoint string, params map[string]string) (json.RawMessage, error) {
	req := c.rest.R().SetContext(ctx)
	for k, v := range params {
		req.SetQueryParam(k, v)
	}
	if c.token != "" {
		req.SetQueryParam("token", c.token)
	}

	resp, err := req.Get(endpoint)
	if err != nil {
		// Retries are already exhausted by this point. The raw error
		// embeds the full request URL, token included; strip the query
		// before it can reach logs or error details.
		err = redactQuery(err)
		slog.Warn("upstream request failed", "endpoint", endpoint, "error", err)
		return nil, market.Transport(err)
	}

	status := resp.StatusCode()
	slog.Debug("upstream request", "endpoint", endpoint, "status", status)
	switch {
	case status == http.StatusNotFound:
		return nil, market.NotFound("no data available", nil)
	case status < 200 || status >= 300:
		return nil, market.Upstream(status, "failed to fetch data from upstream API")
	}

	body := resp.Body()
	if emptyJSON(body) {
		// Providers signal "nothing found" with an empty 2xx body; treat
		// it exactly like a 404.
		return nil, market.NotFound("no data available", nil)
	}
	if !json.Valid(body) {
		return nil, market.Upstream(status, "upstream returned malformed JSON")
	}
	return json.RawMessage(body), nil
}

func emptyJSON(b []byte) bool {
	switch strings.TrimSpace(string(b)) {
	case "", "null", "{}", "[]":
		return true
	}
	return false
}

// redactQuery rewrites a url.Error to drop the request query string,
// which carries the auth token.
func redactQuery(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	u, perr := url.Parse(ue.URL)
	if perr != nil || u.RawQuery == "" {
		return err
	}
	u.RawQuery = ""
	return &url.Error{Op: ue.Op, URL: u.String(), Err: ue.Err}
}

// discardLogger silences resty's internal logging; retry errors can
// include full request URLs, which would leak the auth token.
type discardLogger struct{}

func (discardLogger) Errorf(string, ...any) {}
func (discardLogger) Warnf(string, ...any)  {}
func (discardLogger) Debugf(string, ...any) {}
