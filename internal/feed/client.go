// Package feed talks to the intraday tick tape source.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ErrNoData is the source's explicit "no trading today for this instrument"
// signal. Callers treat it like a failed fetch: drop the instrument, keep
// the batch going.
var ErrNoData = errors.New("feed: no data for instrument")

// noDataToken is the distinguished payload body the source returns instead
// of a tape when the instrument did not trade.
const noDataToken = "暂无数据"

// Client fetches one instrument's raw tape for one trading date.
type Client interface {
	FetchTape(ctx context.Context, date, code string) (string, error)
}

// Config controls the HTTP tape client.
type Config struct {
	BaseURL        string  `yaml:"base_url"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	RatePerSecond  float64 `yaml:"rate_per_second"` // 0 disables pacing
	Burst          int     `yaml:"burst"`
	BreakerEnabled bool    `yaml:"breaker_enabled"`
}

// HTTPClient implements Client against the HTTP tape endpoint. Each call
// builds its own request descriptor from (date, code); nothing mutable is
// shared between concurrent fetches.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewHTTPClient builds a tape client from config.
func NewHTTPClient(cfg Config) *HTTPClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &HTTPClient{
		baseURL: cfg.BaseURL,
		hc:      &http.Client{Timeout: timeout},
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	if cfg.BreakerEnabled {
		st := gobreaker.Settings{Name: "tape-feed"}
		st.Interval = 60 * time.Second
		st.Timeout = 60 * time.Second
		st.ReadyToTrip = func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 5 {
				return true
			}
			if counts.Requests < 50 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) > 0.25
		}
		c.breaker = gobreaker.NewCircuitBreaker(st)
	}
	return c
}

// FetchTape retrieves the raw tape payload. A timeout, a non-200 status or
// an open breaker all surface as an error; the no-data sentinel surfaces as
// ErrNoData.
func (c *HTTPClient) FetchTape(ctx context.Context, date, code string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}
	if c.breaker != nil {
		body, err := c.breaker.Execute(func() (interface{}, error) {
			return c.get(ctx, date, code)
		})
		if err != nil {
			return "", err
		}
		return c.screen(body.(string))
	}
	body, err := c.get(ctx, date, code)
	if err != nil {
		return "", err
	}
	return c.screen(body)
}

func (c *HTTPClient) get(ctx context.Context, date, code string) (string, error) {
	q := url.Values{}
	q.Set("appn", "detail")
	q.Set("action", "download")
	q.Set("c", code)
	q.Set("d", date)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch tape: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch tape: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read tape body: %w", err)
	}
	return string(body), nil
}

func (c *HTTPClient) screen(body string) (string, error) {
	if strings.TrimSpace(body) == noDataToken {
		return "", ErrNoData
	}
	return body, nil
}
