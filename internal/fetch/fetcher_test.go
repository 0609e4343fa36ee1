package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbell/tapescan/internal/feed"
	"github.com/openbell/tapescan/internal/models"
)

// stubClient records the concurrent-call high-water mark and serves canned
// responses per instrument code.
type stubClient struct {
	mu        sync.Mutex
	inflight  int
	highWater int
	calls     int
	delay     time.Duration
	errs      map[string]error
}

func (c *stubClient) FetchTape(_ context.Context, _ string, code string) (string, error) {
	c.mu.Lock()
	c.calls++
	c.inflight++
	if c.inflight > c.highWater {
		c.highWater = c.inflight
	}
	c.mu.Unlock()

	if c.delay > 0 {
		time.Sleep(c.delay)
	}

	c.mu.Lock()
	c.inflight--
	c.mu.Unlock()

	if err, ok := c.errs[code]; ok {
		return "", err
	}
	return "payload-" + code, nil
}

func makeUniverse(n int) []models.Instrument {
	universe := make([]models.Instrument, n)
	for i := range universe {
		universe[i] = models.Instrument{Code: fmt.Sprintf("sz%06d", i), Name: fmt.Sprintf("inst-%d", i)}
	}
	return universe
}

func TestFetchAllRespectsConcurrencyCap(t *testing.T) {
	client := &stubClient{delay: 2 * time.Millisecond}
	fetcher := New(client, 200, 0)

	results, stats := fetcher.FetchAll(context.Background(), "20190806", makeUniverse(500))

	assert.Len(t, results, 500)
	assert.Equal(t, 500, stats.Fetched)
	assert.LessOrEqual(t, client.highWater, 200, "more than 200 fetches in flight")
	assert.Greater(t, client.highWater, 1, "fetches did not overlap at all")
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	client := &stubClient{errs: map[string]error{
		"sz000001": errors.New("connection reset"),
		"sz000002": feed.ErrNoData,
	}}
	fetcher := New(client, 10, 0)

	results, stats := fetcher.FetchAll(context.Background(), "20190806", makeUniverse(5))

	assert.Len(t, results, 3)
	assert.Equal(t, 5, stats.Requested)
	assert.Equal(t, 3, stats.Fetched)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.NoData)
	for _, r := range results {
		assert.NotEqual(t, "sz000001", r.Instrument.Code)
		assert.NotEqual(t, "sz000002", r.Instrument.Code)
	}
}

func TestFetchAllCarriesPayloads(t *testing.T) {
	client := &stubClient{}
	fetcher := New(client, 10, 0)

	results, _ := fetcher.FetchAll(context.Background(), "20190806", makeUniverse(3))

	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, "payload-"+r.Instrument.Code, r.Payload)
	}
}

func TestFetchAllDefaultsCap(t *testing.T) {
	fetcher := New(&stubClient{}, 0, 0)
	assert.Equal(t, DefaultMaxConcurrent, fetcher.maxConcurrent)
}

func TestFetchAllCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &stubClient{}
	fetcher := New(client, 1, 0)
	_, stats := fetcher.FetchAll(ctx, "20190806", makeUniverse(10))

	// Cancelled before slots free: every instrument counts as failed
	// instead of hanging the batch.
	assert.Equal(t, 10, stats.Requested)
	assert.Equal(t, stats.Requested, stats.Fetched+stats.Failed+stats.NoData)
}
