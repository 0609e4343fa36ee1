// Package fetch runs the bounded-concurrency tape download stage.
package fetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openbell/tapescan/internal/feed"
	"github.com/openbell/tapescan/internal/models"
)

// DefaultMaxConcurrent caps in-flight fetches when no cap is configured.
const DefaultMaxConcurrent = 200

// Result is one successful fetch: the instrument plus its raw payload.
type Result struct {
	Instrument models.Instrument
	Payload    string
}

// Stats aggregates per-instrument outcomes for the stage. Failures and
// no-data responses are counted, not propagated: the batch always completes
// for the surviving set.
type Stats struct {
	Requested int
	Fetched   int
	NoData    int
	Failed    int
	Elapsed   time.Duration
}

// Fetcher downloads the full universe with at most maxConcurrent requests
// in flight. The semaphore is the only shared mutable state; every fetch
// task owns its own request descriptor.
type Fetcher struct {
	client         feed.Client
	maxConcurrent  int
	perFetchExpiry time.Duration
}

// New builds a fetcher. maxConcurrent <= 0 falls back to the default cap;
// perFetchTimeout <= 0 disables the per-fetch deadline.
func New(client feed.Client, maxConcurrent int, perFetchTimeout time.Duration) *Fetcher {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Fetcher{
		client:         client,
		maxConcurrent:  maxConcurrent,
		perFetchExpiry: perFetchTimeout,
	}
}

// FetchAll downloads tapes for every instrument. Per-instrument failures
// and no-data responses are logged and dropped; they never abort the batch.
// Results carry no ordering guarantee.
func (f *Fetcher) FetchAll(ctx context.Context, date string, universe []models.Instrument) ([]Result, Stats) {
	start := time.Now()
	stats := Stats{Requested: len(universe)}

	semaphore := make(chan struct{}, f.maxConcurrent)
	resultsChan := make(chan Result, len(universe))
	noDataChan := make(chan string, len(universe))
	failedChan := make(chan string, len(universe))

	var wg sync.WaitGroup
	for _, inst := range universe {
		wg.Add(1)
		go func(inst models.Instrument) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				failedChan <- inst.Code
				return
			}

			payload, err := f.fetchOne(ctx, date, inst.Code)
			switch {
			case errors.Is(err, feed.ErrNoData):
				log.Debug().Str("code", inst.Code).Msg("no trading for instrument")
				noDataChan <- inst.Code
			case err != nil:
				log.Warn().Str("code", inst.Code).Err(err).Msg("tape fetch failed")
				failedChan <- inst.Code
			default:
				resultsChan <- Result{Instrument: inst, Payload: payload}
			}
		}(inst)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
		close(noDataChan)
		close(failedChan)
	}()

	var results []Result
	for resultsChan != nil || noDataChan != nil || failedChan != nil {
		select {
		case r, ok := <-resultsChan:
			if !ok {
				resultsChan = nil
				continue
			}
			results = append(results, r)
			stats.Fetched++
		case _, ok := <-noDataChan:
			if !ok {
				noDataChan = nil
				continue
			}
			stats.NoData++
		case _, ok := <-failedChan:
			if !ok {
				failedChan = nil
				continue
			}
			stats.Failed++
		}
	}

	stats.Elapsed = time.Since(start)
	log.Info().
		Int("requested", stats.Requested).
		Int("fetched", stats.Fetched).
		Int("no_data", stats.NoData).
		Int("failed", stats.Failed).
		Dur("elapsed", stats.Elapsed).
		Msg("tape download stage complete")
	return results, stats
}

// fetchOne applies the per-fetch deadline; a timeout is handled exactly like
// any other fetch failure.
func (f *Fetcher) fetchOne(ctx context.Context, date, code string) (string, error) {
	if f.perFetchExpiry > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.perFetchExpiry)
		defer cancel()
	}
	return f.client.FetchTape(ctx, date, code)
}
