package store

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openbell/tapescan/internal/models"
)

// RetryingStore retries failed writes with a fixed backoff before giving up.
// A put that still fails after the attempts degrades the instrument to a
// drop upstream; reads pass through untouched.
type RetryingStore struct {
	Store
	attempts int
	backoff  time.Duration
}

// WithRetry wraps a store. attempts < 1 is treated as a single attempt.
func WithRetry(inner Store, attempts int, backoff time.Duration) *RetryingStore {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingStore{Store: inner, attempts: attempts, backoff: backoff}
}

func (s *RetryingStore) Put(ctx context.Context, date, code string, series models.TickSeries) error {
	var err error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if err = s.Store.Put(ctx, date, code, series); err == nil {
			return nil
		}
		if attempt == s.attempts {
			break
		}
		log.Warn().Str("code", code).Int("attempt", attempt).Err(err).Msg("series put failed, retrying")
		select {
		case <-time.After(s.backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
