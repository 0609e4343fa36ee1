// Package store persists parsed tick series keyed by (date, code). The
// artifact doubles as a fetch-skip cache: a present series means the fetch
// stage can be skipped for that instrument.
package store

import (
	"context"
	"errors"

	"github.com/openbell/tapescan/internal/models"
)

// ErrNotFound means no series artifact exists for (date, code).
var ErrNotFound = errors.New("store: series not found")

// Store is the persisted series contract the pipeline depends on.
type Store interface {
	Get(ctx context.Context, date, code string) (models.TickSeries, error)
	Put(ctx context.Context, date, code string, series models.TickSeries) error
	Has(ctx context.Context, date, code string) (bool, error)
}
