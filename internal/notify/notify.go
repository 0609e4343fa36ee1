// Package notify emits the end-of-run status. The transport (mail etc.) is
// an external collaborator; the core only produces the plain-text status.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openbell/tapescan/internal/models"
)

// Status is the final run summary handed to the notification sink.
type Status struct {
	RunID      string
	Date       string
	TradingDay bool
	Counts     map[models.PatternCategory]int
	Dropped    DropCounts
	Artifacts  []string
	Elapsed    time.Duration
	Recipients []string
	Err        error
}

// DropCounts breaks the dropped instruments down by cause.
type DropCounts struct {
	FetchFailed int
	NoData      int
	ParseFailed int
	StoreFailed int
}

// Total returns the number of instruments excluded from the run.
func (d DropCounts) Total() int {
	return d.FetchFailed + d.NoData + d.ParseFailed + d.StoreFailed
}

// Render builds the plain-text body a transport would deliver.
func (s Status) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", s.Date)
	if !s.TradingDay {
		b.WriteString("market closed, no data\n")
		return b.String()
	}
	if s.Err != nil {
		fmt.Fprintf(&b, "run failed: %v\n", s.Err)
		return b.String()
	}
	for _, category := range models.Categories {
		fmt.Fprintf(&b, "%s: %d\n", category, s.Counts[category])
	}
	fmt.Fprintf(&b, "dropped: %d (fetch %d, no data %d, parse %d, store %d)\n",
		s.Dropped.Total(), s.Dropped.FetchFailed, s.Dropped.NoData,
		s.Dropped.ParseFailed, s.Dropped.StoreFailed)
	fmt.Fprintf(&b, "elapsed: %s\n", s.Elapsed)
	if len(s.Artifacts) > 0 {
		fmt.Fprintf(&b, "artifacts: %s\n", strings.Join(s.Artifacts, ", "))
	}
	return b.String()
}

// Notifier delivers a run status.
type Notifier interface {
	Notify(ctx context.Context, status Status) error
}

// LogNotifier writes the status through the structured logger. It stands in
// for the external mail transport.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, status Status) error {
	log.Info().
		Str("run_id", status.RunID).
		Str("date", status.Date).
		Strs("recipients", status.Recipients).
		Msg(status.Render())
	return nil
}
