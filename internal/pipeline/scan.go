// Package pipeline orchestrates one daily batch: fetch-or-cache, build,
// classify, rank, report, notify.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openbell/tapescan/internal/classify"
	"github.com/openbell/tapescan/internal/feed"
	"github.com/openbell/tapescan/internal/fetch"
	"github.com/openbell/tapescan/internal/metrics"
	"github.com/openbell/tapescan/internal/models"
	"github.com/openbell/tapescan/internal/notify"
	"github.com/openbell/tapescan/internal/rank"
	"github.com/openbell/tapescan/internal/report"
	"github.com/openbell/tapescan/internal/series"
	"github.com/openbell/tapescan/internal/store"
)

// Pipeline wires the batch stages together. All collaborators are supplied
// by the caller; Oracle, Reporter, Notifier and Metrics may be nil.
type Pipeline struct {
	Universe []models.Instrument
	Fetcher  *fetch.Fetcher
	Store    store.Store
	Engine   *classify.Engine
	Oracle   feed.Oracle
	Reporter report.Sink
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
}

// RunSummary is what a finished run reports.
type RunSummary struct {
	RunID      string
	Date       string
	TradingDay bool
	Result     models.ClassificationResult
	Dropped    notify.DropCounts
	FetchStats fetch.Stats
	Artifacts  []string
	Elapsed    time.Duration
}

// Run executes the batch for one trading date. Per-instrument problems are
// dropped and counted; only configuration-level failures return an error,
// in which case nothing is reported or notified beyond the failure itself.
func (p *Pipeline) Run(ctx context.Context, date string, recipients []string) (*RunSummary, error) {
	start := time.Now()
	summary := &RunSummary{
		RunID: uuid.NewString(),
		Date:  date,
	}
	logger := log.With().Str("run_id", summary.RunID).Str("date", date).Logger()

	if p.Oracle != nil {
		trading, err := p.Oracle.IsTradingDay(ctx, date)
		if err != nil {
			return nil, fmt.Errorf("trading day check: %w", err)
		}
		if !trading {
			logger.Info().Msg("market closed, nothing to scan")
			summary.Elapsed = time.Since(start)
			p.notifyStatus(ctx, summary, recipients, nil)
			return summary, nil
		}
	}
	summary.TradingDay = true

	if len(p.Universe) == 0 {
		return nil, errors.New("empty instrument universe")
	}
	logger.Info().Int("universe", len(p.Universe)).Msg("starting daily tape scan")

	seriesByCode, sums := p.collectSeries(ctx, date, summary, logger)

	classifyStart := time.Now()
	assigned := p.Engine.ClassifyAll(seriesByCode, sums)
	ordered := rank.Order(sums)
	summary.Result = rank.Bucket(ordered, assigned)
	p.observeStage("classify", time.Since(classifyStart))

	if p.Metrics != nil {
		for _, category := range models.Categories {
			p.Metrics.CategoryCounts.WithLabelValues(category.String()).
				Set(float64(len(summary.Result[category])))
		}
		p.Metrics.ScansTotal.Inc()
	}

	if p.Reporter != nil {
		artifacts, err := p.Reporter.Write(date, summary.Result)
		if err != nil {
			return nil, fmt.Errorf("write report: %w", err)
		}
		summary.Artifacts = artifacts
	}

	summary.Elapsed = time.Since(start)
	logger.Info().
		Int("classified", summary.Result.Total()).
		Int("dropped", summary.Dropped.Total()).
		Dur("elapsed", summary.Elapsed).
		Msg("daily tape scan complete")

	p.notifyStatus(ctx, summary, recipients, nil)
	return summary, nil
}

// collectSeries materializes every surviving instrument's series and
// summary. Instruments whose artifact is already persisted for the date are
// read back without fetching; the rest go through the bounded fetcher.
func (p *Pipeline) collectSeries(ctx context.Context, date string, summary *RunSummary, logger zerolog.Logger) (map[string]models.TickSeries, []models.InstrumentSummary) {
	seriesByCode := make(map[string]models.TickSeries)
	var sums []models.InstrumentSummary

	keep := func(inst models.Instrument, s models.TickSeries) {
		seriesByCode[inst.Code] = s
		sums = append(sums, models.Summarize(inst, s))
	}

	var toFetch []models.Instrument
	for _, inst := range p.Universe {
		cached, err := p.Store.Has(ctx, date, inst.Code)
		if err != nil {
			logger.Warn().Str("code", inst.Code).Err(err).Msg("artifact check failed, refetching")
			toFetch = append(toFetch, inst)
			continue
		}
		if !cached {
			toFetch = append(toFetch, inst)
			continue
		}
		s, err := p.Store.Get(ctx, date, inst.Code)
		if err != nil {
			logger.Warn().Str("code", inst.Code).Err(err).Msg("artifact read failed, refetching")
			toFetch = append(toFetch, inst)
			continue
		}
		keep(inst, s)
	}
	logger.Info().Int("cached", len(sums)).Int("to_fetch", len(toFetch)).Msg("artifact cache consulted")

	if len(toFetch) == 0 {
		return seriesByCode, sums
	}

	results, stats := p.Fetcher.FetchAll(ctx, date, toFetch)
	summary.FetchStats = stats
	summary.Dropped.FetchFailed += stats.Failed
	summary.Dropped.NoData += stats.NoData
	p.observeStage("fetch", stats.Elapsed)
	if p.Metrics != nil {
		p.Metrics.FetchOutcomes.WithLabelValues("ok").Add(float64(stats.Fetched))
		p.Metrics.FetchOutcomes.WithLabelValues("no_data").Add(float64(stats.NoData))
		p.Metrics.FetchOutcomes.WithLabelValues("failed").Add(float64(stats.Failed))
		p.Metrics.Drops.WithLabelValues("fetch").Add(float64(stats.Failed))
		p.Metrics.Drops.WithLabelValues("no_data").Add(float64(stats.NoData))
	}

	buildStart := time.Now()
	for _, r := range results {
		s, err := series.Build(r.Payload)
		switch {
		case errors.Is(err, series.ErrNoTrades):
			logger.Debug().Str("code", r.Instrument.Code).Msg("no trades in payload")
			summary.Dropped.NoData++
			p.countDrop("no_data")
			continue
		case err != nil:
			logger.Warn().Str("code", r.Instrument.Code).Err(err).Msg("payload parse failed")
			summary.Dropped.ParseFailed++
			p.countDrop("parse")
			continue
		}
		if err := p.Store.Put(ctx, date, r.Instrument.Code, s); err != nil {
			logger.Warn().Str("code", r.Instrument.Code).Err(err).Msg("series persist failed")
			summary.Dropped.StoreFailed++
			p.countDrop("store")
			continue
		}
		keep(r.Instrument, s)
	}
	p.observeStage("build", time.Since(buildStart))

	return seriesByCode, sums
}

func (p *Pipeline) notifyStatus(ctx context.Context, summary *RunSummary, recipients []string, runErr error) {
	if p.Notifier == nil {
		return
	}
	status := notify.Status{
		RunID:      summary.RunID,
		Date:       summary.Date,
		TradingDay: summary.TradingDay,
		Counts:     summary.Result.Counts(),
		Dropped:    summary.Dropped,
		Artifacts:  summary.Artifacts,
		Elapsed:    summary.Elapsed,
		Recipients: recipients,
		Err:        runErr,
	}
	if err := p.Notifier.Notify(ctx, status); err != nil {
		log.Warn().Err(err).Msg("notification failed")
	}
}

func (p *Pipeline) observeStage(stage string, d time.Duration) {
	if p.Metrics != nil {
		p.Metrics.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	}
}

func (p *Pipeline) countDrop(cause string) {
	if p.Metrics != nil {
		p.Metrics.Drops.WithLabelValues(cause).Inc()
	}
}
