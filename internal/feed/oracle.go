package feed

import (
	"context"
	"errors"
	"fmt"
)

// Oracle answers whether a date is a trading day.
type Oracle interface {
	IsTradingDay(ctx context.Context, date string) (bool, error)
}

// ProbeOracle decides by fetching a reference instrument's tape: the no-data
// sentinel means the market was closed. Any other failure is surfaced, since
// an unreachable oracle is fatal to the run.
type ProbeOracle struct {
	client Client
	probe  string
}

// NewProbeOracle builds an oracle probing the given instrument code.
func NewProbeOracle(client Client, probeCode string) *ProbeOracle {
	return &ProbeOracle{client: client, probe: probeCode}
}

func (o *ProbeOracle) IsTradingDay(ctx context.Context, date string) (bool, error) {
	_, err := o.client.FetchTape(ctx, date, o.probe)
	if errors.Is(err, ErrNoData) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("trading day probe: %w", err)
	}
	return true, nil
}
