// Package series turns one instrument's raw tape payload into an ordered
// TickSeries plus its summary.
package series

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/openbell/tapescan/internal/models"
)

// ErrNoTrades marks a payload that parsed to zero prints: the instrument did
// not trade and is dropped, which is not an error condition of the batch.
var ErrNoTrades = errors.New("series: no trades in payload")

// RowError is a hard parse failure on one row. It drops the instrument but
// never aborts the batch, and is distinguishable from ErrNoTrades in logs.
type RowError struct {
	Line  int
	Field string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("series: row %d: bad %s: %v", e.Line, e.Field, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// The feed emits tab-separated rows: time, price, change, volume, traded
// value, side. The first line is a column header and is always skipped.
const fieldCount = 6

// Build parses a raw payload into a tick series. The feed emits prints in
// chronological order and Build preserves arrival order; it never re-sorts.
func Build(payload string) (models.TickSeries, error) {
	lines := strings.Split(strings.TrimRight(payload, "\r\n"), "\n")
	if len(lines) <= 1 {
		return nil, ErrNoTrades
	}

	var ticks models.TickSeries
	for i, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		rec, err := parseRow(i+2, line)
		if err != nil {
			return nil, err
		}
		ticks = append(ticks, rec)
	}
	if len(ticks) == 0 {
		return nil, ErrNoTrades
	}
	return ticks, nil
}

func parseRow(lineNo int, line string) (models.TickRecord, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != fieldCount {
		return models.TickRecord{}, &RowError{Line: lineNo, Field: "row", Err: fmt.Errorf("expected %d fields, got %d", fieldCount, len(fields))}
	}

	var rec models.TickRecord
	t, err := models.ParseTimeOfDay(fields[0])
	if err != nil {
		return models.TickRecord{}, &RowError{Line: lineNo, Field: "time", Err: err}
	}
	rec.Time = t

	if rec.Price, err = strconv.ParseFloat(strings.TrimSpace(fields[1]), 64); err != nil {
		return models.TickRecord{}, &RowError{Line: lineNo, Field: "price", Err: err}
	}
	if rec.Change, err = strconv.ParseFloat(strings.TrimSpace(fields[2]), 64); err != nil {
		return models.TickRecord{}, &RowError{Line: lineNo, Field: "change", Err: err}
	}
	if rec.Volume, err = strconv.ParseInt(strings.TrimSpace(fields[3]), 10, 64); err != nil {
		return models.TickRecord{}, &RowError{Line: lineNo, Field: "volume", Err: err}
	}
	if rec.TradedValue, err = strconv.ParseFloat(strings.TrimSpace(fields[4]), 64); err != nil {
		return models.TickRecord{}, &RowError{Line: lineNo, Field: "traded_value", Err: err}
	}
	if rec.Side, err = models.ParseSide(fields[5]); err != nil {
		return models.TickRecord{}, &RowError{Line: lineNo, Field: "side", Err: err}
	}
	return rec, nil
}
