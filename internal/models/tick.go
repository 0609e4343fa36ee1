package models

import (
	"fmt"
	"strconv"
	"strings"
)

// TradeSide is the aggressor classification of a single print, as reported
// by the tape source. Rank order (Sell > Neutral > Buy) is used as the
// tie-break key when ranking instruments.
type TradeSide int

const (
	SideUnknown TradeSide = 0
	SideBuy     TradeSide = 1
	SideNeutral TradeSide = 2
	SideSell    TradeSide = 3
)

// Rank returns the tie-break priority of the side (Sell=3, Neutral=2, Buy=1).
func (s TradeSide) Rank() int { return int(s) }

func (s TradeSide) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideNeutral:
		return "neutral"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// ParseSide maps a side token to a TradeSide. It accepts the feed's native
// vocabulary plus ASCII aliases used in config and fixtures.
func ParseSide(token string) (TradeSide, error) {
	switch strings.TrimSpace(token) {
	case "买盘", "buy", "B":
		return SideBuy, nil
	case "中性盘", "neutral", "N":
		return SideNeutral, nil
	case "卖盘", "sell", "S":
		return SideSell, nil
	default:
		return SideUnknown, fmt.Errorf("unknown trade side %q", token)
	}
}

// UnmarshalYAML accepts side names ("buy", "sell", "neutral") in config.
func (s *TradeSide) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseSide(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalYAML renders the side name.
func (s TradeSide) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// TimeOfDay is a session-local clock time with one-second resolution,
// stored as seconds since midnight. Prints carry no date component.
type TimeOfDay int

// ClockTime builds a TimeOfDay from hour/minute/second components.
func ClockTime(h, m, s int) TimeOfDay {
	return TimeOfDay(h*3600 + m*60 + s)
}

// ParseTimeOfDay parses "15:04:05" or "15:04".
func ParseTimeOfDay(v string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day %q", v)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid time of day %q", v)
		}
		nums[i] = n
	}
	if nums[0] > 23 || nums[1] > 59 || nums[2] > 59 {
		return 0, fmt.Errorf("invalid time of day %q", v)
	}
	return ClockTime(nums[0], nums[1], nums[2]), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", int(t)/3600, int(t)/60%60, int(t)%60)
}

// UnmarshalYAML lets window boundaries appear as "09:30" literals in the
// rules table.
func (t *TimeOfDay) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalYAML renders the boundary back in clock form.
func (t TimeOfDay) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// TickRecord is one trade print.
type TickRecord struct {
	Time        TimeOfDay `json:"time"`
	Price       float64   `json:"price"`
	Change      float64   `json:"change"`
	Volume      int64     `json:"volume"`
	TradedValue float64   `json:"traded_value"`
	Side        TradeSide `json:"side"`
}

// TickSeries is one instrument's full tape for the day, in arrival order.
// Ordinal position in the slice is semantically meaningful: run/gap logic is
// defined over index distance, so the series is never re-sorted.
type TickSeries []TickRecord

func (s TickSeries) Empty() bool { return len(s) == 0 }

// Instrument identifies one member of the scan universe.
type Instrument struct {
	Code string `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
}

// InstrumentSummary is the per-instrument digest computed once after series
// construction: last print volume/side and the full-day traded value sum.
type InstrumentSummary struct {
	Name             string    `json:"name"`
	Code             string    `json:"code"`
	LastVolume       int64     `json:"last_volume"`
	LastSide         TradeSide `json:"last_side"`
	TotalTradedValue float64   `json:"total_traded_value"`
}

// Summarize derives the summary from a non-empty series.
func Summarize(inst Instrument, s TickSeries) InstrumentSummary {
	sum := InstrumentSummary{Name: inst.Name, Code: inst.Code}
	if len(s) == 0 {
		return sum
	}
	last := s[len(s)-1]
	sum.LastVolume = last.Volume
	sum.LastSide = last.Side
	for _, r := range s {
		sum.TotalTradedValue += r.TradedValue
	}
	return sum
}

// Annotation carries the presentation values for a bucketed instrument.
// TradedValueWan is the total traded value in units of 10,000 currency,
// truncated toward zero.
type Annotation struct {
	Side           TradeSide `json:"side"`
	Volume         int64     `json:"volume"`
	TradedValueWan int64     `json:"traded_value_wan"`
}

// Annotation returns the display values for this instrument.
func (s InstrumentSummary) Annotation() Annotation {
	return Annotation{
		Side:           s.LastSide,
		Volume:         s.LastVolume,
		TradedValueWan: int64(s.TotalTradedValue / 10000),
	}
}
