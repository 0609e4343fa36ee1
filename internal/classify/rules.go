package classify

import (
	"fmt"

	"github.com/openbell/tapescan/internal/models"
)

// EarlyKind selects the early-window condition shape of a rule.
type EarlyKind string

const (
	// EarlySinglePrint requires at least one qualifying print in the window.
	EarlySinglePrint EarlyKind = "single_print"
	// EarlyRun requires a run of qualifying prints within MaxGap index slots.
	EarlyRun EarlyKind = "run"
	// EarlyAdjacentTriple requires a qualifying print starting an adjacent
	// triple of qualifying prints after window open.
	EarlyAdjacentTriple EarlyKind = "adjacent_triple"
	// EarlyAbsent requires the absence conditions in Absent to all hold.
	EarlyAbsent EarlyKind = "absent"
)

// EarlyCondition is the opening-minutes signal a rule looks for.
type EarlyCondition struct {
	Kind   EarlyKind        `yaml:"kind"`
	Window Window           `yaml:"window"`
	Side   models.TradeSide `yaml:"side,omitempty"`
	Volume VolumeFilter     `yaml:"volume"`
	MaxGap int              `yaml:"max_gap,omitempty"`
	Absent []QuietCheck     `yaml:"absent,omitempty"`
}

func (e EarlyCondition) eval(series models.TickSeries) bool {
	switch e.Kind {
	case EarlySinglePrint:
		return HasPrint(series, e.Window, e.Side, e.Volume)
	case EarlyRun:
		return HasRun(series, e.Window, e.Side, e.Volume, e.MaxGap)
	case EarlyAdjacentTriple:
		return HasAdjacentTriple(series, e.Window, e.Side, e.Volume, e.Window.From)
	case EarlyAbsent:
		return AllQuiet(series, e.Absent)
	default:
		return false
	}
}

// Rule is one classification predicate. Rules are pure: evaluation reads the
// series and summary and nothing else.
type Rule struct {
	Category models.PatternCategory `yaml:"category"`
	Early    EarlyCondition         `yaml:"early"`
	Quiet    []QuietCheck           `yaml:"quiet,omitempty"`

	// Summary gates. Zero values mean "not required".
	LastSide       models.TradeSide `yaml:"last_side,omitempty"`
	MinLastVolume  int64            `yaml:"min_last_volume,omitempty"`
	MinTradedValue float64          `yaml:"min_traded_value,omitempty"`
}

// Matches reports whether the rule accepts the instrument.
func (r Rule) Matches(series models.TickSeries, sum models.InstrumentSummary) bool {
	if r.LastSide != models.SideUnknown && sum.LastSide != r.LastSide {
		return false
	}
	if r.MinLastVolume > 0 && sum.LastVolume <= r.MinLastVolume {
		return false
	}
	if r.MinTradedValue > 0 && sum.TotalTradedValue <= r.MinTradedValue {
		return false
	}
	if !r.Early.eval(series) {
		return false
	}
	return AllQuiet(series, r.Quiet)
}

// SummaryFilter is an eligibility gate on the instrument summary applied
// before a rule phase runs at all.
type SummaryFilter struct {
	LastSide      models.TradeSide `yaml:"last_side,omitempty"`
	MinLastVolume int64            `yaml:"min_last_volume,omitempty"`
	MinInclusive  bool             `yaml:"min_inclusive,omitempty"`
	MaxLastVolume int64            `yaml:"max_last_volume,omitempty"` // inclusive, 0 = unbounded
}

// Eligible reports whether the summary enters the phase.
func (f SummaryFilter) Eligible(sum models.InstrumentSummary) bool {
	if f.LastSide != models.SideUnknown && sum.LastSide != f.LastSide {
		return false
	}
	if f.MinLastVolume > 0 {
		if f.MinInclusive {
			if sum.LastVolume < f.MinLastVolume {
				return false
			}
		} else if sum.LastVolume <= f.MinLastVolume {
			return false
		}
	}
	if f.MaxLastVolume > 0 && sum.LastVolume > f.MaxLastVolume {
		return false
	}
	return true
}

// RuleSet is the full versionable classification table: a prefilter phase
// evaluated first against its eligibility gate, then the main phase over the
// remaining instruments. Both phases are first-match-wins in table order.
type RuleSet struct {
	Version        string        `yaml:"version"`
	PrefilterGate  SummaryFilter `yaml:"prefilter_gate"`
	PrefilterRules []Rule        `yaml:"prefilter_rules"`
	MainGate       SummaryFilter `yaml:"main_gate"`
	MainRules      []Rule        `yaml:"main_rules"`
}

// Validate rejects tables the engine cannot evaluate.
func (rs RuleSet) Validate() error {
	seen := make(map[models.PatternCategory]bool)
	all := append(append([]Rule{}, rs.PrefilterRules...), rs.MainRules...)
	if len(all) == 0 {
		return fmt.Errorf("rule set has no rules")
	}
	for _, r := range all {
		if r.Category == models.CategoryNone {
			return fmt.Errorf("rule with unset category")
		}
		if seen[r.Category] {
			return fmt.Errorf("duplicate rule for %s", r.Category)
		}
		seen[r.Category] = true
		switch r.Early.Kind {
		case EarlySinglePrint, EarlyAdjacentTriple:
		case EarlyRun:
			if r.Early.MaxGap <= 0 {
				return fmt.Errorf("%s: run rule needs max_gap > 0", r.Category)
			}
		case EarlyAbsent:
			if len(r.Early.Absent) == 0 {
				return fmt.Errorf("%s: absent rule needs absence checks", r.Category)
			}
		default:
			return fmt.Errorf("%s: unknown early kind %q", r.Category, r.Early.Kind)
		}
	}
	return nil
}
