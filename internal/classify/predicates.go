package classify

import (
	"github.com/openbell/tapescan/internal/models"
)

// Window is an open time interval: a print at exactly From or To is outside
// the window.
type Window struct {
	From models.TimeOfDay `yaml:"from"`
	To   models.TimeOfDay `yaml:"to"`
}

// Contains reports whether t falls strictly inside the window.
func (w Window) Contains(t models.TimeOfDay) bool {
	return t > w.From && t < w.To
}

// VolumeFilter selects prints by lot size. Min is the floor; MinInclusive
// chooses >= versus strict >. Max, when non-zero, is a strict upper bound.
type VolumeFilter struct {
	Min          int64 `yaml:"min"`
	MinInclusive bool  `yaml:"min_inclusive"`
	Max          int64 `yaml:"max,omitempty"`
}

// Match reports whether a volume qualifies under the filter.
func (f VolumeFilter) Match(v int64) bool {
	if f.MinInclusive {
		if v < f.Min {
			return false
		}
	} else if v <= f.Min {
		return false
	}
	if f.Max > 0 && v >= f.Max {
		return false
	}
	return true
}

// QuietCheck asserts the absence of qualifying prints: it fails if any print
// inside Window has a side in Sides and a volume matched by Volume.
type QuietCheck struct {
	Sides  []models.TradeSide `yaml:"sides"`
	Window Window             `yaml:"window"`
	Volume VolumeFilter       `yaml:"volume"`
}

func (q QuietCheck) sideMatches(s models.TradeSide) bool {
	for _, want := range q.Sides {
		if s == want {
			return true
		}
	}
	return false
}

// Quiet reports whether the series passes the check, i.e. contains no
// qualifying print. An empty series is vacuously quiet.
func (q QuietCheck) Quiet(series models.TickSeries) bool {
	for _, r := range series {
		if q.sideMatches(r.Side) && q.Window.Contains(r.Time) && q.Volume.Match(r.Volume) {
			return false
		}
	}
	return true
}

// AllQuiet evaluates every check; the gate holds only if all do.
func AllQuiet(series models.TickSeries, checks []QuietCheck) bool {
	for _, q := range checks {
		if !q.Quiet(series) {
			return false
		}
	}
	return true
}

// qualifyingIndices returns the ordinal positions of prints inside w matching
// side and volume. Positions are indices into the full series, so index
// distance between two results counts every interleaved print.
func qualifyingIndices(series models.TickSeries, w Window, side models.TradeSide, volume VolumeFilter) []int {
	var idx []int
	for i, r := range series {
		if r.Side == side && w.Contains(r.Time) && volume.Match(r.Volume) {
			idx = append(idx, i)
		}
	}
	return idx
}

// HasPrint reports whether at least one qualifying print exists in the window.
func HasPrint(series models.TickSeries, w Window, side models.TradeSide, volume VolumeFilter) bool {
	for _, r := range series {
		if r.Side == side && w.Contains(r.Time) && volume.Match(r.Volume) {
			return true
		}
	}
	return false
}

// HasRun reports whether the window holds a run of qualifying prints: at
// least two whose ordinal positions are within maxGap slots of each other
// (at most maxGap-1 non-qualifying prints interleaved). Fewer than two
// qualifying prints is vacuously false.
func HasRun(series models.TickSeries, w Window, side models.TradeSide, volume VolumeFilter, maxGap int) bool {
	idx := qualifyingIndices(series, w, side, volume)
	for i := 1; i < len(idx); i++ {
		if idx[i]-idx[i-1] <= maxGap {
			return true
		}
	}
	return false
}

// HasAdjacentTriple reports whether some qualifying print in the early window
// starts an adjacent triple: positions i, i+1 and i+2 all hold qualifying
// prints, where the triple membership is checked against qualifying prints
// anywhere after openFrom, not just inside the early window.
func HasAdjacentTriple(series models.TickSeries, early Window, side models.TradeSide, volume VolumeFilter, openFrom models.TimeOfDay) bool {
	seeds := qualifyingIndices(series, early, side, volume)
	if len(seeds) == 0 {
		return false
	}
	later := make(map[int]bool)
	for i, r := range series {
		if r.Side == side && r.Time > openFrom && volume.Match(r.Volume) {
			later[i] = true
		}
	}
	for _, i := range seeds {
		if later[i] && later[i+1] && later[i+2] {
			return true
		}
	}
	return false
}
