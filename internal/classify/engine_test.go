package classify

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbell/tapescan/internal/models"
)

func newDefaultEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(DefaultRuleSet())
	require.NoError(t, err)
	return engine
}

func summarize(code string, s models.TickSeries) models.InstrumentSummary {
	return models.Summarize(models.Instrument{Code: code, Name: code}, s)
}

// sellClose appends the closing sell print that makes the instrument
// eligible for both phase gates without disturbing any quiet window.
func sellClose(s models.TickSeries, volume int64) models.TickSeries {
	return append(s, models.TickRecord{
		Time:   models.ClockTime(14, 58, 0),
		Volume: volume,
		Side:   models.SideSell,
	})
}

func TestClassifyEmptySeries(t *testing.T) {
	engine := newDefaultEngine(t)
	got := engine.Classify(nil, models.InstrumentSummary{LastSide: models.SideSell, LastVolume: 2000})
	assert.Equal(t, models.CategoryNone, got)
}

func TestClassifyCategory1(t *testing.T) {
	engine := newDefaultEngine(t)
	series := sellClose(models.TickSeries{
		buyAt(models.ClockTime(9, 33, 0), 50),
		neutralAt(360, 12000), // 09:36, the oversized neutral print
		buyAt(models.ClockTime(10, 15, 0), 100),
	}, 2000)
	sum := summarize("sz000001", series)

	assert.Equal(t, models.Category1, engine.Classify(series, sum))
}

func TestClassifyFirstMatchWins(t *testing.T) {
	engine := newDefaultEngine(t)
	// Adjacent 1000+ neutral prints satisfy both the category 2 and the
	// category 4 predicates; the higher-priority rule must win.
	series := sellClose(models.TickSeries{
		neutralAt(180, 1500),
		neutralAt(240, 1200),
	}, 1500)
	sum := summarize("sz000002", series)

	assert.Equal(t, models.Category2, engine.Classify(series, sum))
}

func TestClassifyPrefilterPhaseTakesPrecedence(t *testing.T) {
	engine := newDefaultEngine(t)
	// Satisfies category 3 (single 1000+ neutral early, quiet day) and
	// category 6 (adjacent neutral triple). The prefilter phase runs first,
	// so category 6 wins even though 3 has higher numeric priority.
	series := sellClose(models.TickSeries{
		neutralAt(180, 1500),
		neutralAt(240, 20),
		neutralAt(300, 30),
	}, 2000)
	sum := summarize("sz000003", series)

	assert.Equal(t, models.Category6, engine.Classify(series, sum))
}

func TestClassifyCategory5NeedsHeavyTradedValue(t *testing.T) {
	engine := newDefaultEngine(t)
	quietOpen := models.TickSeries{
		{Time: models.ClockTime(10, 30, 0), Volume: 50, Side: models.SideBuy, TradedValue: 17_000_000},
	}
	series := sellClose(quietOpen, 2000)

	heavy := summarize("sz000005", series)
	assert.Equal(t, models.Category5, engine.Classify(series, heavy))

	light := heavy
	light.TotalTradedValue = 15_000_000
	assert.NotEqual(t, models.Category5, engine.Classify(series, light))
}

func TestClassifyMainGateBand(t *testing.T) {
	engine := newDefaultEngine(t)
	base := models.TickSeries{
		buyAt(models.ClockTime(9, 33, 0), 50),
		neutralAt(360, 12000),
	}

	// Last volume above the band: no main-phase category.
	over := sellClose(base, 20000)
	assert.Equal(t, models.CategoryNone, engine.Classify(over, summarize("a", over)))

	// Buy-side close: ineligible for either phase.
	buyLast := append(append(models.TickSeries{}, base...), models.TickRecord{
		Time: models.ClockTime(14, 58, 0), Volume: 2000, Side: models.SideBuy,
	})
	assert.Equal(t, models.CategoryNone, engine.Classify(buyLast, summarize("b", buyLast)))
}

func TestClassifyIsIdempotent(t *testing.T) {
	engine := newDefaultEngine(t)
	series := sellClose(models.TickSeries{
		neutralAt(180, 1500),
		neutralAt(240, 1200),
	}, 1500)
	sum := summarize("sz000006", series)

	first := engine.Classify(series, sum)
	second := engine.Classify(series, sum)
	assert.Equal(t, first, second)
}

func TestClassifyAllSkipsMissingSeries(t *testing.T) {
	engine := newDefaultEngine(t)
	series := sellClose(models.TickSeries{neutralAt(360, 12000)}, 2000)
	sums := []models.InstrumentSummary{
		summarize("present", series),
		{Code: "absent", LastSide: models.SideSell, LastVolume: 2000},
	}
	assigned := engine.ClassifyAll(map[string]models.TickSeries{"present": series}, sums)

	assert.Equal(t, models.Category1, assigned["present"])
	_, ok := assigned["absent"]
	assert.False(t, ok)
}

func TestRuleSetValidation(t *testing.T) {
	rs := DefaultRuleSet()
	require.NoError(t, rs.Validate())

	dup := DefaultRuleSet()
	dup.MainRules = append(dup.MainRules, dup.MainRules[0])
	assert.Error(t, dup.Validate())

	badGap := DefaultRuleSet()
	badGap.MainRules[1].Early.MaxGap = 0
	assert.Error(t, badGap.Validate())

	_, err := NewEngine(RuleSet{})
	assert.Error(t, err)
}

func TestRuleSetYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	want := DefaultRuleSet()
	require.NoError(t, SaveRuleSet(want, path))

	got, err := LoadRuleSet(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestShippedRulesMatchDefaults(t *testing.T) {
	got, err := LoadRuleSet(filepath.Join("..", "..", "config", "rules.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultRuleSet(), got)
}
