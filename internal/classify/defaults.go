package classify

import (
	"github.com/openbell/tapescan/internal/models"
)

// Session landmarks used by the default table.
var (
	sessionOpen = models.ClockTime(9, 30, 0)
	earlyClose  = models.ClockTime(9, 40, 0)
	quietFrom   = models.ClockTime(9, 32, 0)
	buyQuietTo  = models.ClockTime(14, 30, 0)
	sellQuietTo = models.ClockTime(14, 57, 0)
	lateMorning = models.ClockTime(10, 0, 0)
)

func earlyWindow() Window { return Window{From: sessionOpen, To: earlyClose} }

// restOfDayQuiet is the shared gate for categories 3, 4, 5, 6 and 7: no buy
// print of 901+ lots until 14:30 and no sell print of 901+ lots until 14:57.
func restOfDayQuiet() []QuietCheck {
	return []QuietCheck{
		{
			Sides:  []models.TradeSide{models.SideBuy},
			Window: Window{From: quietFrom, To: buyQuietTo},
			Volume: VolumeFilter{Min: 901, MinInclusive: true},
		},
		{
			Sides:  []models.TradeSide{models.SideSell},
			Window: Window{From: quietFrom, To: sellQuietTo},
			Volume: VolumeFilter{Min: 901, MinInclusive: true},
		},
	}
}

// bothSidesQuiet gates categories 1 and 2: no buy or sell print strictly
// above the threshold over the wide session window.
func bothSidesQuiet(threshold int64) []QuietCheck {
	return []QuietCheck{{
		Sides:  []models.TradeSide{models.SideBuy, models.SideSell},
		Window: Window{From: quietFrom, To: sellQuietTo},
		Volume: VolumeFilter{Min: threshold, MinInclusive: false},
	}}
}

// DefaultRuleSet returns the shipped classification table.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Version: "2019.08",
		// Categories 5 and 6 run first, over sell-close instruments with a
		// last print above 300 lots.
		PrefilterGate: SummaryFilter{
			LastSide:      models.SideSell,
			MinLastVolume: 300,
		},
		PrefilterRules: []Rule{
			{
				// Category 5: opening ten minutes free of 101+ buy/sell
				// prints, no 101+ sell print before 10:00, quiet rest of
				// day, and a heavy total traded value.
				Category: models.Category5,
				Early: EarlyCondition{
					Kind: EarlyAbsent,
					Absent: []QuietCheck{
						{
							Sides:  []models.TradeSide{models.SideBuy, models.SideSell},
							Window: earlyWindow(),
							Volume: VolumeFilter{Min: 101, MinInclusive: true},
						},
						{
							Sides:  []models.TradeSide{models.SideSell},
							Window: Window{From: sessionOpen, To: lateMorning},
							Volume: VolumeFilter{Min: 101, MinInclusive: true},
						},
					},
				},
				Quiet:          restOfDayQuiet(),
				MinTradedValue: 16_000_000,
			},
			{
				// Category 6: an early neutral print of 10+ lots followed
				// immediately by two more, quiet rest of day.
				Category: models.Category6,
				Early: EarlyCondition{
					Kind:   EarlyAdjacentTriple,
					Window: earlyWindow(),
					Side:   models.SideNeutral,
					Volume: VolumeFilter{Min: 10, MinInclusive: true},
				},
				Quiet: restOfDayQuiet(),
			},
		},
		// Main pass: sell-close instruments with a last print between 1000
		// and 10000 lots inclusive.
		MainGate: SummaryFilter{
			LastSide:      models.SideSell,
			MinLastVolume: 1000,
			MinInclusive:  true,
			MaxLastVolume: 10000,
		},
		MainRules: []Rule{
			{
				// Category 1: a single 10000+ lot neutral print early, no
				// buy/sell print above 10001 the rest of the day.
				Category: models.Category1,
				Early: EarlyCondition{
					Kind:   EarlySinglePrint,
					Window: earlyWindow(),
					Side:   models.SideNeutral,
					Volume: VolumeFilter{Min: 10000, MinInclusive: true},
				},
				Quiet: bothSidesQuiet(10001),
			},
			{
				// Category 2: a run of 1000+ lot neutral prints within six
				// index slots, no buy/sell print above 9001.
				Category: models.Category2,
				Early: EarlyCondition{
					Kind:   EarlyRun,
					Window: earlyWindow(),
					Side:   models.SideNeutral,
					Volume: VolumeFilter{Min: 1000, MinInclusive: true},
					MaxGap: 6,
				},
				Quiet: bothSidesQuiet(9001),
			},
			{
				// Category 3: a single 1000+ lot neutral print early, quiet
				// rest of day.
				Category: models.Category3,
				Early: EarlyCondition{
					Kind:   EarlySinglePrint,
					Window: earlyWindow(),
					Side:   models.SideNeutral,
					Volume: VolumeFilter{Min: 1000, MinInclusive: true},
				},
				Quiet: restOfDayQuiet(),
			},
			{
				// Category 4: a run of neutral prints above 100 lots within
				// six index slots, quiet rest of day.
				Category: models.Category4,
				Early: EarlyCondition{
					Kind:   EarlyRun,
					Window: earlyWindow(),
					Side:   models.SideNeutral,
					Volume: VolumeFilter{Min: 100},
					MaxGap: 6,
				},
				Quiet: restOfDayQuiet(),
			},
			{
				// Category 7: a single neutral print strictly between 100
				// and 1000 lots, quiet rest of day.
				Category: models.Category7,
				Early: EarlyCondition{
					Kind:   EarlySinglePrint,
					Window: earlyWindow(),
					Side:   models.SideNeutral,
					Volume: VolumeFilter{Min: 100, Max: 1000},
				},
				Quiet: restOfDayQuiet(),
			},
		},
	}
}
