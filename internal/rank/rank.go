// Package rank orders the instrument universe for presentation and groups
// classified instruments into category buckets.
package rank

import (
	"sort"

	"github.com/openbell/tapescan/internal/models"
)

// Order sorts summaries descending by last volume, ties broken descending
// by side rank (Sell > Neutral > Buy). The sort is stable and applied once
// to the whole universe; it is an ordering, never a filter.
func Order(sums []models.InstrumentSummary) []models.InstrumentSummary {
	ordered := make([]models.InstrumentSummary, len(sums))
	copy(ordered, sums)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].LastVolume != ordered[j].LastVolume {
			return ordered[i].LastVolume > ordered[j].LastVolume
		}
		return ordered[i].LastSide.Rank() > ordered[j].LastSide.Rank()
	})
	return ordered
}

// Bucket partitions the pre-ordered universe by category assignment. The
// partition is stable: each bucket preserves the relative order of Order's
// output and is not re-sorted. Unassigned instruments are left out.
func Bucket(ordered []models.InstrumentSummary, assigned map[string]models.PatternCategory) models.ClassificationResult {
	result := make(models.ClassificationResult)
	for _, sum := range ordered {
		category, ok := assigned[sum.Code]
		if !ok || category == models.CategoryNone {
			continue
		}
		result[category] = append(result[category], sum)
	}
	return result
}
