package models

import "fmt"

// PatternCategory is one of the mutually exclusive accumulation buckets.
// Lower numbers are higher priority; CategoryNone means the instrument
// matched no rule.
type PatternCategory int

const (
	CategoryNone PatternCategory = 0
	Category1    PatternCategory = 1
	Category2    PatternCategory = 2
	Category3    PatternCategory = 3
	Category4    PatternCategory = 4
	Category5    PatternCategory = 5
	Category6    PatternCategory = 6
	Category7    PatternCategory = 7
)

// Categories lists all buckets in priority order.
var Categories = []PatternCategory{
	Category1, Category2, Category3, Category4, Category5, Category6, Category7,
}

func (c PatternCategory) String() string {
	if c == CategoryNone {
		return "none"
	}
	return fmt.Sprintf("category_%d", int(c))
}

// ClassificationResult maps each category to its bucket of instruments in
// presentation order. Built once per run, never mutated afterwards.
type ClassificationResult map[PatternCategory][]InstrumentSummary

// Counts returns the bucket sizes keyed by category.
func (r ClassificationResult) Counts() map[PatternCategory]int {
	counts := make(map[PatternCategory]int, len(r))
	for c, bucket := range r {
		counts[c] = len(bucket)
	}
	return counts
}

// Total returns the number of classified instruments across all buckets.
func (r ClassificationResult) Total() int {
	n := 0
	for _, bucket := range r {
		n += len(bucket)
	}
	return n
}
