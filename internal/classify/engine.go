package classify

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"

	"github.com/openbell/tapescan/internal/models"
)

// Engine evaluates the rule table against one instrument at a time.
// Classification is a pure function of (series, summary): no state is kept
// between calls and the same input always yields the same category.
type Engine struct {
	rules RuleSet
}

// NewEngine validates the table and returns an engine for it.
func NewEngine(rules RuleSet) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rule set: %w", err)
	}
	return &Engine{rules: rules}, nil
}

// Classify assigns at most one category to the instrument.
//
// The prefilter phase runs first against its own eligibility gate; a match
// there is final even if a main-phase rule would also accept the instrument.
// Instruments the prefilter phase leaves unclassified fall through to the
// main phase if they pass the main gate. Within each phase the first
// matching rule in table order wins.
func (e *Engine) Classify(series models.TickSeries, sum models.InstrumentSummary) models.PatternCategory {
	if series.Empty() {
		return models.CategoryNone
	}
	if e.rules.PrefilterGate.Eligible(sum) {
		for _, r := range e.rules.PrefilterRules {
			if r.Matches(series, sum) {
				return r.Category
			}
		}
	}
	if e.rules.MainGate.Eligible(sum) {
		for _, r := range e.rules.MainRules {
			if r.Matches(series, sum) {
				return r.Category
			}
		}
	}
	return models.CategoryNone
}

// ClassifyAll maps instrument code to category for every instrument that
// received one.
func (e *Engine) ClassifyAll(series map[string]models.TickSeries, sums []models.InstrumentSummary) map[string]models.PatternCategory {
	assigned := make(map[string]models.PatternCategory)
	for _, sum := range sums {
		s, ok := series[sum.Code]
		if !ok {
			continue
		}
		if c := e.Classify(s, sum); c != models.CategoryNone {
			assigned[sum.Code] = c
		}
	}
	return assigned
}

// LoadRuleSet reads a rule table from a YAML file.
func LoadRuleSet(path string) (RuleSet, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("failed to read rules config: %w", err)
	}
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("failed to parse rules YAML: %w", err)
	}
	return rs, nil
}

// SaveRuleSet writes a rule table to a YAML file.
func SaveRuleSet(rs RuleSet, path string) error {
	data, err := yaml.Marshal(rs)
	if err != nil {
		return fmt.Errorf("failed to marshal rules config: %w", err)
	}
	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write rules config: %w", err)
	}
	return nil
}
