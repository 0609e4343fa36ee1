// Package report hands the finished classification to its output sinks.
// The wire format of the business report itself belongs to the external
// report writer; the shipped sink writes plain artifacts under out/.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/openbell/tapescan/internal/models"
)

// Sink receives the final result. Write returns the artifact paths it
// produced.
type Sink interface {
	Write(date string, result models.ClassificationResult) ([]string, error)
}

// FileSink writes two artifacts per run: a CSV with the presentation values
// and a JSONL verification file carrying the full summaries.
type FileSink struct {
	dir string
}

// NewFileSink writes artifacts under dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

func (s *FileSink) Write(date string, result models.ClassificationResult) ([]string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	csvPath := filepath.Join(s.dir, fmt.Sprintf("result_%s.csv", date))
	if err := s.writeCSV(csvPath, result); err != nil {
		return nil, err
	}
	jsonlPath := filepath.Join(s.dir, fmt.Sprintf("verify_%s.jsonl", date))
	if err := s.writeJSONL(jsonlPath, result); err != nil {
		return nil, err
	}
	return []string{csvPath, jsonlPath}, nil
}

func (s *FileSink) writeCSV(path string, result models.ClassificationResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"category", "name", "code", "side", "volume", "traded_value_wan"}); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}
	for _, category := range models.Categories {
		for _, sum := range result[category] {
			ann := sum.Annotation()
			row := []string{
				category.String(),
				sum.Name,
				sum.Code,
				ann.Side.String(),
				strconv.FormatInt(ann.Volume, 10),
				strconv.FormatInt(ann.TradedValueWan, 10),
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("write report row: %w", err)
			}
		}
	}
	w.Flush()
	return w.Error()
}

type verifyLine struct {
	Category string                   `json:"category"`
	Summary  models.InstrumentSummary `json:"summary"`
}

func (s *FileSink) writeJSONL(path string, result models.ClassificationResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create verify jsonl: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, category := range models.Categories {
		for _, sum := range result[category] {
			if err := enc.Encode(verifyLine{Category: category.String(), Summary: sum}); err != nil {
				return fmt.Errorf("write verify line: %w", err)
			}
		}
	}
	return nil
}
