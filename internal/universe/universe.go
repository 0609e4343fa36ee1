// Package universe loads the instrument universe the scan runs over.
package universe

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/openbell/tapescan/internal/models"
)

// Load reads a "code,name" CSV file. A header row is skipped when the first
// field reads "code". Exchange prefixes are normalized to lower case the way
// the feed expects (SZ000004 -> sz000004). A missing or empty universe is a
// configuration error and fatal to the run.
func Load(path string) ([]models.Instrument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open universe file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 2
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse universe file: %w", err)
	}

	var instruments []models.Instrument
	for i, row := range rows {
		code := strings.TrimSpace(row[0])
		if i == 0 && strings.EqualFold(code, "code") {
			continue
		}
		if code == "" {
			continue
		}
		instruments = append(instruments, models.Instrument{
			Code: NormalizeCode(code),
			Name: strings.TrimSpace(row[1]),
		})
	}
	if len(instruments) == 0 {
		return nil, fmt.Errorf("universe file %s holds no instruments", path)
	}
	return instruments, nil
}

// NormalizeCode lower-cases the exchange prefix.
func NormalizeCode(code string) string {
	if len(code) >= 2 {
		switch strings.ToUpper(code[:2]) {
		case "SZ", "SH":
			return strings.ToLower(code[:2]) + code[2:]
		}
	}
	return code
}
