package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/openbell/tapescan/internal/models"
)

// FSStore keeps one JSON file per (date, code) under root/<date>/<code>.json.
type FSStore struct {
	root string
}

// NewFSStore builds a filesystem store rooted at dir.
func NewFSStore(dir string) *FSStore {
	return &FSStore{root: dir}
}

func (s *FSStore) path(date, code string) string {
	return filepath.Join(s.root, date, code+".json")
}

func (s *FSStore) Get(_ context.Context, date, code string) (models.TickSeries, error) {
	data, err := os.ReadFile(s.path(date, code))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read series artifact: %w", err)
	}
	var series models.TickSeries
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, fmt.Errorf("decode series artifact: %w", err)
	}
	return series, nil
}

func (s *FSStore) Put(_ context.Context, date, code string, series models.TickSeries) error {
	dir := filepath.Join(s.root, date)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create series dir: %w", err)
	}
	data, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("encode series artifact: %w", err)
	}
	if err := os.WriteFile(s.path(date, code), data, 0644); err != nil {
		return fmt.Errorf("write series artifact: %w", err)
	}
	return nil
}

func (s *FSStore) Has(_ context.Context, date, code string) (bool, error) {
	_, err := os.Stat(s.path(date, code))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat series artifact: %w", err)
	}
	return true, nil
}
