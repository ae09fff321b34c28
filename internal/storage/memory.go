package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ecoscape/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	landscapes  map[string]model.LandscapeRecord
	runs        map[string]model.RunSummary
	stats       map[string][]model.GenerationStats
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.landscapes = make(map[string]model.LandscapeRecord)
	s.runs = make(map[string]model.RunSummary)
	s.stats = make(map[string][]model.GenerationStats)
	return nil
}

func (s *MemoryStore) SaveLandscape(_ context.Context, record model.LandscapeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.landscapes[landscapeKey(record.Name, record.Replicate)] = record
	return nil
}

func (s *MemoryStore) GetLandscape(_ context.Context, name string, replicate int) (model.LandscapeRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.landscapes[landscapeKey(name, replicate)]
	return record, ok, nil
}

func (s *MemoryStore) ListLandscapes(_ context.Context, name string) ([]model.LandscapeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []model.LandscapeRecord
	for _, record := range s.landscapes {
		if record.Name == name {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Replicate < records[j].Replicate })
	return records, nil
}

func (s *MemoryStore) SaveRunSummary(_ context.Context, summary model.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[summary.RunID] = summary
	return nil
}

func (s *MemoryStore) ListRunSummaries(_ context.Context, limit int) ([]model.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]model.RunSummary, 0, len(s.runs))
	for _, summary := range s.runs {
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAtUTC != summaries[j].CreatedAtUTC {
			return summaries[i].CreatedAtUTC > summaries[j].CreatedAtUTC
		}
		return summaries[i].RunID > summaries[j].RunID
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

func (s *MemoryStore) SaveGenerationStats(_ context.Context, runID string, rows []model.GenerationStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]model.GenerationStats, len(rows))
	copy(stored, rows)
	s.stats[runID] = stored
	return nil
}

func (s *MemoryStore) GetGenerationStats(_ context.Context, runID string) ([]model.GenerationStats, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.stats[runID]
	return rows, ok, nil
}

func landscapeKey(name string, replicate int) string {
	return fmt.Sprintf("%s/%d", name, replicate)
}
