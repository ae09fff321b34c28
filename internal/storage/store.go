package storage

import (
	"context"

	"ecoscape/internal/model"
)

// Store persists landscape replicates and simulation run artifacts.
type Store interface {
	Init(ctx context.Context) error
	SaveLandscape(ctx context.Context, record model.LandscapeRecord) error
	GetLandscape(ctx context.Context, name string, replicate int) (model.LandscapeRecord, bool, error)
	ListLandscapes(ctx context.Context, name string) ([]model.LandscapeRecord, error)
	SaveRunSummary(ctx context.Context, summary model.RunSummary) error
	ListRunSummaries(ctx context.Context, limit int) ([]model.RunSummary, error)
	SaveGenerationStats(ctx context.Context, runID string, rows []model.GenerationStats) error
	GetGenerationStats(ctx context.Context, runID string) ([]model.GenerationStats, bool, error)
}
