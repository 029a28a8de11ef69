package service

import (
	"context"

	"sizechart-backend/internal/domains/catalog/model"
)

// Reader is the public read surface of the catalog.
type Reader interface {
	PublicCategories(ctx context.Context) ([]model.CategoryResponse, error)
	Labels(ctx context.Context, labelType string) (model.LabelsResponse, error)
	ResolveChart(ctx context.Context, q model.ChartQuery) (*model.ResolvedChart, error)
	LookupChart(ctx context.Context, q model.ChartLookup) (*model.ResolvedChart, error)
	ChartInstructions(ctx context.Context, slug string) ([]model.InstructionResponse, error)
}

// Admin exposes views that include unpublished structure, and drops cached
// public reads after catalog edits.
type Admin interface {
	AdminCategoryTree(ctx context.Context) ([]model.CategoryResponse, error)
	Invalidate(ctx context.Context) error
}
