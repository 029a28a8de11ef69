package repository

import (
	"context"

	"github.com/google/uuid"

	"sizechart-backend/internal/domains/catalog/model"
)

// Repository reads the published catalog. Every chart lookup filters on
// is_published; a miss is reported as model.ErrChartNotFound.
type Repository interface {
	// ListCategoryTree returns every category with all of its subcategories
	// and the number of published charts linked to each.
	ListCategoryTree(ctx context.Context) ([]model.Category, error)

	FindPublishedChartBySlug(ctx context.Context, slug string) (*model.SizeChart, error)

	// FindPublishedChartInSubcategory matches the chart only when it is
	// linked to the subcategory and the subcategory belongs to the category.
	FindPublishedChartInSubcategory(ctx context.Context, categorySlug, subcategorySlug, chartSlug string) (*model.SizeChart, error)

	// ListLabels returns labels of one type, or all labels when labelType is nil.
	ListLabels(ctx context.Context, labelType *model.LabelType) ([]model.Label, error)

	ListChartInstructions(ctx context.Context, chartID uuid.UUID) ([]model.MeasurementInstruction, error)
}
