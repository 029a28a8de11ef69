package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sizechart-backend/internal/domains/catalog/model"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

// =====================================================
// CATEGORY TREE
// =====================================================

func (r *postgresRepository) ListCategoryTree(ctx context.Context) ([]model.Category, error) {
	query := `
		SELECT
			c.id, c.slug, c.name, c.description, c.display_order,
			s.id, s.slug, s.name, s.display_order,
			COALESCE(cnt.n, 0)
		FROM categories c
		LEFT JOIN subcategories s ON s.category_id = c.id
		LEFT JOIN (
			SELECT scs.subcategory_id, COUNT(*) AS n
			FROM size_chart_subcategories scs
			JOIN size_charts sc ON sc.id = scs.size_chart_id
			WHERE sc.is_published = TRUE
			GROUP BY scs.subcategory_id
		) cnt ON cnt.subcategory_id = s.id
		ORDER BY c.display_order, c.name, s.display_order, s.name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list category tree: %w", err)
	}
	defer rows.Close()

	var (
		out   []model.Category
		index = make(map[uuid.UUID]int)
	)
	for rows.Next() {
		var (
			cat      model.Category
			subID    *uuid.UUID
			subSlug  *string
			subName  *string
			subOrder *int
			count    int
		)
		if err := rows.Scan(
			&cat.ID, &cat.Slug, &cat.Name, &cat.Description, &cat.DisplayOrder,
			&subID, &subSlug, &subName, &subOrder,
			&count,
		); err != nil {
			return nil, fmt.Errorf("scan category tree: %w", err)
		}

		pos, ok := index[cat.ID]
		if !ok {
			cat.Subcategories = []model.Subcategory{}
			out = append(out, cat)
			pos = len(out) - 1
			index[cat.ID] = pos
		}
		if subID == nil {
			continue
		}
		out[pos].Subcategories = append(out[pos].Subcategories, model.Subcategory{
			ID:                  *subID,
			CategoryID:          cat.ID,
			Slug:                *subSlug,
			Name:                *subName,
			DisplayOrder:        *subOrder,
			PublishedChartCount: count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category tree: %w", err)
	}
	return out, nil
}

// =====================================================
// CHARTS
// =====================================================

func (r *postgresRepository) FindPublishedChartBySlug(ctx context.Context, slug string) (*model.SizeChart, error) {
	query := `
		SELECT id, slug, name, description, is_published, updated_at
		FROM size_charts
		WHERE slug = $1 AND is_published = TRUE
	`
	return r.loadChart(ctx, r.pool.QueryRow(ctx, query, slug))
}

func (r *postgresRepository) FindPublishedChartInSubcategory(
	ctx context.Context,
	categorySlug, subcategorySlug, chartSlug string,
) (*model.SizeChart, error) {
	query := `
		SELECT sc.id, sc.slug, sc.name, sc.description, sc.is_published, sc.updated_at
		FROM size_charts sc
		JOIN size_chart_subcategories scs ON scs.size_chart_id = sc.id
		JOIN subcategories s ON s.id = scs.subcategory_id
		JOIN categories c ON c.id = s.category_id
		WHERE sc.slug = $1
		  AND s.slug = $2
		  AND c.slug = $3
		  AND sc.is_published = TRUE
	`
	return r.loadChart(ctx, r.pool.QueryRow(ctx, query, chartSlug, subcategorySlug, categorySlug))
}

// loadChart scans the chart header and attaches links, table and instructions.
func (r *postgresRepository) loadChart(ctx context.Context, row pgx.Row) (*model.SizeChart, error) {
	var chart model.SizeChart
	err := row.Scan(
		&chart.ID,
		&chart.Slug,
		&chart.Name,
		&chart.Description,
		&chart.IsPublished,
		&chart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrChartNotFound
		}
		return nil, fmt.Errorf("get size chart: %w", err)
	}

	if chart.Subcategories, err = r.chartSubcategories(ctx, chart.ID); err != nil {
		return nil, err
	}
	if chart.Instructions, err = r.chartInstructionRefs(ctx, chart.ID); err != nil {
		return nil, err
	}

	columns, err := r.chartColumns(ctx, chart.ID)
	if err != nil {
		return nil, err
	}
	rowRecs, err := r.chartRows(ctx, chart.ID)
	if err != nil {
		return nil, err
	}
	cells, err := r.chartCells(ctx, chart.ID)
	if err != nil {
		return nil, err
	}
	chart.Columns, chart.Rows = model.AssembleTable(columns, rowRecs, cells)
	return &chart, nil
}

func (r *postgresRepository) chartSubcategories(ctx context.Context, chartID uuid.UUID) ([]model.SubcategoryRef, error) {
	query := `
		SELECT s.slug, s.name, c.slug, c.name
		FROM size_chart_subcategories scs
		JOIN subcategories s ON s.id = scs.subcategory_id
		JOIN categories c ON c.id = s.category_id
		WHERE scs.size_chart_id = $1
		ORDER BY c.display_order, c.name, s.display_order, s.name
	`
	rows, err := r.pool.Query(ctx, query, chartID)
	if err != nil {
		return nil, fmt.Errorf("list chart subcategories: %w", err)
	}
	defer rows.Close()

	refs := []model.SubcategoryRef{}
	for rows.Next() {
		var ref model.SubcategoryRef
		if err := rows.Scan(&ref.Slug, &ref.Name, &ref.CategorySlug, &ref.CategoryName); err != nil {
			return nil, fmt.Errorf("scan chart subcategory: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *postgresRepository) chartInstructionRefs(ctx context.Context, chartID uuid.UUID) ([]model.InstructionRef, error) {
	query := `
		SELECT mi.key, mi.title
		FROM size_chart_instructions sci
		JOIN measurement_instructions mi ON mi.id = sci.instruction_id
		WHERE sci.size_chart_id = $1
		ORDER BY sci.display_order, mi.display_order, mi.key
	`
	rows, err := r.pool.Query(ctx, query, chartID)
	if err != nil {
		return nil, fmt.Errorf("list chart instructions: %w", err)
	}
	defer rows.Close()

	refs := []model.InstructionRef{}
	for rows.Next() {
		var ref model.InstructionRef
		if err := rows.Scan(&ref.Key, &ref.Title); err != nil {
			return nil, fmt.Errorf("scan chart instruction: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *postgresRepository) chartColumns(ctx context.Context, chartID uuid.UUID) ([]model.Column, error) {
	query := `
		SELECT id, name, column_type, display_order
		FROM size_chart_columns
		WHERE size_chart_id = $1
		ORDER BY display_order
	`
	rows, err := r.pool.Query(ctx, query, chartID)
	if err != nil {
		return nil, fmt.Errorf("list chart columns: %w", err)
	}
	defer rows.Close()

	var cols []model.Column
	for rows.Next() {
		var col model.Column
		if err := rows.Scan(&col.ID, &col.Name, &col.Type, &col.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan chart column: %w", err)
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (r *postgresRepository) chartRows(ctx context.Context, chartID uuid.UUID) ([]model.RowRecord, error) {
	query := `
		SELECT id, display_order
		FROM size_chart_rows
		WHERE size_chart_id = $1
		ORDER BY display_order
	`
	rows, err := r.pool.Query(ctx, query, chartID)
	if err != nil {
		return nil, fmt.Errorf("list chart rows: %w", err)
	}
	defer rows.Close()

	var recs []model.RowRecord
	for rows.Next() {
		var rec model.RowRecord
		if err := rows.Scan(&rec.ID, &rec.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan chart row: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (r *postgresRepository) chartCells(ctx context.Context, chartID uuid.UUID) ([]model.CellRecord, error) {
	query := `
		SELECT
			cell.row_id, cell.column_id,
			cell.value_inches::float8, cell.min_inches::float8, cell.max_inches::float8,
			cell.text_value,
			l.id, l.key, l.value, l.type
		FROM size_chart_cells cell
		JOIN size_chart_rows r ON r.id = cell.row_id
		LEFT JOIN labels l ON l.id = cell.label_id
		WHERE r.size_chart_id = $1
	`
	rows, err := r.pool.Query(ctx, query, chartID)
	if err != nil {
		return nil, fmt.Errorf("list chart cells: %w", err)
	}
	defer rows.Close()

	var cells []model.CellRecord
	for rows.Next() {
		var c model.CellRecord
		if err := rows.Scan(
			&c.RowID, &c.ColumnID,
			&c.ValueInches, &c.MinInches, &c.MaxInches,
			&c.TextValue,
			&c.LabelID, &c.LabelKey, &c.LabelValue, &c.LabelType,
		); err != nil {
			return nil, fmt.Errorf("scan chart cell: %w", err)
		}
		cells = append(cells, c)
	}
	return cells, rows.Err()
}

// =====================================================
// LABELS & INSTRUCTIONS
// =====================================================

func (r *postgresRepository) ListLabels(ctx context.Context, labelType *model.LabelType) ([]model.Label, error) {
	query := `
		SELECT id, type, key, value, sort_order, description
		FROM labels
		WHERE ($1::text IS NULL OR type = $1)
		ORDER BY type, sort_order, key
	`
	var filter *string
	if labelType != nil {
		s := string(*labelType)
		filter = &s
	}

	rows, err := r.pool.Query(ctx, query, filter)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()

	var labels []model.Label
	for rows.Next() {
		var l model.Label
		if err := rows.Scan(&l.ID, &l.Type, &l.Key, &l.Value, &l.SortOrder, &l.Description); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

func (r *postgresRepository) ListChartInstructions(ctx context.Context, chartID uuid.UUID) ([]model.MeasurementInstruction, error) {
	query := `
		SELECT mi.id, mi.key, mi.title, mi.body, mi.image_url, mi.display_order
		FROM size_chart_instructions sci
		JOIN measurement_instructions mi ON mi.id = sci.instruction_id
		JOIN size_charts sc ON sc.id = sci.size_chart_id
		WHERE sci.size_chart_id = $1 AND sc.is_published = TRUE
		ORDER BY sci.display_order, mi.display_order, mi.key
	`
	rows, err := r.pool.Query(ctx, query, chartID)
	if err != nil {
		return nil, fmt.Errorf("list instructions: %w", err)
	}
	defer rows.Close()

	var out []model.MeasurementInstruction
	for rows.Next() {
		var mi model.MeasurementInstruction
		if err := rows.Scan(&mi.ID, &mi.Key, &mi.Title, &mi.Body, &mi.ImageURL, &mi.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan instruction: %w", err)
		}
		out = append(out, mi)
	}
	return out, rows.Err()
}
