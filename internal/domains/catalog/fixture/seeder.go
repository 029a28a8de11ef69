package fixture

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"sizechart-backend/pkg/database"
	"sizechart-backend/pkg/units"
)

// Stats counts what a seed run wrote.
type Stats struct {
	Categories    int
	Subcategories int
	Labels        int
	Instructions  int
	Charts        int
	Cells         int
}

// Seeder upserts a Catalog by slug. Chart contents are replaced wholesale.
type Seeder struct {
	pool *pgxpool.Pool
}

func NewSeeder(pool *pgxpool.Pool) *Seeder {
	return &Seeder{pool: pool}
}

// Seed writes c in a single transaction.
func (s *Seeder) Seed(ctx context.Context, c *Catalog) (Stats, error) {
	return database.WithTransactionResult(ctx, s.pool, func(tx pgx.Tx) (Stats, error) {
		w := &writer{
			tx:           tx,
			subcats:      map[string]uuid.UUID{},
			labels:       map[string]uuid.UUID{},
			instructions: map[string]uuid.UUID{},
		}
		if err := w.catalog(ctx, c); err != nil {
			return Stats{}, err
		}
		log.Info().
			Int("categories", w.stats.Categories).
			Int("charts", w.stats.Charts).
			Int("cells", w.stats.Cells).
			Msg("Catalog seeded")
		return w.stats, nil
	})
}

type writer struct {
	tx    pgx.Tx
	stats Stats

	subcats      map[string]uuid.UUID // "category/subcategory"
	labels       map[string]uuid.UUID // "type/key"
	instructions map[string]uuid.UUID
}

func (w *writer) catalog(ctx context.Context, c *Catalog) error {
	for i, cat := range c.Categories {
		if err := w.category(ctx, cat, i); err != nil {
			return err
		}
	}
	for _, l := range c.Labels {
		if err := w.label(ctx, l); err != nil {
			return err
		}
	}
	for i, in := range c.Instructions {
		if err := w.instruction(ctx, in, i); err != nil {
			return err
		}
	}
	for _, ch := range c.Charts {
		if err := w.chart(ctx, ch); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) category(ctx context.Context, c CategorySpec, order int) error {
	var id uuid.UUID
	err := w.tx.QueryRow(ctx, `
		INSERT INTO categories (slug, name, description, display_order)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slug) DO UPDATE
		SET name = EXCLUDED.name, description = EXCLUDED.description,
		    display_order = EXCLUDED.display_order, updated_at = NOW()
		RETURNING id
	`, c.Slug, c.Name, c.Description, order).Scan(&id)
	if err != nil {
		return fmt.Errorf("upsert category %s: %w", c.Slug, err)
	}
	w.stats.Categories++

	for i, sub := range c.Subcategories {
		var subID uuid.UUID
		err := w.tx.QueryRow(ctx, `
			INSERT INTO subcategories (category_id, slug, name, display_order)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (category_id, slug) DO UPDATE
			SET name = EXCLUDED.name, display_order = EXCLUDED.display_order, updated_at = NOW()
			RETURNING id
		`, id, sub.Slug, sub.Name, i).Scan(&subID)
		if err != nil {
			return fmt.Errorf("upsert subcategory %s/%s: %w", c.Slug, sub.Slug, err)
		}
		w.subcats[c.Slug+"/"+sub.Slug] = subID
		w.stats.Subcategories++
	}
	return nil
}

func (w *writer) label(ctx context.Context, l LabelSpec) error {
	var id uuid.UUID
	err := w.tx.QueryRow(ctx, `
		INSERT INTO labels (type, key, value, sort_order, description)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (type, key) DO UPDATE
		SET value = EXCLUDED.value, sort_order = EXCLUDED.sort_order, description = EXCLUDED.description
		RETURNING id
	`, string(l.Type), l.Key, l.Value, l.SortOrder, l.Description).Scan(&id)
	if err != nil {
		return fmt.Errorf("upsert label %s/%s: %w", l.Type, l.Key, err)
	}
	w.labels[string(l.Type)+"/"+l.Key] = id
	w.stats.Labels++
	return nil
}

func (w *writer) instruction(ctx context.Context, in InstructionSpec, order int) error {
	var id uuid.UUID
	err := w.tx.QueryRow(ctx, `
		INSERT INTO measurement_instructions (key, title, body, image_url, display_order)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE
		SET title = EXCLUDED.title, body = EXCLUDED.body,
		    image_url = EXCLUDED.image_url, display_order = EXCLUDED.display_order
		RETURNING id
	`, in.Key, in.Title, in.Body, in.ImageURL, order).Scan(&id)
	if err != nil {
		return fmt.Errorf("upsert instruction %s: %w", in.Key, err)
	}
	w.instructions[in.Key] = id
	w.stats.Instructions++
	return nil
}

func (w *writer) chart(ctx context.Context, ch ChartSpec) error {
	var id uuid.UUID
	err := w.tx.QueryRow(ctx, `
		INSERT INTO size_charts (slug, name, description, is_published)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slug) DO UPDATE
		SET name = EXCLUDED.name, description = EXCLUDED.description,
		    is_published = EXCLUDED.is_published, updated_at = NOW()
		RETURNING id
	`, ch.Slug, ch.Name, ch.Description, ch.Published).Scan(&id)
	if err != nil {
		return fmt.Errorf("upsert chart %s: %w", ch.Slug, err)
	}

	// Columns and rows cascade to cells.
	for _, q := range []string{
		`DELETE FROM size_chart_columns WHERE size_chart_id = $1`,
		`DELETE FROM size_chart_rows WHERE size_chart_id = $1`,
		`DELETE FROM size_chart_subcategories WHERE size_chart_id = $1`,
		`DELETE FROM size_chart_instructions WHERE size_chart_id = $1`,
	} {
		if _, err := w.tx.Exec(ctx, q, id); err != nil {
			return fmt.Errorf("reset chart %s: %w", ch.Slug, err)
		}
	}

	for _, path := range ch.Subcategories {
		subID, ok := w.subcats[path]
		if !ok {
			return fmt.Errorf("chart %s: subcategory %s is not in this fixture", ch.Slug, path)
		}
		if _, err := w.tx.Exec(ctx,
			`INSERT INTO size_chart_subcategories (size_chart_id, subcategory_id) VALUES ($1, $2)`,
			id, subID); err != nil {
			return fmt.Errorf("link chart %s to %s: %w", ch.Slug, path, err)
		}
	}

	for i, key := range ch.Instructions {
		if _, err := w.tx.Exec(ctx,
			`INSERT INTO size_chart_instructions (size_chart_id, instruction_id, display_order) VALUES ($1, $2, $3)`,
			id, w.instructions[key], i); err != nil {
			return fmt.Errorf("attach instruction %s to %s: %w", key, ch.Slug, err)
		}
	}

	columnIDs := make(map[string]uuid.UUID, len(ch.Columns))
	for i, col := range ch.Columns {
		var colID uuid.UUID
		if err := w.tx.QueryRow(ctx, `
			INSERT INTO size_chart_columns (size_chart_id, name, column_type, display_order)
			VALUES ($1, $2, $3, $4) RETURNING id
		`, id, col.Name, string(col.Type), i).Scan(&colID); err != nil {
			return fmt.Errorf("insert column %s.%s: %w", ch.Slug, col.Name, err)
		}
		columnIDs[col.Name] = colID
	}

	unit := units.ParseUnit(ch.Unit)
	for i, row := range ch.Rows {
		var rowID uuid.UUID
		if err := w.tx.QueryRow(ctx,
			`INSERT INTO size_chart_rows (size_chart_id, display_order) VALUES ($1, $2) RETURNING id`,
			id, i).Scan(&rowID); err != nil {
			return fmt.Errorf("insert row %s[%d]: %w", ch.Slug, i, err)
		}
		for _, col := range ch.Columns {
			plan, ok := PlanCell(col.Type, row[col.Name], unit)
			if !ok {
				continue
			}
			if err := w.cell(ctx, rowID, columnIDs[col.Name], plan); err != nil {
				return fmt.Errorf("insert cell %s[%d].%s: %w", ch.Slug, i, col.Name, err)
			}
		}
	}

	w.stats.Charts++
	return nil
}

func (w *writer) cell(ctx context.Context, rowID, columnID uuid.UUID, p CellPlan) error {
	var labelID *uuid.UUID
	if p.LabelKey != "" {
		if id, ok := w.labels[string(p.LabelType)+"/"+p.LabelKey]; ok {
			labelID = &id
		}
	}
	_, err := w.tx.Exec(ctx, `
		INSERT INTO size_chart_cells (row_id, column_id, value_inches, min_inches, max_inches, text_value, label_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rowID, columnID, p.ValueInches, p.MinInches, p.MaxInches, p.Text, labelID)
	if err == nil {
		w.stats.Cells++
	}
	return err
}
