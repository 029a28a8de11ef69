// Package fixture loads catalog seed files and writes them to Postgres.
package fixture

import (
	"fmt"
	"io"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"sizechart-backend/internal/domains/catalog/model"
	"sizechart-backend/internal/shared/utils"
	"sizechart-backend/pkg/units"
)

// =====================================================
// FILE FORMAT
// =====================================================

// Catalog is the root of a seed file.
type Catalog struct {
	Categories   []CategorySpec    `yaml:"categories"`
	Labels       []LabelSpec       `yaml:"labels"`
	Instructions []InstructionSpec `yaml:"instructions"`
	Charts       []ChartSpec       `yaml:"charts"`
}

type CategorySpec struct {
	Slug          string            `yaml:"slug"`
	Name          string            `yaml:"name"`
	Description   *string           `yaml:"description"`
	Subcategories []SubcategorySpec `yaml:"subcategories"`
}

type SubcategorySpec struct {
	Slug string `yaml:"slug"`
	Name string `yaml:"name"`
}

type LabelSpec struct {
	Type        model.LabelType `yaml:"type"`
	Key         string          `yaml:"key"`
	Value       string          `yaml:"value"`
	SortOrder   int             `yaml:"sortOrder"`
	Description *string         `yaml:"description"`
}

type InstructionSpec struct {
	Key      string  `yaml:"key"`
	Title    string  `yaml:"title"`
	Body     string  `yaml:"body"`
	ImageURL *string `yaml:"imageUrl"`
}

// ChartSpec describes one chart. Subcategories are "category/subcategory"
// paths. Rows map column names to display values written in Unit.
type ChartSpec struct {
	Slug          string              `yaml:"slug"`
	Name          string              `yaml:"name"`
	Description   *string             `yaml:"description"`
	Published     bool                `yaml:"published"`
	Unit          string              `yaml:"unit"`
	Subcategories []string            `yaml:"subcategories"`
	Instructions  []string            `yaml:"instructions"`
	Columns       []ColumnSpec        `yaml:"columns"`
	Rows          []map[string]string `yaml:"rows"`
}

type ColumnSpec struct {
	Name string           `yaml:"name"`
	Type model.ColumnType `yaml:"type"`
}

// Load decodes and validates a seed file. Unknown fields are rejected and
// missing slugs are derived from names.
func Load(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	c.fillSlugs()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}
	return &c, nil
}

func (c *Catalog) fillSlugs() {
	for i := range c.Categories {
		cat := &c.Categories[i]
		if cat.Slug == "" {
			cat.Slug = utils.GenerateSlug(cat.Name)
		}
		for j := range cat.Subcategories {
			if cat.Subcategories[j].Slug == "" {
				cat.Subcategories[j].Slug = utils.GenerateSlug(cat.Subcategories[j].Name)
			}
		}
	}
	for i := range c.Charts {
		if c.Charts[i].Slug == "" {
			c.Charts[i].Slug = utils.GenerateSlug(c.Charts[i].Name)
		}
	}
}

// =====================================================
// VALIDATION
// =====================================================

var slugRules = []validation.Rule{
	validation.Required,
	validation.Length(1, 100),
	validation.Match(model.SlugPattern).Error("must be lowercase letters, digits and hyphens"),
}

func (c Catalog) Validate() error {
	paths := map[string]bool{}
	for i, cat := range c.Categories {
		if err := cat.Validate(); err != nil {
			return fmt.Errorf("categories[%d]: %w", i, err)
		}
		for _, sub := range cat.Subcategories {
			paths[cat.Slug+"/"+sub.Slug] = true
		}
	}

	seenLabels := map[string]bool{}
	for i, l := range c.Labels {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("labels[%d]: %w", i, err)
		}
		id := string(l.Type) + "/" + l.Key
		if seenLabels[id] {
			return fmt.Errorf("labels[%d]: duplicate label %s", i, id)
		}
		seenLabels[id] = true
	}

	instructions := map[string]bool{}
	for i, in := range c.Instructions {
		if err := in.Validate(); err != nil {
			return fmt.Errorf("instructions[%d]: %w", i, err)
		}
		instructions[in.Key] = true
	}

	charts := map[string]bool{}
	for i, ch := range c.Charts {
		if err := ch.Validate(); err != nil {
			return fmt.Errorf("charts[%d]: %w", i, err)
		}
		if charts[ch.Slug] {
			return fmt.Errorf("charts[%d]: duplicate slug %q", i, ch.Slug)
		}
		charts[ch.Slug] = true

		for _, p := range ch.Subcategories {
			if !paths[p] {
				return fmt.Errorf("chart %q: unknown subcategory %q", ch.Slug, p)
			}
		}
		for _, k := range ch.Instructions {
			if !instructions[k] {
				return fmt.Errorf("chart %q: unknown instruction %q", ch.Slug, k)
			}
		}
	}
	return nil
}

func (c CategorySpec) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Slug, slugRules...),
		validation.Field(&c.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&c.Subcategories, validation.By(func(interface{}) error {
			seen := map[string]bool{}
			for _, s := range c.Subcategories {
				if err := validation.Validate(s.Slug, slugRules...); err != nil {
					return fmt.Errorf("%q: %w", s.Slug, err)
				}
				if s.Name == "" {
					return fmt.Errorf("%q: name is required", s.Slug)
				}
				if seen[s.Slug] {
					return fmt.Errorf("duplicate subcategory %q", s.Slug)
				}
				seen[s.Slug] = true
			}
			return nil
		})),
	)
}

func (l LabelSpec) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Type, validation.Required, validation.By(func(interface{}) error {
			if !l.Type.Valid() {
				return fmt.Errorf("unknown label type %q", l.Type)
			}
			return nil
		})),
		validation.Field(&l.Key, validation.Required, validation.Length(1, 100)),
		validation.Field(&l.Value, validation.Required, validation.Length(1, 100)),
	)
}

func (in InstructionSpec) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Key, slugRules...),
		validation.Field(&in.Title, validation.Required),
		validation.Field(&in.Body, validation.Required),
	)
}

func (ch ChartSpec) Validate() error {
	columns := map[string]bool{}
	return validation.ValidateStruct(&ch,
		validation.Field(&ch.Slug, slugRules...),
		validation.Field(&ch.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&ch.Unit, validation.In("", string(units.Inches), string(units.Centimeters))),
		validation.Field(&ch.Columns, validation.Required, validation.By(func(interface{}) error {
			for _, col := range ch.Columns {
				if col.Name == "" {
					return fmt.Errorf("column name is required")
				}
				if !col.Type.Valid() {
					return fmt.Errorf("column %q: unknown type %q", col.Name, col.Type)
				}
				if columns[col.Name] {
					return fmt.Errorf("duplicate column %q", col.Name)
				}
				columns[col.Name] = true
			}
			return nil
		})),
		validation.Field(&ch.Rows, validation.By(func(interface{}) error {
			for i, row := range ch.Rows {
				for name := range row {
					if !columns[name] {
						return fmt.Errorf("row %d: unknown column %q", i, name)
					}
				}
			}
			return nil
		})),
	)
}

// =====================================================
// CELL PLANNING
// =====================================================

// CellPlan is the stored shape of one fixture cell.
type CellPlan struct {
	ValueInches *float64
	MinInches   *float64
	MaxInches   *float64
	Text        *string
	// LabelType and LabelKey name a label to link when one exists.
	LabelType model.LabelType
	LabelKey  string
}

var labelColumns = map[model.ColumnType]model.LabelType{
	model.ColumnSizeLabel:    model.LabelSize,
	model.ColumnRegionalSize: model.LabelRegionalSize,
	model.ColumnBandSize:     model.LabelBandSize,
	model.ColumnCupSize:      model.LabelCupSize,
	model.ColumnShoeSize:     model.LabelShoeSize,
}

// PlanCell interprets raw for a column. Measurement columns accept a range
// or a single number in unit and fall back to text. Label columns link the
// label whose key matches raw case-insensitively. ok is false for blank input.
func PlanCell(colType model.ColumnType, raw string, unit units.Unit) (plan CellPlan, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return CellPlan{}, false
	}

	if colType.IsMeasurement() {
		if lo, hi := units.ParseRange(raw, unit); lo != nil && hi != nil {
			return CellPlan{MinInches: lo, MaxInches: hi}, true
		}
		if v := units.ParseMeasurement(raw, unit); v != nil {
			return CellPlan{ValueInches: v}, true
		}
	}

	plan = CellPlan{Text: &raw}
	if lt, isLabel := labelColumns[colType]; isLabel {
		plan.LabelType = lt
		plan.LabelKey = strings.ToLower(raw)
	}
	return plan, true
}
