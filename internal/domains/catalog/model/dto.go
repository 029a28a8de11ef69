package model

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// SlugPattern is the shape of every public identifier.
var SlugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

const maxSlugLength = 100

func slugRules(required bool) []validation.Rule {
	rules := []validation.Rule{
		validation.Length(1, maxSlugLength),
		validation.Match(SlugPattern).Error("must be lowercase letters, digits and hyphens"),
	}
	if required {
		rules = append([]validation.Rule{validation.Required}, rules...)
	}
	return rules
}

// =====================================================
// REQUEST DTOs
// =====================================================

// ChartQuery addresses a chart by category, subcategory and chart slug.
type ChartQuery struct {
	Category    string `form:"category"`
	Subcategory string `form:"subcategory"`
	Chart       string `form:"chart"`
}

func (q *ChartQuery) Normalize() {
	q.Category = strings.TrimSpace(q.Category)
	q.Subcategory = strings.TrimSpace(q.Subcategory)
	q.Chart = strings.TrimSpace(q.Chart)
}

func (q ChartQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Category, slugRules(true)...),
		validation.Field(&q.Subcategory, slugRules(true)...),
		validation.Field(&q.Chart, slugRules(true)...),
	)
}

// ChartLookup addresses a chart by its own slug. Category and subcategory
// optionally narrow which of the chart's links is reported.
type ChartLookup struct {
	Slug        string `form:"-"`
	Category    string `form:"category"`
	Subcategory string `form:"subcategory"`
}

func (q *ChartLookup) Normalize() {
	q.Slug = strings.TrimSpace(q.Slug)
	q.Category = strings.TrimSpace(q.Category)
	q.Subcategory = strings.TrimSpace(q.Subcategory)
}

func (q ChartLookup) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Slug, slugRules(true)...),
		validation.Field(&q.Category, slugRules(false)...),
		validation.Field(&q.Subcategory, slugRules(false)...),
	)
}

// =====================================================
// RESPONSE DTOs
// =====================================================

type CategoryResponse struct {
	Slug          string                `json:"slug"`
	Name          string                `json:"name"`
	Description   *string               `json:"description"`
	Subcategories []SubcategoryResponse `json:"subcategories"`
}

type SubcategoryResponse struct {
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	ChartCount int    `json:"chartCount"`
}

type LabelResponse struct {
	Key         string  `json:"key"`
	Value       string  `json:"value"`
	SortOrder   int     `json:"sortOrder"`
	Description *string `json:"description"`
}

// LabelsResponse groups labels by type.
type LabelsResponse map[LabelType][]LabelResponse

type InstructionResponse struct {
	Key          string  `json:"key"`
	Title        string  `json:"title"`
	Body         string  `json:"body"`
	ImageURL     *string `json:"imageUrl"`
	DisplayOrder int     `json:"displayOrder"`
}

type NamedSlug struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// ResolvedChart is the public representation of a published chart.
type ResolvedChart struct {
	ID            uuid.UUID        `json:"id"`
	Slug          string           `json:"slug"`
	Name          string           `json:"name"`
	Description   *string          `json:"description"`
	Category      NamedSlug        `json:"category"`
	Subcategory   NamedSlug        `json:"subcategory"`
	Subcategories []SubcategoryRef `json:"subcategories"`
	Columns       []Column         `json:"columns"`
	Rows          []Row            `json:"rows"`
	Instructions  []InstructionRef `json:"instructions"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// NewResolvedChart reports the chart under the given subcategory link.
func NewResolvedChart(chart *SizeChart, via SubcategoryRef) *ResolvedChart {
	subs := chart.Subcategories
	if subs == nil {
		subs = []SubcategoryRef{}
	}
	instr := chart.Instructions
	if instr == nil {
		instr = []InstructionRef{}
	}
	cols := chart.Columns
	if cols == nil {
		cols = []Column{}
	}
	rows := chart.Rows
	if rows == nil {
		rows = []Row{}
	}
	return &ResolvedChart{
		ID:            chart.ID,
		Slug:          chart.Slug,
		Name:          chart.Name,
		Description:   chart.Description,
		Category:      NamedSlug{Slug: via.CategorySlug, Name: via.CategoryName},
		Subcategory:   NamedSlug{Slug: via.Slug, Name: via.Name},
		Subcategories: subs,
		Columns:       cols,
		Rows:          rows,
		Instructions:  instr,
		UpdatedAt:     chart.UpdatedAt,
	}
}

// ColumnIndex returns the position of each column by ID.
func (c *ResolvedChart) ColumnIndex() map[uuid.UUID]Column {
	idx := make(map[uuid.UUID]Column, len(c.Columns))
	for _, col := range c.Columns {
		idx[col.ID] = col
	}
	return idx
}
