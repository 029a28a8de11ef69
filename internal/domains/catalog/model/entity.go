package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// =====================================================
// ENUMS
// =====================================================

// ColumnType describes what a size chart column holds.
type ColumnType string

const (
	ColumnMeasurement  ColumnType = "measurement"
	ColumnSizeLabel    ColumnType = "size_label"
	ColumnRegionalSize ColumnType = "regional_size"
	ColumnBandSize     ColumnType = "band_size"
	ColumnCupSize      ColumnType = "cup_size"
	ColumnShoeSize     ColumnType = "shoe_size"
	ColumnText         ColumnType = "text"
)

func (t ColumnType) Valid() bool {
	switch t {
	case ColumnMeasurement, ColumnSizeLabel, ColumnRegionalSize, ColumnBandSize,
		ColumnCupSize, ColumnShoeSize, ColumnText:
		return true
	}
	return false
}

// IsMeasurement reports whether values in the column are inch based.
func (t ColumnType) IsMeasurement() bool {
	return t == ColumnMeasurement
}

// LabelType groups reusable labels.
type LabelType string

const (
	LabelSize         LabelType = "size"
	LabelRegionalSize LabelType = "regional_size"
	LabelBandSize     LabelType = "band_size"
	LabelCupSize      LabelType = "cup_size"
	LabelShoeSize     LabelType = "shoe_size"
	LabelFit          LabelType = "fit"
	LabelOther        LabelType = "other"
)

// LabelTypes lists every label type in display order.
var LabelTypes = []LabelType{
	LabelSize, LabelRegionalSize, LabelBandSize, LabelCupSize, LabelShoeSize, LabelFit, LabelOther,
}

func (t LabelType) Valid() bool {
	for _, lt := range LabelTypes {
		if lt == t {
			return true
		}
	}
	return false
}

// =====================================================
// CATEGORY HIERARCHY
// =====================================================

type Category struct {
	ID            uuid.UUID
	Slug          string
	Name          string
	Description   *string
	DisplayOrder  int
	Subcategories []Subcategory
}

type Subcategory struct {
	ID                  uuid.UUID
	CategoryID          uuid.UUID
	Slug                string
	Name                string
	DisplayOrder        int
	PublishedChartCount int
}

// =====================================================
// SIZE CHART
// =====================================================

// SizeChart is a read-only snapshot of a chart with its table resolved.
type SizeChart struct {
	ID            uuid.UUID        `json:"id"`
	Slug          string           `json:"slug"`
	Name          string           `json:"name"`
	Description   *string          `json:"description,omitempty"`
	IsPublished   bool             `json:"isPublished"`
	Columns       []Column         `json:"columns"`
	Rows          []Row            `json:"rows"`
	Subcategories []SubcategoryRef `json:"subcategories"`
	Instructions  []InstructionRef `json:"instructions"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

type Column struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Type         ColumnType `json:"type"`
	DisplayOrder int        `json:"displayOrder"`
}

type Row struct {
	ID           uuid.UUID `json:"id"`
	DisplayOrder int       `json:"displayOrder"`
	Cells        []Cell    `json:"cells"`
}

// SubcategoryRef links a chart to one subcategory and its parent category.
type SubcategoryRef struct {
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	CategorySlug string `json:"categorySlug"`
	CategoryName string `json:"categoryName"`
}

type InstructionRef struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// =====================================================
// LABELS & INSTRUCTIONS
// =====================================================

type Label struct {
	ID          uuid.UUID
	Type        LabelType
	Key         string
	Value       string
	SortOrder   int
	Description *string
}

type MeasurementInstruction struct {
	ID           uuid.UUID
	Key          string
	Title        string
	Body         string
	ImageURL     *string
	DisplayOrder int
}

// =====================================================
// TABLE ASSEMBLY
// =====================================================

// RowRecord is a stored row before its cells are attached.
type RowRecord struct {
	ID           uuid.UUID
	DisplayOrder int
}

// AssembleTable orders columns and rows by display order and lays out one
// cell per column for every row. Missing cells become EmptyCell so column
// order is preserved end to end.
func AssembleTable(columns []Column, rows []RowRecord, cells []CellRecord) ([]Column, []Row) {
	cols := append([]Column(nil), columns...)
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].DisplayOrder < cols[j].DisplayOrder })

	recs := append([]RowRecord(nil), rows...)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].DisplayOrder < recs[j].DisplayOrder })

	byRow := make(map[uuid.UUID]map[uuid.UUID]CellRecord, len(recs))
	for _, c := range cells {
		m, ok := byRow[c.RowID]
		if !ok {
			m = make(map[uuid.UUID]CellRecord)
			byRow[c.RowID] = m
		}
		m[c.ColumnID] = c
	}

	out := make([]Row, 0, len(recs))
	for _, r := range recs {
		row := Row{ID: r.ID, DisplayOrder: r.DisplayOrder, Cells: make([]Cell, 0, len(cols))}
		for _, col := range cols {
			rec, ok := byRow[r.ID][col.ID]
			if !ok {
				row.Cells = append(row.Cells, Cell{ColumnID: col.ID, Value: EmptyCell{}})
				continue
			}
			row.Cells = append(row.Cells, Cell{ColumnID: col.ID, Value: ResolveCell(rec)})
		}
		out = append(out, row)
	}
	return cols, out
}
