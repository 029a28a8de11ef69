package model

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// CellKind tags the variant carried by a Cell on the wire.
type CellKind string

const (
	CellKindLabel  CellKind = "label"
	CellKindRange  CellKind = "range"
	CellKindSingle CellKind = "single"
	CellKindText   CellKind = "text"
	CellKindEmpty  CellKind = "empty"
)

// CellValue is one of LabelCell, RangeCell, SingleCell, TextCell or EmptyCell.
type CellValue interface {
	Kind() CellKind
	isCellValue()
}

type LabelCell struct {
	Key   string
	Value string
	Type  LabelType
}

// RangeCell holds both bounds in inches.
type RangeCell struct {
	MinInches float64
	MaxInches float64
}

type SingleCell struct {
	Inches float64
}

type TextCell struct {
	Text string
}

type EmptyCell struct{}

func (LabelCell) Kind() CellKind  { return CellKindLabel }
func (RangeCell) Kind() CellKind  { return CellKindRange }
func (SingleCell) Kind() CellKind { return CellKindSingle }
func (TextCell) Kind() CellKind   { return CellKindText }
func (EmptyCell) Kind() CellKind  { return CellKindEmpty }

func (LabelCell) isCellValue()  {}
func (RangeCell) isCellValue()  {}
func (SingleCell) isCellValue() {}
func (TextCell) isCellValue()   {}
func (EmptyCell) isCellValue()  {}

// Cell places a resolved value in a column.
type Cell struct {
	ColumnID uuid.UUID
	Value    CellValue
}

// CellRecord mirrors a size_chart_cells row joined with its label.
type CellRecord struct {
	RowID       uuid.UUID
	ColumnID    uuid.UUID
	ValueInches *float64
	MinInches   *float64
	MaxInches   *float64
	TextValue   *string
	LabelID     *uuid.UUID
	LabelKey    *string
	LabelValue  *string
	LabelType   *LabelType
}

// ResolveCell picks exactly one variant from a stored cell.
// Precedence: label, then range (both bounds), then single, then non-empty
// text, then empty.
func ResolveCell(r CellRecord) CellValue {
	if r.LabelID != nil && r.LabelValue != nil {
		lc := LabelCell{Value: *r.LabelValue}
		if r.LabelKey != nil {
			lc.Key = *r.LabelKey
		}
		if r.LabelType != nil {
			lc.Type = *r.LabelType
		}
		return lc
	}
	if r.MinInches != nil && r.MaxInches != nil {
		return RangeCell{MinInches: *r.MinInches, MaxInches: *r.MaxInches}
	}
	if r.ValueInches != nil {
		return SingleCell{Inches: *r.ValueInches}
	}
	if r.TextValue != nil && *r.TextValue != "" {
		return TextCell{Text: *r.TextValue}
	}
	return EmptyCell{}
}

// =====================================================
// JSON
// =====================================================

type cellLabelJSON struct {
	Key   string    `json:"key"`
	Value string    `json:"value"`
	Type  LabelType `json:"type,omitempty"`
}

type cellJSON struct {
	ColumnID    uuid.UUID      `json:"columnId"`
	Kind        CellKind       `json:"kind"`
	ValueInches *float64       `json:"valueInches,omitempty"`
	MinInches   *float64       `json:"minInches,omitempty"`
	MaxInches   *float64       `json:"maxInches,omitempty"`
	Text        *string        `json:"text,omitempty"`
	Label       *cellLabelJSON `json:"label,omitempty"`
}

func (c Cell) MarshalJSON() ([]byte, error) {
	out := cellJSON{ColumnID: c.ColumnID, Kind: CellKindEmpty}
	switch v := c.Value.(type) {
	case LabelCell:
		out.Kind = CellKindLabel
		out.Label = &cellLabelJSON{Key: v.Key, Value: v.Value, Type: v.Type}
	case RangeCell:
		out.Kind = CellKindRange
		lo, hi := v.MinInches, v.MaxInches
		out.MinInches, out.MaxInches = &lo, &hi
	case SingleCell:
		out.Kind = CellKindSingle
		in := v.Inches
		out.ValueInches = &in
	case TextCell:
		out.Kind = CellKindText
		t := v.Text
		out.Text = &t
	}
	return json.Marshal(out)
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var in cellJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	c.ColumnID = in.ColumnID

	switch in.Kind {
	case CellKindLabel:
		if in.Label == nil {
			return fmt.Errorf("label cell without label")
		}
		c.Value = LabelCell{Key: in.Label.Key, Value: in.Label.Value, Type: in.Label.Type}
	case CellKindRange:
		if in.MinInches == nil || in.MaxInches == nil {
			return fmt.Errorf("range cell needs both bounds")
		}
		c.Value = RangeCell{MinInches: *in.MinInches, MaxInches: *in.MaxInches}
	case CellKindSingle:
		if in.ValueInches == nil {
			return fmt.Errorf("single cell without value")
		}
		c.Value = SingleCell{Inches: *in.ValueInches}
	case CellKindText:
		if in.Text == nil || *in.Text == "" {
			c.Value = EmptyCell{}
			return nil
		}
		c.Value = TextCell{Text: *in.Text}
	case CellKindEmpty, "":
		c.Value = EmptyCell{}
	default:
		return fmt.Errorf("unknown cell kind %q", in.Kind)
	}
	return nil
}
