package widget

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/robertkrimen/otto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sizechart-backend/internal/domains/catalog/model"
	"sizechart-backend/pkg/units"
)

// =====================================================
// BROWSER UNIT HELPERS
// =====================================================

func newUnitsVM(t *testing.T) *otto.Otto {
	t.Helper()
	vm := otto.New()
	_, err := vm.Run(string(unitsScript))
	require.NoError(t, err)
	return vm
}

func runJS(t *testing.T, vm *otto.Otto, src string) string {
	t.Helper()
	v, err := vm.Run(src)
	require.NoError(t, err, src)
	s, err := v.ToString()
	require.NoError(t, err)
	return s
}

// jsFormatCell feeds the cell to the browser formatter in its wire form.
func jsFormatCell(t *testing.T, vm *otto.Otto, value model.CellValue, unit units.Unit) string {
	t.Helper()
	arg := "null"
	if value != nil {
		data, err := json.Marshal(model.Cell{ColumnID: uuid.New(), Value: value})
		require.NoError(t, err)
		arg = string(data)
	}
	return runJS(t, vm, fmt.Sprintf("SizeChartUnits.formatCell(%s, %q)", arg, string(unit)))
}

func TestBrowserFormatterMatchesServer(t *testing.T) {
	vm := newUnitsVM(t)

	tests := []struct {
		name  string
		value model.CellValue
		unit  units.Unit
		want  string
	}{
		{"two decimal inches stay as stored", model.SingleCell{Inches: 30.25}, units.Inches, "30.25"},
		{"two decimal inches in cm", model.SingleCell{Inches: 30.25}, units.Centimeters, "76.8"},
		{"whole inches", model.SingleCell{Inches: 40}, units.Inches, "40"},
		{"whole inches in cm", model.SingleCell{Inches: 40}, units.Centimeters, "101.6"},
		{"half tenth rounds away from zero", model.SingleCell{Inches: 2.5}, units.Centimeters, "6.4"},
		{"zero", model.SingleCell{Inches: 0}, units.Centimeters, "0"},
		{"range in inches", model.RangeCell{MinInches: 30.25, MaxInches: 32.75}, units.Inches, "30.25 - 32.75"},
		{"range in cm", model.RangeCell{MinInches: 30.25, MaxInches: 32.75}, units.Centimeters, "76.8 - 83.2"},
		{"whole range", model.RangeCell{MinInches: 30, MaxInches: 32}, units.Centimeters, "76.2 - 81.3"},
		{"label", model.LabelCell{Key: "m", Value: "M", Type: model.LabelSize}, units.Centimeters, "M"},
		{"empty label", model.LabelCell{Key: "m"}, units.Inches, "-"},
		{"text", model.TextCell{Text: "Regular"}, units.Inches, "Regular"},
		{"empty", model.EmptyCell{}, units.Centimeters, "-"},
		{"missing cell", nil, units.Inches, "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCell(tt.value, tt.unit), "server")
			assert.Equal(t, tt.want, jsFormatCell(t, vm, tt.value, tt.unit), "browser")
		})
	}
}

func TestBrowserConversionMatchesServer(t *testing.T) {
	vm := newUnitsVM(t)

	for i := 0; i <= 6000; i += 7 {
		in := float64(i) / 100
		want := units.FormatMeasurement(&in, units.Centimeters)
		got := runJS(t, vm, fmt.Sprintf("SizeChartUnits.formatMeasurement(%v, \"cm\")", in))
		require.Equal(t, want, got, "%v in", in)
	}
}

func TestBrowserFormatterPlaceholders(t *testing.T) {
	vm := newUnitsVM(t)

	assert.Equal(t, "-", runJS(t, vm, `SizeChartUnits.formatMeasurement(null, "in")`))
	assert.Equal(t, "-", runJS(t, vm, `SizeChartUnits.formatMeasurement(Infinity, "cm")`))
	assert.Equal(t, "-", runJS(t, vm, `SizeChartUnits.formatRange(30, undefined, "in")`))
	assert.Equal(t, "-", runJS(t, vm, `SizeChartUnits.formatRange(NaN, 32, "cm")`))
	assert.Equal(t, "0", runJS(t, vm, `SizeChartUnits.inchesToCm(NaN)`))
}

func TestScriptBundlesUnitsFirst(t *testing.T) {
	body := string(Script())

	unitsAt := strings.Index(body, "var SizeChartUnits")
	runtimeAt := strings.Index(body, "window.SizeChartWidget")
	require.GreaterOrEqual(t, unitsAt, 0)
	require.GreaterOrEqual(t, runtimeAt, 0)
	assert.Less(t, unitsAt, runtimeAt)
	assert.Contains(t, body, "units.formatCell(")
}
