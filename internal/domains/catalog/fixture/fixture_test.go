package fixture

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sizechart-backend/internal/domains/catalog/model"
	"sizechart-backend/pkg/units"
)

func TestLoadSampleCatalog(t *testing.T) {
	f, err := os.Open("testdata/catalog.yaml")
	require.NoError(t, err)
	defer f.Close()

	c, err := Load(f)
	require.NoError(t, err)

	require.Len(t, c.Categories, 2)
	assert.Len(t, c.Categories[0].Subcategories, 2)
	assert.Len(t, c.Labels, 4)
	require.Len(t, c.Charts, 2)
	assert.Equal(t, []string{"tops/t-shirts", "tops/tanks"}, c.Charts[0].Subcategories)
	assert.Equal(t, "34 - 36", c.Charts[0].Rows[0]["Chest"])
	assert.False(t, c.Charts[1].Published)
}

func TestLoadDerivesSlugs(t *testing.T) {
	c, err := Load(strings.NewReader(`
categories:
  - name: Women's Tops
    subcategories:
      - name: Crème Tees
charts:
  - name: Relaxed Fit Tee
    subcategories: [womens-tops/creme-tees]
    columns: [{name: Size, type: size_label}]
`))
	require.NoError(t, err)
	assert.Equal(t, "womens-tops", c.Categories[0].Slug)
	assert.Equal(t, "creme-tees", c.Categories[0].Subcategories[0].Slug)
	assert.Equal(t, "relaxed-fit-tee", c.Charts[0].Slug)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "categories:\n  - slug: tops\n    name: Tops\n    colour: red\n",
			want: "colour",
		},
		{
			name: "bad slug",
			yaml: "categories:\n  - slug: Tops!\n    name: Tops\n",
			want: "categories[0]",
		},
		{
			name: "unknown label type",
			yaml: "labels:\n  - {type: colour, key: r, value: Red}\n",
			want: "labels[0]",
		},
		{
			name: "dangling subcategory",
			yaml: "charts:\n  - slug: tee\n    name: Tee\n    subcategories: [tops/t-shirts]\n    columns: [{name: Size, type: size_label}]\n",
			want: "unknown subcategory",
		},
		{
			name: "row with unknown column",
			yaml: "charts:\n  - slug: tee\n    name: Tee\n    columns: [{name: Size, type: size_label}]\n    rows: [{Chest: \"30\"}]\n",
			want: "unknown column",
		},
		{
			name: "bad unit",
			yaml: "charts:\n  - slug: tee\n    name: Tee\n    unit: mm\n    columns: [{name: Size, type: size_label}]\n",
			want: "charts[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPlanCell(t *testing.T) {
	p, ok := PlanCell(model.ColumnMeasurement, "34 - 36", units.Inches)
	require.True(t, ok)
	assert.Equal(t, 34.0, *p.MinInches)
	assert.Equal(t, 36.0, *p.MaxInches)
	assert.Nil(t, p.ValueInches)

	p, ok = PlanCell(model.ColumnMeasurement, "76.2", units.Centimeters)
	require.True(t, ok)
	assert.Equal(t, 30.0, *p.ValueInches)

	p, ok = PlanCell(model.ColumnMeasurement, "n/a", units.Inches)
	require.True(t, ok)
	assert.Equal(t, "n/a", *p.Text)
	assert.Empty(t, p.LabelKey)

	p, ok = PlanCell(model.ColumnSizeLabel, "M", units.Inches)
	require.True(t, ok)
	assert.Equal(t, model.LabelSize, p.LabelType)
	assert.Equal(t, "m", p.LabelKey)
	assert.Equal(t, "M", *p.Text)

	_, ok = PlanCell(model.ColumnText, "  ", units.Inches)
	assert.False(t, ok)
}
