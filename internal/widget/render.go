package widget

import (
	"bytes"
	"fmt"
	"html/template"

	"sizechart-backend/internal/domains/catalog/model"
	"sizechart-backend/pkg/units"
)

type palette struct {
	Background string
	Foreground string
	HeaderBg   string
	Border     string
	Muted      string
	Error      string
}

var palettes = map[Theme]palette{
	ThemeLight: {
		Background: "#ffffff",
		Foreground: "#1f2937",
		HeaderBg:   "#f3f4f6",
		Border:     "#e5e7eb",
		Muted:      "#6b7280",
		Error:      "#b91c1c",
	},
	ThemeDark: {
		Background: "#111827",
		Foreground: "#f9fafb",
		HeaderBg:   "#1f2937",
		Border:     "#374151",
		Muted:      "#9ca3af",
		Error:      "#fca5a5",
	},
}

const widgetTemplates = `
{{define "table"}}<div class="scw-root scw-{{.Theme}}{{if .Compact}} scw-compact{{end}}" style="{{.RootStyle}}">
<table class="scw-table" style="{{.TableStyle}}">
<caption class="scw-title" style="{{.CaptionStyle}}">{{.Title}}</caption>
<thead><tr>{{range .Headers}}<th class="scw-th" scope="col" style="{{$.HeadStyle}}">{{.}}</th>{{end}}</tr></thead>
<tbody>{{range .Rows}}<tr class="scw-tr">{{range .}}<td class="scw-td" style="{{$.CellStyle}}">{{.}}</td>{{end}}</tr>{{end}}</tbody>
</table></div>{{end}}
{{define "loading"}}<div class="scw-root scw-loading" style="{{.Style}}">Loading size chart...</div>{{end}}
{{define "error"}}<div class="scw-root scw-error" role="alert" style="{{.Style}}">{{.Message}}</div>{{end}}
`

var templates = template.Must(template.New("widget").Parse(widgetTemplates))

type tableView struct {
	Theme        Theme
	Compact      bool
	Title        string
	Headers      []string
	Rows         [][]string
	RootStyle    template.CSS
	TableStyle   template.CSS
	CaptionStyle template.CSS
	HeadStyle    template.CSS
	CellStyle    template.CSS
}

type messageView struct {
	Style   template.CSS
	Message string
}

// Renderer paints charts as scoped HTML tables. Every rule is inlined and
// every class carries the scw- prefix.
type Renderer struct{}

func NewRenderer() *Renderer { return &Renderer{} }

func (r *Renderer) Render(chart *model.ResolvedChart, cfg MountConfig) (template.HTML, error) {
	p := paletteFor(cfg.Theme)
	padding, fontSize := "8px 12px", "14px"
	if cfg.Compact {
		padding, fontSize = "4px 6px", "12px"
	}

	view := tableView{
		Theme:   cfg.Theme,
		Compact: cfg.Compact,
		Title:   chart.Name,
		RootStyle: template.CSS(fmt.Sprintf(
			"all:initial;display:block;font-family:system-ui,sans-serif;font-size:%s;color:%s;background:%s;",
			fontSize, p.Foreground, p.Background)),
		TableStyle:   "border-collapse:collapse;width:100%;",
		CaptionStyle: template.CSS(fmt.Sprintf("text-align:left;font-weight:600;padding:%s;", padding)),
		HeadStyle: template.CSS(fmt.Sprintf(
			"text-align:left;padding:%s;background:%s;border-bottom:1px solid %s;",
			padding, p.HeaderBg, p.Border)),
		CellStyle: template.CSS(fmt.Sprintf("padding:%s;border-bottom:1px solid %s;", padding, p.Border)),
	}

	for _, col := range chart.Columns {
		view.Headers = append(view.Headers, headerText(col, cfg.Unit))
	}
	for _, row := range chart.Rows {
		byCol := make(map[string]model.CellValue, len(row.Cells))
		for _, cell := range row.Cells {
			byCol[cell.ColumnID.String()] = cell.Value
		}
		cells := make([]string, 0, len(chart.Columns))
		for _, col := range chart.Columns {
			cells = append(cells, FormatCell(byCol[col.ID.String()], cfg.Unit))
		}
		view.Rows = append(view.Rows, cells)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "table", view); err != nil {
		return "", fmt.Errorf("render chart %s: %w", chart.Slug, err)
	}
	return template.HTML(buf.String()), nil
}

func (r *Renderer) Loading(cfg MountConfig) template.HTML {
	p := paletteFor(cfg.Theme)
	return r.message("loading", messageView{
		Style: template.CSS(fmt.Sprintf("all:initial;display:block;font-family:system-ui,sans-serif;color:%s;padding:8px;", p.Muted)),
	})
}

func (r *Renderer) Error(cfg MountConfig, message string) template.HTML {
	p := paletteFor(cfg.Theme)
	return r.message("error", messageView{
		Style:   template.CSS(fmt.Sprintf("all:initial;display:block;font-family:system-ui,sans-serif;color:%s;padding:8px;", p.Error)),
		Message: message,
	})
}

func (r *Renderer) message(name string, view messageView) template.HTML {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, view); err != nil {
		return ""
	}
	return template.HTML(buf.String())
}

func paletteFor(t Theme) palette {
	if p, ok := palettes[t]; ok {
		return p
	}
	return palettes[ThemeLight]
}

func headerText(col model.Column, unit units.Unit) string {
	if col.Type.IsMeasurement() {
		return fmt.Sprintf("%s (%s)", col.Name, unit)
	}
	return col.Name
}

// FormatCell renders one cell in unit. Missing cells render the placeholder.
func FormatCell(v model.CellValue, unit units.Unit) string {
	switch c := v.(type) {
	case model.LabelCell:
		if c.Value == "" {
			return units.Placeholder
		}
		return c.Value
	case model.RangeCell:
		lo, hi := c.MinInches, c.MaxInches
		return units.FormatRange(&lo, &hi, unit)
	case model.SingleCell:
		in := c.Inches
		return units.FormatMeasurement(&in, unit)
	case model.TextCell:
		if c.Text == "" {
			return units.Placeholder
		}
		return c.Text
	default:
		return units.Placeholder
	}
}
