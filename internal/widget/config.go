package widget

import (
	"errors"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"sizechart-backend/internal/domains/catalog/model"
	"sizechart-backend/pkg/units"
)

// Mount point attributes.
const (
	AttrChart       = "data-chart"
	AttrCategory    = "data-category"
	AttrSubcategory = "data-subcategory"
	AttrUnit        = "data-unit"
	AttrTheme       = "data-theme"
	AttrCompact     = "data-compact"
	AttrAPIKey      = "data-api-key"

	// AttrMarker is set once a mount point has been claimed by a scan.
	AttrMarker = "data-sc-widget"
	AttrState  = "data-sc-state"
)

// ErrMissingChart marks an element whose data-chart is absent or blank.
var ErrMissingChart = errors.New("mount point has no data-chart value")

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// MountConfig is everything a mount point declares about itself.
type MountConfig struct {
	Chart       string
	Category    string
	Subcategory string
	Unit        units.Unit
	Theme       Theme
	Compact     bool
	APIKey      string
}

// ParseMountConfig reads a mount point's attributes. Unknown unit and theme
// values fall back to their defaults; a malformed slug is an error.
func ParseMountConfig(attrs map[string]string) (MountConfig, error) {
	cfg := MountConfig{
		Chart:       strings.TrimSpace(attrs[AttrChart]),
		Category:    strings.TrimSpace(attrs[AttrCategory]),
		Subcategory: strings.TrimSpace(attrs[AttrSubcategory]),
		Unit:        units.Inches,
		Theme:       ThemeLight,
		Compact:     strings.TrimSpace(attrs[AttrCompact]) == "true",
		APIKey:      strings.TrimSpace(attrs[AttrAPIKey]),
	}
	if strings.TrimSpace(attrs[AttrUnit]) == string(units.Centimeters) {
		cfg.Unit = units.Centimeters
	}
	if strings.TrimSpace(attrs[AttrTheme]) == string(ThemeDark) {
		cfg.Theme = ThemeDark
	}

	if cfg.Chart == "" {
		return cfg, ErrMissingChart
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c MountConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Chart, validation.Required, validation.Match(model.SlugPattern)),
		validation.Field(&c.Category, validation.Match(model.SlugPattern)),
		validation.Field(&c.Subcategory, validation.Match(model.SlugPattern)),
		validation.Field(&c.Unit, validation.In(units.Inches, units.Centimeters)),
		validation.Field(&c.Theme, validation.In(ThemeLight, ThemeDark)),
	)
}

// Triple reports whether the mount addresses its chart by category,
// subcategory and slug.
func (c MountConfig) Triple() bool {
	return c.Category != "" && c.Subcategory != ""
}

// Query renders the config as fragment endpoint parameters. The API key is
// never put in a URL.
func (c MountConfig) Query() url.Values {
	q := url.Values{}
	q.Set("chart", c.Chart)
	if c.Category != "" {
		q.Set("category", c.Category)
	}
	if c.Subcategory != "" {
		q.Set("subcategory", c.Subcategory)
	}
	q.Set("unit", string(c.Unit))
	q.Set("theme", string(c.Theme))
	if c.Compact {
		q.Set("compact", "true")
	}
	return q
}
