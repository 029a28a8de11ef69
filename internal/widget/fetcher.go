package widget

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sizechart-backend/internal/domains/apikey/model"
	apikeyservice "sizechart-backend/internal/domains/apikey/service"
	catalogmodel "sizechart-backend/internal/domains/catalog/model"
	catalogservice "sizechart-backend/internal/domains/catalog/service"
	"sizechart-backend/internal/shared"
)

// ChartFetcher loads the chart a mount point asks for.
type ChartFetcher interface {
	FetchChart(ctx context.Context, cfg MountConfig) (*catalogmodel.ResolvedChart, error)
}

// FetchError is a non-success answer from the read API.
type FetchError struct {
	Status  int
	Message string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch chart: %d %s", e.Status, e.Message)
}

const maxChartBody = 2 << 20

// =====================================================
// HTTP FETCHER
// =====================================================

// HTTPFetcher calls the public read API over HTTP.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPFetcher targets baseURL. A nil client gets a 15s timeout client.
func NewHTTPFetcher(baseURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPFetcher{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (f *HTTPFetcher) chartURL(cfg MountConfig) string {
	q := url.Values{}
	if cfg.Triple() {
		q.Set("category", cfg.Category)
		q.Set("subcategory", cfg.Subcategory)
		q.Set("chart", cfg.Chart)
		return f.baseURL + "/public/size-charts?" + q.Encode()
	}

	u := f.baseURL + "/v1/size-charts/" + url.PathEscape(cfg.Chart)
	if cfg.Category != "" {
		q.Set("category", cfg.Category)
	}
	if cfg.Subcategory != "" {
		q.Set("subcategory", cfg.Subcategory)
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (f *HTTPFetcher) FetchChart(ctx context.Context, cfg MountConfig) (*catalogmodel.ResolvedChart, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.chartURL(cfg), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxChartBody))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Status: resp.StatusCode, Message: errorMessageFromBody(resp.StatusCode, body)}
	}

	var chart catalogmodel.ResolvedChart
	if err := json.Unmarshal(body, &chart); err != nil || chart.Slug == "" {
		return nil, &FetchError{Status: resp.StatusCode, Message: "Malformed chart response"}
	}
	return &chart, nil
}

func errorMessageFromBody(status int, body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Unexpected response"
}

// =====================================================
// SERVICE FETCHER
// =====================================================

// ServiceFetcher resolves charts in process, applying the same key rules
// as the HTTP pipeline.
type ServiceFetcher struct {
	reader      catalogservice.Reader
	auth        apikeyservice.Authenticator
	keyRequired bool
}

// NewServiceFetcher builds an in-process fetcher. auth may be nil when keys
// are never checked.
func NewServiceFetcher(reader catalogservice.Reader, auth apikeyservice.Authenticator, keyRequired bool) *ServiceFetcher {
	return &ServiceFetcher{reader: reader, auth: auth, keyRequired: keyRequired}
}

func (f *ServiceFetcher) FetchChart(ctx context.Context, cfg MountConfig) (*catalogmodel.ResolvedChart, error) {
	if err := f.authorize(ctx, cfg.APIKey); err != nil {
		return nil, toFetchError(err)
	}

	var (
		chart *catalogmodel.ResolvedChart
		err   error
	)
	if cfg.Triple() {
		chart, err = f.reader.ResolveChart(ctx, catalogmodel.ChartQuery{
			Category:    cfg.Category,
			Subcategory: cfg.Subcategory,
			Chart:       cfg.Chart,
		})
	} else {
		chart, err = f.reader.LookupChart(ctx, catalogmodel.ChartLookup{
			Slug:        cfg.Chart,
			Category:    cfg.Category,
			Subcategory: cfg.Subcategory,
		})
	}
	if err != nil {
		return nil, toFetchError(err)
	}
	return chart, nil
}

func (f *ServiceFetcher) authorize(ctx context.Context, raw string) error {
	if f.auth == nil || (raw == "" && !f.keyRequired) {
		return nil
	}

	key, err := f.auth.Validate(ctx, raw)
	if err != nil {
		if f.keyRequired {
			return err
		}
		return nil
	}
	if err := f.auth.Authorize(key, model.ScopeReadSizeCharts); err != nil {
		return err
	}
	f.auth.RecordUsage(ctx, key)
	return nil
}

func toFetchError(err error) error {
	appErr := shared.AsAppError(err)
	return &FetchError{Status: appErr.HTTPStatus, Message: appErr.Message}
}
