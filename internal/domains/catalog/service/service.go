package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"sizechart-backend/internal/domains/catalog/model"
	"sizechart-backend/internal/domains/catalog/repository"
	"sizechart-backend/internal/shared"
	"sizechart-backend/pkg/cache"
)

// Cache keys
const (
	cacheKeyPublicTree  = "catalog:tree:public"
	cacheKeyChartPrefix = "catalog:chart:"
)

type Service struct {
	repo  repository.Repository
	cache cache.Cache
	ttl   time.Duration
}

// NewService builds the catalog service. c may be nil to disable caching.
func NewService(repo repository.Repository, c cache.Cache, ttl time.Duration) *Service {
	return &Service{repo: repo, cache: c, ttl: ttl}
}

var (
	_ Reader = (*Service)(nil)
	_ Admin  = (*Service)(nil)
)

// =====================================================
// CATEGORIES
// =====================================================

// PublicCategories lists categories with only the subcategories that have
// at least one published chart.
func (s *Service) PublicCategories(ctx context.Context) ([]model.CategoryResponse, error) {
	var cached []model.CategoryResponse
	if s.cacheGet(ctx, cacheKeyPublicTree, &cached) {
		return cached, nil
	}

	cats, err := s.repo.ListCategoryTree(ctx)
	if err != nil {
		return nil, shared.NewInternalError(err)
	}
	out := buildTree(cats, false)
	s.cacheSet(ctx, cacheKeyPublicTree, out)
	return out, nil
}

// AdminCategoryTree keeps empty subcategories.
func (s *Service) AdminCategoryTree(ctx context.Context) ([]model.CategoryResponse, error) {
	cats, err := s.repo.ListCategoryTree(ctx)
	if err != nil {
		return nil, shared.NewInternalError(err)
	}
	return buildTree(cats, true), nil
}

func buildTree(cats []model.Category, includeEmpty bool) []model.CategoryResponse {
	sorted := append([]model.Category(nil), cats...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DisplayOrder < sorted[j].DisplayOrder })

	out := make([]model.CategoryResponse, 0, len(sorted))
	for _, c := range sorted {
		subs := append([]model.Subcategory(nil), c.Subcategories...)
		sort.SliceStable(subs, func(i, j int) bool { return subs[i].DisplayOrder < subs[j].DisplayOrder })

		resp := model.CategoryResponse{
			Slug:          c.Slug,
			Name:          c.Name,
			Description:   c.Description,
			Subcategories: make([]model.SubcategoryResponse, 0, len(subs)),
		}
		for _, sub := range subs {
			if !includeEmpty && sub.PublishedChartCount == 0 {
				continue
			}
			resp.Subcategories = append(resp.Subcategories, model.SubcategoryResponse{
				Slug:       sub.Slug,
				Name:       sub.Name,
				ChartCount: sub.PublishedChartCount,
			})
		}
		out = append(out, resp)
	}
	return out
}

// =====================================================
// LABELS
// =====================================================

// Labels groups labels by type, ordered by sort order then key. An empty
// labelType returns every type.
func (s *Service) Labels(ctx context.Context, labelType string) (model.LabelsResponse, error) {
	var filter *model.LabelType
	if t := strings.TrimSpace(labelType); t != "" {
		lt := model.LabelType(t)
		if !lt.Valid() {
			return nil, model.NewInvalidLabelTypeError(t)
		}
		filter = &lt
	}

	labels, err := s.repo.ListLabels(ctx, filter)
	if err != nil {
		return nil, shared.NewInternalError(err)
	}

	out := make(model.LabelsResponse)
	if filter != nil {
		out[*filter] = []model.LabelResponse{}
	}
	for _, l := range labels {
		if filter != nil && l.Type != *filter {
			continue
		}
		out[l.Type] = append(out[l.Type], model.LabelResponse{
			Key:         l.Key,
			Value:       l.Value,
			SortOrder:   l.SortOrder,
			Description: l.Description,
		})
	}
	for t := range out {
		group := out[t]
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].SortOrder != group[j].SortOrder {
				return group[i].SortOrder < group[j].SortOrder
			}
			return group[i].Key < group[j].Key
		})
	}
	return out, nil
}

// =====================================================
// CHART RESOLUTION
// =====================================================

// ResolveChart finds a published chart by category, subcategory and chart
// slug. Every non-match is the same 404.
func (s *Service) ResolveChart(ctx context.Context, q model.ChartQuery) (*model.ResolvedChart, error) {
	q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, shared.FromValidation("Invalid chart query", err)
	}

	chart, hit := s.cachedChart(ctx, q.Chart)
	if !hit {
		var err error
		chart, err = s.repo.FindPublishedChartInSubcategory(ctx, q.Category, q.Subcategory, q.Chart)
		if err != nil {
			return nil, chartError(err)
		}
	}
	if !chart.IsPublished {
		return nil, model.NewChartNotFoundError()
	}

	via, ok := pickSubcategory(chart.Subcategories, q.Category, q.Subcategory)
	if !ok {
		return nil, model.NewChartNotFoundError()
	}
	if !hit {
		s.cacheSet(ctx, cacheKeyChartPrefix+chart.Slug, chart)
	}
	return model.NewResolvedChart(chart, via), nil
}

// LookupChart finds a published chart by its own slug. Optional category
// and subcategory narrow which link is reported; a narrowing that matches
// none of the links is a 404.
func (s *Service) LookupChart(ctx context.Context, q model.ChartLookup) (*model.ResolvedChart, error) {
	q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, shared.FromValidation("Invalid chart query", err)
	}

	chart, err := s.publishedChart(ctx, q.Slug)
	if err != nil {
		return nil, err
	}

	narrowed := q.Category != "" || q.Subcategory != ""
	via, ok := pickSubcategory(chart.Subcategories, q.Category, q.Subcategory)
	if !ok && narrowed {
		return nil, model.NewChartNotFoundError()
	}
	return model.NewResolvedChart(chart, via), nil
}

// ChartInstructions returns the measuring instructions of a published chart.
func (s *Service) ChartInstructions(ctx context.Context, slug string) ([]model.InstructionResponse, error) {
	q := model.ChartLookup{Slug: slug}
	q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, shared.FromValidation("Invalid chart slug", err)
	}

	chart, err := s.publishedChart(ctx, q.Slug)
	if err != nil {
		return nil, err
	}

	list, err := s.repo.ListChartInstructions(ctx, chart.ID)
	if err != nil {
		return nil, shared.NewInternalError(err)
	}
	out := make([]model.InstructionResponse, 0, len(list))
	for _, mi := range list {
		out = append(out, model.InstructionResponse{
			Key:          mi.Key,
			Title:        mi.Title,
			Body:         mi.Body,
			ImageURL:     mi.ImageURL,
			DisplayOrder: mi.DisplayOrder,
		})
	}
	return out, nil
}

// publishedChart loads a chart by slug through the cache.
func (s *Service) publishedChart(ctx context.Context, slug string) (*model.SizeChart, error) {
	if chart, ok := s.cachedChart(ctx, slug); ok {
		return chart, nil
	}

	chart, err := s.repo.FindPublishedChartBySlug(ctx, slug)
	if err != nil {
		return nil, chartError(err)
	}
	if !chart.IsPublished {
		return nil, model.NewChartNotFoundError()
	}
	s.cacheSet(ctx, cacheKeyChartPrefix+chart.Slug, chart)
	return chart, nil
}

// pickSubcategory returns the first link matching the non-empty filters.
// Links are already in category then subcategory order.
func pickSubcategory(refs []model.SubcategoryRef, category, subcategory string) (model.SubcategoryRef, bool) {
	for _, ref := range refs {
		if category != "" && ref.CategorySlug != category {
			continue
		}
		if subcategory != "" && ref.Slug != subcategory {
			continue
		}
		return ref, true
	}
	return model.SubcategoryRef{}, false
}

func chartError(err error) error {
	if errors.Is(err, model.ErrChartNotFound) {
		return model.NewChartNotFoundError()
	}
	return shared.NewInternalError(err)
}

// =====================================================
// CACHE
// =====================================================

func (s *Service) cachedChart(ctx context.Context, slug string) (*model.SizeChart, bool) {
	var chart model.SizeChart
	if !s.cacheGet(ctx, cacheKeyChartPrefix+slug, &chart) || !chart.IsPublished {
		return nil, false
	}
	return &chart, true
}

func (s *Service) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Catalog cache read failed")
		return false
	}
	return found
}

func (s *Service) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Catalog cache write failed")
	}
}

// Invalidate drops every cached catalog entry.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.DeletePattern(ctx, "catalog:*")
}
