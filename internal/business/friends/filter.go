package friends

import (
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/weiwei-tsao/friendsfeed/internal/platform/apperr"
	"github.com/weiwei-tsao/friendsfeed/pkg/model"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateFilters checks sortBy against the known orders and that the price
// range is well formed.
func ValidateFilters(f model.FeedFilters) error {
	if err := validate.Struct(f); err != nil {
		return apperr.Validation("invalid sortBy; expected one of relevance, price_asc, price_desc, rating, newest")
	}
	pr := f.PriceRange
	if (pr.Min != nil && *pr.Min < 0) || (pr.Max != nil && *pr.Max < 0) {
		return apperr.Validation("price range bounds must not be negative")
	}
	if pr.Min != nil && pr.Max != nil && *pr.Min > *pr.Max {
		return apperr.Validation("price range min must not exceed max")
	}
	return nil
}

// ApplyFilters returns the products that match f, ordered by f.SortBy.
// The input slice is not modified.
func ApplyFilters(products []model.CombinedProduct, f model.FeedFilters) []model.CombinedProduct {
	categories := lowerSet(f.Categories)
	brands := lowerSet(f.Brands)

	out := make([]model.CombinedProduct, 0, len(products))
	for _, p := range products {
		if f.PriceRange.Min != nil && p.Price < *f.PriceRange.Min {
			continue
		}
		if f.PriceRange.Max != nil && p.Price > *f.PriceRange.Max {
			continue
		}
		if len(categories) > 0 {
			if _, ok := categories[strings.ToLower(p.Category)]; !ok {
				continue
			}
		}
		if len(brands) > 0 {
			if _, ok := brands[strings.ToLower(p.Brand)]; !ok {
				continue
			}
		}
		out = append(out, p)
	}

	var less func(i, j int) bool
	switch f.SortBy {
	case model.SortPriceAsc:
		less = func(i, j int) bool { return out[i].Price < out[j].Price }
	case model.SortPriceDesc:
		less = func(i, j int) bool { return out[i].Price > out[j].Price }
	case model.SortRating:
		less = func(i, j int) bool {
			return out[i].AggregatedData.AverageRating > out[j].AggregatedData.AverageRating
		}
	case model.SortNewest:
		less = func(i, j int) bool { return out[i].LastActivityAt.After(out[j].LastActivityAt) }
	default:
		less = func(i, j int) bool { return out[i].RelevanceScore > out[j].RelevanceScore }
	}
	sort.SliceStable(out, less)
	return out
}

// FeedPage is one page of a feed's filtered products.
type FeedPage struct {
	Feed          model.Feed              `json:"-"`
	Products      []model.CombinedProduct `json:"-"`
	Page          int                     `json:"current"`
	TotalPages    int                     `json:"total"`
	Count         int                     `json:"count"`
	TotalProducts int                     `json:"totalProducts"`
}

// Paginate slices products into the requested 1-based page.
func Paginate(products []model.CombinedProduct, page, limit int) FeedPage {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}
	total := len(products)
	totalPages := (total + limit - 1) / limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := total
	if page <= totalPages {
		start = (page - 1) * limit
	}
	end := start + limit
	if end > total {
		end = total
	}
	slice := products[start:end]
	return FeedPage{
		Products:      slice,
		Page:          page,
		TotalPages:    totalPages,
		Count:         len(slice),
		TotalProducts: total,
	}
}

func lowerSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
