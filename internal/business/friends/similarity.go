package friends

import (
	"context"

	"github.com/weiwei-tsao/friendsfeed/internal/platform/apperr"
	"github.com/weiwei-tsao/friendsfeed/pkg/model"
)

const (
	DefaultSimilarLimit = 5
	MaxSimilarLimit     = 50
)

// Catalog is the product catalog consumed by the similarity lookup.
type Catalog interface {
	// FindByID returns the product, or nil when it does not exist.
	FindByID(ctx context.Context, id string) (*model.Product, error)
	// FindSimilar returns up to limit products, other than target, that share its
	// category or brand or are priced within ±20% of it, in catalog order.
	FindSimilar(ctx context.Context, target model.Product, limit int) ([]model.Product, error)
}

// SimilarityFinder answers "similar products" queries scoped to a user's feed.
type SimilarityFinder struct {
	catalog Catalog
	feeds   FeedStore
}

func NewSimilarityFinder(catalog Catalog, feeds FeedStore) *SimilarityFinder {
	return &SimilarityFinder{catalog: catalog, feeds: feeds}
}

// SimilarProducts returns up to limit catalog neighbours of productID that are
// also part of feed. A product outside the feed yields an empty result.
func (f *SimilarityFinder) SimilarProducts(ctx context.Context, feed model.Feed, productID string, limit int) ([]model.Product, error) {
	limit = clampSimilarLimit(limit)
	if !feed.HasProduct(productID) {
		return []model.Product{}, nil
	}

	target, err := f.catalog.FindByID(ctx, productID)
	if err != nil {
		return nil, apperr.Persistence("load target product", err)
	}
	if target == nil {
		return []model.Product{}, nil
	}

	// fetch extra candidates since many fall outside the feed
	candidates, err := f.catalog.FindSimilar(ctx, *target, limit*2)
	if err != nil {
		return nil, apperr.Persistence("query similar products", err)
	}

	inFeed := make(map[string]struct{}, len(feed.CombinedProducts))
	for _, p := range feed.CombinedProducts {
		inFeed[p.ProductID] = struct{}{}
	}
	out := make([]model.Product, 0, limit)
	for _, c := range candidates {
		if c.ID == productID {
			continue
		}
		if _, ok := inFeed[c.ID]; !ok {
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// SimilarForUser runs SimilarProducts against the user's active feed.
func (f *SimilarityFinder) SimilarForUser(ctx context.Context, userID, productID string, limit int) ([]model.Product, error) {
	feed, err := f.feeds.GetActive(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence("load active feed", err)
	}
	if feed == nil {
		return nil, apperr.NoActiveFeed()
	}
	return f.SimilarProducts(ctx, *feed, productID, limit)
}

func clampSimilarLimit(limit int) int {
	if limit <= 0 {
		return DefaultSimilarLimit
	}
	if limit > MaxSimilarLimit {
		return MaxSimilarLimit
	}
	return limit
}
