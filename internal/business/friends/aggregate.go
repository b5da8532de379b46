package friends

import (
	"fmt"
	"sort"

	"github.com/weiwei-tsao/friendsfeed/internal/platform/apperr"
	"github.com/weiwei-tsao/friendsfeed/pkg/model"
)

// MinContacts is the smallest selection a feed can be generated from.
const MinContacts = 10

// aggregate is the running state for one product while contacts are merged.
type aggregate struct {
	product     model.CombinedProduct
	ratingSum   float64
	ratingCount int
}

// Aggregate merges the combined datasets of all contacts into one record per
// product, summing scores and keeping one provenance entry per contributing item.
//
// Descriptive fields (name, price, category, brand) come from the first item
// seen for a product; later items never overwrite them. The result is sorted by
// relevance score descending, ties keep first-seen order.
func Aggregate(contacts []model.Contact) ([]model.CombinedProduct, error) {
	if len(contacts) < MinContacts {
		return nil, apperr.InsufficientSelection(len(contacts), MinContacts)
	}

	byID := make(map[string]*aggregate)
	order := make([]*aggregate, 0)

	for _, c := range contacts {
		for _, item := range CombinedDataset(c) {
			if item.ProductID == "" {
				continue
			}
			agg, ok := byID[item.ProductID]
			if !ok {
				agg = newAggregate(item)
				byID[item.ProductID] = agg
				order = append(order, agg)
			}
			agg.add(c.ID, item)
		}
	}

	out := make([]model.CombinedProduct, 0, len(order))
	for _, agg := range order {
		if agg.ratingCount > 0 {
			agg.product.AggregatedData.AverageRating = agg.ratingSum / float64(agg.ratingCount)
		}
		out = append(out, agg.product)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RelevanceScore > out[j].RelevanceScore
	})
	return out, nil
}

func newAggregate(first ScoredItem) *aggregate {
	p := model.CombinedProduct{
		ProductID: first.ProductID,
		Name:      first.Name,
		Price:     first.Price,
		Category:  first.Category,
		Brand:     first.Brand,
		Sources:   []model.ScoreSource{},
	}
	if p.Name == "" {
		p.Name = fmt.Sprintf("Product %s", first.ProductID)
	}
	if p.Category == "" {
		p.Category = "Unknown"
	}
	if p.Brand == "" {
		p.Brand = "Unknown"
	}
	return &aggregate{product: p}
}

func (a *aggregate) add(contactID string, item ScoredItem) {
	p := &a.product
	p.RelevanceScore += item.RelevanceScore
	p.Sources = append(p.Sources, model.ScoreSource{
		ContactID:  contactID,
		SourceType: item.Source,
		Score:      item.RelevanceScore,
	})
	if item.Timestamp.After(p.LastActivityAt) {
		p.LastActivityAt = item.Timestamp
	}

	switch item.Source {
	case model.SourceWishlist:
		p.AggregatedData.TotalWishlistCount++
	case model.SourceOrderHistory:
		p.AggregatedData.TotalOrderCount++
		if item.Rating != nil && *item.Rating > 0 {
			a.ratingSum += float64(*item.Rating)
			a.ratingCount++
		}
	case model.SourceWatchTime:
		p.AggregatedData.TotalWatchTime += item.TimeSpent / 60
		p.AggregatedData.TotalViewCount += item.ViewCount
	}
}
