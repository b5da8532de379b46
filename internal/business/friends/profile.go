package friends

import (
	"math"
	"time"

	"github.com/weiwei-tsao/friendsfeed/pkg/model"
)

// Scoring caps for watch-time entries.
const (
	maxWatchMinutesScore = 10
	maxViewCountScore    = 5
	defaultOrderRating   = 3
)

// ScoredItem is one behavioral entry of a contact mapped onto a common shape.
type ScoredItem struct {
	ProductID      string
	Source         string
	RelevanceScore float64
	Timestamp      time.Time

	// passthrough fields, set when the source entry carries them
	Name      string
	Price     float64
	Category  string
	Brand     string
	Rating    *int
	Quantity  int
	TimeSpent float64
	ViewCount int
}

// CombinedDataset flattens a contact's wishlist, order history and watch time
// into scored items, in that order. The same product may appear several times;
// deduplication happens in Aggregate.
func CombinedDataset(c model.Contact) []ScoredItem {
	ds := c.ProductDatasets
	out := make([]ScoredItem, 0, len(ds.Wishlist)+len(ds.OrderHistory)+len(ds.WatchTime))

	for _, w := range ds.Wishlist {
		out = append(out, ScoredItem{
			ProductID:      w.ProductID,
			Source:         model.SourceWishlist,
			RelevanceScore: WishlistScore(w),
			Timestamp:      w.AddedAt,
			Name:           w.Name,
			Price:          w.Price,
			Category:       w.Category,
			Brand:          w.Brand,
		})
	}
	for _, o := range ds.OrderHistory {
		qty := o.Quantity
		if qty <= 0 {
			qty = 1
		}
		out = append(out, ScoredItem{
			ProductID:      o.ProductID,
			Source:         model.SourceOrderHistory,
			RelevanceScore: OrderScore(o),
			Timestamp:      o.OrderedAt,
			Name:           o.Name,
			Price:          o.Price,
			Category:       o.Category,
			Brand:          o.Brand,
			Rating:         o.Rating,
			Quantity:       qty,
		})
	}
	for _, w := range ds.WatchTime {
		out = append(out, ScoredItem{
			ProductID:      w.ProductID,
			Source:         model.SourceWatchTime,
			RelevanceScore: WatchTimeScore(w),
			Timestamp:      w.LastViewed,
			TimeSpent:      w.TimeSpent,
			ViewCount:      viewCount(w),
		})
	}
	return out
}

// WishlistScore is priority (default 1) times 2.
func WishlistScore(w model.WishlistItem) float64 {
	p := w.Priority
	if p <= 0 {
		p = 1
	}
	return float64(p) * 2
}

// OrderScore is rating (default 3) times 3.
func OrderScore(o model.OrderItem) float64 {
	r := defaultOrderRating
	if o.Rating != nil && *o.Rating > 0 {
		r = *o.Rating
	}
	return float64(r) * 3
}

// WatchTimeScore is min(minutes watched, 10) + min(view count, 5).
func WatchTimeScore(w model.WatchTimeItem) float64 {
	minutes := math.Max(w.TimeSpent, 0) / 60
	return math.Min(minutes, maxWatchMinutesScore) + math.Min(float64(viewCount(w)), maxViewCountScore)
}

func viewCount(w model.WatchTimeItem) int {
	if w.ViewCount <= 0 {
		return 1
	}
	return w.ViewCount
}
