package friends

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiwei-tsao/friendsfeed/internal/platform/apperr"
	"github.com/weiwei-tsao/friendsfeed/pkg/model"
)

func findProduct(t *testing.T, products []model.CombinedProduct, id string) model.CombinedProduct {
	t.Helper()
	for _, p := range products {
		if p.ProductID == id {
			return p
		}
	}
	t.Fatalf("product %s not in aggregate", id)
	return model.CombinedProduct{}
}

func TestAggregateEndToEndScenario(t *testing.T) {
	contacts := newContacts(10)
	for i := 0; i < 3; i++ {
		contacts[i].ProductDatasets.Wishlist = []model.WishlistItem{{ProductID: "P1", Priority: 1}}
	}
	for i := 3; i < 5; i++ {
		contacts[i].ProductDatasets.OrderHistory = []model.OrderItem{{ProductID: "P1", Price: 50, Rating: intPtr(5)}}
	}

	products, err := Aggregate(contacts)
	require.NoError(t, err)
	require.Len(t, products, 1)

	p1 := products[0]
	assert.Equal(t, "P1", p1.ProductID)
	assert.Equal(t, 36.0, p1.RelevanceScore)
	assert.Len(t, p1.Sources, 5)
	assert.Equal(t, 3, p1.AggregatedData.TotalWishlistCount)
	assert.Equal(t, 2, p1.AggregatedData.TotalOrderCount)
	assert.Equal(t, 5.0, p1.AggregatedData.AverageRating)
}

func TestAggregateScoreSummation(t *testing.T) {
	contacts := newContacts(12)
	contacts[0].ProductDatasets = model.ProductDatasets{
		Wishlist:     []model.WishlistItem{{ProductID: "A", Priority: 3}},
		OrderHistory: []model.OrderItem{{ProductID: "A", Price: 10}, {ProductID: "B", Price: 5, Rating: intPtr(2)}},
		WatchTime:    []model.WatchTimeItem{{ProductID: "A", TimeSpent: 10000, ViewCount: 50}},
	}
	contacts[7].ProductDatasets = model.ProductDatasets{
		WatchTime: []model.WatchTimeItem{{ProductID: "B", TimeSpent: 30, ViewCount: 2}},
	}
	contacts[11].ProductDatasets = model.ProductDatasets{
		Wishlist: []model.WishlistItem{{ProductID: "C"}},
	}

	// expected sum per product computed from the per-source formulas
	want := map[string]float64{}
	wantSources := map[string]int{}
	for _, c := range contacts {
		for _, item := range CombinedDataset(c) {
			want[item.ProductID] += item.RelevanceScore
			wantSources[item.ProductID]++
		}
	}

	products, err := Aggregate(contacts)
	require.NoError(t, err)
	require.Len(t, products, len(want))
	for id, score := range want {
		p := findProduct(t, products, id)
		assert.InDelta(t, score, p.RelevanceScore, 1e-9, id)
		assert.Len(t, p.Sources, wantSources[id], id)
	}

	a := findProduct(t, products, "A")
	assert.Equal(t, 6.0+9.0+15.0, a.RelevanceScore)
	assert.Equal(t, 50, a.AggregatedData.TotalViewCount)
	assert.InDelta(t, 10000.0/60, a.AggregatedData.TotalWatchTime, 1e-9)
	assert.Equal(t, 0.0, a.AggregatedData.AverageRating)
}

func TestAggregateDedupAndOrdering(t *testing.T) {
	contacts := newContacts(10)
	for i := range contacts {
		contacts[i].ProductDatasets.Wishlist = []model.WishlistItem{
			{ProductID: "low"},
			{ProductID: "tie-first"},
			{ProductID: "tie-second"},
		}
	}
	contacts[0].ProductDatasets.OrderHistory = []model.OrderItem{{ProductID: "top", Price: 1, Rating: intPtr(5)}}
	contacts[0].ProductDatasets.Wishlist = append(contacts[0].ProductDatasets.Wishlist, model.WishlistItem{ProductID: "top", Priority: 5})
	contacts[1].ProductDatasets.Wishlist = []model.WishlistItem{
		{ProductID: "tie-first", Priority: 2},
		{ProductID: "tie-second"},
	}

	products, err := Aggregate(contacts)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, p := range products {
		assert.False(t, seen[p.ProductID], "duplicate %s", p.ProductID)
		seen[p.ProductID] = true
	}
	for i := 1; i < len(products); i++ {
		assert.GreaterOrEqual(t, products[i-1].RelevanceScore, products[i].RelevanceScore)
	}

	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ProductID)
	}
	// top: 15+10, tie-first: 22, tie-second: 20, low: 18
	assert.Equal(t, []string{"top", "tie-first", "tie-second", "low"}, ids)
}

func TestAggregateTiesKeepFirstSeenOrder(t *testing.T) {
	contacts := newContacts(10)
	contacts[0].ProductDatasets.Wishlist = []model.WishlistItem{{ProductID: "x"}, {ProductID: "y"}}
	contacts[1].ProductDatasets.Wishlist = []model.WishlistItem{{ProductID: "z"}}

	products, err := Aggregate(contacts)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "x", products[0].ProductID)
	assert.Equal(t, "y", products[1].ProductID)
	assert.Equal(t, "z", products[2].ProductID)
}

func TestAggregateFirstWriterWinsDescriptiveFields(t *testing.T) {
	contacts := newContacts(10)
	contacts[0].ProductDatasets.WatchTime = []model.WatchTimeItem{{ProductID: "p", TimeSpent: 60}}
	contacts[1].ProductDatasets.Wishlist = []model.WishlistItem{{ProductID: "p", Name: "Sneakers", Price: 129.99, Category: "Footwear", Brand: "SportBrand"}}
	contacts[2].ProductDatasets.Wishlist = []model.WishlistItem{{ProductID: "q", Name: "Handbag", Price: 199.99, Category: "Accessories", Brand: "LuxuryBags"}}
	contacts[3].ProductDatasets.OrderHistory = []model.OrderItem{{ProductID: "q", Name: "Other Name", Price: 1, Category: "Other", Brand: "Other"}}

	products, err := Aggregate(contacts)
	require.NoError(t, err)

	p := findProduct(t, products, "p")
	assert.Equal(t, "Product p", p.Name)
	assert.Equal(t, 0.0, p.Price)
	assert.Equal(t, "Unknown", p.Category)
	assert.Equal(t, "Unknown", p.Brand)

	q := findProduct(t, products, "q")
	assert.Equal(t, "Handbag", q.Name)
	assert.Equal(t, 199.99, q.Price)
	assert.Equal(t, "Accessories", q.Category)
	assert.Equal(t, "LuxuryBags", q.Brand)
}

func TestAggregateProvenanceAndActivity(t *testing.T) {
	older := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)
	contacts := newContacts(10)
	contacts[2].ProductDatasets.Wishlist = []model.WishlistItem{{ProductID: "p", AddedAt: older}}
	contacts[5].ProductDatasets.WatchTime = []model.WatchTimeItem{{ProductID: "p", TimeSpent: 600, LastViewed: newer}}

	products, err := Aggregate(contacts)
	require.NoError(t, err)
	require.Len(t, products, 1)
	p := products[0]
	assert.Equal(t, newer, p.LastActivityAt)
	assert.Equal(t, []model.ScoreSource{
		{ContactID: contactID(3), SourceType: model.SourceWishlist, Score: 2},
		{ContactID: contactID(6), SourceType: model.SourceWatchTime, Score: 11},
	}, p.Sources)
}

func TestAggregateRequiresMinimumContacts(t *testing.T) {
	_, err := Aggregate(newContacts(9))
	assert.True(t, apperr.Is(err, apperr.KindInsufficientSelection))
}
