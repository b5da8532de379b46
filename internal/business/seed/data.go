package seed

import (
	"fmt"
	"strings"
	"time"

	"github.com/weiwei-tsao/friendsfeed/internal/repository"
	"github.com/weiwei-tsao/friendsfeed/pkg/model"
)

type person struct {
	name   string
	avatar int
}

var people = []person{
	{"Alice Johnson", 1}, {"Bob Smith", 2}, {"Carol Davis", 3}, {"David Wilson", 4},
	{"Emma Brown", 5}, {"Frank Miller", 6}, {"Grace Taylor", 7}, {"Henry Anderson", 8},
	{"Ivy Thomas", 9}, {"Jack Jackson", 10}, {"Kate White", 11}, {"Liam Harris", 12},
	{"Mia Martin", 13}, {"Noah Thompson", 14}, {"Olivia Garcia", 15}, {"Paul Martinez", 16},
	{"Quinn Rodriguez", 17}, {"Ruby Lewis", 18}, {"Sam Lee", 19}, {"Tina Walker", 20},
}

var catalog = []model.Product{
	{ID: "prod_001", Name: "Summer Dress", Price: 89.99, Category: "Clothing", Brand: "FashionCo", AverageRating: 4.4},
	{ID: "prod_002", Name: "Sneakers", Price: 129.99, Category: "Footwear", Brand: "SportBrand", AverageRating: 4.6},
	{ID: "prod_003", Name: "Handbag", Price: 199.99, Category: "Accessories", Brand: "LuxuryBags", AverageRating: 4.2},
	{ID: "prod_004", Name: "Aviator Sunglasses", Price: 149.99, Category: "Accessories", Brand: "SunStyle", AverageRating: 4.1},
	{ID: "prod_005", Name: "Gaming Headset", Price: 159.99, Category: "Electronics", Brand: "TechGear", AverageRating: 4.5},
	{ID: "prod_006", Name: "T-Shirt", Price: 29.99, Category: "Clothing", Brand: "CasualWear", AverageRating: 4.0},
	{ID: "prod_007", Name: "Denim Jacket", Price: 119.99, Category: "Clothing", Brand: "CasualWear", AverageRating: 4.3},
	{ID: "prod_008", Name: "Wireless Earbuds", Price: 99.99, Category: "Electronics", Brand: "TechGear", AverageRating: 4.4},
	{ID: "prod_009", Name: "Running Shoes", Price: 139.99, Category: "Footwear", Brand: "SportBrand", AverageRating: 4.7},
	{ID: "prod_010", Name: "Leather Wallet", Price: 59.99, Category: "Accessories", Brand: "LuxuryBags", AverageRating: 4.1},
	{ID: "prod_011", Name: "Smart Watch", Price: 249.99, Category: "Electronics", Brand: "TechGear", AverageRating: 4.5},
	{ID: "prod_012", Name: "Yoga Mat", Price: 39.99, Category: "Sports", Brand: "FitLife", AverageRating: 4.6},
	{ID: "prod_013", Name: "Water Bottle", Price: 24.99, Category: "Sports", Brand: "FitLife", AverageRating: 4.2},
	{ID: "prod_014", Name: "Silk Scarf", Price: 69.99, Category: "Accessories", Brand: "FashionCo", AverageRating: 4.0},
	{ID: "prod_015", Name: "Desk Lamp", Price: 49.99, Category: "Home", Brand: "Lumen", AverageRating: 4.3},
	{ID: "prod_016", Name: "Ceramic Mug Set", Price: 34.99, Category: "Home", Brand: "Hearth", AverageRating: 4.5},
}

// Products returns the catalog entries referenced by the seeded contacts.
func Products(now time.Time) []model.Product {
	out := make([]model.Product, len(catalog))
	for i, p := range catalog {
		p.CreatedAt = now
		out[i] = p
	}
	return out
}

// Contacts returns the pre-seeded contacts. Datasets are deterministic so every
// seeded environment produces the same feeds.
func Contacts(now time.Time) []model.Contact {
	out := make([]model.Contact, 0, len(people))
	for i, p := range people {
		email := strings.ToLower(strings.ReplaceAll(p.name, " ", ".")) + "@email.com"
		c := model.Contact{
			ID:              repository.ContactIDForEmail(email),
			Name:            p.name,
			Email:           email,
			Avatar:          fmt.Sprintf("https://i.pravatar.cc/150?img=%d", p.avatar),
			ProductDatasets: datasets(i, now),
			IsActive:        true,
		}
		c.Touch(now)
		out = append(out, c)
	}
	return out
}

// ContactIDs returns the ids of the pre-seeded contacts in seed order.
func ContactIDs() []string {
	contacts := Contacts(time.Time{})
	ids := make([]string, len(contacts))
	for i, c := range contacts {
		ids[i] = c.ID
	}
	return ids
}

func datasets(i int, now time.Time) model.ProductDatasets {
	day := 24 * time.Hour
	switch i {
	case 0:
		return model.ProductDatasets{
			Wishlist: []model.WishlistItem{
				wish(catalog[0], 3, now.Add(-2*day)),
				wish(catalog[1], 1, now.Add(-5*day)),
			},
			OrderHistory: []model.OrderItem{order(catalog[2], 5, now.Add(-20*day))},
			WatchTime: []model.WatchTimeItem{
				{ProductID: catalog[0].ID, TimeSpent: 300, ViewCount: 4, LastViewed: now.Add(-1 * day)},
				{ProductID: catalog[3].ID, TimeSpent: 180, ViewCount: 2, LastViewed: now.Add(-3 * day)},
			},
		}
	case 1:
		return model.ProductDatasets{
			Wishlist:     []model.WishlistItem{wish(catalog[4], 4, now.Add(-1*day))},
			OrderHistory: []model.OrderItem{order(catalog[5], 4, now.Add(-12*day))},
			WatchTime: []model.WatchTimeItem{
				{ProductID: catalog[4].ID, TimeSpent: 420, ViewCount: 6, LastViewed: now.Add(-1 * day)},
			},
		}
	}

	n := len(catalog)
	w := catalog[(i*3)%n]
	o := catalog[(i*5+1)%n]
	v := catalog[(i*7+2)%n]
	return model.ProductDatasets{
		Wishlist:     []model.WishlistItem{wish(w, i%5+1, now.Add(-time.Duration(i%9+1)*day))},
		OrderHistory: []model.OrderItem{order(o, (i+2)%5+1, now.Add(-time.Duration(i%20+5)*day))},
		WatchTime: []model.WatchTimeItem{{
			ProductID:  v.ID,
			TimeSpent:  float64(60 * (i%6 + 1)),
			ViewCount:  i%4 + 1,
			LastViewed: now.Add(-time.Duration(i%7+1) * day),
		}},
	}
}

func wish(p model.Product, priority int, at time.Time) model.WishlistItem {
	return model.WishlistItem{
		ProductID: p.ID, AddedAt: at, Priority: priority,
		Name: p.Name, Price: p.Price, Category: p.Category, Brand: p.Brand,
	}
}

func order(p model.Product, rating int, at time.Time) model.OrderItem {
	return model.OrderItem{
		ProductID: p.ID, OrderedAt: at, Quantity: 1, Price: p.Price, Rating: &rating,
		Name: p.Name, Category: p.Category, Brand: p.Brand,
	}
}
