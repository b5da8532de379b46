package model

import (
	"strings"
	"time"
)

// Behavioral channels a contact's signal can come from.
const (
	SourceWishlist     = "wishlist"
	SourceOrderHistory = "orderHistory"
	SourceWatchTime    = "watchTime"
)

// Feed sort orders.
const (
	SortRelevance = "relevance"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
	SortNewest    = "newest"
)

// Upload processing states.
const (
	UploadPending    = "pending"
	UploadProcessing = "processing"
	UploadCompleted  = "completed"
	UploadFailed     = "failed"
)

// Upload types.
const (
	UploadTypeExcel = "excel"
	UploadTypeURL   = "url"
	UploadTypeBoth  = "both"
)

const (
	// FeedTTL is how long a generated feed lives before the store's TTL policy removes it.
	FeedTTL = 24 * time.Hour
	// UploadTTL is how long an upload job record is kept.
	UploadTTL = 7 * 24 * time.Hour
)

// WishlistItem is a product a contact saved for later.
type WishlistItem struct {
	ProductID string    `json:"productId" firestore:"productId" validate:"required"`
	AddedAt   time.Time `json:"addedAt,omitempty" firestore:"addedAt,omitempty"`
	Priority  int       `json:"priority,omitempty" firestore:"priority,omitempty" validate:"omitempty,min=1,max=5"` // 1-5, 0 means default (1)
	Name      string    `json:"name,omitempty" firestore:"name,omitempty"`
	Price     float64   `json:"price,omitempty" firestore:"price,omitempty"`
	Category  string    `json:"category,omitempty" firestore:"category,omitempty"`
	Brand     string    `json:"brand,omitempty" firestore:"brand,omitempty"`
}

// OrderItem is a past purchase.
type OrderItem struct {
	ProductID string    `json:"productId" firestore:"productId" validate:"required"`
	OrderedAt time.Time `json:"orderedAt,omitempty" firestore:"orderedAt,omitempty"`
	Quantity  int       `json:"quantity,omitempty" firestore:"quantity,omitempty" validate:"gte=0"`
	Price     float64   `json:"price" firestore:"price" validate:"gte=0"`
	Rating    *int      `json:"rating,omitempty" firestore:"rating,omitempty" validate:"omitempty,min=1,max=5"` // 1-5, optional
	Name      string    `json:"name,omitempty" firestore:"name,omitempty"`
	Category  string    `json:"category,omitempty" firestore:"category,omitempty"`
	Brand     string    `json:"brand,omitempty" firestore:"brand,omitempty"`
}

// WatchTimeItem records how long a contact looked at a product page.
type WatchTimeItem struct {
	ProductID  string    `json:"productId" firestore:"productId" validate:"required"`
	TimeSpent  float64   `json:"timeSpent" firestore:"timeSpent" validate:"gte=0"` // seconds
	LastViewed time.Time `json:"lastViewed,omitempty" firestore:"lastViewed,omitempty"`
	ViewCount  int       `json:"viewCount,omitempty" firestore:"viewCount,omitempty" validate:"gte=0"`
}

// ProductDatasets groups a contact's three behavioral datasets.
type ProductDatasets struct {
	Wishlist     []WishlistItem  `json:"wishlist" firestore:"wishlist" validate:"dive"`
	OrderHistory []OrderItem     `json:"orderHistory" firestore:"orderHistory" validate:"dive"`
	WatchTime    []WatchTimeItem `json:"watchTime" firestore:"watchTime" validate:"dive"`
}

// ContactMetadata holds counters derived from ProductDatasets.
type ContactMetadata struct {
	TotalProducts  int     `json:"totalProducts" firestore:"totalProducts"`
	TotalOrders    int     `json:"totalOrders" firestore:"totalOrders"`
	TotalWatchTime float64 `json:"totalWatchTime" firestore:"totalWatchTime"` // minutes
}

// Contact is a person whose shopping behavior feeds recommendation feeds.
// Stored in the `contacts` collection.
type Contact struct {
	ID              string          `json:"id" firestore:"id"`
	Name            string          `json:"name" firestore:"name"`
	NameLower       string          `json:"-" firestore:"nameLower"`
	Email           string          `json:"email" firestore:"email"`
	Avatar          string          `json:"avatar,omitempty" firestore:"avatar,omitempty"`
	Metadata        ContactMetadata `json:"metadata" firestore:"metadata"`
	ProductDatasets ProductDatasets `json:"productDatasets" firestore:"productDatasets"`
	IsActive        bool            `json:"isActive" firestore:"isActive"`
	CreatedAt       time.Time       `json:"createdAt" firestore:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt" firestore:"updatedAt"`
}

// RecomputeMetadata derives the metadata counters from the datasets.
// Repositories call it on every save so the counters never drift.
func (c *Contact) RecomputeMetadata() {
	ds := c.ProductDatasets
	var seconds float64
	for _, w := range ds.WatchTime {
		seconds += w.TimeSpent
	}
	c.Metadata = ContactMetadata{
		TotalProducts:  len(ds.Wishlist) + len(ds.OrderHistory) + len(ds.WatchTime),
		TotalOrders:    len(ds.OrderHistory),
		TotalWatchTime: seconds / 60,
	}
}

// Touch normalizes derived fields and refreshes UpdatedAt before a save.
func (c *Contact) Touch(now time.Time) {
	c.Email = NormalizeEmail(c.Email)
	c.NameLower = strings.ToLower(strings.TrimSpace(c.Name))
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	c.RecomputeMetadata()
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SelectedContact is a contact chosen as input for a feed.
type SelectedContact struct {
	ContactID       string  `json:"contactId" firestore:"contactId"`
	ContactName     string  `json:"contactName" firestore:"contactName"`
	SelectionWeight float64 `json:"selectionWeight" firestore:"selectionWeight"`
}

// ScoreSource records which contact and channel contributed score to a product.
type ScoreSource struct {
	ContactID  string  `json:"contactId" firestore:"contactId"`
	SourceType string  `json:"sourceType" firestore:"sourceType"`
	Score      float64 `json:"score" firestore:"score"`
}

// AggregatedData summarizes raw signals behind a combined product.
type AggregatedData struct {
	TotalWishlistCount int     `json:"totalWishlistCount" firestore:"totalWishlistCount"`
	TotalOrderCount    int     `json:"totalOrderCount" firestore:"totalOrderCount"`
	TotalWatchTime     float64 `json:"totalWatchTime" firestore:"totalWatchTime"` // minutes
	AverageRating      float64 `json:"averageRating" firestore:"averageRating"`
	TotalViewCount     int     `json:"totalViewCount" firestore:"totalViewCount"`
}

// CombinedProduct is one ranked, deduplicated entry of a feed.
type CombinedProduct struct {
	ProductID      string         `json:"productId" firestore:"productId"`
	Name           string         `json:"name" firestore:"name"`
	Price          float64        `json:"price" firestore:"price"`
	Category       string         `json:"category" firestore:"category"`
	Brand          string         `json:"brand" firestore:"brand"`
	RelevanceScore float64        `json:"relevanceScore" firestore:"relevanceScore"`
	Sources        []ScoreSource  `json:"sources" firestore:"sources"`
	AggregatedData AggregatedData `json:"aggregatedData" firestore:"aggregatedData"`
	LastActivityAt time.Time      `json:"lastActivityAt,omitempty" firestore:"lastActivityAt,omitempty"`
}

// FeedMetadata holds counts and timestamps of a feed snapshot.
type FeedMetadata struct {
	TotalProducts int       `json:"totalProducts" firestore:"totalProducts"`
	TotalContacts int       `json:"totalContacts" firestore:"totalContacts"`
	GeneratedAt   time.Time `json:"generatedAt" firestore:"generatedAt"`
	LastUpdated   time.Time `json:"lastUpdated" firestore:"lastUpdated"`
}

// PriceRange bounds product prices; nil bounds are open.
type PriceRange struct {
	Min *float64 `json:"min,omitempty" firestore:"min,omitempty"`
	Max *float64 `json:"max,omitempty" firestore:"max,omitempty"`
}

// FeedFilters are the user's stored view preferences for a feed.
type FeedFilters struct {
	PriceRange PriceRange `json:"priceRange" firestore:"priceRange"`
	Categories []string   `json:"categories,omitempty" firestore:"categories,omitempty"`
	Brands     []string   `json:"brands,omitempty" firestore:"brands,omitempty"`
	SortBy     string     `json:"sortBy,omitempty" firestore:"sortBy,omitempty" validate:"omitempty,oneof=relevance price_asc price_desc rating newest"`
}

// Feed is a persisted, ranked snapshot of products aggregated for one user.
// Stored in the `friends_feeds` collection.
type Feed struct {
	ID               string            `json:"id" firestore:"id"`
	UserID           string            `json:"userId" firestore:"userId"`
	SelectionKey     string            `json:"-" firestore:"selectionKey"`
	SelectedContacts []SelectedContact `json:"selectedContacts" firestore:"selectedContacts"`
	CombinedProducts []CombinedProduct `json:"combinedProducts" firestore:"combinedProducts"`
	FeedMetadata     FeedMetadata      `json:"feedMetadata" firestore:"feedMetadata"`
	Filters          FeedFilters       `json:"filters" firestore:"filters"`
	IsActive         bool              `json:"isActive" firestore:"isActive"`
	ExpiresAt        time.Time         `json:"expiresAt" firestore:"expiresAt"`
}

// HasProduct reports whether productID is one of the feed's combined products.
func (f Feed) HasProduct(productID string) bool {
	for _, p := range f.CombinedProducts {
		if p.ProductID == productID {
			return true
		}
	}
	return false
}

// ExcelFile describes an uploaded spreadsheet that was parsed before submission.
type ExcelFile struct {
	FileName string `json:"fileName,omitempty" firestore:"fileName,omitempty"`
}

// URLSource describes a remote source of ingestion records.
type URLSource struct {
	URL         string    `json:"url,omitempty" firestore:"url,omitempty"`
	Type        string    `json:"type,omitempty" firestore:"type,omitempty"` // zip, api, product_pages
	LastFetched time.Time `json:"lastFetched,omitempty" firestore:"lastFetched,omitempty"`
}

// UploadError kinds.
const (
	UploadErrValidation  = "validation"
	UploadErrPersistence = "persistence"
	UploadErrFetch       = "fetch"
	UploadErrGeneral     = "general"
)

// UploadError is one problem found while processing an upload.
// Row is 1-based; zero means the error is not tied to a row.
type UploadError struct {
	Row     int            `json:"row,omitempty" firestore:"row,omitempty"`
	Field   string         `json:"field,omitempty" firestore:"field,omitempty"`
	Kind    string         `json:"kind" firestore:"kind"`
	Message string         `json:"message" firestore:"message"`
	Data    map[string]any `json:"data,omitempty" firestore:"data,omitempty"`
}

// ProcessingResults stores counters for an upload job.
type ProcessingResults struct {
	ContactsProcessed int           `json:"contactsProcessed" firestore:"contactsProcessed"`
	ContactsCreated   int           `json:"contactsCreated" firestore:"contactsCreated"`
	ContactsUpdated   int           `json:"contactsUpdated" firestore:"contactsUpdated"`
	ProductsProcessed int           `json:"productsProcessed" firestore:"productsProcessed"`
	Errors            []UploadError `json:"errors" firestore:"errors"`
}

// DataUpload tracks the lifecycle of an ingestion job.
// Stored in the `data_uploads` collection.
type DataUpload struct {
	ID                string            `json:"id" firestore:"id"`
	UserID            string            `json:"userId" firestore:"userId"`
	UploadType        string            `json:"uploadType" firestore:"uploadType"`
	ExcelFile         *ExcelFile        `json:"excelFile,omitempty" firestore:"excelFile,omitempty"`
	URLSource         *URLSource        `json:"urlSource,omitempty" firestore:"urlSource,omitempty"`
	ProcessingStatus  string            `json:"processingStatus" firestore:"processingStatus"`
	ProcessingResults ProcessingResults `json:"processingResults" firestore:"processingResults"`
	CreatedAt         time.Time         `json:"createdAt" firestore:"createdAt"`
	CompletedAt       time.Time         `json:"completedAt,omitempty" firestore:"completedAt,omitempty"`
	ExpiresAt         time.Time         `json:"expiresAt" firestore:"expiresAt"`
}

// Product is a catalog entry. Stored in the `products` collection.
type Product struct {
	ID            string    `json:"id" firestore:"id"`
	Name          string    `json:"name" firestore:"name"`
	Brand         string    `json:"brand" firestore:"brand"`
	Category      string    `json:"category" firestore:"category"`
	Price         float64   `json:"price" firestore:"price"`
	AverageRating float64   `json:"averageRating,omitempty" firestore:"averageRating,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty" firestore:"createdAt,omitempty"`
}

// User is the slice of the storefront user document this service maintains.
type User struct {
	ID               string    `json:"id" firestore:"id"`
	SelectedContacts []string  `json:"selectedContacts" firestore:"selectedContacts"`
	FriendsFeeds     []string  `json:"friendsFeeds" firestore:"friendsFeeds"`
	UpdatedAt        time.Time `json:"updatedAt" firestore:"updatedAt"`
}
