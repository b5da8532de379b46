package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/weiwei-tsao/friendsfeed/internal/business/friends"
	"github.com/weiwei-tsao/friendsfeed/internal/business/ingest"
	"github.com/weiwei-tsao/friendsfeed/internal/business/seed"
	"github.com/weiwei-tsao/friendsfeed/internal/platform/logger"
	"github.com/weiwei-tsao/friendsfeed/internal/repository"
	"github.com/weiwei-tsao/friendsfeed/pkg/model"
)

// FeedService builds and reads friends feeds.
type FeedService interface {
	GenerateFeed(ctx context.Context, userID string, contactIDs []string, filters *model.FeedFilters) (model.Feed, bool, error)
	QueryFeed(ctx context.Context, userID string, page, limit int) (friends.FeedPage, error)
	UpdateFilters(ctx context.Context, userID string, filters model.FeedFilters) (model.Feed, error)
}

// SimilarityService answers similar-product queries.
type SimilarityService interface {
	SimilarForUser(ctx context.Context, userID, productID string, limit int) ([]model.Product, error)
}

// UploadService runs ingestion jobs.
type UploadService interface {
	Submit(ctx context.Context, userID string, req ingest.SubmitRequest) (model.DataUpload, error)
	Status(ctx context.Context, userID, uploadID string) (model.DataUpload, error)
	Cancel(ctx context.Context, userID, uploadID string) error
}

// ContactDirectory lists contacts for selection.
type ContactDirectory interface {
	Search(ctx context.Context, q repository.ContactQuery) ([]model.Contact, int, error)
}

// SeedRunner loads the pre-seeded data.
type SeedRunner interface {
	Run(ctx context.Context) (seed.Result, error)
}

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	UserID(token string) (string, error)
}

// Deps holds everything the router needs. Seeder may be nil, which disables
// the seed endpoint.
type Deps struct {
	Feeds          FeedService
	Similarity     SimilarityService
	Uploads        UploadService
	Contacts       ContactDirectory
	Seeder         SeedRunner
	Auth           TokenVerifier
	Log            *logger.Logger
	AllowedOrigins string
}

// Router wires HTTP handlers.
type Router struct {
	Deps
	origins []string
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	r := &Router{Deps: deps, origins: splitOrigins(deps.AllowedOrigins)}

	router := gin.New()
	router.Use(r.recovery(), r.requestLogger(), metricsMiddleware(), r.corsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	fr := router.Group("/friends")
	{
		fr.GET("/contacts/preseeded", r.listPreseededContacts)
		if r.Seeder != nil {
			fr.POST("/seed", r.createSeedData)
		}

		authed := fr.Group("", r.authMiddleware())
		authed.POST("/upload", r.uploadData)
		authed.GET("/upload/:uploadId/status", r.getUploadStatus)
		authed.POST("/upload/:uploadId/cancel", r.cancelUpload)
		authed.GET("/contacts", r.listContacts)
		authed.POST("/feed/generate", r.generateFeed)
		authed.GET("/feed", r.getFeed)
		authed.PUT("/feed/filters", r.updateFeedFilters)
		authed.GET("/products/:productId/similar", r.getSimilarProducts)
	}

	return router
}

func splitOrigins(raw string) []string {
	origins := strings.Split(raw, ",")
	trimmed := make([]string, 0, len(origins))
	for _, o := range origins {
		if t := strings.TrimSpace(o); t != "" {
			trimmed = append(trimmed, t)
		}
	}
	return trimmed
}
