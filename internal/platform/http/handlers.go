package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/weiwei-tsao/friendsfeed/internal/business/ingest"
	"github.com/weiwei-tsao/friendsfeed/internal/repository"
	"github.com/weiwei-tsao/friendsfeed/pkg/model"
)

const maxPreseededContacts = 20

// contactSummary is the contact projection shown in selection lists.
type contactSummary struct {
	ID       string                `json:"id"`
	Name     string                `json:"name"`
	Email    string                `json:"email"`
	Avatar   string                `json:"avatar,omitempty"`
	Metadata model.ContactMetadata `json:"metadata"`
}

func summarize(contacts []model.Contact) []contactSummary {
	out := make([]contactSummary, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, contactSummary{ID: c.ID, Name: c.Name, Email: c.Email, Avatar: c.Avatar, Metadata: c.Metadata})
	}
	return out
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

func (r *Router) uploadData(c *gin.Context) {
	var req ingest.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	upload, err := r.Uploads.Submit(c.Request.Context(), userID(c), req)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "Data upload initiated successfully",
		"uploadId": upload.ID,
		"status":   upload.ProcessingStatus,
	})
}

func (r *Router) getUploadStatus(c *gin.Context) {
	upload, err := r.Uploads.Status(c.Request.Context(), userID(c), c.Param("uploadId"))
	if err != nil {
		r.writeError(c, err)
		return
	}
	body := gin.H{
		"id":        upload.ID,
		"status":    upload.ProcessingStatus,
		"results":   upload.ProcessingResults,
		"createdAt": upload.CreatedAt,
	}
	if !upload.CompletedAt.IsZero() {
		body["completedAt"] = upload.CompletedAt
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "upload": body})
}

func (r *Router) cancelUpload(c *gin.Context) {
	if err := r.Uploads.Cancel(c.Request.Context(), userID(c), c.Param("uploadId")); err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true, "message": "Upload cancellation requested"})
}

func (r *Router) listContacts(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	contacts, total, err := r.Contacts.Search(c.Request.Context(), repository.ContactQuery{
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"contacts": summarize(contacts),
		"pagination": gin.H{
			"current":       page,
			"total":         (total + limit - 1) / limit,
			"count":         len(contacts),
			"totalContacts": total,
		},
	})
}

func (r *Router) listPreseededContacts(c *gin.Context) {
	contacts, _, err := r.Contacts.Search(c.Request.Context(), repository.ContactQuery{
		Search:     c.Query("search"),
		ActiveOnly: true,
		Page:       1,
		Limit:      maxPreseededContacts,
	})
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"contacts":      summarize(contacts),
		"totalContacts": len(contacts),
	})
}

type generateFeedReq struct {
	ContactIDs []string           `json:"contactIds"`
	Filters    *model.FeedFilters `json:"filters"`
}

func (r *Router) generateFeed(c *gin.Context) {
	var req generateFeedReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	feed, reused, err := r.Feeds.GenerateFeed(c.Request.Context(), userID(c), req.ContactIDs, req.Filters)
	if err != nil {
		r.writeError(c, err)
		return
	}
	if reused {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Using existing feed", "feed": feed})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Friends feed generated successfully", "feed": feed})
}

func (r *Router) getFeed(c *gin.Context) {
	page, err := r.Feeds.QueryFeed(c.Request.Context(), userID(c), queryInt(c, "page", 1), queryInt(c, "limit", 0))
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"products": page.Products,
		"feed": gin.H{
			"id":               page.Feed.ID,
			"selectedContacts": page.Feed.SelectedContacts,
			"metadata":         page.Feed.FeedMetadata,
			"filters":          page.Feed.Filters,
		},
		"pagination": page,
	})
}

type updateFiltersReq struct {
	Filters model.FeedFilters `json:"filters"`
}

func (r *Router) updateFeedFilters(c *gin.Context) {
	var req updateFiltersReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	feed, err := r.Feeds.UpdateFilters(c.Request.Context(), userID(c), req.Filters)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Feed filters updated successfully", "feed": feed})
}

func (r *Router) getSimilarProducts(c *gin.Context) {
	products, err := r.Similarity.SimilarForUser(c.Request.Context(), userID(c), c.Param("productId"), queryInt(c, "limit", 0))
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "similarProducts": products})
}

func (r *Router) createSeedData(c *gin.Context) {
	res, err := r.Seeder.Run(c.Request.Context())
	if err != nil {
		r.writeError(c, err)
		return
	}
	if res.AlreadySeeded {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Seed data already exists"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"message":      "Seed data created successfully",
		"contactCount": res.Created,
		"productCount": res.Products,
		"contacts":     summarize(res.SeededContacts),
	})
}
