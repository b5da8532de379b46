package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/weiwei-tsao/friendsfeed/internal/business/ingest"
	"github.com/weiwei-tsao/friendsfeed/internal/platform/apperr"
)

// writeError maps err to a status code and the error envelope. Storage
// failures get a generic message; the cause is only logged.
func (r *Router) writeError(c *gin.Context, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		e = apperr.Persistence("unexpected error", err)
	}
	status := e.Status()
	body := gin.H{"kind": e.Kind, "message": e.Message}
	if len(e.IDs) > 0 {
		body["ids"] = e.IDs
	}
	if e.Kind == apperr.KindPersistence {
		if ingest.IsQueueFull(err) {
			status = http.StatusServiceUnavailable
			body["message"] = "too many uploads in progress, try again later"
		} else {
			body["message"] = "internal server error"
		}
		r.Log.Error("request failed", "path", c.Request.URL.Path, "op", e.Message, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": body})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   gin.H{"kind": apperr.KindValidation, "message": msg},
	})
}
