package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"storefront-service/internal/orders"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"

	"github.com/gin-gonic/gin"
)

type downloadRequest struct {
	Token string `json:"token" validate:"required"`
}

// DownloadProduct redeems one download against the token's budget and
// answers with a signed, expiry-bounded file URL.
func (h *Handler) DownloadProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req downloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !h.validateStruct(c, traceId, req) {
		return
	}

	order, grant, err := h.o.AuthorizeDownload(c.Request.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrNotFound):
			slog.Error("unknown download token", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Invalid download token"})
		case errors.Is(err, orders.ErrNotCompleted):
			slog.Error("download against non-completed order", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Order is not completed"})
		case errors.Is(err, orders.ErrLimitExceeded):
			slog.Error("download limit exceeded", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Download limit exceeded"})
		default:
			slog.Error("error authorizing download", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to process download"})
		}
		return
	}

	downloadURL, err := h.signer.SignedURL(grant.FileURL)
	if err != nil {
		slog.Error("error signing download url", slog.String(logkey.TraceID, traceId),
			slog.String("OrderID", order.ID), slog.String(logkey.ERROR, err.Error()))
		// No URL was delivered, so the claimed download goes back to the budget.
		if relErr := h.o.ReleaseDownload(c.Request.Context(), req.Token); relErr != nil {
			slog.Error("error releasing download claim", slog.String(logkey.TraceID, traceId),
				slog.String("OrderID", order.ID), slog.String(logkey.ERROR, relErr.Error()))
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to process download"})
		return
	}

	slog.Info("download authorized", slog.String(logkey.TraceID, traceId),
		slog.String("OrderID", order.ID), slog.Int("Remaining", grant.Remaining))

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"download_url":        downloadURL,
		"file_name":           fmt.Sprintf("%s.%s", grant.ProductTitle, strings.ToLower(grant.FileType)),
		"file_size":           grant.FileSize,
		"remaining_downloads": grant.Remaining,
	})
}
