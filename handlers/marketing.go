package handlers

import (
	"log/slog"
	"net/http"

	"storefront-service/internal/marketing"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"

	"github.com/gin-gonic/gin"
)

type subscribeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// SubscribeNewsletter upserts the subscription so re-subscribing an address
// never errors.
func (h *Handler) SubscribeNewsletter(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !h.validateStruct(c, traceId, req) {
		return
	}

	if _, err := h.m.UpsertSubscription(c.Request.Context(), req.Email); err != nil {
		slog.Error("error subscribing to newsletter", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to subscribe to newsletter"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Successfully subscribed to newsletter!",
		"discount": "WELCOME20",
	})
}

func (h *Handler) SubmitContact(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req marketing.NewContactMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !h.validateStruct(c, traceId, req) {
		return
	}

	if _, err := h.m.InsertContactMessage(c.Request.Context(), req); err != nil {
		slog.Error("error saving contact message", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to save contact message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Thank you for contacting us! We'll get back to you within 24 hours.",
	})
}

func (h *Handler) ListContactMessages(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	list, err := h.m.ListContactMessages(c.Request.Context())
	if err != nil {
		slog.Error("error fetching contact messages", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch contact messages"})
		return
	}
	if list == nil {
		list = []marketing.ContactMessage{}
	}

	c.JSON(http.StatusOK, gin.H{"messages": list})
}
