package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"storefront-service/internal/orders"
	"storefront-service/internal/payments"
	"storefront-service/internal/products"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"

	"github.com/gin-gonic/gin"
)

type checkoutRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
}

// CreateCheckout opens a payment session for a single product and persists a
// pending order carrying a fresh download token.
func (h *Handler) CreateCheckout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !h.validateStruct(c, traceId, req) {
		return
	}

	email := req.Email
	if email == "" {
		email = fmt.Sprintf("guest-%d@readoradigitals.com", time.Now().UnixMilli())
	}

	product, err := h.p.GetProductByID(c.Request.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, products.ErrNotFound) {
			slog.Error("product not found", slog.String(logkey.TraceID, traceId), slog.String("ProductID", req.ProductID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		} else {
			slog.Error("error in retrieving product", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		}
		return
	}

	sess, err := h.pay.CreateSession(c.Request.Context(), payments.CheckoutItem{
		Title:       product.Title,
		Description: product.Description,
		Price:       product.Price,
	}, email)
	if err != nil {
		h.abortUpstream(c, traceId, "error creating checkout session", err)
		return
	}

	order, err := h.o.CreateOrder(c.Request.Context(), orders.NewOrder{
		UserEmail:       email,
		ProductID:       product.ID,
		StripeSessionID: sess.ID,
		Amount:          product.Price,
		MaxDownloads:    h.maxDownloads,
	})
	if err != nil {
		slog.Error("error creating order", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	slog.Info("checkout session created", slog.String(logkey.TraceID, traceId),
		slog.String("OrderID", order.ID), slog.String("SessionID", sess.ID))

	c.JSON(http.StatusOK, gin.H{"checkout_url": sess.URL, "session_id": sess.ID})
}

// abortUpstream maps processor failures to 502, timeouts to 504.
func (h *Handler) abortUpstream(c *gin.Context, traceId, msg string, err error) {
	slog.Error(msg, slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	if errors.Is(err, payments.ErrUpstreamTimeout) {
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{"error": "Payment processor timed out"})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Payment processor request failed"})
}
