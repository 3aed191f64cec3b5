package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"storefront-service/internal/orders"
	"storefront-service/internal/payments"
	"storefront-service/internal/stores/kafka"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"

	"github.com/gin-gonic/gin"
)

type verifyPaymentRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

// VerifyPayment asks the processor whether the session settled and, when it
// did, transitions the matching order to completed. Safe to call repeatedly:
// the transition happens at most once and the product's aggregate download
// counter is bumped only on the actual transition.
func (h *Handler) VerifyPayment(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !h.validateStruct(c, traceId, req) {
		return
	}

	// The order must exist before we bother the processor.
	if _, err := h.o.GetOrderBySessionID(c.Request.Context(), req.SessionID); err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			slog.Error("order not found for session", slog.String(logkey.TraceID, traceId), slog.String("SessionID", req.SessionID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		} else {
			slog.Error("error in retrieving order", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		}
		return
	}

	status, err := h.pay.GetSessionStatus(c.Request.Context(), req.SessionID)
	if err != nil {
		h.abortUpstream(c, traceId, "error fetching session status", err)
		return
	}

	if status != payments.StatusPaid {
		slog.Info("payment not settled", slog.String(logkey.TraceID, traceId),
			slog.String("SessionID", req.SessionID), slog.String("PaymentStatus", status))
		c.JSON(http.StatusPaymentRequired, gin.H{"success": false, "status": status})
		return
	}

	order, transitioned, err := h.o.CompleteOrder(c.Request.Context(), req.SessionID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		} else {
			slog.Error("error completing order", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		}
		return
	}

	if transitioned {
		slog.Info("order completed", slog.String(logkey.TraceID, traceId), slog.String("OrderID", order.ID))
		if h.k != nil {
			go h.publishOrderCompleted(order, traceId)
		}
	}

	if order.Status != orders.StatusCompleted {
		slog.Error("paid session against non-payable order", slog.String(logkey.TraceID, traceId),
			slog.String("OrderID", order.ID), slog.String("Status", order.Status))
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Order is not payable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"order":          order,
		"download_token": order.DownloadToken,
	})
}

func (h *Handler) publishOrderCompleted(order orders.Order, traceId string) {
	data, err := json.Marshal(kafka.OrderCompletedEvent{
		OrderID:   order.ID,
		ProductID: order.ProductID,
		UserEmail: order.UserEmail,
		Amount:    order.Amount,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Error("failed to marshal order completed event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		return
	}

	if err := h.k.ProduceMessage(kafka.TopicOrderCompleted, []byte(order.ID), data); err != nil {
		slog.Error("failed to produce order completed event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		return
	}
	slog.Info("order completed event produced", slog.String(logkey.TraceID, traceId), slog.String("OrderID", order.ID))
}
