package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"storefront-service/internal/products"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"

	"github.com/gin-gonic/gin"
)

const featuredLimit = 3

func (h *Handler) ListProducts(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	category := c.Query("category")
	search := c.Query("search")

	list, err := h.p.ListProducts(c.Request.Context(), category, search)
	if err != nil {
		slog.Error("error in fetching products", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	if list == nil {
		list = []products.Product{}
	}

	c.JSON(http.StatusOK, gin.H{"products": list})
}

func (h *Handler) GetProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	productID := c.Param("id")
	product, err := h.p.GetProductByID(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, products.ErrNotFound) {
			slog.Error("product not found", slog.String(logkey.TraceID, traceId), slog.String("ProductID", productID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		} else {
			slog.Error("error in retrieving product", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		}
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *Handler) GetFeaturedProducts(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	list, err := h.p.GetFeaturedProducts(c.Request.Context(), featuredLimit)
	if err != nil {
		slog.Error("error in fetching featured products", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch featured products"})
		return
	}
	if list == nil {
		list = []products.Product{}
	}

	c.JSON(http.StatusOK, gin.H{"products": list})
}

func (h *Handler) CreateProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	if c.Request.ContentLength > 5*1024 {
		slog.Error("request body limit breached", slog.String(logkey.TraceID, traceId), slog.Int64("Size Received", c.Request.ContentLength))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Request body too large."})
		return
	}

	var newProduct products.NewProduct
	if err := c.ShouldBindJSON(&newProduct); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if !h.validateStruct(c, traceId, newProduct) {
		return
	}

	insertedProduct, err := h.p.InsertProduct(c.Request.Context(), newProduct)
	if err != nil {
		slog.Error("error in inserting the product", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Product creation failed"})
		return
	}

	c.JSON(http.StatusOK, insertedProduct)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	productID := c.Param("id")
	var updated products.NewProduct
	if err := c.ShouldBindJSON(&updated); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}
	if !h.validateStruct(c, traceId, updated) {
		return
	}

	product, err := h.p.UpdateProduct(c.Request.Context(), productID, updated)
	if err != nil {
		if errors.Is(err, products.ErrNotFound) {
			slog.Error("product not found", slog.String(logkey.TraceID, traceId), slog.String("ProductID", productID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		} else {
			slog.Error("error in updating the product", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Product update failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	productID := c.Param("id")
	if err := h.p.DeactivateProduct(c.Request.Context(), productID); err != nil {
		if errors.Is(err, products.ErrNotFound) {
			slog.Error("product not found", slog.String(logkey.TraceID, traceId), slog.String("ProductID", productID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		} else {
			slog.Error("error in deleting the product", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Product deletion failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product successfully deleted"})
}

func (h *Handler) ListReviews(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	productID := c.Param("id")
	list, err := h.p.ListReviews(c.Request.Context(), productID)
	if err != nil {
		slog.Error("error in fetching reviews", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reviews"})
		return
	}
	if list == nil {
		list = []products.Review{}
	}

	c.JSON(http.StatusOK, gin.H{"reviews": list})
}

func (h *Handler) AddReview(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	productID := c.Param("id")
	var newReview products.NewReview
	if err := c.ShouldBindJSON(&newReview); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !h.validateStruct(c, traceId, newReview) {
		return
	}

	userEmail := newReview.UserEmail
	if userEmail == "" {
		userEmail = fmt.Sprintf("anonymous-%d@readoradigitals.com", time.Now().UnixMilli())
	}

	review, err := h.p.InsertReview(c.Request.Context(), productID, userEmail, newReview)
	if err != nil {
		if errors.Is(err, products.ErrNotFound) {
			slog.Error("product not found for review", slog.String(logkey.TraceID, traceId), slog.String("ProductID", productID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		} else {
			slog.Error("error in adding review", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to add review"})
		}
		return
	}

	c.JSON(http.StatusOK, review)
}
