package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"storefront-service/internal/auth"
	"storefront-service/internal/downloads"
	"storefront-service/internal/marketing"
	"storefront-service/internal/orders"
	"storefront-service/internal/payments"
	"storefront-service/internal/products"
	"storefront-service/internal/stores/kafka"
	"storefront-service/middleware"
	"storefront-service/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	p        products.Store
	o        orders.Store
	m        marketing.Store
	pay      payments.Processor
	signer   *downloads.Signer
	k        *kafka.Conf // nil when no brokers are configured
	keys     *auth.Keys
	validate *validator.Validate

	maxDownloads      int
	adminEmail        string
	adminPasswordHash string
}

type Config struct {
	Products  products.Store
	Orders    orders.Store
	Marketing marketing.Store
	Payments  payments.Processor
	Signer    *downloads.Signer
	Kafka     *kafka.Conf
	Keys      *auth.Keys

	MaxDownloads      int
	AdminEmail        string
	AdminPasswordHash string
}

func NewHandler(cfg Config) *Handler {
	maxDownloads := cfg.MaxDownloads
	if maxDownloads <= 0 {
		maxDownloads = orders.DefaultMaxDownloads
	}
	return &Handler{
		p:                 cfg.Products,
		o:                 cfg.Orders,
		m:                 cfg.Marketing,
		pay:               cfg.Payments,
		signer:            cfg.Signer,
		k:                 cfg.Kafka,
		keys:              cfg.Keys,
		validate:          validator.New(),
		maxDownloads:      maxDownloads,
		adminEmail:        cfg.AdminEmail,
		adminPasswordHash: cfg.AdminPasswordHash,
	}
}

func API(endpointPrefix string, cfg Config) *gin.Engine {
	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	m := middleware.NewMid(cfg.Keys)
	h := NewHandler(cfg)

	r.Use(middleware.Logger(), gin.Recovery())
	r.Use(middleware.CORS(os.Getenv("ALLOWED_ORIGIN")))

	r.GET("/ping", healthCheck)

	v1 := r.Group(endpointPrefix)
	{
		v1.GET("/products", h.ListProducts)
		v1.GET("/products/featured", h.GetFeaturedProducts)
		v1.GET("/products/:id", h.GetProduct)
		v1.GET("/products/:id/reviews", h.ListReviews)
		v1.POST("/products/:id/reviews", h.AddReview)

		v1.POST("/checkout", h.CreateCheckout)
		v1.POST("/verify-payment", h.VerifyPayment)
		v1.POST("/download", h.DownloadProduct)
		v1.POST("/newsletter/subscribe", h.SubscribeNewsletter)
		v1.POST("/contact", h.SubmitContact)

		v1.POST("/admin/login", h.AdminLogin)
	}

	admin := r.Group(endpointPrefix + "/admin")
	{
		admin.Use(m.Authentication())
		admin.POST("/products", m.Authorize(h.CreateProduct, auth.RoleAdmin))
		admin.PUT("/products/:id", m.Authorize(h.UpdateProduct, auth.RoleAdmin))
		admin.DELETE("/products/:id", m.Authorize(h.DeleteProduct, auth.RoleAdmin))
		admin.GET("/messages", m.Authorize(h.ListContactMessages, auth.RoleAdmin))
	}

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// validateStruct runs the validator and writes a field-level 400 when the
// payload is invalid. Returns false when the request was aborted.
func (h *Handler) validateStruct(c *gin.Context, traceId string, v any) bool {
	err := h.validate.Struct(v)
	if err == nil {
		return true
	}

	msg := http.StatusText(http.StatusBadRequest)
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) && len(vErrs) > 0 {
		vErr := vErrs[0]
		switch vErr.Tag() {
		case "required":
			msg = vErr.Field() + " value missing"
		case "email":
			msg = vErr.Field() + " must be a valid email"
		case "min", "max", "gt":
			msg = vErr.Field() + " value out of range"
		case "oneof":
			msg = vErr.Field() + " must be one of " + vErr.Param()
		case "url":
			msg = vErr.Field() + " must be a valid url"
		}
	}

	slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
	return false
}
