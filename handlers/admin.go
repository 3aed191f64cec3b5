package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"storefront-service/internal/auth"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const adminTokenTTL = 12 * time.Hour

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AdminLogin checks the configured admin credentials and issues a short-lived
// admin token. Credentials come from the environment as email plus bcrypt
// hash, never from source.
func (h *Handler) AdminLogin(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !h.validateStruct(c, traceId, req) {
		return
	}

	if h.adminEmail == "" || h.adminPasswordHash == "" {
		slog.Error("admin credentials are not configured", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Admin login is not configured"})
		return
	}

	hashErr := bcrypt.CompareHashAndPassword([]byte(h.adminPasswordHash), []byte(req.Password))
	if req.Email != h.adminEmail || hashErr != nil {
		slog.Error("admin login failed", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.keys.GenerateToken(req.Email, auth.RoleAdmin, adminTokenTTL)
	if err != nil {
		slog.Error("error generating admin token", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
