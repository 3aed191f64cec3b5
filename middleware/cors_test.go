package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func corsRouter(origin string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(origin))
	r.POST("/subscribe", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	return r
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	r := corsRouter("https://shop.test")

	req := httptest.NewRequest(http.MethodOptions, "/subscribe", nil)
	req.Header.Set("Origin", "https://shop.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.test" {
		t.Errorf("expected allow-origin header, got %q", got)
	}
}

func TestCORSRejectsForeignPreflight(t *testing.T) {
	r := corsRouter("https://shop.test")

	req := httptest.NewRequest(http.MethodOptions, "/subscribe", nil)
	req.Header.Set("Origin", "https://evil.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign preflight, got %d", w.Code)
	}
}

func TestCORSSkipsSameOriginRequests(t *testing.T) {
	r := corsRouter("https://shop.test")

	req := httptest.NewRequest(http.MethodPost, "/subscribe", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("no Origin header sent, expected no CORS headers, got %q", got)
	}
}
