package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-service/internal/auth"
	"storefront-service/internal/downloads"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAdminEmail    = "admin@readoradigitals.com"
	testAdminPassword = "correct-horse"
)

type testEnv struct {
	router    *gin.Engine
	products  *mockProductStore
	orders    *memOrderStore
	marketing *memMarketingStore
	processor *mockProcessor
	keys      *auth.Keys
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	keys, err := auth.NewKeys("test-secret")
	if err != nil {
		t.Fatalf("creating keys: %v", err)
	}
	signer, err := downloads.NewSigner("test-signing-secret", 15*time.Minute)
	if err != nil {
		t.Fatalf("creating signer: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing admin password: %v", err)
	}

	env := &testEnv{
		products:  &mockProductStore{},
		orders:    newMemOrderStore(),
		marketing: newMemMarketingStore(),
		processor: &mockProcessor{},
		keys:      keys,
	}
	env.router = API("/api/v1", Config{
		Products:          env.products,
		Orders:            env.orders,
		Marketing:         env.marketing,
		Payments:          env.processor,
		Signer:            signer,
		Keys:              keys,
		MaxDownloads:      5,
		AdminEmail:        testAdminEmail,
		AdminPasswordHash: string(hash),
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return out
}
