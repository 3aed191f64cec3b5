package handlers

import (
	"net/http"
	"testing"
)

func TestSubscribeNewsletterUpserts(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/api/v1/newsletter/subscribe", map[string]any{"email": "reader@example.com"}, "")
		if w.Code != http.StatusOK {
			t.Fatalf("call %d: expected 200, got %d: %s", i+1, w.Code, w.Body.String())
		}
		body := decodeBody(t, w)
		if body["success"] != true {
			t.Fatalf("call %d: expected success=true", i+1)
		}
	}

	if len(env.marketing.subscriptions) != 1 {
		t.Fatalf("expected exactly one subscription record, got %d", len(env.marketing.subscriptions))
	}
	if s := env.marketing.subscriptions["reader@example.com"]; !s.Subscribed {
		t.Error("expected subscription to be active")
	}
}

func TestSubscribeNewsletterValidation(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []map[string]any{
		{},
		{"email": "not-an-email"},
	} {
		w := env.do(t, http.MethodPost, "/api/v1/newsletter/subscribe", body, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %v: expected 400, got %d", body, w.Code)
		}
	}
	if len(env.marketing.subscriptions) != 0 {
		t.Errorf("invalid requests must not persist subscriptions, found %d", len(env.marketing.subscriptions))
	}
}

func TestSubmitContactPersistsMessage(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/contact", map[string]any{
		"name":    "Ada",
		"email":   "ada@example.com",
		"message": "Where is my invoice?",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if len(env.marketing.messages) != 1 {
		t.Fatalf("expected one stored message, got %d", len(env.marketing.messages))
	}
	msg := env.marketing.messages[0]
	if msg.Subject != "General Inquiry" {
		t.Errorf("expected default subject, got %q", msg.Subject)
	}
	if msg.Status != "new" {
		t.Errorf("expected status new, got %q", msg.Status)
	}
}

func TestSubmitContactMissingMessage(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/contact", map[string]any{
		"name":  "Ada",
		"email": "ada@example.com",
	}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(env.marketing.messages) != 0 {
		t.Errorf("validation failure must not persist anything, found %d messages", len(env.marketing.messages))
	}
}
