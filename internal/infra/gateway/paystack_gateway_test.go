//go:build !integration

package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"checkout-activation/internal/domain/ports/adapter"
	"checkout-activation/internal/infra/gateway"
)

func newPaystack(t *testing.T, baseURL string) *gateway.PaystackGateway {
	t.Helper()
	g, err := gateway.NewPaystackGateway("pk_test_x", "sk_test_x", "https://app.example/payment/callback")
	if err != nil {
		t.Fatalf("NewPaystackGateway: %v", err)
	}
	g.SetBaseURL(baseURL)
	return g
}

func TestPaystackGateway_Open(t *testing.T) {
	ctx := context.Background()

	t.Run("should initialize a transaction and return the hosted URL", func(t *testing.T) {
		// --- Arrange ---
		var payload map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/transaction/initialize" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer sk_test_x" {
				t.Errorf("expected secret-key bearer, got %q", got)
			}
			_ = json.NewDecoder(r.Body).Decode(&payload)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status":  true,
				"message": "Authorization URL created",
				"data": map[string]any{
					"authorization_url": "https://checkout.paystack.com/abc123",
					"access_code":       "abc123",
					"reference":         payload["reference"],
				},
			})
		}))
		defer srv.Close()
		g := newPaystack(t, srv.URL)

		// --- Act ---
		payURL, err := g.Open(ctx, adapter.CheckoutRequest{
			Reference:   "ref_01TEST",
			Email:       "owner@biz.example",
			AmountMinor: 49900,
			Currency:    "ZAR",
			Channels:    []string{"card", "eft"},
			Label:       "Growth plan",
			Metadata:    map[string]string{"plan_type": "GROWTH_MONTHLY"},
		})

		// --- Assert ---
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if payURL != "https://checkout.paystack.com/abc123" {
			t.Errorf("unexpected url %q", payURL)
		}
		if payload["email"] != "owner@biz.example" || payload["amount"] != float64(49900) || payload["currency"] != "ZAR" {
			t.Errorf("unexpected payload: %+v", payload)
		}
		if payload["callback_url"] != "https://app.example/payment/callback" {
			t.Errorf("expected the configured callback url, got %v", payload["callback_url"])
		}
		meta, _ := payload["metadata"].(map[string]any)
		if meta["plan_type"] != "GROWTH_MONTHLY" {
			t.Errorf("expected metadata forwarded, got %+v", meta)
		}
		if cf, _ := meta["custom_filters"].(map[string]any); cf["display_label"] != "Growth plan" {
			t.Errorf("expected the display label in custom_filters, got %+v", meta)
		}
	})

	t.Run("should surface the provider message on a refused initialize", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"status": false, "message": "Invalid key"})
		}))
		defer srv.Close()
		g := newPaystack(t, srv.URL)

		_, err := g.Open(ctx, adapter.CheckoutRequest{Reference: "ref_01TEST", Email: "owner@biz.example", AmountMinor: 100, Currency: "ZAR"})

		if err == nil || !strings.Contains(err.Error(), "Invalid key") {
			t.Fatalf("expected the provider message, got %v", err)
		}
	})
}

func TestPaystackGateway_Ping(t *testing.T) {
	ctx := context.Background()

	t.Run("should accept a 2xx probe", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/transaction" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"status": true})
		}))
		defer srv.Close()

		if err := newPaystack(t, srv.URL).Ping(ctx); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("should reject a non-2xx probe", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		if err := newPaystack(t, srv.URL).Ping(ctx); err == nil {
			t.Error("expected an error for 401")
		}
	})
}

func TestNewPaystackGateway(t *testing.T) {
	t.Run("should require a secret key", func(t *testing.T) {
		if _, err := gateway.NewPaystackGateway("pk", "", "https://app.example/cb"); err == nil {
			t.Error("expected an error for an empty secret key")
		}
	})
}
