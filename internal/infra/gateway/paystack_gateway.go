package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"checkout-activation/internal/domain/ports/adapter"
)

var _ adapter.CheckoutGateway = (*PaystackGateway)(nil)

// PaystackGateway implements adapter.CheckoutGateway against the Paystack
// REST API. Open initializes a hosted checkout transaction; the terminal
// result arrives on our callback URL and is dispatched by the session
// controller, so this adapter stays free of pipeline state.
type PaystackGateway struct {
	publicKey string
	secretKey string
	callback  string
	client    *http.Client
	baseURL   string
}

func NewPaystackGateway(publicKey, secretKey, callbackURL string) (*PaystackGateway, error) {
	if secretKey == "" {
		return nil, errors.New("secret key empty")
	}
	if _, err := url.Parse(callbackURL); err != nil {
		return nil, fmt.Errorf("invalid callback url: %w", err)
	}
	return &PaystackGateway{
		publicKey: publicKey,
		secretKey: secretKey,
		callback:  callbackURL,
		client:    &http.Client{Timeout: 15 * time.Second},
		baseURL:   "https://api.paystack.co",
	}, nil
}

func (g *PaystackGateway) Name() string { return "paystack" }

// SetBaseURL points the adapter at a different API host (tests).
func (g *PaystackGateway) SetBaseURL(u string) { g.baseURL = u }

// Ping probes the API with the configured credentials. Used by the loader
// bootstrap to latch readiness before any checkout opens.
func (g *PaystackGateway) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/transaction?perPage=1", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("paystack ping http %d", resp.StatusCode)
	}
	return nil
}

// Open calls /transaction/initialize and returns the hosted checkout URL.
func (g *PaystackGateway) Open(ctx context.Context, cr adapter.CheckoutRequest) (string, error) {
	callback := cr.CallbackURL
	if callback == "" {
		callback = g.callback
	}
	payload := map[string]any{
		"email":        cr.Email,
		"amount":       cr.AmountMinor,
		"reference":    cr.Reference,
		"currency":     cr.Currency,
		"callback_url": callback,
		"channels":     cr.Channels,
	}
	meta := map[string]any{}
	for k, v := range cr.Metadata {
		meta[k] = v
	}
	if cr.Label != "" {
		meta["custom_filters"] = map[string]any{"display_label": cr.Label}
	}
	if len(meta) > 0 {
		payload["metadata"] = meta
	}
	b, _ := json.Marshal(payload)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/transaction/initialize", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	var out struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			AuthorizationURL string `json:"authorization_url"`
			AccessCode       string `json:"access_code"`
			Reference        string `json:"reference"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if !out.Status || out.Data.AuthorizationURL == "" {
		if out.Message != "" {
			return "", fmt.Errorf("paystack initialize failed: %s", out.Message)
		}
		return "", errors.New("paystack initialize failed")
	}
	return out.Data.AuthorizationURL, nil
}
