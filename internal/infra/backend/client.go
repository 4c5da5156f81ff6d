package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"checkout-activation/internal/config"
	"checkout-activation/internal/domain"
	"checkout-activation/internal/domain/model"
)

// Client is the shared HTTP client for the growth-app REST backend. Every
// request carries the bearer token from config.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *zerolog.Logger
}

func NewClient(cfg config.BackendConfig, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     logger,
	}
}

// SetHTTPClient swaps the transport (tests).
func (c *Client) SetHTTPClient(h *http.Client) { c.http = h }

type apiError struct {
	Message string `json:"message"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	return req, nil
}

// ConfirmPlan posts the purchased plan to the backend after a verified
// charge. Callers bound it with a context deadline; the request is cancelled
// at the deadline so a late response can never land after a fallback commits.
func (c *Client) ConfirmPlan(ctx context.Context, planType string, amountMinor int64, currency string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/subscriptions/confirm", map[string]any{
		"packageType": planType,
		"amount":      amountMinor,
		"currency":    currency,
	})
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ae apiError
		_ = json.NewDecoder(resp.Body).Decode(&ae)
		if ae.Message != "" {
			return fmt.Errorf("confirm plan: %s: %w", ae.Message, domain.ErrOperationFailed)
		}
		return fmt.Errorf("confirm plan http %d: %w", resp.StatusCode, domain.ErrOperationFailed)
	}
	return nil
}

type currentUserResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Status   string `json:"status"`
	PlanName string `json:"planName"`
	PlanType string `json:"planType"`
}

// CurrentUser fetches the authoritative account record.
func (c *Client) CurrentUser(ctx context.Context) (*model.Account, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/users/me", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("current user http %d: %w", resp.StatusCode, domain.ErrOperationFailed)
	}
	var out currentUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("current user decode: %w", domain.ErrOperationFailed)
	}
	return &model.Account{
		ID:        out.ID,
		Email:     out.Email,
		Status:    model.AccountStatus(out.Status),
		PlanName:  out.PlanName,
		PlanType:  out.PlanType,
		UpdatedAt: time.Now(),
	}, nil
}
