// Package square talks to the Square Connect v2 API and verifies the
// signatures on Square webhook deliveries.
package square

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ManuelReschke/FilmPass/internal/pkg/config"
)

const (
	ProductionBaseURL = "https://connect.squareup.com"
	SandboxBaseURL    = "https://connect.squareupsandbox.com"

	defaultAPIVersion = "2024-01-18"
)

type Client struct {
	AccessToken string
	BaseURL     string
	APIVersion  string

	HTTPClient *http.Client
}

func NewClient(cfg config.SquareConfig) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = SandboxBaseURL
		if cfg.Environment == "production" {
			base = ProductionBaseURL
		}
	}
	version := strings.TrimSpace(cfg.APIVersion)
	if version == "" {
		version = defaultAPIVersion
	}

	return &Client{
		AccessToken: strings.TrimSpace(cfg.AccessToken),
		BaseURL:     base,
		APIVersion:  version,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CreatePaymentLink creates a hosted checkout page for a single order
func (c *Client) CreatePaymentLink(ctx context.Context, in CreatePaymentLinkRequest) (*PaymentLink, error) {
	if strings.TrimSpace(in.IdempotencyKey) == "" {
		return nil, errors.New("idempotency key is required")
	}
	if in.Order == nil || strings.TrimSpace(in.Order.LocationID) == "" {
		return nil, errors.New("order with location_id is required")
	}

	var out CreatePaymentLinkResponse
	if err := c.do(ctx, http.MethodPost, "/v2/online-checkout/payment-links", in, &out); err != nil {
		return nil, err
	}
	if len(out.Errors) > 0 {
		return nil, apiErrors(out.Errors)
	}
	if out.PaymentLink == nil {
		return nil, errors.New("square create payment link returned no payment_link")
	}
	return out.PaymentLink, nil
}

// RetrieveOrder fetches a single order including its metadata
func (c *Client) RetrieveOrder(ctx context.Context, orderID string) (*Order, error) {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return nil, errors.New("order id is required")
	}

	var out RetrieveOrderResponse
	if err := c.do(ctx, http.MethodGet, "/v2/orders/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	if len(out.Errors) > 0 {
		return nil, apiErrors(out.Errors)
	}
	if out.Order == nil {
		return nil, errors.New("square retrieve order returned no order")
	}
	return out.Order, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	if c.AccessToken == "" {
		return errors.New("SQUARE_ACCESS_TOKEN is not configured")
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Square-Version", c.APIVersion)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Errors []APIError `json:"errors"`
		}
		if json.Unmarshal(raw, &errBody) == nil && len(errBody.Errors) > 0 {
			return fmt.Errorf("square %s %s failed: status=%d: %w", method, path, resp.StatusCode, apiErrors(errBody.Errors))
		}
		return fmt.Errorf("square %s %s failed: status=%d body=%s", method, path, resp.StatusCode, string(raw))
	}

	return json.Unmarshal(raw, out)
}

// APIErrors is returned when Square answers with an errors array
type APIErrors []APIError

func (e APIErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, apiErr := range e {
		parts = append(parts, fmt.Sprintf("%s/%s: %s", apiErr.Category, apiErr.Code, apiErr.Detail))
	}
	return "square api error: " + strings.Join(parts, "; ")
}

func apiErrors(errs []APIError) error {
	return APIErrors(errs)
}

// IsNotFound reports whether err carries a Square NOT_FOUND error
func IsNotFound(err error) bool {
	var apiErrs APIErrors
	if !errors.As(err, &apiErrs) {
		return false
	}
	for _, apiErr := range apiErrs {
		if apiErr.Code == "NOT_FOUND" {
			return true
		}
	}
	return false
}
