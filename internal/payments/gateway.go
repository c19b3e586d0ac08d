package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mbalabaev/food-order-service/internal/entities"
)

// Gateway creates a payment intent with the external payment provider. Only
// card orders ever reach it; the provider confirms or fails the payment
// out-of-band through the payment events topic.
type Gateway interface {
	CreateIntent(ctx context.Context, order entities.Order) (string, error)
}

type httpGateway struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration) *httpGateway {
	return &httpGateway{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

type intentRequest struct {
	OrderID     string  `json:"order_id"`
	CustomerID  string  `json:"customer_id"`
	AmountCents int64   `json:"amount_cents"`
	Currency    string  `json:"currency"`
	Total       float64 `json:"total"`
}

type intentResponse struct {
	ClientSecret string `json:"client_secret"`
}

func (g *httpGateway) CreateIntent(ctx context.Context, order entities.Order) (string, error) {
	body, err := json.Marshal(intentRequest{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		AmountCents: int64(order.TotalAmount*100 + 0.5),
		Currency:    "usd",
		Total:       order.TotalAmount,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal intent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/payment-intents", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	res, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("payment gateway unreachable: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("payment gateway returned status %d", res.StatusCode)
	}

	var intent intentResponse
	if err := json.NewDecoder(res.Body).Decode(&intent); err != nil {
		return "", fmt.Errorf("failed to decode intent response: %w", err)
	}
	return intent.ClientSecret, nil
}
