// Package notify delivers order status notifications to retailer webhooks.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/bulkbazaar/wholesaleapi/internal/domain"
)

type WebhookClient struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebhookClient creates a webhook delivery client
func NewWebhookClient(logger *zap.Logger) *WebhookClient {
	return &WebhookClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// OrderStatusPayload is the body POSTed to a retailer's webhook URL
type OrderStatusPayload struct {
	OrderID        string `json:"order_id"`
	Status         string `json:"status"`
	PaymentStatus  string `json:"payment_status"`
	Total          string `json:"total"`
	AmountPending  string `json:"amount_pending"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	OccurredAt     string `json:"occurred_at"`
}

// NotifyOrderStatus POSTs the order's current status to the retailer's
// webhook URL, if one is configured. Delivery is best effort: failures are
// logged, never surfaced to the order flow.
func (c *WebhookClient) NotifyOrderStatus(ctx context.Context, retailer *domain.Retailer, order *domain.Order) {
	if retailer.WebhookURL == nil || *retailer.WebhookURL == "" {
		return
	}

	payload := OrderStatusPayload{
		OrderID:       order.ID.String(),
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		Total:         order.Total.StringFixed(2),
		AmountPending: order.Total.Sub(order.AmountPaid).StringFixed(2),
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if order.TrackingNumber != nil {
		payload.TrackingNumber = *order.TrackingNumber
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("Failed to marshal webhook payload", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, *retailer.WebhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		c.logger.Error("Failed to create webhook request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Webhook delivery failed",
			zap.String("retailer_id", retailer.ID.String()),
			zap.Error(err),
		)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		c.logger.Warn("Webhook delivery rejected",
			zap.String("retailer_id", retailer.ID.String()),
			zap.String("status", fmt.Sprintf("%d", resp.StatusCode)),
		)
	}
}
