package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/checkout"
)

// Webhook posts the order as JSON to a script endpoint that answers
// {"result":"success"} when it has recorded the order.
type Webhook struct {
	url  string
	http *http.Client
}

func NewWebhook(url string, client *http.Client) *Webhook {
	if client == nil {
		client = http.DefaultClient
	}
	return &Webhook{url: url, http: client}
}

func (w *Webhook) Name() string { return "webhook" }

type webhookResponse struct {
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

func (w *Webhook) Send(ctx context.Context, o checkout.Order) error {
	resp, err := postJSON(ctx, w.http, w.url, o)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("%w: read webhook response: %w", checkout.ErrTransportUnreachable, err)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: webhook status %d", ErrRejected, resp.StatusCode)
	}

	var out webhookResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("%w: unconfirmed webhook response: %w", ErrRejected, err)
	}
	if out.Result != "success" {
		return fmt.Errorf("%w: webhook result %q %s", ErrRejected, out.Result, out.Error)
	}
	return nil
}
