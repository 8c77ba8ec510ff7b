package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/delivery"
)

const DefaultEmailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

type EmailJSConfig struct {
	Endpoint    string
	ServiceID   string
	TemplateID  string
	PublicKey   string
	AccessToken string
	Currency    string
}

// EmailJS sends each order through an EmailJS template.
type EmailJS struct {
	cfg  EmailJSConfig
	http *http.Client
}

func NewEmailJS(cfg EmailJSConfig, client *http.Client) *EmailJS {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEmailJSEndpoint
	}
	if cfg.Currency == "" {
		cfg.Currency = "TL"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &EmailJS{cfg: cfg, http: client}
}

func (e *EmailJS) Name() string { return "emailjs" }

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

func (e *EmailJS) Send(ctx context.Context, o checkout.Order) error {
	req := emailJSRequest{
		ServiceID:      e.cfg.ServiceID,
		TemplateID:     e.cfg.TemplateID,
		UserID:         e.cfg.PublicKey,
		AccessToken:    e.cfg.AccessToken,
		TemplateParams: TemplateParams(o, e.cfg.Currency),
	}

	resp, err := postJSON(ctx, e.http, e.cfg.Endpoint, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: emailjs status %d: %s", ErrRejected, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// TemplateParams flattens an order into the string fields the email
// template renders.
func TemplateParams(o checkout.Order, currency string) map[string]string {
	items := make([]string, 0, len(o.Lines))
	for _, ln := range o.Lines {
		items = append(items, fmt.Sprintf("%s x%d = %s %s", ln.Name, ln.Quantity, ln.Subtotal.StringFixed(0), currency))
	}

	method := "Self pickup"
	if o.DeliveryMethod == delivery.MethodDelivery {
		method = fmt.Sprintf("Delivery (%s %s)", o.DeliveryFee.StringFixed(0), currency)
	}

	return map[string]string{
		"customer_name":    o.CustomerName,
		"customer_phone":   o.Phone,
		"customer_address": o.Address,
		"delivery_method":  method,
		"delivery_fee":     o.DeliveryFee.StringFixed(0) + " " + currency,
		"order_items":      strings.Join(items, "\n"),
		"order_time":       o.CreatedAt.Format("2006-01-02 15:04"),
		"preferred_time":   o.PreferredTime,
		"total_price":      o.Total.StringFixed(0) + " " + currency,
		"note":             o.Note,
	}
}
