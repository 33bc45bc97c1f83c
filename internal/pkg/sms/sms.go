// Package sms sends text messages through an HTTP SMS gateway.
package sms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrGatewayURLRequired is returned when no gateway URL is configured.
	ErrGatewayURLRequired = errors.New("sms: gateway url is required")
	// ErrRecipientRequired is returned when sending without a recipient.
	ErrRecipientRequired = errors.New("sms: recipient is required")
	// ErrGatewayRejected is returned when the gateway answers with a non-2xx status.
	ErrGatewayRejected = errors.New("sms: gateway rejected message")
)

const maxResponseBytes = 4 * 1024

// SMS abstracts an SMS provider.
type SMS interface {
	// Send delivers body to the E.164 number in to.
	Send(ctx context.Context, to, body string) error
}

// Config configures the gateway client.
type Config struct {
	// URL is the gateway send endpoint.
	URL string
	// UserID and Password authenticate with form credentials.
	UserID   string
	Password string
	// APIKey, when set, is sent in the apikey header.
	APIKey string
	// SenderID is the registered sender name.
	SenderID string
	// Timeout bounds a single request when ctx has no deadline.
	Timeout time.Duration
	// Client overrides the HTTP client.
	Client *http.Client
}

// Gateway posts form-encoded messages to a bulk SMS HTTP API.
type Gateway struct {
	cfg    Config
	client *http.Client
}

// NewGateway constructs a Gateway.
func NewGateway(cfg Config) (*Gateway, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, ErrGatewayURLRequired
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Gateway{cfg: cfg, client: client}, nil
}

// Send posts the message and treats any non-2xx answer as a failure.
func (g *Gateway) Send(ctx context.Context, to, body string) error {
	if to == "" {
		return ErrRecipientRequired
	}

	form := url.Values{}
	form.Set("userid", g.cfg.UserID)
	form.Set("password", g.cfg.Password)
	form.Set("senderid", g.cfg.SenderID)
	form.Set("sendMethod", "quick")
	form.Set("msgType", "text")
	form.Set("msg", body)
	form.Set("mobile", strings.TrimPrefix(to, "+"))
	form.Set("output", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("sms: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if g.cfg.APIKey != "" {
		req.Header.Set("apikey", g.cfg.APIKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms: send: %w", err)
	}
	defer resp.Body.Close()

	//nolint:errcheck // body is only used for the error message
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d: %s", ErrGatewayRejected, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return nil
}
