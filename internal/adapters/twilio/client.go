package twilio

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

const (
	DefaultBaseURL = "https://api.twilio.com"
	defaultTimeout = 30 * time.Second

	// WhatsApp bodies longer than this are rejected by the API.
	maxBodyRunes = 1600
)

type Config struct {
	AccountSID string
	AuthToken  string
	// From is the sender number, with or without the whatsapp: prefix.
	From    string
	BaseURL string
	Timeout time.Duration
}

// Client delivers replies through the Messages API and downloads inbound
// media. It implements domain.MessagingGateway and domain.MediaFetcher.
type Client struct {
	http *resty.Client
	sid  string
	from string
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("twilio credentials not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
		SetTimeout(cfg.Timeout)

	return &Client{
		http: rc,
		sid:  cfg.AccountSID,
		from: whatsappAddress(cfg.From),
	}, nil
}

func whatsappAddress(n string) string {
	n = strings.TrimSpace(n)
	if n == "" || strings.HasPrefix(n, "whatsapp:") {
		return n
	}
	return "whatsapp:" + n
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}

// Deliver sends text to recipient as a WhatsApp message.
func (c *Client) Deliver(ctx context.Context, recipient, text string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("sid", c.sid).
		SetFormData(map[string]string{
			"From": c.from,
			"To":   whatsappAddress(recipient),
			"Body": truncate(text, maxBodyRunes),
		}).
		Post("/2010-04-01/Accounts/{sid}/Messages.json")
	if err != nil {
		return fmt.Errorf("twilio send: %w: %w", domain.ErrUnavailable, err)
	}
	if resp.IsError() {
		return statusErr("send", resp)
	}
	return nil
}

// FetchMedia downloads an inbound attachment with the account credentials.
func (c *Client) FetchMedia(ctx context.Context, url string) ([]byte, string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, "", fmt.Errorf("twilio media: %w: %w", domain.ErrUnavailable, err)
	}
	if resp.IsError() {
		return nil, "", statusErr("media", resp)
	}
	return resp.Body(), resp.Header().Get("Content-Type"), nil
}

func statusErr(op string, resp *resty.Response) error {
	code := resp.StatusCode()
	if code == http.StatusTooManyRequests || code >= http.StatusInternalServerError {
		return fmt.Errorf("twilio %s: status %d: %w", op, code, domain.ErrUnavailable)
	}
	return fmt.Errorf("twilio %s: status %d: %s", op, code, strings.TrimSpace(resp.String()))
}
