package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"care-team-access/internal/platform/httpclient"
	"care-team-access/internal/ports/notify"
)

var (
	ErrNotConfigured = errors.New("mailer not configured")
)

// Config del relay de mail. BaseURL/APIKey vienen de env vars en main.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client envía invitaciones a través del servicio de mensajería.
// Implementa notify.InviteMailer. El caller trata el envío como
// best-effort.
type Client struct {
	http   *httpclient.Client
	apiKey string
}

func NewClient(cfg Config) (*Client, error) {
	hc, err := httpclient.NewWithBaseURL(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Client{
		http:   hc,
		apiKey: strings.TrimSpace(cfg.APIKey),
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.apiKey != ""
}

func (c *Client) SendInvite(ctx context.Context, m notify.InviteMail) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	if strings.TrimSpace(m.To) == "" {
		return errors.New("mailer: recipient required")
	}

	payload := map[string]any{
		"to":         m.To,
		"template":   "care_team_invite",
		"child_name": m.ChildName,
		"token":      m.Token,
		"expires_at": m.ExpiresAt.Format(time.RFC3339),
	}

	err := c.http.DoJSON(ctx, http.MethodPost, "/v1/messages",
		map[string]string{"X-Api-Key": c.apiKey},
		payload,
		nil,
	)
	if err != nil {
		return fmt.Errorf("mailer: send invite: %w", err)
	}
	return nil
}

var _ notify.InviteMailer = (*Client)(nil)
