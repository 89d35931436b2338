package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ahsanfayaz52/notesservice/internal/logger"
)

type SendGridConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type emailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type personalization struct {
	To []emailAddress `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             emailAddress      `json:"from"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
}

// SendGrid delivers through the v3 mail/send endpoint.
type SendGrid struct {
	log        *logger.Logger
	cfg        SendGridConfig
	httpClient *http.Client
}

func NewSendGrid(log *logger.Logger, cfg SendGridConfig) (*SendGrid, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SendGrid{
		log:        log.With("client", "SendGridClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *SendGrid) Send(ctx context.Context, msg Message) error {
	from, err := parseAddress(msg.From)
	if err != nil {
		return err
	}
	to, err := parseAddress(msg.To)
	if err != nil {
		return err
	}

	wire := mailSendRequest{
		Personalizations: []personalization{{To: []emailAddress{{Email: to.Address, Name: to.Name}}}},
		From:             emailAddress{Email: from.Address, Name: from.Name},
		Subject:          msg.Subject,
		Content:          []mailContent{{Type: "text/plain", Value: msg.Body}},
	}
	body, err := json.Marshal(wire)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	c.log.Debug("mail sent", "subject", msg.Subject, "message_id", resp.Header.Get("X-Message-Id"))
	return nil
}
