package logic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/thinkly/thinkly-api/internal/models"
)

// EmailConfig configures the transactional email API client.
type EmailConfig struct {
	APIURL      string
	APIKey      string
	SenderEmail string
	SenderName  string
	Timeout     time.Duration
}

// EmailClient sends mail through a Brevo-compatible HTTP API.
type EmailClient struct {
	cfg    EmailConfig
	client *http.Client
}

func NewEmailClient(cfg EmailConfig) *EmailClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &EmailClient{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type emailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type emailPayload struct {
	Sender      emailAddress   `json:"sender"`
	To          []emailAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent,omitempty"`
	TextContent string         `json:"textContent,omitempty"`
}

// Send posts one message. Transport failures and non-2xx answers are
// reported as upstream errors.
func (c *EmailClient) Send(ctx context.Context, email models.Email) error {
	body, err := json.Marshal(emailPayload{
		Sender:      emailAddress{Email: c.cfg.SenderEmail, Name: c.cfg.SenderName},
		To:          []emailAddress{{Email: email.To, Name: email.ToName}},
		Subject:     email.Subject,
		HTMLContent: email.HTML,
		TextContent: email.Text,
	})
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return ErrUpstream(err, "email delivery failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return ErrUpstream(fmt.Errorf("status %d: %s", resp.StatusCode, snippet), "email delivery failed")
	}
	return nil
}

// LogMailer only logs outgoing mail. Used when no email API key is configured.
type LogMailer struct {
	Logger *zap.SugaredLogger
}

func (m *LogMailer) Send(ctx context.Context, email models.Email) error {
	m.Logger.Infow("Email not sent (no API key configured)", "to", email.To, "subject", email.Subject)
	return nil
}

func welcomeEmail(user *models.User, frontendURL string) models.Email {
	name := html.EscapeString(user.Username)
	return models.Email{
		To:      user.Email,
		ToName:  user.Username,
		Subject: "Welcome to Thinkly",
		HTML: fmt.Sprintf(`<p>Hi %s,</p><p>Your Thinkly account is ready. Join the next competition at <a href="%s">%s</a>.</p>`,
			name, frontendURL, frontendURL),
		Text: fmt.Sprintf("Hi %s,\n\nYour Thinkly account is ready. Join the next competition at %s.\n", user.Username, frontendURL),
	}
}

func passwordResetEmail(user *models.User, link string, ttl time.Duration) models.Email {
	name := html.EscapeString(user.Username)
	return models.Email{
		To:      user.Email,
		ToName:  user.Username,
		Subject: "Reset your Thinkly password",
		HTML: fmt.Sprintf(`<p>Hi %s,</p><p><a href="%s">Reset your password</a>. The link expires in %s.</p><p>If you did not ask for this, ignore this email.</p>`,
			name, link, ttl),
		Text: fmt.Sprintf("Hi %s,\n\nReset your password: %s\nThe link expires in %s.\n", user.Username, link, ttl),
	}
}

// ReminderEmail builds the "competition starts soon" message.
func ReminderEmail(user *models.User, comp *models.Competition, frontendURL string) models.Email {
	start := comp.StartTime.UTC().Format("Mon 02 Jan 15:04 MST")
	return models.Email{
		To:      user.Email,
		ToName:  user.Username,
		Subject: fmt.Sprintf("%s starts %s", comp.Name, start),
		HTML: fmt.Sprintf(`<p>Hi %s,</p><p><b>%s</b> starts at %s. <a href="%s">Get ready</a>!</p>`,
			html.EscapeString(user.Username), html.EscapeString(comp.Name), start, frontendURL),
		Text: fmt.Sprintf("Hi %s,\n\n%s starts at %s. Get ready: %s\n", user.Username, comp.Name, start, frontendURL),
	}
}
