package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// Brevo sends email through the Brevo (ex Sendinblue) transactional API.
type Brevo struct {
	APIKey     string
	FromName   string
	FromEmail  string
	HTTPClient *http.Client
}

func NewBrevo(apiKey, fromName, fromEmail string) *Brevo {
	return &Brevo{
		APIKey:     apiKey,
		FromName:   fromName,
		FromEmail:  fromEmail,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type brevoAddress struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoMessage struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

func (b *Brevo) Send(ctx context.Context, to, subject, htmlBody string) error {
	payload, err := json.Marshal(brevoMessage{
		Sender:      brevoAddress{Name: b.FromName, Email: b.FromEmail},
		To:          []brevoAddress{{Email: to}},
		Subject:     subject,
		HTMLContent: htmlBody,
	})
	if err != nil {
		return fmt.Errorf("marshal brevo payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, brevoEndpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build brevo request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", b.APIKey)

	resp, err := b.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("send brevo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("brevo returned %d: %s", resp.StatusCode, body)
	}
	return nil
}
