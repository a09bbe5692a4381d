package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"akram-coaching-backend/internal/domain"
	"akram-coaching-backend/internal/domain/ports/adapter"
)

var _ adapter.Mailer = (*ResendMailer)(nil)

// ResendMailer implements Mailer using direct HTTP calls to the Resend API.
type ResendMailer struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewResendMailer creates a Resend-backed mailer. baseURL overrides the API
// endpoint when non-empty (used in tests).
func NewResendMailer(apiKey, baseURL string) (*ResendMailer, error) {
	if apiKey == "" {
		return nil, domain.ErrMailerNotConfigured
	}
	if baseURL == "" {
		baseURL = "https://api.resend.com"
	}
	return &ResendMailer{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 20 * time.Second},
	}, nil
}

type resendAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"` // base64
}

type resendRequest struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	ReplyTo     string             `json:"reply_to,omitempty"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html"`
	Attachments []resendAttachment `json:"attachments,omitempty"`
}

func (m *ResendMailer) Send(ctx context.Context, msg adapter.Email) error {
	req := resendRequest{
		From:    msg.From,
		To:      []string{msg.To},
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	}
	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, resendAttachment{
			Filename: a.Filename,
			Content:  base64.StdEncoding.EncodeToString(a.Content),
		})
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request data: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", m.baseURL+"/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("resend: http %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
