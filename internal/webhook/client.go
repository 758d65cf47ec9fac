// internal/webhook/client.go
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	appErrors "github.com/superprospect/prospector-backend/internal/errors"
)

// SmtpCredentials mirror the smtp_config object the sending workflow expects.
type SmtpCredentials struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	User      string `json:"user"`
	Pass      string `json:"pass"`
	FromName  string `json:"from_name"`
	FromEmail string `json:"from_email"`
}

// SendPayload is the body POSTed to the external send workflow. The
// idempotency key is deterministic per (campaign, prospect, day) so the
// receiver can drop a duplicate caused by a timeout after acceptance.
type SendPayload struct {
	To             string            `json:"to"`
	Subject        string            `json:"subject"`
	Body           string            `json:"body"`
	ProspectID     int               `json:"prospect_id"`
	CampaignID     int               `json:"campaign_id"`
	SmtpConfig     SmtpCredentials   `json:"smtp_config"`
	Metadata       map[string]string `json:"metadata"`
	IdempotencyKey string            `json:"idempotency_key"`
}

// GenerationPayload is the body POSTed to the AI generation workflow.
type GenerationPayload struct {
	JobID       string `json:"job_id"`
	CampaignID  int    `json:"campaign_id"`
	ProspectIDs []int  `json:"prospect_ids"`
}

// Sender is the outbound surface the processor depends on.
type Sender interface {
	SendEmail(ctx context.Context, payload SendPayload) error
}

// Client posts payloads to the external workflow-automation webhooks.
type Client struct {
	httpClient    *http.Client
	sendURL       string
	generationURL string
}

func NewClient(sendURL, generationURL string, sendTimeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: sendTimeout,
		},
		sendURL:       sendURL,
		generationURL: generationURL,
	}
}

// SendEmail dispatches one send request. Network failures and 5xx responses
// come back as retryable dispatch errors; 4xx responses are terminal.
func (c *Client) SendEmail(ctx context.Context, payload SendPayload) error {
	resp, err := c.post(ctx, c.sendURL, payload)
	if err != nil {
		return appErrors.NewRetryableDispatch("Webhook error", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		return appErrors.NewRetryableDispatch(fmt.Sprintf("Webhook error: status %d", resp.StatusCode), nil)
	default:
		return appErrors.NewTerminalDispatch(fmt.Sprintf("Webhook error: status %d", resp.StatusCode))
	}
}

// RequestGeneration fires a generation request. Callers bound it with their
// own context deadline (30s in the worker).
func (c *Client) RequestGeneration(ctx context.Context, payload GenerationPayload) error {
	resp, err := c.post(ctx, c.generationURL, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("generation webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, url string, payload interface{}) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

var _ Sender = (*Client)(nil)
