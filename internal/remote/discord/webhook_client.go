package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/bwmarrin/discordgo"
)

const (
	webhookAttempts = 3
	webhookDelay    = 500 * time.Millisecond
)

// statusError is a non 2xx webhook answer.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("webhook returned %d: %s", e.code, e.body)
}

// temporary reports whether Discord asked to try again later.
func (e *statusError) temporary() bool {
	return e.code == http.StatusTooManyRequests || e.code >= http.StatusInternalServerError
}

type webhookClient struct {
	url      string
	client   *http.Client
	attempts uint
	delay    time.Duration
}

func newWebhookClient(url string) *webhookClient {
	return &webhookClient{
		url:      strings.TrimSpace(url),
		client:   &http.Client{Timeout: 10 * time.Second},
		attempts: webhookAttempts,
		delay:    webhookDelay,
	}
}

func (w *webhookClient) Send(ctx context.Context, content string) error {
	return w.post(ctx, "content", content)
}

func (w *webhookClient) SendEmbed(ctx context.Context, embed *discordgo.MessageEmbed) error {
	payloadJSON, err := json.Marshal(struct {
		Embeds []*discordgo.MessageEmbed `json:"embeds"`
	}{Embeds: []*discordgo.MessageEmbed{embed}})
	if err != nil {
		return fmt.Errorf("failed to serialize webhook embed: %w", err)
	}

	return w.post(ctx, "payload_json", string(payloadJSON))
}

// post sends a single multipart field, rate limits and server errors are
// retried with backoff.
func (w *webhookClient) post(ctx context.Context, field, value string) error {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField(field, value); err != nil {
		return fmt.Errorf("failed to prepare webhook payload: %w", err)
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("failed to finalize webhook payload: %w", err)
	}
	payload := body.Bytes()

	return retry.Do(
		func() error {
			return w.do(ctx, form.FormDataContentType(), payload)
		},
		retry.Context(ctx),
		retry.Attempts(w.attempts),
		retry.Delay(w.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var se *statusError
			return errors.As(err, &se) && se.temporary()
		}),
	)
}

func (w *webhookClient) do(ctx context.Context, contentType string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		respBody, _ := io.ReadAll(resp.Body)
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(respBody))}
	}

	return nil
}
