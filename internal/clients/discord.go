/**
 * Discord Webhook Client
 *
 * Posts a notification to a Discord webhook. With an image attachment the
 * request is multipart/form-data carrying one file part plus a payload_json
 * part; without one it degrades to a plain JSON post. The allowed_mentions
 * policy is applied platform-side by Discord and is sent with every message.
 */

package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	werrors "github.com/OGFlash/ark-log-watchdog/internal/errors"
)

// AllowedMentions is the Discord allowed_mentions payload.
type AllowedMentions struct {
	Parse []string `json:"parse"`
	Roles []string `json:"roles,omitempty"`
	Users []string `json:"users,omitempty"`
}

type webhookPayload struct {
	Content         string           `json:"content"`
	AllowedMentions *AllowedMentions `json:"allowed_mentions,omitempty"`
}

// Discord posts messages to a single webhook URL.
type Discord struct {
	webhookURL string
	allowed    *AllowedMentions
	httpClient *http.Client
}

// NewDiscord creates a webhook client. allowed may be nil to let Discord
// apply its defaults.
func NewDiscord(webhookURL string, allowed *AllowedMentions) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		allowed:    allowed,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Send posts content, attaching imageBytes as a PNG file when non-empty.
// A non-2xx response is returned as a coded notify error.
func (d *Discord) Send(ctx context.Context, content string, imageBytes []byte, filename string) error {
	if d.webhookURL == "" {
		return werrors.New(werrors.ErrorNotifyFailed, "webhook URL not set", nil)
	}

	payload := webhookPayload{Content: content, AllowedMentions: d.allowed}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return werrors.New(werrors.ErrorNotifyFailed, "failed to marshal payload", err)
	}

	var req *http.Request
	if len(imageBytes) > 0 {
		if filename == "" {
			filename = "image.png"
		}
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)

		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			return werrors.New(werrors.ErrorNotifyFailed, "failed to create file part", err)
		}
		if _, err := part.Write(imageBytes); err != nil {
			return werrors.New(werrors.ErrorNotifyFailed, "failed to write file part", err)
		}
		if err := writer.WriteField("payload_json", string(payloadJSON)); err != nil {
			return werrors.New(werrors.ErrorNotifyFailed, "failed to write payload part", err)
		}
		if err := writer.Close(); err != nil {
			return werrors.New(werrors.ErrorNotifyFailed, "failed to finalize multipart body", err)
		}

		req, err = http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, body)
		if err != nil {
			return werrors.New(werrors.ErrorNotifyFailed, "failed to create request", err)
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(payloadJSON))
		if err != nil {
			return werrors.New(werrors.ErrorNotifyFailed, "failed to create request", err)
		}
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return werrors.New(werrors.ErrorNotifyFailed, "webhook request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return werrors.New(werrors.ErrorNotifyFailed,
			fmt.Sprintf("webhook returned status %d: %s", resp.StatusCode, string(body)), nil)
	}
	return nil
}
