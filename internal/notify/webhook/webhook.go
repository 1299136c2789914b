// Package webhook delivers signed job-completion notifications to a
// caller-supplied callback URL.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avschaefer/cloudhire-ai-api/internal/domain/model"
	apperrors "github.com/avschaefer/cloudhire-ai-api/internal/errors"
)

const defaultTimeout = 15 * time.Second

// Config captures webhook signing and delivery behaviour.
type Config struct {
	// Secret is the shared HMAC key. Empty means payloads go out unsigned.
	Secret string
	// KeyID is sent in X-Key-Id so receivers can rotate keys.
	KeyID string
	// Timeout bounds each delivery attempt.
	Timeout time.Duration
	// Client overrides the HTTP client (tests).
	Client *http.Client
}

// Client posts signed completion payloads. Delivery is a single attempt; the
// task dispatcher owns retries of the whole notification path.
type Client struct {
	secret string
	keyID  string
	client *http.Client
	now    func() time.Time
}

// NewClient builds a webhook client. Callers should pass a sanitized config.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		keyID = "go-v1"
	}

	return &Client{
		secret: strings.TrimSpace(cfg.Secret),
		keyID:  keyID,
		client: hc,
		now:    time.Now,
	}
}

// Artifacts lists artifact pointers included in a completion payload.
type Artifacts struct {
	PDFPath string `json:"pdf_path"`
}

// Payload is the full result body delivered to the callback target.
type Payload struct {
	JobID     string              `json:"job_id"`
	AttemptID string              `json:"attempt_id"`
	UserID    string              `json:"user_id"`
	Status    string              `json:"status"`
	Grades    []model.GradeResult `json:"grades"`
	Overall   model.OverallResult `json:"overall"`
	Artifacts Artifacts           `json:"artifacts"`
}

// Send serializes the payload, signs the exact bytes on the wire, and posts
// them to url. Any non-2xx response is an error so the dispatcher can retry.
func (c *Client) Send(ctx context.Context, url string, payload *Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for name, value := range c.SignatureHeaders(body) {
		req.Header.Set(name, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "webhook delivery failed")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.Unavailablef("webhook delivery failed with status %d", resp.StatusCode)
	}
	return nil
}

// SignatureHeaders computes the signing headers for a serialized body. Returns
// an empty map when no secret is configured, in which case the receiver
// decides whether to accept unsigned payloads.
func (c *Client) SignatureHeaders(body []byte) map[string]string {
	if c.secret == "" {
		return map[string]string{}
	}

	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	return map[string]string{
		"X-Signature": "sha256=" + signature,
		"X-Timestamp": strconv.FormatInt(c.now().Unix(), 10),
		"X-Key-Id":    c.keyID,
	}
}
