// File path: internal/whisper/client.go
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/arclight-qa/weldcheck/internal/common"
	"github.com/arclight-qa/weldcheck/internal/common/telemetry"
)

// ErrNotConfigured signals that no OCR credentials were provided and the
// caller should fall back to plain-text input.
var ErrNotConfigured = errors.New("whisper client not configured")

// Client talks to the LLMWhisperer v2 REST API with a small lease pool that
// caps concurrent extractions.
type Client struct {
	cfg        Config
	httpClient *http.Client
	baseURL    string

	pool      chan struct{}
	closing   chan struct{}
	closeOnce sync.Once

	mu        sync.RWMutex
	available bool
}

type submitResponse struct {
	WhisperHash string `json:"whisper_hash"`
	Message     string `json:"message,omitempty"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewClient constructs a client from the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	logger := common.Logger()
	logger.Info("whisper: initializing client", "base_url", cfg.BaseURL, "mode", cfg.Mode, "pool", cfg.MaxConnections)

	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		pool:       make(chan struct{}, cfg.MaxConnections),
		closing:    make(chan struct{}),
	}
	for i := 0; i < cfg.MaxConnections; i++ {
		client.pool <- struct{}{}
	}
	client.setAvailable(true)
	return client, nil
}

// NewFromEnv loads configuration and constructs a client instance. A nil
// client with nil error means OCR is simply not configured.
func NewFromEnv() (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		return nil, nil
	}
	return NewClient(cfg)
}

// Available reports whether the client is ready for use.
func (c *Client) Available() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available
}

// Close releases pool resources; in-flight leases drain naturally.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		close(c.closing)
		c.setAvailable(false)
		c.httpClient.CloseIdleConnections()
	})
	return nil
}

// ExtractText submits a PDF document for OCR, polls until the whisper job
// completes, and returns the layout-preserving text.
func (c *Client) ExtractText(ctx context.Context, document []byte) (string, error) {
	if c == nil {
		return "", ErrNotConfigured
	}
	if len(document) == 0 {
		return "", errors.New("empty document")
	}
	release, err := c.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	spanCtx, finish := telemetry.StartSpan(ctx, "whisper.extract")
	defer finish()

	hash, err := c.submit(spanCtx, document)
	if err != nil {
		return "", err
	}
	logger := common.Logger()
	logger.Info("whisper: job submitted", "hash", hash)

	if err := c.waitProcessed(spanCtx, hash); err != nil {
		return "", err
	}
	return c.retrieve(spanCtx, hash)
}

func (c *Client) submit(ctx context.Context, document []byte) (string, error) {
	start := time.Now()
	endpoint := fmt.Sprintf("%s/whisper?mode=%s&output_mode=%s",
		c.baseURL, url.QueryEscape(c.cfg.Mode), url.QueryEscape(c.cfg.OutputMode))
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(document))
	if err != nil {
		return "", fmt.Errorf("build whisper request: %w", err)
	}
	request.Header.Set("unstract-key", c.cfg.APIKey)
	request.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(request)
	telemetry.RecordWhisperCall("submit", time.Since(start))
	if err != nil {
		c.setAvailable(false)
		return "", fmt.Errorf("whisper request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.setAvailable(false)
		return "", fmt.Errorf("whisper submit failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var sr submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("decode whisper response: %w", err)
	}
	if strings.TrimSpace(sr.WhisperHash) == "" {
		return "", errors.New("whisper submit returned no hash")
	}
	c.setAvailable(true)
	return sr.WhisperHash, nil
}

func (c *Client) waitProcessed(ctx context.Context, hash string) error {
	deadline := time.Now().Add(c.cfg.PollTimeout)
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()
	for {
		status, err := c.status(ctx, hash)
		if err != nil {
			return err
		}
		switch status {
		case "processed":
			return nil
		case "unknown", "error":
			return fmt.Errorf("whisper extraction failed: status %q", status)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("whisper extraction timed out after %s", c.cfg.PollTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closing:
			return errors.New("whisper client closed")
		case <-ticker.C:
		}
	}
}

func (c *Client) status(ctx context.Context, hash string) (string, error) {
	start := time.Now()
	endpoint := fmt.Sprintf("%s/whisper-status?whisper_hash=%s", c.baseURL, url.QueryEscape(hash))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build status request: %w", err)
	}
	request.Header.Set("unstract-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(request)
	telemetry.RecordWhisperCall("status", time.Since(start))
	if err != nil {
		return "", fmt.Errorf("whisper status failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("whisper status failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var sr statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("decode whisper status: %w", err)
	}
	return strings.ToLower(strings.TrimSpace(sr.Status)), nil
}

func (c *Client) retrieve(ctx context.Context, hash string) (string, error) {
	start := time.Now()
	endpoint := fmt.Sprintf("%s/whisper-retrieve?whisper_hash=%s&text_only=true", c.baseURL, url.QueryEscape(hash))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build retrieve request: %w", err)
	}
	request.Header.Set("unstract-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(request)
	telemetry.RecordWhisperCall("retrieve", time.Since(start))
	if err != nil {
		return "", fmt.Errorf("whisper retrieve failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("whisper retrieve failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read extracted text: %w", err)
	}
	return string(text), nil
}

func (c *Client) setAvailable(ready bool) {
	c.mu.Lock()
	c.available = ready
	c.mu.Unlock()
}

func (c *Client) acquire(ctx context.Context) (func(), error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closing:
		return nil, errors.New("whisper client closed")
	case <-c.pool:
		var once sync.Once
		return func() {
			once.Do(func() {
				select {
				case c.pool <- struct{}{}:
				default:
				}
			})
		}, nil
	}
}
