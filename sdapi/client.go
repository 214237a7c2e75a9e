// Package sdapi builds and dispatches requests against a Stable Diffusion
// WebUI style HTTP backend.
//
// client.go contains the Client organism: one POST per invocation, a
// configured timeout, and typed error classification. There is no retry;
// re-issuing the command is the user's retry.
package sdapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"paintbot/logging"
)

// Client dispatches generation requests. Safe for concurrent use; every
// call builds its own HTTP request.
type Client struct {
	httpClient *http.Client
	endpoint   string
	headers    map[string]string
	timeout    time.Duration
	logger     *logging.Logger
}

// ClientConfig configures the generation Client.
type ClientConfig struct {
	// Endpoint is the fixed backend POST URL. Required.
	Endpoint string

	// Headers are sent verbatim on every request (auth tokens and the
	// like). Content-Type is always set by the client itself.
	Headers map[string]string

	// Timeout bounds the whole call: connect, write, and read.
	// Default: 60s.
	Timeout time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// NewClient creates a generation Client.
func NewClient(cfg ClientConfig, logger *logging.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("sdapi: endpoint is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		httpClient: httpClient,
		endpoint:   cfg.Endpoint,
		headers:    cfg.Headers,
		timeout:    timeout,
		logger:     logger.Named("sdapi"),
	}, nil
}

// Generate issues exactly one POST with the serialized request and returns
// the decoded image payloads on success.
//
// All failures come back as *Error with a classified kind. The payload list
// is returned unmodified; an empty list on a 2xx response is a backend
// contract violation and classified as KindUnknown.
func (c *Client) Generate(ctx context.Context, req GenerationRequest) ([][]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, newError(KindUnknown, fmt.Errorf("encode request: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, newError(KindUnknown, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for name, value := range c.headers {
		httpReq.Header.Set(name, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		classified := classifyTransport(err)
		c.logger.Warn("backend call failed",
			zap.String("kind", string(classified.Kind)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, classified
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(resp.StatusCode, respBody)
	}

	var decoded generationResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, newError(KindUnknown, fmt.Errorf("decode response: %w", err))
	}
	if len(decoded.Images) == 0 {
		return nil, newError(KindUnknown, errors.New("backend returned no images"))
	}

	images := make([][]byte, 0, len(decoded.Images))
	for i, payload := range decoded.Images {
		raw, err := decodeImagePayload(payload)
		if err != nil {
			return nil, newError(KindUnknown, fmt.Errorf("decode image %d: %w", i, err))
		}
		images = append(images, raw)
	}

	c.logger.Debug("backend call succeeded",
		zap.Int("images", len(images)),
		zap.Duration("elapsed", time.Since(start)))
	return images, nil
}

// classifyStatus maps a non-2xx response to a typed error. A parseable
// structured error body wins; HTTP 402 is the backend's payment-required
// answer for an exhausted account; everything else keeps its status code.
func classifyStatus(status int, body []byte) *Error {
	var backendErr backendErrorBody
	if err := json.Unmarshal(body, &backendErr); err == nil && backendErr.Message != "" {
		return &Error{Kind: KindBackendMessage, Status: status, Message: backendErr.Message}
	}
	if status == http.StatusPaymentRequired {
		return &Error{Kind: KindUnauthorized, Status: status}
	}
	return &Error{Kind: KindBackendStatus, Status: status}
}

// classifyTransport maps a request/read error to a typed error.
func classifyTransport(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newError(KindTimeout, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return newError(KindTransport, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return newError(KindTransport, err)
	}
	return newError(KindUnknown, err)
}

// decodeImagePayload decodes one base64 image, tolerating a data-URL prefix.
func decodeImagePayload(payload string) ([]byte, error) {
	if idx := strings.Index(payload, ","); idx >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}
	return base64.StdEncoding.DecodeString(payload)
}
