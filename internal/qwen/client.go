package qwen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voiceforge/voiceforge-api/internal/core"
)

// HTTP headers.
const (
	headerContentType   = "Content-Type"
	headerAuthorization = "Authorization"
	contentTypeJSON     = "application/json"
	bearerPrefix        = "Bearer "
)

// ErrEmptyAudio indicates the provider returned a success status with no
// audio payload.
var ErrEmptyAudio = errors.New("received empty audio data from provider")

// errorResponse is the structured error body some provider deployments
// return on failure.
type errorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// Client dispatches synthesis requests to the configured provider endpoint.
// Dispatch is single-attempt and fail-fast: no automatic retries.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// NewClient creates a provider client. The baseURL may be a full synthesis
// path, a versioned API root, or a bare host; see ResolveEndpoint. The API
// key is optional and, when set, is sent as a bearer credential.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		endpoint: ResolveEndpoint(baseURL),
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Synthesize builds and sends the provider request, returning the raw audio
// bytes. Non-success statuses and transport failures (including timeouts)
// surface as provider errors.
func (c *Client) Synthesize(ctx context.Context, req core.SynthesisRequest) ([]byte, error) {
	payload := BuildRequest(req)

	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal provider request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.endpoint,
		bytes.NewBuffer(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)

	if c.apiKey != "" {
		httpReq.Header.Set(headerAuthorization, bearerPrefix+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &core.ProviderCallError{
			Status: "unreachable",
			Body:   err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, c.parseErrorResponse(resp)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	return audioData, nil
}

// parseErrorResponse decodes a structured JSON error from the provider when
// possible, falling back to the raw body so diagnostics are never lost.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var structured errorResponse

	err := json.Unmarshal(body, &structured)
	if err == nil && structured.Detail != "" {
		detail := structured.Detail
		if structured.ErrorCode != "" {
			detail = fmt.Sprintf("%s (code: %s)", detail, structured.ErrorCode)
		}

		return &core.ProviderCallError{Status: resp.Status, Body: detail}
	}

	return &core.ProviderCallError{Status: resp.Status, Body: string(body)}
}
