// Package auth provides the client for the external identity provider. The
// service never validates credentials itself; it forwards the bearer token
// and trusts the provider's answer.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/voiceforge/voiceforge-api/internal/core"
)

// apiUser is the identity provider's user-lookup path.
const apiUser = "/auth/v1/user"

// HTTP headers.
const (
	headerAuthorization = "Authorization"
	headerAccept        = "Accept"
	contentTypeJSON     = "application/json"
	bearerPrefix        = "Bearer "
)

// userResponse is the subset of the identity provider's user payload the
// service needs.
type userResponse struct {
	ID string `json:"id"`
}

// HTTPVerifier resolves bearer tokens against an HTTP identity provider.
type HTTPVerifier struct {
	httpClient *http.Client
	baseURL    string
}

// NewHTTPVerifier creates a verifier for the identity provider at baseURL.
func NewHTTPVerifier(baseURL string, timeout time.Duration) *HTTPVerifier {
	return &HTTPVerifier{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Verify resolves a bearer token to a user id. Any failure (transport,
// non-200 status, or a malformed identity payload) is unauthenticated; the
// provider's internals are not inspected further.
func (v *HTTPVerifier) Verify(ctx context.Context, bearerToken string) (string, error) {
	if bearerToken == "" {
		return "", core.ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		v.baseURL+apiUser,
		http.NoBody,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create identity request: %w", err)
	}

	req.Header.Set(headerAuthorization, bearerPrefix+bearerToken)
	req.Header.Set(headerAccept, contentTypeJSON)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: identity provider unreachable: %w", core.ErrUnauthenticated, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: identity provider returned %s", core.ErrUnauthenticated, resp.Status)
	}

	var user userResponse

	err = json.NewDecoder(resp.Body).Decode(&user)
	if err != nil {
		return "", fmt.Errorf("%w: failed to decode identity response: %w", core.ErrUnauthenticated, err)
	}

	if user.ID == "" {
		return "", core.ErrUnauthenticated
	}

	return user.ID, nil
}
