package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voiceforge/voiceforge-api/internal/auth"
	"github.com/voiceforge/voiceforge-api/internal/core"
)

const testTimeout = 10 * time.Second

func TestHTTPVerifier_Verify_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/auth/v1/user", request.URL.Path)
			assert.Equal(t, "Bearer valid-token", request.Header.Get("Authorization"))

			responseWriter.Header().Set("Content-Type", "application/json")

			err := json.NewEncoder(responseWriter).Encode(map[string]string{
				"id":    "9f1c2a4e-0b7d-4f6a-8c3e-1d2f3a4b5c6d",
				"email": "user@example.com",
			})
			require.NoError(t, err)
		},
	))
	defer server.Close()

	verifier := auth.NewHTTPVerifier(server.URL, testTimeout)

	userID, err := verifier.Verify(context.Background(), "valid-token")
	require.NoError(t, err)
	assert.Equal(t, "9f1c2a4e-0b7d-4f6a-8c3e-1d2f3a4b5c6d", userID)
}

func TestHTTPVerifier_Verify_EmptyToken(t *testing.T) {
	t.Parallel()

	verifier := auth.NewHTTPVerifier("http://unused.example", testTimeout)

	_, err := verifier.Verify(context.Background(), "")
	require.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestHTTPVerifier_Verify_RejectedToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			responseWriter.WriteHeader(http.StatusUnauthorized)
		},
	))
	defer server.Close()

	verifier := auth.NewHTTPVerifier(server.URL, testTimeout)

	_, err := verifier.Verify(context.Background(), "expired-token")
	require.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestHTTPVerifier_Verify_MalformedIdentity(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			_, err := responseWriter.Write([]byte("{"))
			require.NoError(t, err)
		},
	))
	defer server.Close()

	verifier := auth.NewHTTPVerifier(server.URL, testTimeout)

	_, err := verifier.Verify(context.Background(), "token")
	require.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestHTTPVerifier_Verify_MissingUserID(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			_, err := responseWriter.Write([]byte(`{"email":"user@example.com"}`))
			require.NoError(t, err)
		},
	))
	defer server.Close()

	verifier := auth.NewHTTPVerifier(server.URL, testTimeout)

	_, err := verifier.Verify(context.Background(), "token")
	require.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestHTTPVerifier_Verify_ProviderUnreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(http.ResponseWriter, *http.Request) {},
	))
	server.Close()

	verifier := auth.NewHTTPVerifier(server.URL, testTimeout)

	_, err := verifier.Verify(context.Background(), "token")
	require.ErrorIs(t, err, core.ErrUnauthenticated)
}
