package core

import (
	"errors"
	"fmt"
	"strings"
)

// Static errors forming the request-failure taxonomy. Handlers map these to
// wire statuses; everything before provider dispatch fails fast and cheap.
var (
	// ErrUnauthenticated indicates a missing or invalid bearer credential.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates the caller may not use the requested voice.
	ErrForbidden = errors.New("access denied to this voice")
	// ErrVoiceNotFound indicates the voice id resolved to nothing.
	ErrVoiceNotFound = errors.New("voice not found")
	// ErrValidation indicates malformed client input.
	ErrValidation = errors.New("invalid request")
	// ErrQuotaExceeded indicates the rolling daily quota is exhausted.
	ErrQuotaExceeded = errors.New("quota_exceeded")
	// ErrProvider indicates the synthesis provider call failed.
	ErrProvider = errors.New("synthesis provider error")
	// ErrStorage indicates the audio artifact store failed.
	ErrStorage = errors.New("storage error")
	// ErrAudioNotFound indicates the requested audio object does not exist.
	ErrAudioNotFound = errors.New("audio not found")
)

// ValidationError enumerates every violated input rule for one request.
type ValidationError struct {
	Violations []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(e.Violations, "; "))
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// QuotaExceededError carries the usage numbers the client needs to render
// upgrade messaging.
type QuotaExceededError struct {
	Used  int
	Limit int
}

// Error implements the error interface.
func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily generation limit reached (%d/%d)", e.Used, e.Limit)
}

// Unwrap lets errors.Is match ErrQuotaExceeded.
func (e *QuotaExceededError) Unwrap() error {
	return ErrQuotaExceeded
}

// ProviderCallError reports a non-success response from the synthesis
// provider, preserving the remote status and body for diagnostics.
type ProviderCallError struct {
	Status string
	Body   string
}

// Error implements the error interface.
func (e *ProviderCallError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrProvider, e.Status, e.Body)
}

// Unwrap lets errors.Is match ErrProvider.
func (e *ProviderCallError) Unwrap() error {
	return ErrProvider
}
