// Package signer mints and verifies time-limited signed URLs for stored
// audio objects. The backing object store has no native URL signing, so the
// service issues HMAC-signed links served by its own audio fetch route.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Static errors.
var (
	// ErrExpired indicates the link's validity window has passed.
	ErrExpired = errors.New("signed URL expired")
	// ErrBadSignature indicates the signature does not match the key and
	// expiry, i.e. the link was tampered with or signed by another secret.
	ErrBadSignature = errors.New("invalid signature")
	// ErrBadExpiry indicates the expiry parameter is not a unix timestamp.
	ErrBadExpiry = errors.New("invalid expiry")
	// ErrSecretEmpty indicates the signer was constructed without a secret.
	ErrSecretEmpty = errors.New("signing secret cannot be empty")
)

// audioPathPrefix is the route the signed links resolve to.
const audioPathPrefix = "/v1/audio/"

// Signer issues and verifies HMAC-SHA256 signed audio URLs.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// New creates a Signer with the given shared secret.
func New(secret string) (*Signer, error) {
	if secret == "" {
		return nil, ErrSecretEmpty
	}

	return &Signer{
		secret: []byte(secret),
		now:    time.Now,
	}, nil
}

// NewWithClock creates a Signer with an injected clock for tests.
func NewWithClock(secret string, now func() time.Time) (*Signer, error) {
	signer, err := New(secret)
	if err != nil {
		return nil, err
	}

	signer.now = now

	return signer, nil
}

// Sign returns a relative signed URL granting read access to the object key
// until the TTL elapses.
func (s *Signer) Sign(key string, ttl time.Duration) string {
	expiry := s.now().Add(ttl).Unix()
	signature := s.signature(key, expiry)

	return fmt.Sprintf(
		"%s%s?exp=%d&sig=%s",
		audioPathPrefix,
		url.PathEscape(key),
		expiry,
		signature,
	)
}

// Verify checks the expiry and signature for an object key. The signature is
// compared in constant time.
func (s *Signer) Verify(key, expParam, sigParam string) error {
	expiry, err := strconv.ParseInt(expParam, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrBadExpiry, expParam)
	}

	expected := s.signature(key, expiry)
	if !hmac.Equal([]byte(expected), []byte(sigParam)) {
		return ErrBadSignature
	}

	if s.now().Unix() > expiry {
		return ErrExpired
	}

	return nil
}

// signature computes the URL-safe MAC over "key|expiry".
func (s *Signer) signature(key string, expiry int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%d", key, expiry)

	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
