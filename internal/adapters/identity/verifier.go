// Package identity talks to the external identity-verification service.
// The service owns the whole challenge/response protocol; this adapter only
// exchanges a browser assertion for a verified email address.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrVerificationFailed is returned when the provider rejects an assertion.
var ErrVerificationFailed = errors.New("identity assertion could not be verified")

// Verifier exchanges an assertion for a verified email address.
type Verifier interface {
	Verify(ctx context.Context, assertion, audience string) (string, error)
}

// HTTPVerifier verifies assertions against a remote verifier endpoint
// (Persona-style: POST {assertion, audience}, receive {status, email}).
type HTTPVerifier struct {
	endpoint string
	client   *http.Client
}

// NewHTTPVerifier creates a verifier client for the given endpoint.
// PRE: endpoint is a valid URL
// POST: Returns a ready-to-use verifier with a bounded request timeout
func NewHTTPVerifier(endpoint string) *HTTPVerifier {
	return &HTTPVerifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type verifyRequest struct {
	Assertion string `json:"assertion"`
	Audience  string `json:"audience"`
}

type verifyResponse struct {
	Status string `json:"status"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// Verify posts the assertion to the remote verifier.
// PRE: assertion and audience are non-empty
// POST: returns the verified email, or ErrVerificationFailed
func (v *HTTPVerifier) Verify(ctx context.Context, assertion, audience string) (string, error) {
	body, err := json.Marshal(verifyRequest{Assertion: assertion, Audience: audience})
	if err != nil {
		return "", fmt.Errorf("encode verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("verifier unreachable: %w", err)
	}
	defer resp.Body.Close()

	var parsed verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode verifier response: %w", err)
	}
	if parsed.Status != "okay" || parsed.Email == "" {
		slog.Info("identity_event", "event", "assertion_rejected", "reason", parsed.Reason)
		return "", ErrVerificationFailed
	}
	return parsed.Email, nil
}

// StaticVerifier treats the assertion itself as the email address. It exists
// for development and tests only; production wiring must use HTTPVerifier.
type StaticVerifier struct{}

// NewStaticVerifier creates a StaticVerifier.
func NewStaticVerifier() *StaticVerifier {
	return &StaticVerifier{}
}

// Verify accepts any assertion shaped like an email address.
func (v *StaticVerifier) Verify(_ context.Context, assertion, _ string) (string, error) {
	if !strings.Contains(assertion, "@") {
		return "", ErrVerificationFailed
	}
	return assertion, nil
}
