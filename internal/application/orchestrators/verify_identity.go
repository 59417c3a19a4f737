package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	"logem/internal/adapters/email"
	"logem/internal/application/sanitize"
)

// VerifyIdentityInput carries a provider-verified email for the domain gate.
type VerifyIdentityInput struct {
	Email string
}

// VerifyIdentityDeps holds dependencies for VerifyIdentity.
type VerifyIdentityDeps struct {
	AllowedDomain string
	AdminEmail    string       // rejection notifications go here; empty disables them
	Notifier      email.Sender // may be nil
}

// VerifyIdentityResult reports the domain gate decision.
type VerifyIdentityResult struct {
	Authorized bool
	Reason     string // populated on rejection
}

// ExecuteVerifyIdentity applies the email-domain gate to an already-verified
// identity. The identity protocol itself belongs to the external provider;
// this decides only whether the verified email may use the tool. Rejections
// are logged and, when a notifier is wired, reported to the admin address.
// Notification failure never affects the result.
// PRE: input.Email was verified by the identity provider
// POST: result.Authorized is true iff the email ends with the allowed domain
func ExecuteVerifyIdentity(ctx context.Context, input VerifyIdentityInput, deps VerifyIdentityDeps) VerifyIdentityResult {
	if sanitize.EndsWith(input.Email, deps.AllowedDomain) {
		slog.Info("auth_event", "event", "login_success", "email", input.Email)
		return VerifyIdentityResult{Authorized: true}
	}

	slog.Info("auth_event", "event", "login_rejected", "email", input.Email, "domain", deps.AllowedDomain)

	if deps.Notifier != nil && deps.AdminEmail != "" {
		_, err := deps.Notifier.Send(ctx, email.SendRequest{
			To:      []string{deps.AdminEmail},
			Subject: "Rejected login attempt",
			HTML: fmt.Sprintf("<p>A verified identity outside %s tried to sign in: %s</p>",
				deps.AllowedDomain, sanitize.Clean(input.Email)),
		})
		if err != nil {
			slog.Error("auth_event", "event", "rejection_notify_failed", "error", err.Error())
		}
	}

	return VerifyIdentityResult{
		Authorized: false,
		Reason:     fmt.Sprintf("Only users with a %s email address may use this tool", deps.AllowedDomain),
	}
}
