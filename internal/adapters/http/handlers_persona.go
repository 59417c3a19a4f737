package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"logem/internal/adapters/http/middleware"
	"logem/internal/application/orchestrators"
)

// The identity callbacks speak the Persona wire shape: the browser posts a
// JSON assertion, the server answers {"status": "okay"|"failure", ...}.
// Responses are always 200; the client switches on the status field.

type verifyPayload struct {
	Assertion string `json:"assertion"`
}

type identityResponse struct {
	Status string `json:"status"`
	Email  string `json:"email,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func registerIdentityRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/persona/verify", handlePersonaVerify)
	mux.HandleFunc("/persona/logout", handlePersonaLogout)
}

func writeIdentityJSON(w http.ResponseWriter, resp identityResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("internal_error", "error", err.Error())
	}
}

// handlePersonaVerify exchanges a browser assertion for a verified email,
// then applies the domain gate. Only an accepted email authorizes the session.
func handlePersonaVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload verifyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Assertion == "" {
		writeIdentityJSON(w, identityResponse{Status: "failure", Reason: "missing assertion"})
		return
	}

	ctx := r.Context()
	email, err := identityVerifier.Verify(ctx, payload.Assertion, config.Audience)
	if err != nil {
		slog.Info("auth_event", "event", "assertion_rejected", "error", err.Error())
		writeIdentityJSON(w, identityResponse{Status: "failure", Reason: "assertion could not be verified"})
		return
	}

	result := orchestrators.ExecuteVerifyIdentity(ctx,
		orchestrators.VerifyIdentityInput{Email: email},
		orchestrators.VerifyIdentityDeps{
			AllowedDomain: config.AllowedDomain,
			AdminEmail:    config.AdminEmail,
			Notifier:      emailSender,
		})

	sess, _ := middleware.GetSessionFromContext(ctx)
	token, hasToken := middleware.GetTokenFromContext(ctx)

	// The verified email is remembered even when the gate rejects it, so the
	// landing page can say who the visitor is.
	sess.Email = email
	if result.Authorized {
		sess.Authorized = true
	}
	if hasToken {
		sessions.Update(token, sess)
	}

	if !result.Authorized {
		writeIdentityJSON(w, identityResponse{Status: "failure", Reason: result.Reason})
		return
	}
	writeIdentityJSON(w, identityResponse{Status: "okay", Email: email})
}

// handlePersonaLogout drops authorization but keeps the session itself.
func handlePersonaLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	sess, ok := middleware.GetSessionFromContext(ctx)
	if ok && sess.Authorized {
		sess.Authorized = false
		if token, hasToken := middleware.GetTokenFromContext(ctx); hasToken {
			sessions.Update(token, sess)
		}
		slog.Info("auth_event", "event", "logout", "email", sess.Email)
	}

	writeIdentityJSON(w, identityResponse{Status: "okay"})
}
