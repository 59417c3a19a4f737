package web

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"logem/internal/adapters/email"
	"logem/internal/adapters/http/middleware"
	"logem/internal/adapters/http/perf"
	"logem/internal/adapters/identity"
	contributionStore "logem/internal/adapters/storage/contribution"
)

// Stores holds all storage dependencies.
type Stores struct {
	ContributionStore contributionStore.Store
}

// Config carries the deployment settings the HTTP layer needs.
type Config struct {
	// Audience is the scheme://host:port the identity provider must see.
	// It has to match the address in the user's browser bar.
	Audience string
	// AllowedDomain is the email domain admitted past the login gate.
	AllowedDomain string
	// AdminEmail receives rejected-login notifications. Empty disables them.
	AdminEmail string
}

// loadKey reads a 32-byte hex-encoded secret from the named env var.
// In production, the key MUST be set. In development, a random key is
// generated per startup.
func loadKey(envVar string) []byte {
	if keyHex := os.Getenv(envVar); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatalf("%s must be 64 hex characters (32 bytes)", envVar)
		}
		return key
	}
	if os.Getenv("LOGEM_ENV") == "production" {
		log.Fatalf("%s is required in production", envVar)
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate %s: %v", envVar, err)
	}
	log.Printf("WARNING: using random %s (sessions won't survive restart). Set it for production.", envVar)
	return key
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// Global config (set by NewMux)
var config Config

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Global identity verifier instance (set by SetIdentityVerifier)
var identityVerifier identity.Verifier

// Global email sender instance (set by SetEmailSender)
var emailSender email.Sender

// Email configuration
var emailFromAddress string

// SetIdentityVerifier sets the identity verifier for the login callbacks.
func SetIdentityVerifier(v identity.Verifier) {
	identityVerifier = v
}

// SetEmailSender sets the email sender used for rejected-login notifications.
func SetEmailSender(sender email.Sender, from string) {
	emailSender = sender
	emailFromAddress = from
}

// NewMux wires HTTP handlers for the app.
func NewMux(cfg Config, staticDir string, s *Stores, collector *perf.Collector) http.Handler {
	stores = s
	config = cfg
	perfCollector = collector
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = os.Getenv("LOGEM_ENV") == "production"

	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	registerRoutes(mux)

	// Cookie secrets: the cookie secret signs the session cookie, the
	// session secret encrypts its payload.
	codec := middleware.NewCookieCodec(loadKey("LOGEM_COOKIE_SECRET"), loadKey("LOGEM_SESSION_SECRET"))

	// CSRF key: 32-byte hex-encoded secret from env var
	csrfKey := loadKey("LOGEM_CSRF_KEY")

	// gorilla/csrf matches trusted origins by host, not full URL
	trustedOrigins := []string{}
	if u, err := url.Parse(cfg.Audience); err == nil && u.Host != "" {
		trustedOrigins = append(trustedOrigins, u.Host)
	}

	// Rate limiter: configurable requests per second per IP
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey, trustedOrigins),
		middleware.Auth(sessions, codec),
		middleware.RateLimit(limiter),
		middleware.Timing(collector),
	)
}
