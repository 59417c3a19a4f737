package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"

	_ "modernc.org/sqlite"

	emailPkg "logem/internal/adapters/email"
	web "logem/internal/adapters/http"
	"logem/internal/adapters/http/perf"
	"logem/internal/adapters/identity"
	"logem/internal/adapters/storage"
	contributionStore "logem/internal/adapters/storage/contribution"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	env := envOrDefault("LOGEM_ENV", "development")

	// Initialize database with WAL mode, foreign keys, and busy timeout
	dbPath := envOrDefault("LOGEM_DB_PATH", "logem.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}

	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize schema: %v", err)
	}

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector)

	stores := &web.Stores{
		ContributionStore: contributionStore.NewSQLiteStore(timedDB),
	}

	// Identity verification is delegated to the external provider. The
	// audience must match the address in the user's browser bar.
	port := envOrDefault("PORT", "5000")
	host := envOrDefault("LOGEM_HOST", "http://localhost")
	cfg := web.Config{
		Audience:      host + ":" + port,
		AllowedDomain: envOrDefault("LOGEM_ALLOWED_DOMAIN", "mozillafoundation.org"),
		AdminEmail:    os.Getenv("LOGEM_ADMIN_EMAIL"),
	}

	if verifierURL := os.Getenv("LOGEM_VERIFIER_URL"); verifierURL != "" {
		web.SetIdentityVerifier(identity.NewHTTPVerifier(verifierURL))
		log.Println("Identity verifier configured (remote)")
	} else {
		if env == "production" {
			log.Fatal("LOGEM_VERIFIER_URL is required in production")
		}
		web.SetIdentityVerifier(identity.NewStaticVerifier())
		log.Println("Identity verifier configured (static — development only)")
	}

	// Configure email sender for rejected-login notifications
	resendKey := os.Getenv("LOGEM_RESEND_KEY")
	emailFrom := envOrDefault("LOGEM_RESEND_FROM", "Log 'em <noreply@mozillafoundation.org>")
	if resendKey != "" {
		web.SetEmailSender(emailPkg.NewResendSender(resendKey, emailFrom), emailFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		web.SetEmailSender(emailPkg.NewNoopSender(), emailFrom)
		log.Println("Email sender configured (noop — set LOGEM_RESEND_KEY for real delivery)")
	}

	mux := web.NewMux(cfg, "internal/adapters/http/static", stores, collector)

	addr := ":" + port
	log.Printf("logem %s listening on %s (env=%s)", version, addr, env)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
