package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"logem/internal/adapters/http/middleware"
	"logem/internal/application/orchestrators"
	"logem/internal/application/projections"
	"logem/internal/application/sanitize"
	"logem/internal/domain/contribution"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// templatesDir is a variable so tests can point it at the package-relative path.
var templatesDir = "internal/adapters/http/templates"

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	email := ""
	authorized := false
	if ok {
		email = sess.Email
		authorized = sess.Authorized
	}

	funcMap := template.FuncMap{
		"currentEmail": func() string { return email },
		"isLoggedIn":   func() bool { return authorized },
		"csrfToken":    func() string { return csrf.Token(r) },
		"renderMarkdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
	}

	layoutPath := filepath.Join(templatesDir, "layout.html")
	pagePath := filepath.Join(templatesDir, templateName)
	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFiles(layoutPath, pagePath)
	if err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tpl.Execute(w, data); err != nil {
		http.Error(w, "Render error: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// restrict wraps a protected handler with the authorization gate.
func restrict(h http.HandlerFunc) http.Handler {
	return middleware.Restrict(sessions)(h)
}

// registerRoutes attaches all application routes to the mux.
// PRE: sessions and stores have been set by NewMux
func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/{$}", handleHome)
	mux.Handle("/log-em", restrict(handleLogEm))
	mux.Handle("/delete", restrict(handleDelete))
	mux.HandleFunc("/api", handleAPI)
	mux.Handle("/status", restrict(handleStatus))
	registerIdentityRoutes(mux)
}

// handleHome is the landing page. Authorized visitors never see it: they are
// sent to the page they originally asked for, or to the logging form.
func handleHome(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())

	if sess.Authorized {
		if sess.TargetURL != "" {
			http.Redirect(w, r, sess.TargetURL, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/log-em", http.StatusSeeOther)
		return
	}

	renderTemplate(w, r, "home.html", map[string]any{
		"CurrentUser": sess.Email,
		"Authorized":  sess.Authorized,
	})
}

// handleLogEm serves the logging form (GET) and accepts a submission (POST).
func handleLogEm(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		handleGetLogEm(w, r)
	case http.MethodPost:
		handlePostLogEm(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func handleGetLogEm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := middleware.GetSessionFromContext(ctx)
	username := strings.TrimSuffix(sess.Email, "@"+config.AllowedDomain)

	data := map[string]any{
		"CurrentUser": sess.Email,
		"Username":    username,
		"Authorized":  sess.Authorized,
		"Team":        "",
		"Type":        "",
		"Description": "",
		"Date":        "",
	}

	// pre-populate fields via URL for repeat use
	q := r.URL.Query()
	if v := q.Get("team"); v != "" {
		data["Team"] = sanitize.Clean(v)
	}
	if v := q.Get("type"); v != "" {
		data["Type"] = sanitize.Clean(v)
	}
	if v := q.Get("description"); v != "" {
		data["Description"] = sanitize.Clean(v)
	}
	if v := q.Get("date"); v != "" {
		data["Date"] = sanitize.Clean(v)
	}

	result, err := projections.QueryGetRecentContributions(ctx,
		projections.GetRecentContributionsQuery{LoggedBy: sess.Email},
		projections.GetRecentContributionsDeps{ContributionStore: stores.ContributionStore})
	if err != nil {
		// The form is still usable without the recency list.
		slog.Error("store_error", "op", "recent_contributions", "error", err.Error())
	}
	data["RecentlyLogged"] = result.Recent

	renderTemplate(w, r, "logem.html", data)
}

func handlePostLogEm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := middleware.GetSessionFromContext(ctx)

	if err := r.ParseForm(); err != nil {
		internalError(w, err)
		return
	}

	input := orchestrators.LogContributionInput{
		ContributorID:    r.PostFormValue("contributor"),
		ContributionDate: r.PostFormValue("date"),
		MofoTeam:         r.PostFormValue("team"),
		DataBucket:       r.PostFormValue("bucket"),
		Description:      r.PostFormValue("description"),
		Type:             r.PostFormValue("type"),
	}

	err := orchestrators.ExecuteLogContribution(ctx, input, sess.Email,
		orchestrators.LogContributionDeps{ContributionStore: stores.ContributionStore})
	if err != nil {
		// Same redirect either way; failures are a server-side signal only.
		slog.Error("store_error", "op", "log_contribution", "error", err.Error())
	}

	http.Redirect(w, r, "/log-em#logged", http.StatusSeeOther)
}

// handleDelete removes one of the caller's own entries, identified by the
// composite key. logged_by always comes from the session.
func handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := middleware.GetSessionFromContext(ctx)
	q := r.URL.Query()

	key := contribution.Key{
		LoggedBy:         sess.Email,
		ContributorID:    q.Get("contributor_id"),
		ContributionDate: q.Get("contribution_date"),
		MofoTeam:         q.Get("mofo_team"),
		DataBucket:       q.Get("data_bucket"),
	}

	err := orchestrators.ExecuteDeleteContribution(ctx, key,
		orchestrators.DeleteContributionDeps{ContributionStore: stores.ContributionStore})
	if err != nil {
		slog.Error("store_error", "op", "delete_contribution", "error", err.Error())
	}

	http.Redirect(w, r, "/log-em#logged", http.StatusSeeOther)
}

// handleAPI is the unauthenticated aggregate-count endpoint. Missing or
// invalid parameters short-circuit with a plain-text hint and a 200, which
// existing consumers depend on.
func handleAPI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	date := ""
	if raw := q.Get("date"); raw != "" {
		if _, err := contribution.ParseDate(raw); err == nil {
			date = raw
		}
	}
	if date == "" {
		fmt.Fprint(w, `Missing parameter: "date". Must be in this format: YYYY-MM-DD.`)
		return
	}

	team := q.Get("team")
	if team == "" {
		fmt.Fprint(w, `Missing parameter: "team". E.g. webmaker, openbadges, opennews, appmaker, sciencelab, engagement`)
		return
	}

	bucket := q.Get("bucket")
	if bucket == "" {
		fmt.Fprint(w, `Missing parameter: "bucket". E.g. code, content, events, training, community, testing, apis`)
		return
	}

	result, err := projections.QueryGetContributorCounts(ctx,
		projections.GetContributorCountsQuery{Date: date, Team: team, Bucket: bucket},
		projections.GetContributorCountsDeps{ContributionStore: stores.ContributionStore})
	if err != nil {
		internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		slog.Error("internal_error", "error", err.Error())
	}
}

// handleStatus reports request and query timings for the last hour.
func handleStatus(w http.ResponseWriter, r *http.Request) {
	if perfCollector == nil {
		http.Error(w, "perf collection disabled", http.StatusServiceUnavailable)
		return
	}

	snapshot := perfCollector.Snapshot(timeNow().Add(-1 * time.Hour))
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		slog.Error("internal_error", "error", err.Error())
	}
}
