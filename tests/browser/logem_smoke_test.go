package browser_test

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/playwright-community/playwright-go"
)

// TestAnonymousVisitorIsGated checks that a protected page bounces an
// anonymous browser back to the landing page.
func TestAnonymousVisitorIsGated(t *testing.T) {
	app := newTestApp(t)
	page := app.newPage(t)

	if _, err := page.Goto(app.BaseURL + "/log-em"); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if err := page.WaitForURL(app.BaseURL+"/", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("expected redirect to landing page: %v", err)
	}

	content, err := page.Locator("main").TextContent()
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	if !strings.Contains(content, "Sign in") {
		t.Errorf("landing page missing sign-in prompt: %q", content)
	}
}

// TestLogAndDeleteFlow signs in, logs a contribution through the form,
// verifies it appears in the recent list, then deletes it.
func TestLogAndDeleteFlow(t *testing.T) {
	app := newTestApp(t)
	page := app.newPage(t)
	app.login(t, page)

	// A signed-in visit to the landing page lands on the form.
	if _, err := page.Goto(app.BaseURL + "/"); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if err := page.WaitForURL(app.BaseURL+"/log-em", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("expected redirect to the form: %v", err)
	}

	if err := page.Locator("input[name=contributor]").Fill("alex"); err != nil {
		t.Fatalf("fill contributor: %v", err)
	}
	if err := page.Locator("input[name=date]").Fill("2024-03-02"); err != nil {
		t.Fatalf("fill date: %v", err)
	}
	if err := page.Locator("input[name=team]").Fill("webmaker"); err != nil {
		t.Fatalf("fill team: %v", err)
	}
	if err := page.Locator("input[name=bucket]").Fill("code"); err != nil {
		t.Fatalf("fill bucket: %v", err)
	}
	if err := page.Locator("button[type=submit]").Click(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := page.WaitForURL(app.BaseURL+"/log-em#logged", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("expected post-submit redirect: %v", err)
	}

	recent, err := page.Locator(".recent").TextContent()
	if err != nil {
		t.Fatalf("read recent list: %v", err)
	}
	if !strings.Contains(recent, "alex") {
		t.Errorf("recent list missing new entry: %q", recent)
	}

	if err := page.Locator(".recent a:has-text('delete')").First().Click(); err != nil {
		t.Fatalf("click delete: %v", err)
	}
	if err := page.WaitForURL(app.BaseURL+"/log-em#logged", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("expected post-delete redirect: %v", err)
	}

	recent, err = page.Locator(".recent").TextContent()
	if err != nil {
		t.Fatalf("read recent list: %v", err)
	}
	if strings.Contains(recent, "alex") {
		t.Errorf("entry still listed after delete: %q", recent)
	}
}

// TestAggregateAPI logs an entry through the browser and reads it back
// through the unauthenticated counts endpoint.
func TestAggregateAPI(t *testing.T) {
	app := newTestApp(t)
	page := app.newPage(t)
	app.login(t, page)

	if _, err := page.Goto(app.BaseURL + "/log-em"); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if err := page.Locator("input[name=contributor]").Fill("sam"); err != nil {
		t.Fatalf("fill contributor: %v", err)
	}
	if err := page.Locator("input[name=date]").Fill("2024-03-02"); err != nil {
		t.Fatalf("fill date: %v", err)
	}
	if err := page.Locator("input[name=team]").Fill("openbadges"); err != nil {
		t.Fatalf("fill team: %v", err)
	}
	if err := page.Locator("input[name=bucket]").Fill("events"); err != nil {
		t.Fatalf("fill bucket: %v", err)
	}
	if err := page.Locator("button[type=submit]").Click(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := page.WaitForURL(app.BaseURL+"/log-em#logged", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("expected post-submit redirect: %v", err)
	}

	body := httpGetBody(t, app.BaseURL+"/api?date=2024-03-02&team=openbadges&bucket=events")
	for _, fragment := range []string{`"contributions":1`, `"contributors":1`} {
		if !strings.Contains(body, fragment) {
			t.Errorf("api body %q missing %q", body, fragment)
		}
	}

	body = httpGetBody(t, app.BaseURL+"/api?team=openbadges&bucket=events")
	if body != `Missing parameter: "date". Must be in this format: YYYY-MM-DD.` {
		t.Errorf("missing-date body = %q", body)
	}
}

func httpGetBody(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}
