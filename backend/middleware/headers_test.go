package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func htmlHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(status)
		w.Write([]byte("<html><body>ok</body></html>"))
	})
}

func serve(t *testing.T, h http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// RED: Test that defaults are applied to a 200 HTML response
func TestHeaderFilter_DefaultsOnHTML(t *testing.T) {
	filter := NewHeaderFilter(nil)
	rec := serve(t, filter.Wrap(htmlHandler(http.StatusOK)))

	expected := map[string]string{
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains; preload",
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"Referrer-Policy":           "strict-origin-when-cross-origin",
		"Content-Security-Policy":   "default-src 'self';base-uri 'self';font-src 'self' https: data:;form-action 'self';frame-ancestors 'none';object-src 'none';script-src 'self';style-src 'self' 'unsafe-inline' https:;upgrade-insecure-requests;block-all-mixed-content",
	}
	for name, value := range expected {
		if got := rec.Header().Get(name); got != value {
			t.Errorf("Expected %s: %q, got %q", name, value, got)
		}
	}
	if got := rec.Header().Get("Content-Security-Policy-Report-Only"); got != "" {
		t.Errorf("Report-Only header should be absent, got %q", got)
	}
}

// RED: Test that JSON responses are left untouched
func TestHeaderFilter_SkipsJSON(t *testing.T) {
	filter := NewHeaderFilter(nil)
	rec := serve(t, filter.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	})))

	for _, name := range []string{
		"Strict-Transport-Security",
		"X-Content-Type-Options",
		"X-Frame-Options",
		"Referrer-Policy",
		"Content-Security-Policy",
		"Content-Security-Policy-Report-Only",
	} {
		if got := rec.Header().Get(name); got != "" {
			t.Errorf("JSON response should not carry %s, got %q", name, got)
		}
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Status should be unchanged, got %d", rec.Code)
	}
	if rec.Body.String() != `{"ok":true}` {
		t.Errorf("Body should be unchanged, got %q", rec.Body.String())
	}
}

// RED: Test that redirects are left untouched regardless of Content-Type
func TestHeaderFilter_SkipsRedirect(t *testing.T) {
	filter := NewHeaderFilter(nil)
	rec := serve(t, filter.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Location", "/elsewhere")
		w.WriteHeader(http.StatusFound)
	})))

	if rec.Code != http.StatusFound {
		t.Errorf("Expected 302, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "" {
		t.Errorf("302 should not be decorated, got X-Frame-Options=%q", got)
	}
}

// RED: Test that 5xx HTML error pages are left untouched
func TestHeaderFilter_SkipsServerError(t *testing.T) {
	filter := NewHeaderFilter(nil)
	rec := serve(t, filter.Wrap(htmlHandler(http.StatusInternalServerError)))

	if got := rec.Header().Get("Content-Security-Policy"); got != "" {
		t.Errorf("500 should not be decorated, got CSP=%q", got)
	}
}

// RED: Test that a missing Content-Type means no injection
func TestHeaderFilter_SkipsMissingContentType(t *testing.T) {
	filter := NewHeaderFilter(nil)
	rec := serve(t, filter.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	})))

	if got := rec.Header().Get("X-Frame-Options"); got != "" {
		t.Errorf("Response without Content-Type should not be decorated, got %q", got)
	}
}

// Content-Type values with parameters still contain "text/html"
func TestHeaderFilter_MatchesCharsetSuffix(t *testing.T) {
	filter := NewHeaderFilter(nil)
	rec := serve(t, filter.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html></html>"))
	})))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("charset-qualified HTML should be decorated, got %q", got)
	}
}

// Implicit 200 via Write still counts as eligible when Content-Type is set
func TestHeaderFilter_ImplicitWriteHeader(t *testing.T) {
	filter := NewHeaderFilter(nil)
	rec := serve(t, filter.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	})))

	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("Implicit 200 HTML should be decorated, got %q", got)
	}
}

// RED: Test that a configured override replaces one default and keeps the rest
func TestHeaderFilter_Override(t *testing.T) {
	filter := NewHeaderFilter(HeaderOptions{"X-Frame-Options": "SAMEORIGIN"})
	rec := serve(t, filter.Wrap(htmlHandler(http.StatusOK)))

	if got := rec.Header().Get("X-Frame-Options"); got != "SAMEORIGIN" {
		t.Errorf("Expected X-Frame-Options: SAMEORIGIN, got %q", got)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("Other defaults should be unchanged, got %q", got)
	}
	if got := rec.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains; preload" {
		t.Errorf("Other defaults should be unchanged, got %q", got)
	}
}

// RED: Test that unknown option keys become custom headers
func TestHeaderFilter_CustomHeader(t *testing.T) {
	filter := NewHeaderFilter(HeaderOptions{"Permissions-Policy": "camera=(), microphone=()"})
	rec := serve(t, filter.Wrap(htmlHandler(http.StatusOK)))

	if got := rec.Header().Get("Permissions-Policy"); got != "camera=(), microphone=()" {
		t.Errorf("Custom header should be injected, got %q", got)
	}
}

// RED: Test that a custom CSP replaces the default without going report-only
func TestHeaderFilter_CustomCSP(t *testing.T) {
	filter := NewHeaderFilter(HeaderOptions{"content_security_policy": "default-src 'none'"})
	rec := serve(t, filter.Wrap(htmlHandler(http.StatusOK)))

	if got := rec.Header().Get("Content-Security-Policy"); got != "default-src 'none'" {
		t.Errorf("Expected custom CSP, got %q", got)
	}
	if got := rec.Header().Get("Content-Security-Policy-Report-Only"); got != "" {
		t.Errorf("Report-Only header should be absent, got %q", got)
	}
}

// RED: Test report-only mode delivers exactly one CSP-family header
func TestHeaderFilter_ReportOnly(t *testing.T) {
	filter := NewHeaderFilter(HeaderOptions{"report_only": true})
	rec := serve(t, filter.Wrap(htmlHandler(http.StatusOK)))

	want := "default-src 'self';base-uri 'self';font-src 'self' https: data:;form-action 'self';frame-ancestors 'none';object-src 'none';script-src 'self';style-src 'self' 'unsafe-inline' https:;upgrade-insecure-requests;block-all-mixed-content"
	if got := rec.Header().Get("Content-Security-Policy-Report-Only"); got != want {
		t.Errorf("Expected default CSP in report-only header, got %q", got)
	}
	if got := rec.Header().Get("Content-Security-Policy"); got != "" {
		t.Errorf("Enforcing CSP header should be absent in report-only mode, got %q", got)
	}
}

func TestHeaderFilter_ReportOnlyCustomCSP(t *testing.T) {
	filter := NewHeaderFilter(HeaderOptions{
		"content_security_policy": "default-src 'none'",
		"report_only":             true,
	})
	rec := serve(t, filter.Wrap(htmlHandler(http.StatusOK)))

	if got := rec.Header().Get("Content-Security-Policy-Report-Only"); got != "default-src 'none'" {
		t.Errorf("Expected custom CSP in report-only header, got %q", got)
	}
	if got := rec.Header().Get("Content-Security-Policy"); got != "" {
		t.Errorf("Enforcing CSP header should be absent, got %q", got)
	}
}

// RED: Test that inner-handler values lose on collision
func TestHeaderFilter_OverwritesInnerHandler(t *testing.T) {
	filter := NewHeaderFilter(nil)
	rec := serve(t, filter.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("X-Frame-Options", "ALLOWALL")
		w.Header().Set("Content-Security-Policy", "default-src *")
		w.WriteHeader(http.StatusOK)
	})))

	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("Filter policy should win over handler value, got %q", got)
	}
	if got := rec.Header().Get("Content-Security-Policy"); got == "default-src *" {
		t.Error("Handler CSP should have been overwritten")
	}
	if got := rec.Header().Values("X-Frame-Options"); len(got) != 1 {
		t.Errorf("Injection must overwrite, not append: %v", got)
	}
}

// RED: Test construction never fails, whatever the option shapes are
func TestNewHeaderFilter_AcceptsAnyShape(t *testing.T) {
	options := []HeaderOptions{
		nil,
		{},
		{"report_only": "yes"},                // wrong type, treated as false
		{"content_security_policy": 42},       // wrong type, default kept
		{"X-Custom-Count": 7},                 // non-string value stringified
		{"content_security_policy": "", "report_only": false},
	}

	for _, opts := range options {
		filter := NewHeaderFilter(opts)
		if filter == nil {
			t.Fatalf("NewHeaderFilter returned nil for %v", opts)
		}
		rec := serve(t, filter.Wrap(htmlHandler(http.StatusOK)))
		if rec.Code != http.StatusOK {
			t.Errorf("Wrapped handler broken for opts %v, got %d", opts, rec.Code)
		}
	}

	filter := NewHeaderFilter(HeaderOptions{"X-Custom-Count": 7})
	rec := serve(t, filter.Wrap(htmlHandler(http.StatusOK)))
	if got := rec.Header().Get("X-Custom-Count"); got != "7" {
		t.Errorf("Non-string override should be stringified, got %q", got)
	}

	filter = NewHeaderFilter(HeaderOptions{"report_only": "yes"})
	rec = serve(t, filter.Wrap(htmlHandler(http.StatusOK)))
	if got := rec.Header().Get("Content-Security-Policy"); got == "" {
		t.Error("Non-bool report_only should fall back to enforcing delivery")
	}
}

// RED: Test idempotence — double wrapping equals single wrapping
func TestHeaderFilter_Idempotent(t *testing.T) {
	filter := NewHeaderFilter(HeaderOptions{"X-Frame-Options": "SAMEORIGIN"})

	once := serve(t, filter.Wrap(htmlHandler(http.StatusOK)))
	twice := serve(t, filter.Wrap(filter.Wrap(htmlHandler(http.StatusOK))))

	for name, values := range once.Header() {
		got := twice.Header().Values(name)
		if len(got) != len(values) {
			t.Errorf("Header %s differs after double wrap: %v vs %v", name, got, values)
			continue
		}
		for i := range values {
			if got[i] != values[i] {
				t.Errorf("Header %s differs after double wrap: %v vs %v", name, got, values)
			}
		}
	}
	for name := range twice.Header() {
		if len(once.Header().Values(name)) == 0 {
			t.Errorf("Double wrap added unexpected header %s", name)
		}
	}
}

// Statuses across the 2xx boundary
func TestHeaderFilter_StatusRange(t *testing.T) {
	filter := NewHeaderFilter(nil)
	cases := []struct {
		status   int
		injected bool
	}{
		{199, false},
		{200, true},
		{204, true},
		{299, true},
		{300, false},
		{404, false},
	}

	for _, tc := range cases {
		rec := serve(t, filter.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(tc.status)
		})))
		got := rec.Header().Get("X-Content-Type-Options") != ""
		if got != tc.injected {
			t.Errorf("Status %d: injected=%v, expected %v", tc.status, got, tc.injected)
		}
	}
}

// The substring match is case-sensitive, like the values handlers actually set
func TestHeaderFilter_CaseSensitiveContentType(t *testing.T) {
	filter := NewHeaderFilter(nil)
	rec := serve(t, filter.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "TEXT/HTML")
		w.WriteHeader(http.StatusOK)
	})))

	if got := rec.Header().Get("X-Frame-Options"); got != "" {
		t.Errorf("Uppercase content type should not match, got %q", got)
	}
}
