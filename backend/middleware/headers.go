package middleware

import (
	"fmt"
	"net/http"
	"strings"
)

// defaultHeaders is the baseline security header set. Deployments relax or
// extend it through the security section of the config file.
var defaultHeaders = map[string]string{
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains; preload",
	"X-Content-Type-Options":    "nosniff",
	"X-Frame-Options":           "DENY",
	"Referrer-Policy":           "strict-origin-when-cross-origin",
}

// defaultCSP locks pages down to same-origin resources; inline styles stay
// allowed so server-rendered pages keep working.
const defaultCSP = "default-src 'self';base-uri 'self';font-src 'self' https: data:;form-action 'self';frame-ancestors 'none';object-src 'none';script-src 'self';style-src 'self' 'unsafe-inline' https:;upgrade-insecure-requests;block-all-mixed-content"

const (
	cspHeader           = "Content-Security-Policy"
	cspReportOnlyHeader = "Content-Security-Policy-Report-Only"
)

// HeaderOptions configures a HeaderFilter. Two keys are reserved:
// "content_security_policy" (string) replaces the default CSP and
// "report_only" (bool) switches CSP delivery to the report-only header.
// Every other entry is a header-name to header-value override merged over
// the defaults; names not in the default set are added as custom headers.
type HeaderOptions map[string]any

// HeaderFilter injects security headers into successful HTML responses.
// Responses outside 2xx, or without "text/html" in their Content-Type, pass
// through untouched. Injected headers overwrite whatever the inner handler
// set for the same name, so the configured policy always wins.
//
// A filter is immutable after NewHeaderFilter and safe to share across
// concurrent requests.
type HeaderFilter struct {
	headers  map[string]string
	cspName  string
	cspValue string
}

// NewHeaderFilter resolves opts against the defaults, once. It accepts any
// option map, including nil; unknown keys become custom headers, never errors.
func NewHeaderFilter(opts HeaderOptions) *HeaderFilter {
	f := &HeaderFilter{
		headers:  make(map[string]string, len(defaultHeaders)+len(opts)),
		cspName:  cspHeader,
		cspValue: defaultCSP,
	}
	for name, value := range defaultHeaders {
		f.headers[name] = value
	}
	for key, value := range opts {
		switch key {
		case "content_security_policy":
			if s, ok := value.(string); ok {
				f.cspValue = s
			}
		case "report_only":
			if b, ok := value.(bool); ok && b {
				f.cspName = cspReportOnlyHeader
			}
		default:
			if s, ok := value.(string); ok {
				f.headers[key] = s
			} else {
				f.headers[key] = fmt.Sprint(value)
			}
		}
	}
	return f
}

// Wrap decorates next so its eligible responses carry the effective header
// set. The decision is deferred until the response is committed, when both
// the status code and the handler's Content-Type are known.
func (f *HeaderFilter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&headerInjector{ResponseWriter: w, filter: f}, r)
	})
}

// WrapFunc wraps a HandlerFunc
func (f *HeaderFilter) WrapFunc(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.Wrap(next).ServeHTTP(w, r)
	}
}

func (f *HeaderFilter) inject(h http.Header) {
	for name, value := range f.headers {
		h.Set(name, value)
	}
	h.Set(f.cspName, f.cspValue)
}

func eligible(status int, contentType string) bool {
	return status >= 200 && status <= 299 && strings.Contains(contentType, "text/html")
}

// headerInjector intercepts the commit of a response. Headers can only be
// changed before they reach the underlying writer, so the injection happens
// exactly at the first WriteHeader.
type headerInjector struct {
	http.ResponseWriter
	filter      *HeaderFilter
	wroteHeader bool
}

func (w *headerInjector) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		if eligible(code, w.Header().Get("Content-Type")) {
			w.filter.inject(w.Header())
		}
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *headerInjector) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		// Implicit 200; Content-Type counts only if the handler set it.
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(p)
}

func (w *headerInjector) Flush() {
	if fl, ok := w.ResponseWriter.(http.Flusher); ok {
		fl.Flush()
	}
}
