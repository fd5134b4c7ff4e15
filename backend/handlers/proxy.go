package handlers

import (
	"crypto/tls"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/PhilHem/go-secure-headers-proxy/backend/config"
)

var upstreamProxy *httputil.ReverseProxy

// InitProxy builds the reverse proxy for the configured upstream. The proxy
// itself is deliberately oblivious to security headers: the response filter
// wrapping the whole mux decides what, if anything, gets injected.
func InitProxy() error {
	upstreamURL, err := url.Parse(config.C.Upstream)
	if err != nil {
		slog.Error("proxy init failed: invalid upstream URL", "source", "proxy", "error", err.Error())
		return err
	}

	var transport http.RoundTripper
	if config.C.UpstreamSkipVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	upstreamProxy = &httputil.ReverseProxy{
		Transport: transport,
		Director: func(req *http.Request) {
			req.URL.Scheme = upstreamURL.Scheme
			req.URL.Host = upstreamURL.Host
			req.Host = upstreamURL.Host

			// Strip potentially spoofed headers from incoming request
			req.Header.Del("X-Forwarded-Host")
			req.Header.Del("X-Forwarded-Proto")

			slog.Info("proxying request",
				"source", "proxy",
				"method", req.Method,
				"path", req.URL.Path,
				"upstream", upstreamURL.Host,
			)
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("proxy error", "source", "proxy", "error", err.Error())
			http.Error(w, "Upstream unavailable", http.StatusBadGateway)
		},
	}

	slog.Info("proxy initialized", "source", "proxy", "upstream", config.C.Upstream)
	return nil
}

// Proxy forwards requests to the upstream server
func Proxy(w http.ResponseWriter, r *http.Request) {
	upstreamProxy.ServeHTTP(w, r)
}
