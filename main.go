package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PhilHem/go-secure-headers-proxy/backend/config"
	"github.com/PhilHem/go-secure-headers-proxy/backend/database"
	"github.com/PhilHem/go-secure-headers-proxy/backend/handlers"
	"github.com/PhilHem/go-secure-headers-proxy/backend/logger"
	"github.com/PhilHem/go-secure-headers-proxy/backend/middleware"
)

// Rate limiter for auth endpoints (10 requests per minute)
var authRateLimiter = middleware.NewRateLimiter(10, time.Minute)

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Initialize session store with configured secret and timeout
	if err := handlers.InitSession(); err != nil {
		log.Fatal("Failed to init session:", err)
	}

	if err := database.Init(); err != nil {
		log.Fatal("Failed to init database:", err)
	}

	// Initialize structured logging
	slog.SetDefault(slog.New(logger.NewDBHandler(database.DB)))
	go logger.CleanupOldLogs(database.DB, 48*time.Hour) // Keep logs for 2 days

	// Initialize Proxy
	if err := handlers.InitProxy(); err != nil {
		log.Fatal("Failed to init proxy:", err)
	}

	// CSRF protection for the admin forms, sharing the session secret
	csrf := middleware.NewCSRFProtection(config.C.Session.Secret)
	handlers.CSRFToken = csrf.EnsureToken

	slog.Info("server starting", "source", "main", "listen", config.C.Listen, "public_url", config.C.PublicURL)

	mux := http.NewServeMux()

	// Health check (unauthenticated, for load balancers)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	// Admin auth routes (public, rate limited, CSRF protected)
	mux.HandleFunc("GET /admin/login", handlers.LoginPage)
	mux.HandleFunc("POST /admin/login", csrf.ProtectFunc(authRateLimiter.LimitFunc(handlers.Login)))
	mux.HandleFunc("GET /admin/register", handlers.RegisterPage)
	mux.HandleFunc("POST /admin/register", csrf.ProtectFunc(authRateLimiter.LimitFunc(handlers.Register)))
	mux.HandleFunc("POST /admin/logout", handlers.Logout)

	// Admin root redirects to logs
	mux.HandleFunc("GET /admin/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/logs", http.StatusSeeOther)
	})
	mux.HandleFunc("GET /admin", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/logs", http.StatusSeeOther)
	})

	// Admin logs routes (require local username/password auth)
	mux.HandleFunc("GET /admin/logs", middleware.RequireLocalAuth(handlers.LogsPage))
	mux.HandleFunc("GET /admin/api/logs", middleware.RequireLocalAuth(handlers.GetLogs))
	mux.HandleFunc("GET /admin/api/logs/sources", middleware.RequireLocalAuth(handlers.GetLogSources))
	mux.HandleFunc("GET /admin/api/logs/timeline", middleware.RequireLocalAuth(handlers.GetLogTimeline))
	mux.HandleFunc("GET /admin/api/db/stats", middleware.RequireLocalAuth(handlers.GetDBStats))
	mux.HandleFunc("DELETE /admin/api/logs", middleware.RequireLocalAuth(handlers.DeleteLogs))

	// Reverse proxy - all other routes forward to upstream
	mux.HandleFunc("/", handlers.Proxy)

	// Wrap everything with the response header filter, then metrics.
	// The filter sees proxied and locally rendered responses alike.
	headerFilter := middleware.NewHeaderFilter(config.C.Security.HeaderOptions())
	handler := middleware.Metrics(headerFilter.Wrap(mux))

	fmt.Printf("Server running at %s (public: %s)\n", config.C.Listen, config.C.PublicURL)
	if config.C.TLS.Enabled {
		slog.Info("starting server with TLS", "source", "main")
		log.Fatal(http.ListenAndServeTLS(config.C.Listen, config.C.TLS.Cert, config.C.TLS.Key, handler))
	} else {
		log.Fatal(http.ListenAndServe(config.C.Listen, handler))
	}
}
