/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers and access checks.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address for the login rate limiter
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /healthz              Liveness probe
  /metrics              Prometheus metrics
  /api/login            Login (rate limited per client IP)
  /api/*                Participant routes (X-Participant-ID required)
    organization-only:  submit requisitions, record consumption
    authority-only:     catalog, directory, status changes, intake,
                        reports, settings, scenarios
  /*                    Static files (frontend)

STATIC FILE SERVING:
  Serves the built frontend from web/dist/ when present.
  Falls back to index.html for client-side routing.

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Access checks
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", ParticipantHeader},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		if h.LoginLimiter != nil {
			r.With(h.LoginLimiter.Middleware).Post("/login", h.Login)
		} else {
			r.Post("/login", h.Login)
		}

		r.Group(func(r chi.Router) {
			r.Use(h.RequireParticipant)

			r.Get("/me", h.Me)
			r.Get("/products", h.ListProducts)

			// Requisition routes
			r.Route("/requisitions", func(r chi.Router) {
				r.Get("/", h.ListRequisitions)
				r.With(RequireOrganization).Post("/", h.CreateRequisition)
				r.Get("/{id}", h.GetRequisition)
				r.Get("/{id}/transactions", h.GetRequisitionTransactions)

				r.Group(func(r chi.Router) {
					r.Use(RequireAuthority)
					r.Put("/{id}", h.EditRequisition)
					r.Delete("/{id}", h.DeleteRequisition)
					r.Post("/{id}/status", h.SetRequisitionStatus)
				})
			})

			// Stock routes
			r.Route("/stock", func(r chi.Router) {
				r.With(RequireAuthority).Post("/intake", h.AddCentralStock)
				r.With(RequireOrganization).Post("/consumption", h.RecordConsumption)
				r.Get("/{owner}", h.GetWarehouse)
				r.Get("/{owner}/transactions", h.GetStockTransactions)
			})

			// Organization statistics
			r.Get("/reports/summary", h.GetReportSummary)

			// Authority routes
			r.Group(func(r chi.Router) {
				r.Use(RequireAuthority)

				r.Post("/products", h.CreateProduct)
				r.Put("/products/{id}", h.UpdateProduct)
				r.Delete("/products/{id}", h.DeleteProduct)

				r.Route("/organizations", func(r chi.Router) {
					r.Get("/", h.ListOrganizations)
					r.Post("/", h.CreateOrganization)
					r.Put("/{id}", h.UpdateOrganization)
					r.Delete("/{id}", h.DeleteOrganization)
				})

				r.Get("/reports/export.csv", h.ExportReport)
				r.Post("/reports/analysis", h.AnalyzeReport)

				r.Route("/settings/notifier", func(r chi.Router) {
					r.Get("/", h.GetNotifierSettings)
					r.Put("/", h.SaveNotifierSettings)
					r.Post("/test", h.TestNotifierSettings)
				})

				// Scenario routes
				r.Route("/scenarios", func(r chi.Router) {
					r.Get("/", h.ListScenarios)
					r.Get("/current", h.GetCurrentScenario)
					r.Post("/load", h.LoadScenario)
					r.Post("/reset", h.ResetDatabase)
				})
			})
		})
	})

	// Serve static files (frontend)
	staticDir := "./web/dist"
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		// Try relative to executable
		exe, _ := os.Executable()
		staticDir = filepath.Join(filepath.Dir(exe), "web", "dist")
	}

	if _, err := os.Stat(staticDir); err == nil {
		fileServer := http.FileServer(http.Dir(staticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			fullPath := filepath.Join(staticDir, filepath.Clean(r.URL.Path))
			if _, err := os.Stat(fullPath); os.IsNotExist(err) {
				// SPA routing: serve index.html
				http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
				return
			}
			fileServer.ServeHTTP(w, r)
		})
	} else {
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Supply Ledger</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Supply Ledger API</h1>
<p>The frontend is not built. Log in with <code>POST /api/login</code> and send the returned id as <code>X-Participant-ID</code>.</p>
<ul>
<li><code>/api/products</code> - Product catalog</li>
<li><code>/api/requisitions</code> - Requisitions</li>
<li><code>/api/stock/me</code> - Own warehouse</li>
<li><a href="/healthz">/healthz</a> - Health</li>
</ul>
</body>
</html>`))
		})
	}

	return r
}
