package http

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/qrtrace/server/internal/auth"
	"github.com/qrtrace/server/internal/http/handlers"
	"github.com/qrtrace/server/internal/middleware"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(scanHandler *handlers.ScanHandler, analyticsHandler *handlers.AnalyticsHandler, jwtService *auth.JWTService) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.ServeHTTP)

	// Public scan flow, rate limited per client IP
	scanLimiter := middleware.NewRateLimiter(time.Minute, 60)
	r.Route("/api/scan", func(r chi.Router) {
		r.Use(middleware.RateLimit(scanLimiter, middleware.IPKey))
		r.Get("/{qrID}", scanHandler.HandleScan)
		r.Post("/{qrID}/contact", scanHandler.HandleContact)
		r.Get("/{qrID}/vcard", scanHandler.HandleVCard)
	})

	// Admin routes (require valid JWT; services check the admin capability)
	r.Route("/api/analytics", func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtService))
		r.Get("/", analyticsHandler.HandleReport)
		r.Get("/qr/{qrID}/scans", analyticsHandler.HandleQRScans)
		r.Get("/locations", analyticsHandler.HandleLocations)
		r.Get("/contacts", analyticsHandler.HandleContacts)
	})

	return r
}
