package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/qrtrace/server/internal/analytics"
	"github.com/qrtrace/server/internal/auth"
	"github.com/qrtrace/server/internal/config"
	"github.com/qrtrace/server/internal/db"
	httphandler "github.com/qrtrace/server/internal/http"
	"github.com/qrtrace/server/internal/http/handlers"
	"github.com/qrtrace/server/internal/repo"
	"github.com/qrtrace/server/internal/scan"

	_ "github.com/lib/pq"
)

func main() {
	// .env is optional; real env vars override
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	if err := runMigrations(database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	qrRepo := repo.NewQRCodeRepo(database)
	scanRepo := repo.NewScanRepo(database)
	contactRepo := repo.NewContactRepo(database)

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL)
	recorder := scan.NewRecorder(qrRepo, scanRepo, contactRepo)
	analyticsService := analytics.NewService(qrRepo, scanRepo, contactRepo)

	scanHandler := handlers.NewScanHandler(recorder)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)

	router := httphandler.NewRouter(scanHandler, analyticsHandler, jwtService)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// runMigrations runs database migrations using goose
func runMigrations(database *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	migrationDir := "internal/db/migrations"
	if info, err := os.Stat(migrationDir); err != nil || !info.IsDir() {
		return fmt.Errorf("migrations directory not found (run from the module root)")
	}

	if err := goose.Up(database, migrationDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
