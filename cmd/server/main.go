package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/certcat/certcat/internal/config"
	"github.com/certcat/certcat/internal/database"
	"github.com/certcat/certcat/internal/handler"
	"github.com/certcat/certcat/internal/mailer"
	"github.com/certcat/certcat/internal/render/assets"
	"github.com/certcat/certcat/internal/render/fonts"
	"github.com/certcat/certcat/internal/render/pdfexport"
	"github.com/certcat/certcat/internal/render/preview"
	"github.com/certcat/certcat/internal/repository"
	"github.com/certcat/certcat/internal/service"
	"github.com/certcat/certcat/internal/storage"
)

// @title           CertCat API
// @version         1.0
// @description     Certificate issuance backend: template editing, bulk generation, email delivery and public verification.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	db := database.Connect(&cfg.Database)
	defer db.Close()

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "./migrations"
	}
	log.Printf("Running migrations from: %s", migrationsPath)
	if err := database.RunMigrations(db, migrationsPath); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	store, err := storage.NewService(&cfg.MinIO)
	if err != nil {
		log.Fatalf("Failed to connect to MinIO: %v", err)
	}
	log.Println("MinIO connected successfully")

	fontTimeout := time.Duration(cfg.Render.FontTimeoutSec) * time.Second
	fontSource := fonts.NewSource(fontTimeout)
	fetcher := assets.NewFetcher(10 * time.Second)
	exporter := pdfexport.New(fontSource, fetcher)
	previewer := preview.New(fontSource, fetcher)
	mail := mailer.New(cfg.SMTP)
	if !mail.Configured() {
		log.Println("SMTP not configured, certificates will generate without email delivery")
	}

	templateRepo := repository.NewTemplateRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)

	templateService := service.NewTemplateService(templateRepo, store)
	editorService := service.NewEditorService(templateService, templateRepo)
	certificateService := service.NewCertificateService(
		certificateRepo, templateService, mail, exporter, previewer, cfg.App.BaseURL,
	)

	router := handler.NewRouter(
		handler.NewTemplateHandler(templateService),
		handler.NewEditorHandler(editorService),
		handler.NewCertificateHandler(certificateService),
		handler.NewUploadHandler(store),
		cfg.JWT.Secret,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.App.Port),
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server listening on port %s (mode: %s)", cfg.App.Port, cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server stopped gracefully")
}
