package main

import (
	"fmt"
	"log"

	"veridoc/internal/config"
	"veridoc/internal/handler"
	"veridoc/internal/imagefetch"
	"veridoc/internal/registry"
	"veridoc/internal/repository/postgres"
	"veridoc/internal/router"
	"veridoc/internal/signature"
	"veridoc/internal/signature/gemini"
	s3storage "veridoc/internal/storage/s3"
	"veridoc/internal/validation"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	projectRepo := postgres.NewProjectRepo(db)
	docRepo := postgres.NewDocumentRepo(db)
	refStore := postgres.NewReferenceRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewClient(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize the reference resolver and signature authenticator
	resolver := registry.NewResolver(refStore, s3Client)

	var authenticator *signature.Authenticator
	if cfg.Comparer.APIKey != "" {
		comparer := gemini.NewComparer(&cfg.Comparer)
		fetcher := imagefetch.NewFetcher(s3Client)
		authenticator = signature.NewAuthenticator(comparer, fetcher, signature.Config{
			Concurrency: cfg.Signature.Concurrency,
			MaxRetries:  cfg.Comparer.MaxRetries,
		})
	} else {
		log.Println("main: no comparer API key configured, signature authentication disabled")
	}

	engine := validation.NewEngine(projectRepo, docRepo, resolver, authenticator, s3Client)

	// Initialize handlers
	validationH := handler.NewValidationHandler(engine, docRepo)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(cfg, validationH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
