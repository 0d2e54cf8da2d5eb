package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/metricmind/campfuse/internal/cache"
	"github.com/metricmind/campfuse/internal/config"
	"github.com/metricmind/campfuse/internal/db"
	"github.com/metricmind/campfuse/internal/handlers"
	"github.com/metricmind/campfuse/internal/sources"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	srcs, err := sources.Load(cfg.SourcesPath)
	if err != nil {
		log.Fatalf("sources: %v", err)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer database.Close()

	// Schema evolution runs once at startup; a failed migration degrades its
	// feature instead of blocking boot.
	result, err := db.Migrate(database)
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if len(result.Applied) > 0 {
		log.Printf("migrations applied: %s", strings.Join(result.Applied, ", "))
	}
	if len(result.Failed) > 0 {
		log.Printf("migrations failed (dependent features degraded): %s", strings.Join(result.Failed, ", "))
	}

	store, err := db.NewStore(database)
	if err != nil {
		log.Fatalf("schema snapshot: %v", err)
	}

	reportCache := cache.New(cfg.CacheSize, cfg.CacheTTL)

	mappingHandler := &handlers.MappingHandler{
		Store:   store,
		Sources: srcs,
		Cache:   reportCache,
	}
	reportHandler := &handlers.ReportHandler{
		Store:   store,
		Sources: srcs,
		Cache:   reportCache,
	}
	schemaHandler := &handlers.SchemaHandler{Store: store}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(handlers.AuthMiddleware(cfg.APIKey))
		r.Get("/unmapped", mappingHandler.Unmapped)
		r.Get("/mappings", mappingHandler.List)
		r.Post("/mappings", mappingHandler.Upsert)
		r.Delete("/mappings/{id}", mappingHandler.Delete)
		r.Post("/mappings/reorder", mappingHandler.Reorder)
		r.Get("/metrics/unified", reportHandler.Unified)
		r.Get("/metrics/aggregated", reportHandler.Aggregated)
		r.Post("/schema/evolve", schemaHandler.Evolve)
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("campfuse listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	<-stop
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	log.Println("goodbye")
}
