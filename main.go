package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"chemequip-cloud/internal/audit"
	"chemequip-cloud/internal/auth"
	"chemequip-cloud/internal/config"
	"chemequip-cloud/internal/equipment/application"
	equipmentrepo "chemequip-cloud/internal/equipment/infrastructure/postgres"
	equipmentinterfaces "chemequip-cloud/internal/equipment/interfaces"
	"chemequip-cloud/internal/observability/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}
	if err := equipmentrepo.EnsureSchema(context.Background(), db); err != nil {
		logger.Fatalf("db schema error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	datasetRepo := equipmentrepo.NewDatasetRepository(db, equipmentrepo.WithRetentionLimit(cfg.RetentionLimit))
	datasetService, err := application.NewDatasetService(datasetRepo, systemClock{}, nil)
	if err != nil {
		logger.Fatalf("dataset service error: %v", err)
	}
	datasetHandler, err := equipmentinterfaces.NewDatasetHandler(datasetService, auditRepo, equipmentinterfaces.WithMaxUploadBytes(cfg.MaxUploadBytes))
	if err != nil {
		logger.Fatalf("dataset handler error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/datasets", datasetHandler)
	mux.Handle("/api/v1/datasets/", datasetHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var handler http.Handler = mux
	if cfg.JWTSecret != "" {
		policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
		handler = auth.NewMiddleware([]byte(cfg.JWTSecret), policy).Wrap(handler)
	}

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(handler, logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
