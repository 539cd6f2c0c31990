package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"creative-gateway/modules/archive"
	"creative-gateway/modules/common/config"
	"creative-gateway/modules/common/database"
	"creative-gateway/modules/creative"
	"creative-gateway/modules/progress"
	"creative-gateway/modules/worker"
)

// enableCORS - CORS middleware
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// healthCheck - health endpoint
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "creative-gateway",
	})
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db := database.NewClient()

	hub := progress.NewHub()

	var archiver creative.Archiver
	if archiveService := archive.NewService(db); archiveService != nil {
		archiver = archiveService
	}

	creativeService := creative.NewService(cfg, hub, archiver)

	r := mux.NewRouter()
	r.Use(enableCORS)

	r.HandleFunc("/", healthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")

	creative.NewHandler(creativeService).RegisterRoutes(r)
	hub.RegisterRoutes(r)

	// Async queue mode needs Redis and Supabase; the synchronous endpoint
	// works without them
	if enqueueHandler := worker.NewEnqueueHandler(db); enqueueHandler != nil {
		enqueueHandler.RegisterRoutes(r)
	}
	if cancelHandler := worker.NewCancelHandler(db); cancelHandler != nil {
		cancelHandler.RegisterRoutes(r)
	}
	if queueWorker := worker.NewWorker(creativeService, db); queueWorker != nil {
		go queueWorker.StartWorker()
	}

	log.Printf("🚀 Creative Gateway starting on port %s", cfg.Port)
	log.Printf("🎨 Generate: http://localhost:%s/api/creative", cfg.Port)
	log.Printf("📡 Progress: ws://localhost:%s/ws/progress/{requestId}", cfg.Port)
	log.Printf("❤️  Health check: http://localhost:%s/health", cfg.Port)

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
