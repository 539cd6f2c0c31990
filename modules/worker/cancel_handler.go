package worker

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"creative-gateway/modules/common/config"
	"creative-gateway/modules/common/database"
	"creative-gateway/modules/common/model"
	redisClient "creative-gateway/modules/common/redis"
)

// CancelHandler - job cancellation API
type CancelHandler struct {
	rdb *redis.Client
	db  *database.Client

	fetchJob     func(jobID string) (*model.CreativeJob, error)
	setCancelled func(jobID string) error
}

// NewCancelHandler - handler setup
func NewCancelHandler(db *database.Client) *CancelHandler {
	cfg := config.GetConfig()

	rdb := redisClient.Connect(cfg)
	if rdb == nil {
		log.Println("❌ [CancelHandler] Failed to connect to Redis")
		return nil
	}

	if db == nil {
		log.Println("❌ [CancelHandler] Database client unavailable")
		return nil
	}

	return &CancelHandler{
		rdb:          rdb,
		db:           db,
		fetchJob:     db.FetchJob,
		setCancelled: func(jobID string) error { return redisClient.SetJobCancelled(rdb, jobID) },
	}
}

// RegisterRoutes - route registration
func (h *CancelHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/jobs/{jobId}/cancel", h.CancelJob).Methods("POST", "OPTIONS")
	log.Println("✅ [CancelHandler] Routes registered: POST /api/jobs/{jobId}/cancel")
}

// CancelJob - stop further polling for a queued or running job. The flag is
// only written after the job is confirmed cancellable, so unknown or finished
// jobs never leave a stale flag behind.
func (h *CancelHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	vars := mux.Vars(r)
	jobID := vars["jobId"]

	if jobID == "" {
		http.Error(w, `{"error": "jobId is required"}`, http.StatusBadRequest)
		return
	}

	log.Printf("🛑 [CancelHandler] Cancel requested for job: %s", jobID)

	job, err := h.fetchJob(jobID)
	if err != nil {
		log.Printf("❌ [CancelHandler] Job not found: %s", jobID)
		http.Error(w, `{"error": "Job not found"}`, http.StatusNotFound)
		return
	}

	// Completed or already-cancelled jobs cannot be cancelled again
	if job.JobStatus == model.JobStatusCompleted || job.JobStatus == model.JobStatusUserCancelled {
		log.Printf("⚠️ [CancelHandler] Job already %s: %s", job.JobStatus, jobID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":    false,
			"message":    "Job already " + job.JobStatus,
			"job_id":     jobID,
			"job_status": job.JobStatus,
		})
		return
	}

	if err := h.setCancelled(jobID); err != nil {
		log.Printf("❌ [CancelHandler] Failed to set cancel flag: %v", err)
		http.Error(w, `{"error": "Failed to set cancel flag"}`, http.StatusInternalServerError)
		return
	}

	log.Printf("✅ [CancelHandler] Cancel flag set for job: %s (current status: %s)", jobID, job.JobStatus)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":        true,
		"message":        "Cancel request sent. Polling will stop at the next attempt.",
		"job_id":         jobID,
		"current_status": job.JobStatus,
	})
}
