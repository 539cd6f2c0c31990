package worker

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"creative-gateway/modules/common/config"
	"creative-gateway/modules/common/database"
	"creative-gateway/modules/common/model"
	redisClient "creative-gateway/modules/common/redis"
	"creative-gateway/modules/creative"
)

// Worker - Redis queue worker running the creative workflow asynchronously
type Worker struct {
	rdb     *redis.Client
	db      *database.Client
	service *creative.Service

	// Cancel-flag lookup and its watch cadence
	isCancelled         func(jobID string) bool
	cancelCheckInterval time.Duration
}

// NewWorker - Worker setup
func NewWorker(service *creative.Service, db *database.Client) *Worker {
	cfg := config.GetConfig()

	rdb := redisClient.Connect(cfg)
	if rdb == nil {
		log.Println("❌ [Worker] Failed to connect to Redis")
		return nil
	}

	if db == nil {
		log.Println("❌ [Worker] Database client unavailable")
		return nil
	}

	log.Println("✅ [Worker] Initialized successfully")
	return &Worker{
		rdb:     rdb,
		db:      db,
		service: service,
		isCancelled: func(jobID string) bool {
			return redisClient.IsJobCancelled(rdb, jobID)
		},
		cancelCheckInterval: 500 * time.Millisecond,
	}
}

// StartWorker - watch the creative job queue
func (w *Worker) StartWorker() {
	log.Println("🔄 [Worker] Starting creative queue worker...")
	log.Printf("👀 [Worker] Watching queue: %s", redisClient.JobQueueKey)

	ctx := context.Background()

	for {
		// BRPOP - blocking right pop
		result, err := w.rdb.BRPop(ctx, 0, redisClient.JobQueueKey).Result()
		if err != nil {
			log.Printf("❌ [Worker] Redis BRPOP error: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		// result[0] is the queue name, result[1] the job id
		jobID := result[1]
		log.Printf("🎯 [Worker] Received job: %s", jobID)

		go w.processJob(ctx, jobID)
	}
}

// processJob - run one queued creative job to completion
func (w *Worker) processJob(ctx context.Context, jobID string) {
	log.Printf("🚀 [Worker] Processing job: %s", jobID)

	job, err := w.db.FetchJob(jobID)
	if err != nil {
		log.Printf("❌ [Worker] Failed to fetch job %s: %v", jobID, err)
		return
	}

	if job.Request == nil {
		log.Printf("❌ [Worker] Job %s has no request payload", jobID)
		w.db.UpdateJobFailed(ctx, jobID, "Missing request payload")
		return
	}

	if w.isCancelled(jobID) {
		log.Printf("🛑 [Worker] Job %s cancelled before start", jobID)
		w.db.UpdateJobStatus(ctx, jobID, model.JobStatusUserCancelled)
		return
	}

	if err := w.db.UpdateJobStatus(ctx, jobID, model.JobStatusProcessing); err != nil {
		log.Printf("⚠️ [Worker] Failed to update job status: %v", err)
	}

	// The cancel flag cancels the workflow context, which stops the polling
	// loop at its next sleep
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopWatch := w.watchCancelFlag(jobCtx, jobID, cancel)
	defer stopWatch()

	resp, statusCode := w.service.GenerateCreative(jobCtx, job.Request)

	cancelled := w.isCancelled(jobID)

	// Persist the presentable result, placeholder and classification included
	creative.ApplyFallback(resp, w.service.FallbackImageURL(job.Request))
	presentation := creative.Classify(resp, statusCode)
	resp.Presentation = presentation

	switch {
	case cancelled:
		log.Printf("🛑 [Worker] Job %s cancelled by user", jobID)
		w.db.UpdateJobStatus(ctx, jobID, model.JobStatusUserCancelled)

	case presentation == creative.PresentationError:
		errMsg := resp.Error
		if errMsg == "" {
			errMsg = "generation failed"
		}
		log.Printf("❌ [Worker] Job %s failed: %s", jobID, errMsg)
		w.db.UpdateJobFailed(ctx, jobID, errMsg)

	default:
		if err := w.db.UpdateJobCompleted(ctx, jobID, resp); err != nil {
			log.Printf("⚠️ [Worker] Failed to store job result: %v", err)
			return
		}
		log.Printf("✅ [Worker] Job %s completed (presentation: %s)", jobID, presentation)
	}
}

// watchCancelFlag - poll the Redis cancel flag and cancel the workflow
// context once it appears. Returns a stop function.
func (w *Worker) watchCancelFlag(ctx context.Context, jobID string, cancel context.CancelFunc) func() {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(w.cancelCheckInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if w.isCancelled(jobID) {
					log.Printf("🛑 [Worker] Cancel flag detected for job %s", jobID)
					cancel()
					return
				}
			}
		}
	}()

	return func() { close(done) }
}
