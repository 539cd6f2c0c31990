package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/supabase-community/supabase-go"

	"creative-gateway/modules/common/config"
	"creative-gateway/modules/common/model"
)

type Client struct {
	supabase *supabase.Client
}

// NewClient - Supabase-backed persistence client
func NewClient() *Client {
	cfg := config.GetConfig()

	if cfg.SupabaseURL == "" || cfg.SupabaseServiceKey == "" {
		log.Println("⚠️ Supabase not configured, persistence disabled")
		return nil
	}

	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		log.Printf("❌ Failed to create Supabase client: %v", err)
		return nil
	}

	return &Client{
		supabase: supabaseClient,
	}
}

// InsertJob - store a newly enqueued creative job
func (c *Client) InsertJob(ctx context.Context, job *model.CreativeJob) error {
	log.Printf("💾 Storing creative job: %s", job.JobID)

	insertData := map[string]interface{}{
		"job_id":     job.JobID,
		"job_status": job.JobStatus,
		"request":    job.Request,
	}

	_, _, err := c.supabase.From("creative_jobs").
		Insert(insertData, false, "", "", "").
		Execute()

	if err != nil {
		return fmt.Errorf("failed to insert creative job: %w", err)
	}

	log.Printf("✅ Creative job stored: %s", job.JobID)
	return nil
}

// FetchJob - load a creative job by id
func (c *Client) FetchJob(jobID string) (*model.CreativeJob, error) {
	log.Printf("🔍 Fetching creative job: %s", jobID)

	var jobs []model.CreativeJob

	data, _, err := c.supabase.From("creative_jobs").
		Select("*", "exact", false).
		Eq("job_id", jobID).
		Execute()

	if err != nil {
		return nil, fmt.Errorf("failed to query creative_jobs: %w", err)
	}

	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("failed to parse job response: %w", err)
	}

	if len(jobs) == 0 {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}

	job := &jobs[0]
	log.Printf("✅ Job fetched: %s (status: %s)", job.JobID, job.JobStatus)

	return job, nil
}

// UpdateJobStatus - move a job through its lifecycle
func (c *Client) UpdateJobStatus(ctx context.Context, jobID string, status string) error {
	log.Printf("📝 Updating job %s status to: %s", jobID, status)

	updateData := map[string]interface{}{
		"job_status": status,
	}

	if status == model.JobStatusProcessing {
		updateData["started_at"] = "now()"
	} else if status == model.JobStatusCompleted || status == model.JobStatusFailed || status == model.JobStatusUserCancelled {
		updateData["completed_at"] = "now()"
	}

	_, _, err := c.supabase.From("creative_jobs").
		Update(updateData, "", "").
		Eq("job_id", jobID).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	return nil
}

// UpdateJobCompleted - attach the final reconciled response
func (c *Client) UpdateJobCompleted(ctx context.Context, jobID string, result *model.GenerationResponse) error {
	updateData := map[string]interface{}{
		"job_status":   model.JobStatusCompleted,
		"result":       result,
		"completed_at": "now()",
	}

	_, _, err := c.supabase.From("creative_jobs").
		Update(updateData, "", "").
		Eq("job_id", jobID).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	log.Printf("✅ Job %s completed", jobID)
	return nil
}

// UpdateJobFailed - record a hard submission failure
func (c *Client) UpdateJobFailed(ctx context.Context, jobID string, errorMessage string) error {
	updateData := map[string]interface{}{
		"job_status":    model.JobStatusFailed,
		"error_message": errorMessage,
		"completed_at":  "now()",
	}

	_, _, err := c.supabase.From("creative_jobs").
		Update(updateData, "", "").
		Eq("job_id", jobID).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}

	log.Printf("📝 Job %s marked failed: %s", jobID, errorMessage)
	return nil
}

// InsertCreativeAsset - record an archived creative image
func (c *Client) InsertCreativeAsset(ctx context.Context, requestID, filePath string, fileSize int) (int, error) {
	log.Printf("💾 Creating asset record for: %s", filePath)

	insertData := map[string]interface{}{
		"request_id":      requestID,
		"asset_file_path": filePath,
		"asset_file_size": fileSize,
		"asset_file_type": "image/webp",
		"storage_type":    "supabase",
	}

	data, _, err := c.supabase.From("creative_assets").
		Insert(insertData, false, "", "", "").
		Execute()

	if err != nil {
		return 0, fmt.Errorf("failed to insert asset record: %w", err)
	}

	var assets []struct {
		AssetID int `json:"asset_id"`
	}
	if err := json.Unmarshal(data, &assets); err != nil {
		return 0, fmt.Errorf("failed to parse asset response: %w", err)
	}

	if len(assets) == 0 {
		return 0, fmt.Errorf("no asset record returned")
	}

	log.Printf("✅ Asset record created: ID=%d", assets[0].AssetID)
	return assets[0].AssetID, nil
}
