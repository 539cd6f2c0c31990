package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"creative-gateway/modules/common/config"
	"creative-gateway/modules/common/database"
	"creative-gateway/modules/common/utils"
)

// Service - downloads a finished creative image, converts it to WebP and
// uploads it to Supabase Storage with an asset record. Best effort: failures
// are logged and never surface to the workflow.
type Service struct {
	httpClient *http.Client
	db         *database.Client
}

func NewService(db *database.Client) *Service {
	cfg := config.GetConfig()

	if !cfg.ArchiveEnabled {
		log.Println("⚠️ [Archive] ARCHIVE_ENABLED not set, archiving disabled")
		return nil
	}
	if db == nil {
		log.Println("⚠️ [Archive] Database client unavailable, archiving disabled")
		return nil
	}

	log.Println("✅ [Archive] Service initialized")
	return &Service{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		db:         db,
	}
}

// Archive - store the generated image for the given request
func (s *Service) Archive(ctx context.Context, requestID, imageURL string) {
	cfg := config.GetConfig()

	log.Printf("📥 [Archive] Downloading image for request %s", requestID)

	imageData, err := s.downloadImage(ctx, imageURL)
	if err != nil {
		log.Printf("⚠️ [Archive] Failed to download image: %v", err)
		return
	}

	log.Printf("📦 [Archive] Downloaded image: %d bytes", len(imageData))

	webpData, err := utils.ConvertToWebP(imageData, 80)
	if err != nil {
		log.Printf("⚠️ [Archive] WebP conversion failed, storing original: %v", err)
		webpData = imageData
	}

	filePath := fmt.Sprintf("%s/%s.webp", time.Now().Format("2006-01-02"), requestID)
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", cfg.SupabaseURL, cfg.ArchiveBucket, filePath)

	log.Printf("📤 [Archive] Uploading to Storage: %s/%s", cfg.ArchiveBucket, filePath)

	uploadReq, err := http.NewRequestWithContext(ctx, "POST", uploadURL, bytes.NewReader(webpData))
	if err != nil {
		log.Printf("⚠️ [Archive] Failed to create upload request: %v", err)
		return
	}

	uploadReq.Header.Set("Authorization", "Bearer "+cfg.SupabaseServiceKey)
	uploadReq.Header.Set("Content-Type", "image/webp")

	uploadResp, err := s.httpClient.Do(uploadReq)
	if err != nil {
		log.Printf("⚠️ [Archive] Upload failed: %v", err)
		return
	}
	defer uploadResp.Body.Close()

	if uploadResp.StatusCode != http.StatusOK && uploadResp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(uploadResp.Body)
		log.Printf("⚠️ [Archive] Upload failed with status %d: %s", uploadResp.StatusCode, string(body))
		return
	}

	assetID, err := s.db.InsertCreativeAsset(ctx, requestID, filePath, len(webpData))
	if err != nil {
		log.Printf("⚠️ [Archive] Failed to create asset record: %v", err)
		return
	}

	log.Printf("✅ [Archive] Creative archived: asset_id=%d, path=%s", assetID, filePath)
}

// downloadImage - fetch the image bytes from the generation service
func (s *Service) downloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
